package verify

import (
	"context"
	"time"

	"github.com/ignite/mailprobe/internal/domain"
)

// Verifier composes the full pipeline for a single address: syntax, the
// DNS checks, the SPF policy split and the callout across the domain's
// exchangers in preference order. A Verifier is read-only after New and
// safe for concurrent use.
type Verifier struct {
	resolver *Resolver
	registry *Registry
	prober   *Prober

	senderDomain string
	probeTimeout time.Duration
}

// New builds a verifier. senderDomain is the HELO identity presented to
// unregistered exchangers; probeTimeout and dnsTimeout fall back to their
// defaults when zero.
func New(senderDomain string, probeTimeout, dnsTimeout time.Duration) *Verifier {
	if senderDomain == "" {
		senderDomain = "example.com"
	}
	return &Verifier{
		resolver:     NewResolver(dnsTimeout),
		registry:     NewRegistry(),
		prober:       NewProber(),
		senderDomain: senderDomain,
		probeTimeout: probeTimeout,
	}
}

// Verify runs every check for one address. It never returns an error;
// each failure mode lands in the result's reason and its check flags.
// Valid is always the conjunction of the five checks, and mailbox and
// smtp always agree.
func (v *Verifier) Verify(ctx context.Context, email string) domain.VerificationResult {
	res := v.verify(ctx, email)
	res.Valid = res.Checks.AllPassed()
	return res
}

func (v *Verifier) verify(ctx context.Context, email string) domain.VerificationResult {
	res := domain.VerificationResult{Email: email}

	if !ValidSyntax(email) {
		res.Reason = domain.ReasonInvalidFormat
		return res
	}
	host := domainOf(email)

	if !v.resolver.DomainExists(ctx, host) {
		res.Reason = domain.ReasonDomainNotFound
		return res
	}
	res.Checks.DNS = true

	exchangers, err := v.resolver.MailHosts(ctx, host)
	if err != nil {
		res.Reason = domain.ReasonMXLookupFailed
		return res
	}
	if len(exchangers) == 0 {
		res.Reason = domain.ReasonNoMailServer
		return res
	}
	res.Checks.MX = true

	dialect := v.registry.Lookup(host)

	// SPF is mandatory for registered providers, who always publish it,
	// and waived for everyone else.
	found, err := v.resolver.HasSPF(ctx, host)
	switch {
	case found:
		res.Checks.SPF = true
	case dialect == nil:
		res.Checks.SPF = true
	case err != nil:
		res.Reason = domain.ReasonSPFLookupFailed
		return res
	default:
		res.Reason = domain.ReasonMissingSPF
		return res
	}

	if dialect == nil {
		dialect = GenericDialect(v.senderDomain, v.probeTimeout)
	}

	// First exchanger to vouch for the mailbox wins; exhausting the list
	// is a per-address outcome, never an error.
	alive := false
	for _, mx := range exchangers {
		if ctx.Err() != nil {
			break
		}
		if v.prober.Probe(mx, email, dialect) {
			alive = true
			break
		}
	}

	switch {
	case alive:
		res.Checks.Mailbox = true
		res.Checks.SMTP = true
		res.Reason = domain.ReasonValid
	case dialect.LenientFallback:
		// Unregistered exchangers refuse callouts often enough that a
		// failed probe is not evidence of a missing mailbox.
		res.Checks.Mailbox = true
		res.Checks.SMTP = true
		res.Reason = domain.ReasonUnverifiable
	default:
		res.Reason = domain.ReasonMailboxRejected
	}
	return res
}
