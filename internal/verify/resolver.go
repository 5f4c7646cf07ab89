package verify

import (
	"context"
	"errors"
	"net"
	"sort"
	"strings"
	"time"
)

// Resolver answers the DNS questions the pipeline asks about a candidate
// domain: does it resolve, who receives its mail, and does it publish an
// SPF policy. The three lookups are independent and none is retried.
// Lookup functions are injectable so engine tests run without a network.
type Resolver struct {
	timeout    time.Duration
	lookupHost func(ctx context.Context, host string) ([]string, error)
	lookupMX   func(ctx context.Context, domain string) ([]*net.MX, error)
	lookupTXT  func(ctx context.Context, domain string) ([]string, error)
}

// NewResolver builds a resolver backed by net.Resolver with the given
// per-lookup timeout.
func NewResolver(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	nr := &net.Resolver{}
	return &Resolver{
		timeout:    timeout,
		lookupHost: nr.LookupHost,
		lookupMX:   nr.LookupMX,
		lookupTXT:  nr.LookupTXT,
	}
}

// DomainExists reports whether the domain resolves to at least one
// A or AAAA address.
func (r *Resolver) DomainExists(ctx context.Context, domain string) bool {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addrs, err := r.lookupHost(ctx, domain)
	return err == nil && len(addrs) > 0
}

// MailHosts returns the domain's mail exchangers sorted by preference,
// lowest value first. An empty slice with a nil error means the domain
// publishes no exchangers; a non-nil error means the lookup itself failed.
// Callers treat those as different outcomes.
func (r *Resolver) MailHosts(ctx context.Context, domain string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	records, err := r.lookupMX(ctx, domain)
	if err != nil && len(records) == 0 {
		// NXDOMAIN and NODATA mean no exchangers exist, which is an
		// empty set rather than a lookup failure.
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, nil
		}
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Pref < records[j].Pref
	})

	hosts := make([]string, 0, len(records))
	for _, mx := range records {
		host := strings.TrimSuffix(mx.Host, ".")
		if host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts, nil
}

// HasSPF reports whether any TXT record on the domain declares an SPF
// policy (carries the v=spf1 token).
func (r *Resolver) HasSPF(ctx context.Context, domain string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	records, err := r.lookupTXT(ctx, domain)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return false, nil
		}
		return false, err
	}
	for _, txt := range records {
		if strings.Contains(txt, "v=spf1") {
			return true, nil
		}
	}
	return false, nil
}
