package verify

import (
	"strings"
	"time"
)

// Dialect carries the SMTP parameters governing one probe session: the HELO
// identity to present, the session timeout, the response codes that count as
// a mailbox acknowledgement, and whether the lenient fallback rules apply.
// The generic path is simply a dialect with LenientFallback set; there is no
// separate probe code path per provider.
type Dialect struct {
	Name            string
	HeloIdentity    string
	Timeout         time.Duration
	SuccessCodes    map[int]bool
	LenientFallback bool
}

// Registry maps known receiving domains to provider dialects. Matching is a
// case-insensitive exact comparison against each provider's alias list; no
// wildcard or subdomain matching. The registry is read-only after
// construction and safe for concurrent use.
type Registry struct {
	staticMap map[string]*Dialect
}

// NewRegistry creates a registry seeded with the three consumer providers
// whose exchangers answer callouts distinctively enough to warrant their
// own dialect.
func NewRegistry() *Registry {
	r := &Registry{staticMap: make(map[string]*Dialect)}
	r.seedStaticMap()
	return r
}

func (r *Registry) seedStaticMap() {
	gmail := &Dialect{
		Name:         "gmail",
		HeloIdentity: "gmail.com",
		Timeout:      15 * time.Second,
		SuccessCodes: map[int]bool{250: true, 251: true},
	}
	yahoo := &Dialect{
		Name:         "yahoo",
		HeloIdentity: "yahoo.com",
		Timeout:      12 * time.Second,
		SuccessCodes: map[int]bool{250: true, 235: true},
	}
	outlook := &Dialect{
		Name:         "outlook",
		HeloIdentity: "outlook.com",
		Timeout:      10 * time.Second,
		SuccessCodes: map[int]bool{250: true, 220: true},
	}

	for _, d := range []string{"gmail.com", "googlemail.com", "google.com"} {
		r.staticMap[d] = gmail
	}
	for _, d := range []string{"yahoo.com", "ymail.com", "rocketmail.com"} {
		r.staticMap[d] = yahoo
	}
	for _, d := range []string{"outlook.com", "hotmail.com", "live.com", "msn.com"} {
		r.staticMap[d] = outlook
	}
}

// Lookup returns the dialect registered for a receiving domain, or nil when
// the domain is unknown and probing should use the generic dialect.
func (r *Registry) Lookup(domain string) *Dialect {
	return r.staticMap[strings.ToLower(strings.TrimSpace(domain))]
}

// Domains returns all registered domains for a provider name.
func (r *Registry) Domains(name string) []string {
	var domains []string
	for d, dialect := range r.staticMap {
		if dialect.Name == name {
			domains = append(domains, d)
		}
	}
	return domains
}

// GenericDialect builds the lenient dialect used for unregistered domains.
// The HELO identity is the configured sender domain; 250/251/252 acknowledge
// the mailbox and the fallback rules credit ambiguous sessions as valid.
func GenericDialect(senderDomain string, timeout time.Duration) *Dialect {
	if timeout <= 0 {
		timeout = 7 * time.Second
	}
	return &Dialect{
		Name:            "generic",
		HeloIdentity:    senderDomain,
		Timeout:         timeout,
		SuccessCodes:    map[int]bool{250: true, 251: true, 252: true},
		LenientFallback: true,
	}
}
