package verify

import (
	"testing"
	"time"
)

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		name   string
		domain string
		want   string // dialect name, "" for nil
	}{
		{"gmail primary", "gmail.com", "gmail"},
		{"gmail legacy alias", "googlemail.com", "gmail"},
		{"gmail corporate alias", "google.com", "gmail"},
		{"yahoo primary", "yahoo.com", "yahoo"},
		{"yahoo ymail alias", "ymail.com", "yahoo"},
		{"yahoo rocketmail alias", "rocketmail.com", "yahoo"},
		{"outlook primary", "outlook.com", "outlook"},
		{"outlook hotmail alias", "hotmail.com", "outlook"},
		{"outlook live alias", "live.com", "outlook"},
		{"outlook msn alias", "msn.com", "outlook"},
		{"uppercase alias", "GMAIL.COM", "gmail"},
		{"surrounding whitespace", "  yahoo.com  ", "yahoo"},
		{"unknown domain", "example.com", ""},
		{"subdomain of known provider", "mail.gmail.com", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := r.Lookup(tt.domain)
			if tt.want == "" {
				if d != nil {
					t.Errorf("Lookup(%q) = %s, want nil", tt.domain, d.Name)
				}
				return
			}
			if d == nil {
				t.Fatalf("Lookup(%q) = nil, want %s", tt.domain, tt.want)
			}
			if d.Name != tt.want {
				t.Errorf("Lookup(%q) = %s, want %s", tt.domain, d.Name, tt.want)
			}
		})
	}
}

func TestRegistryDialectParameters(t *testing.T) {
	r := NewRegistry()

	gmail := r.Lookup("gmail.com")
	if gmail.HeloIdentity != "gmail.com" || gmail.Timeout != 15*time.Second {
		t.Errorf("gmail dialect = helo %q timeout %v", gmail.HeloIdentity, gmail.Timeout)
	}
	if !gmail.SuccessCodes[250] || !gmail.SuccessCodes[251] || gmail.SuccessCodes[252] {
		t.Errorf("gmail success codes = %v", gmail.SuccessCodes)
	}
	if gmail.LenientFallback {
		t.Error("provider dialects must not use the lenient fallback")
	}

	yahoo := r.Lookup("yahoo.com")
	if yahoo.Timeout != 12*time.Second || !yahoo.SuccessCodes[235] {
		t.Errorf("yahoo dialect = timeout %v codes %v", yahoo.Timeout, yahoo.SuccessCodes)
	}

	outlook := r.Lookup("outlook.com")
	if outlook.Timeout != 10*time.Second || !outlook.SuccessCodes[220] {
		t.Errorf("outlook dialect = timeout %v codes %v", outlook.Timeout, outlook.SuccessCodes)
	}
}

func TestRegistryDomains(t *testing.T) {
	r := NewRegistry()
	if got := r.Domains("gmail"); len(got) != 3 {
		t.Errorf("Domains(gmail) = %v, want 3 aliases", got)
	}
	if got := r.Domains("outlook"); len(got) != 4 {
		t.Errorf("Domains(outlook) = %v, want 4 aliases", got)
	}
	if got := r.Domains("unknown"); got != nil {
		t.Errorf("Domains(unknown) = %v, want nil", got)
	}
}

func TestGenericDialect(t *testing.T) {
	d := GenericDialect("verifier.example.com", 0)
	if !d.LenientFallback {
		t.Error("generic dialect must be lenient")
	}
	if d.HeloIdentity != "verifier.example.com" {
		t.Errorf("helo identity = %q", d.HeloIdentity)
	}
	if d.Timeout != 7*time.Second {
		t.Errorf("default timeout = %v, want 7s", d.Timeout)
	}
	for _, code := range []int{250, 251, 252} {
		if !d.SuccessCodes[code] {
			t.Errorf("success codes missing %d", code)
		}
	}

	custom := GenericDialect("x.test", 3*time.Second)
	if custom.Timeout != 3*time.Second {
		t.Errorf("custom timeout = %v", custom.Timeout)
	}
}
