//go:build ignore
// +build ignore

// Test Data Generator for Bulk Verification Uploads
// Produces a synthetic contact CSV sized for exercising the bulk upload
// endpoint and the batch engine behind it.
//
// Usage:
//   go run scripts/generate_upload_csv.go \
//     --rows=100000 \
//     --out=contacts.csv \
//     --invalid-rate=0.10 \
//     --missing-rate=0.05 \
//     --provider-rate=0.30
//
// invalid-rate controls addresses that fail syntax checking, missing-rate
// controls rows with no address at all (pass-through rows), provider-rate
// controls how many valid addresses land on gmail/yahoo/outlook domains.

package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"
)

type GeneratorConfig struct {
	Rows         int
	Out          string
	InvalidRate  float64
	MissingRate  float64
	ProviderRate float64
	Seed         int64
}

var providerDomains = []string{
	"gmail.com", "googlemail.com", "yahoo.com", "ymail.com",
	"outlook.com", "hotmail.com", "live.com",
}

var corpQualifiers = []string{
	"mail", "corp", "inbox", "contact", "team", "hq", "dev", "app",
}

var firstNames = []string{
	"james", "maria", "wei", "fatima", "oliver", "sofia", "noah", "amara",
	"lucas", "yuki", "diego", "priya", "ethan", "chloe", "omar", "ingrid",
}

var lastNames = []string{
	"smith", "garcia", "chen", "okafor", "mueller", "tanaka", "rossi",
	"kowalski", "johansson", "silva", "novak", "haddad", "park", "dubois",
}

var sources = []string{"signup_form", "import_2025", "partner_feed", "webinar", "checkout"}

func main() {
	cfg := &GeneratorConfig{}
	flag.IntVar(&cfg.Rows, "rows", 100_000, "number of data rows to generate")
	flag.StringVar(&cfg.Out, "out", "contacts.csv", "output file path")
	flag.Float64Var(&cfg.InvalidRate, "invalid-rate", 0.10, "fraction of rows with a syntactically invalid address")
	flag.Float64Var(&cfg.MissingRate, "missing-rate", 0.05, "fraction of rows with no address column value")
	flag.Float64Var(&cfg.ProviderRate, "provider-rate", 0.30, "fraction of valid addresses on major provider domains")
	flag.Int64Var(&cfg.Seed, "seed", time.Now().UnixNano(), "RNG seed, fix it for reproducible files")
	flag.Parse()

	rng := rand.New(rand.NewSource(cfg.Seed))

	f, err := os.Create(cfg.Out)
	if err != nil {
		log.Fatalf("create %s: %v", cfg.Out, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"email", "first_name", "last_name", "source"}); err != nil {
		log.Fatalf("write header: %v", err)
	}

	start := time.Now()
	var invalid, missing, provider, generic int
	for i := 0; i < cfg.Rows; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]
		source := sources[rng.Intn(len(sources))]

		var email string
		switch roll := rng.Float64(); {
		case roll < cfg.MissingRate:
			missing++
		case roll < cfg.MissingRate+cfg.InvalidRate:
			email = invalidAddress(rng, first, last)
			invalid++
		case roll < cfg.MissingRate+cfg.InvalidRate+cfg.ProviderRate:
			email = validAddress(rng, first, last, providerDomains[rng.Intn(len(providerDomains))])
			provider++
		default:
			email = validAddress(rng, first, last, genericDomain(rng, i))
			generic++
		}

		if err := w.Write([]string{email, first, last, source}); err != nil {
			log.Fatalf("write row %d: %v", i, err)
		}

		if (i+1)%100_000 == 0 {
			fmt.Printf("  %d/%d rows (%.0f rows/sec)\n",
				i+1, cfg.Rows, float64(i+1)/time.Since(start).Seconds())
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		log.Fatalf("flush: %v", err)
	}

	info, _ := f.Stat()
	log.Printf("Wrote %s: %d rows, %d bytes in %s", cfg.Out, cfg.Rows, info.Size(), time.Since(start).Round(time.Millisecond))
	log.Printf("  provider=%d generic=%d invalid=%d missing=%d (seed %d)", provider, generic, invalid, missing, cfg.Seed)
}

func validAddress(rng *rand.Rand, first, last, domain string) string {
	switch rng.Intn(4) {
	case 0:
		return fmt.Sprintf("%s.%s@%s", first, last, domain)
	case 1:
		return fmt.Sprintf("%s%s%d@%s", first[:1], last, rng.Intn(100), domain)
	case 2:
		return fmt.Sprintf("%s+tag%d@%s", first, rng.Intn(10), domain)
	default:
		return fmt.Sprintf("%s_%s@%s", first, last, domain)
	}
}

// genericDomain spreads generic addresses over a deterministic pool of
// synthetic company domains so DNS results repeat across rows.
func genericDomain(rng *rand.Rand, row int) string {
	q := corpQualifiers[rng.Intn(len(corpQualifiers))]
	return fmt.Sprintf("%s-example-%d.test", q, row%500)
}

func invalidAddress(rng *rand.Rand, first, last string) string {
	switch rng.Intn(5) {
	case 0:
		return first + last // no at sign
	case 1:
		return fmt.Sprintf(".%s@example-%d.test", first, rng.Intn(100)) // leading dot
	case 2:
		return fmt.Sprintf("%s@%s", first, last) // domain without TLD
	case 3:
		return fmt.Sprintf("%s %s@example.test", first, last) // space in local part
	default:
		return fmt.Sprintf("%s@@example-%d.test", first, rng.Intn(100)) // double at sign
	}
}
