package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"

	"github.com/ignite/mailprobe/internal/config"
	"github.com/ignite/mailprobe/internal/domain"
	"github.com/ignite/mailprobe/internal/verify"
)

func usage() {
	color.Yellow("Usage:")
	color.Cyan("  verify address [address...]")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  VERIFY_SENDER_DOMAIN   HELO / MAIL FROM identity for SMTP probes")
	fmt.Println("  VERIFY_PROBE_TIMEOUT   per-connection probe timeout in seconds")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg := config.Default().Verifier
	if v := os.Getenv("VERIFY_SENDER_DOMAIN"); v != "" {
		cfg.SenderDomain = v
	}
	if v := os.Getenv("VERIFY_PROBE_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.ProbeTimeoutSeconds = secs
		}
	}

	verifier := verify.New(cfg.SenderDomain, cfg.ProbeTimeout(), cfg.DNSTimeout())

	failed := 0
	for i, email := range os.Args[1:] {
		if i > 0 {
			fmt.Println()
		}
		res := verifier.Verify(context.Background(), email)
		report(res)
		if !res.Valid {
			failed++
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func report(res domain.VerificationResult) {
	if res.Valid {
		color.Green("PASS  %s", res.Email)
	} else {
		color.Red("FAIL  %s", res.Email)
	}
	fmt.Printf("      %s\n", res.Reason)
	printCheck("dns", res.Checks.DNS)
	printCheck("mx", res.Checks.MX)
	printCheck("spf", res.Checks.SPF)
	printCheck("mailbox", res.Checks.Mailbox)
	printCheck("smtp", res.Checks.SMTP)
}

func printCheck(name string, ok bool) {
	if ok {
		fmt.Printf("      %-8s %s\n", name, color.GreenString("✓"))
	} else {
		fmt.Printf("      %-8s %s\n", name, color.RedString("✗"))
	}
}
