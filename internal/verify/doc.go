// Package verify implements the deliverability verification engine: it
// judges whether an address is likely deliverable without ever sending mail.
//
// Pipeline Overview:
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                    VERIFICATION PIPELINE                        │
//	├─────────────────────────────────────────────────────────────────┤
//	│  1. Syntax          pure pattern match, gates everything        │
//	│  2. Domain Resolver DNS existence (A/AAAA), MX set, SPF TXT     │
//	│  3. Registry        receiving domain → provider dialect         │
//	│  4. SMTP Probe      HELO / MAIL FROM / RCPT TO callout on :25   │
//	│  5. Verdict         signals + leniency policy → one result      │
//	│                                                                 │
//	│  Bulk Orchestrator: batches of 10, concurrent within a batch,   │
//	│  sequential across batches, progress event per batch.           │
//	└─────────────────────────────────────────────────────────────────┘
//
// The probe is a callout: the dialogue stops after RCPT TO and always ends
// with a best-effort QUIT, so no message is ever submitted. Many exchangers
// answer probes defensively (catch-alls, greylisting, anti-enumeration), so
// for domains outside the provider registry the engine is deliberately
// lenient: timeouts, temporary codes and ambiguous disconnects resolve
// toward "valid". Provider-registered domains get the stricter dialect the
// registry declares for them.
//
// Every failure mode resolves into the result's Reason field; Verify never
// returns an error and the engine never retries. The only shared state is
// the registry, which is read-only after construction.
package verify
