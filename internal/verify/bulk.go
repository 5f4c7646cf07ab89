package verify

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/ignite/mailprobe/internal/domain"
)

// BatchSize is how many records are validated concurrently before a
// progress event goes out.
const BatchSize = 10

// emailKeys are the column aliases probed, in priority order, to locate
// the address field in a record.
var emailKeys = []string{
	"email",
	"email_address",
	"e-mail",
	"emailaddress",
	"mail",
	"subscriber_email",
}

// RecordSource supplies records one at a time. Next returns io.EOF after
// the last record; any other error aborts the whole run.
type RecordSource interface {
	Next() (domain.Record, error)
}

// SliceSource adapts an in-memory record slice to a RecordSource.
type SliceSource struct {
	records []domain.Record
	pos     int
}

func NewSliceSource(records []domain.Record) *SliceSource {
	return &SliceSource{records: records}
}

func (s *SliceSource) Next() (domain.Record, error) {
	if s.pos >= len(s.records) {
		return nil, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

// EmailFromRecord locates the address column in a record. Aliases are
// tried in emailKeys order with case-insensitive key matching; empty
// means the record carries no address and passes through unvalidated.
func EmailFromRecord(rec domain.Record) string {
	for _, want := range emailKeys {
		for k, v := range rec {
			if strings.EqualFold(strings.TrimSpace(k), want) {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// ValidateBatch drains the source, then validates its records in fixed
// batches of BatchSize with one goroutine per record inside a batch.
// Batches run sequentially and output order always equals input order.
// The channel carries one progress event per batch with that batch's
// results and the cumulative percentage, then a single complete event
// with every result, and closes. A source read failure emits a single
// error event instead and abandons the run.
func (v *Verifier) ValidateBatch(ctx context.Context, source RecordSource) <-chan domain.BatchProgressEvent {
	events := make(chan domain.BatchProgressEvent, 1)

	go func() {
		defer close(events)

		var records []domain.Record
		for {
			rec, err := source.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				events <- domain.BatchProgressEvent{
					Type:  domain.EventError,
					Error: fmt.Sprintf("reading records: %v", err),
				}
				return
			}
			records = append(records, rec)
		}

		total := len(records)
		results := make([]domain.RecordResult, 0, total)
		for start := 0; start < total; start += BatchSize {
			end := start + BatchSize
			if end > total {
				end = total
			}
			batch := v.processBatch(ctx, records[start:end])
			results = append(results, batch...)

			events <- domain.BatchProgressEvent{
				Type:           domain.EventProgress,
				Progress:       math.Min(100, float64(len(results))/float64(total)*100),
				PartialResults: batch,
			}
		}

		events <- domain.BatchProgressEvent{
			Type:    domain.EventComplete,
			Results: results,
		}
	}()

	return events
}

// processBatch fans one batch out and collects results into their input
// slots, so completion order never disturbs record order. Records with
// no address field keep their slot and a nil result.
func (v *Verifier) processBatch(ctx context.Context, batch []domain.Record) []domain.RecordResult {
	out := make([]domain.RecordResult, len(batch))
	var wg sync.WaitGroup

	for i, rec := range batch {
		out[i] = domain.RecordResult{Record: rec}
		email := EmailFromRecord(rec)
		if email == "" {
			continue
		}
		wg.Add(1)
		go func(slot int, addr string) {
			defer wg.Done()
			res := v.Verify(ctx, addr)
			out[slot].Result = &res
		}(i, email)
	}

	wg.Wait()
	return out
}
