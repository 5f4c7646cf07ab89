package domain

import "time"

// Verdict reasons attached to a VerificationResult. These strings are part of
// the API contract; dashboards and exported CSVs match on them verbatim.
const (
	ReasonInvalidFormat   = "Invalid email format"
	ReasonDomainNotFound  = "Domain does not exist"
	ReasonNoMailServer    = "No mail server found for domain"
	ReasonMXLookupFailed  = "Failed to verify mail server"
	ReasonMissingSPF      = "Domain lacks SPF record"
	ReasonSPFLookupFailed = "Failed to verify SPF record"
	ReasonUnverifiable    = "Email appears valid but could not fully verify"
	ReasonMailboxRejected = "Mailbox verification failed"
	ReasonValid           = "Email is valid"
)

// CheckSet holds the five independent deliverability signals gathered for one
// address. Mailbox and SMTP are always set together: the engine never claims a
// mailbox exists without having completed an SMTP exchange.
type CheckSet struct {
	DNS     bool `json:"dns"`
	MX      bool `json:"mx"`
	SPF     bool `json:"spf"`
	Mailbox bool `json:"mailbox"`
	SMTP    bool `json:"smtp"`
}

// AllPassed reports whether every signal in the set is true.
func (c CheckSet) AllPassed() bool {
	return c.DNS && c.MX && c.SPF && c.Mailbox && c.SMTP
}

// VerificationResult is the immutable outcome of verifying one address.
// Valid is the AND of all five checks; Reason is always non-empty.
type VerificationResult struct {
	Email  string   `json:"email"`
	Valid  bool     `json:"valid"`
	Checks CheckSet `json:"checks"`
	Reason string   `json:"reason"`
}

// BatchEventType tags the events emitted while a bulk job runs.
type BatchEventType string

const (
	EventProgress BatchEventType = "progress"
	EventComplete BatchEventType = "complete"
	EventError    BatchEventType = "error"
)

// BatchProgressEvent is the tagged union streamed to bulk-job consumers.
// Exactly one of the per-type payloads is populated: progress events carry
// Progress plus PartialResults, the single complete event carries Results,
// and a terminal error event carries Error.
type BatchProgressEvent struct {
	Type           BatchEventType `json:"type"`
	Progress       float64        `json:"progress,omitempty"`
	PartialResults []RecordResult `json:"partialResults,omitempty"`
	Results        []RecordResult `json:"results,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// Record is one row from a bulk record source, keyed by column header.
type Record map[string]string

// RecordResult is one output row of a bulk job: the source record plus its
// verification outcome. Records without a resolvable address field pass
// through with Result nil and the record untouched.
type RecordResult struct {
	Record Record              `json:"record"`
	Result *VerificationResult `json:"result,omitempty"`
}

// JobStatus tracks a bulk verification job through its lifecycle.
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// VerificationJob is the persistent record of one bulk verification run.
type VerificationJob struct {
	ID           string     `json:"id" db:"id"`
	Filename     string     `json:"filename" db:"filename"`
	Status       JobStatus  `json:"status" db:"status"`
	TotalRecords int        `json:"total_records" db:"total_records"`
	ValidCount   int        `json:"valid_count" db:"valid_count"`
	InvalidCount int        `json:"invalid_count" db:"invalid_count"`
	Error        string     `json:"error,omitempty" db:"error"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// JobProgress is the latest known progress snapshot of a bulk job, kept
// separately from the job session so pollers read one small value.
type JobProgress struct {
	JobID     string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Progress  float64   `json:"progress"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
