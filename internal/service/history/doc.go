// Package history records bulk verification jobs and their outcomes.
//
// Every bulk run leaves a durable trail: a job row is created when an
// upload is accepted, updated when the run concludes, and the per-record
// results are batch-inserted so a completed job can still be fetched
// after its Redis session has expired.
//
// The service layer contains pure business logic and depends on the
// Repository interface defined in repository.go. It never imports
// net/http or database/sql directly.
package history
