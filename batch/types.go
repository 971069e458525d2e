// Package batch expands multi-page inputs (archives, folders, single files)
// into ordered jobs and processes them sequentially with per-item failure
// isolation and cooperative cancellation.
package batch

import (
	"sync"
	"sync/atomic"
)

// ItemStatus is the lifecycle state of one page in a job.
type ItemStatus string

const (
	ItemQueued     ItemStatus = "queued"
	ItemProcessing ItemStatus = "processing"
	ItemSucceeded  ItemStatus = "succeeded"
	ItemFailed     ItemStatus = "failed"
	ItemSkipped    ItemStatus = "skipped"
)

// JobStatus is the lifecycle state of a whole job.
type JobStatus string

const (
	JobQueued              JobStatus = "queued"
	JobProcessing          JobStatus = "processing"
	JobCompleted           JobStatus = "completed"
	JobCompletedWithErrors JobStatus = "completed_with_errors"
	JobFailed              JobStatus = "failed"
	JobCancelled           JobStatus = "cancelled"
)

// Item is one page to colorize.
type Item struct {
	// Source is the absolute path of the page on disk.
	Source string
	// RelPath is the page's path relative to its input root, preserved in
	// the output tree.
	RelPath string
	// OutPath is the written output file, set when the item succeeds.
	OutPath string
	// Status is the item lifecycle state.
	Status ItemStatus
	// Err holds the failure message for failed items.
	Err string
}

// ItemError pairs a failed item with its message.
type ItemError struct {
	Item    string
	Message string
}

// Progress is one progress event, emitted after each item finishes.
type Progress struct {
	Current  int
	Total    int
	Filename string
	Percent  int
}

// Job is a batch colorization job. Mutations go through the orchestrator;
// readers use Snapshot.
type Job struct {
	// ID is the unique job identifier.
	ID string
	// Inputs are the original input paths the job was built from.
	Inputs []string
	// ArchiveStem is the base name of the input archive, when the job came
	// from one. It names the output archive.
	ArchiveStem string

	mu        sync.Mutex
	items     []Item
	status    JobStatus
	current   int
	message   string
	errs      []ItemError
	cancelled int32

	// tempDirs holds archive extraction dirs removed when the job ends.
	tempDirs []string
}

// Snapshot is an immutable copy of a job's observable state.
type Snapshot struct {
	ID          string
	Status      JobStatus
	Current     int
	Total       int
	Message     string
	Items       []Item
	Errors      []ItemError
	ArchiveStem string
}

// Snapshot returns a copy of the job's current state.
func (j *Job) Snapshot() Snapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Snapshot{
		ID:          j.ID,
		Status:      j.status,
		Current:     j.current,
		Total:       len(j.items),
		Message:     j.message,
		Items:       append([]Item(nil), j.items...),
		Errors:      append([]ItemError(nil), j.errs...),
		ArchiveStem: j.ArchiveStem,
	}
}

// Cancel requests cooperative cancellation. The orchestrator honors it at
// the next item boundary; the in-flight item runs to completion.
func (j *Job) Cancel() {
	atomic.StoreInt32(&j.cancelled, 1)
}

// IsCancelled reports whether cancellation was requested.
func (j *Job) IsCancelled() bool {
	return atomic.LoadInt32(&j.cancelled) != 0
}

// Total returns the number of items in the job.
func (j *Job) Total() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.items)
}

func (j *Job) setStatus(status JobStatus, message string) {
	j.mu.Lock()
	j.status = status
	j.message = message
	j.mu.Unlock()
}
