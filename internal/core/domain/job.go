package domain

import "time"

// JobFunction identifies the work a job performs.
type JobFunction string

const (
	// JobAddFile checks access to a remote file and records it in a folder.
	JobAddFile JobFunction = "add_file"

	// JobSummarize downloads a recorded file and stores a caption for it.
	JobSummarize JobFunction = "summarize"
)

// DefaultJobPriority is used when the caller does not choose one.
const DefaultJobPriority = 1

// Job is a unit of background ingestion work. Lower Priority runs sooner;
// jobs of equal priority run in submission order.
type Job struct {
	ID       string
	Function JobFunction
	Priority int

	URL         string
	FolderID    int64
	FileID      int64
	Description string

	// Name overrides the file name recorded by AddFile. Empty uses the remote name.
	Name string

	EnqueuedAt time.Time
}

// JobResult reports the outcome of a job after the worker ran it.
type JobResult struct {
	Job       Job
	FileID    int64
	Summary   string
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
}

// Succeeded returns true if the job completed without error.
func (r *JobResult) Succeeded() bool {
	return r.Err == nil
}
