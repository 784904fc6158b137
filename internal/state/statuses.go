package state

// JobStatus is the lifecycle state of a delayed delivery job. Succeeded jobs
// are deleted rather than archived, so no terminal success status exists.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusProcessing JobStatus = "processing"
	StatusFailed     JobStatus = "failed"
)

func (s JobStatus) String() string {
	return string(s)
}

type Transition struct {
	From JobStatus
	To   JobStatus
}

// ValidTransitions lists the moves the job store may make: claiming a queued
// job, requeueing after a failed attempt or a stale lock, and retiring a job
// whose attempts are exhausted.
var ValidTransitions = []Transition{
	{From: StatusQueued, To: StatusProcessing},
	{From: StatusProcessing, To: StatusQueued},
	{From: StatusProcessing, To: StatusFailed},
}

func IsValidTransition(from, to JobStatus) bool {
	for _, t := range ValidTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}
