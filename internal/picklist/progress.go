package picklist

import (
	"sync"
	"time"
)

// JobStatus is the lifecycle state of an async generation job.
type JobStatus string

const (
	JobQueued   JobStatus = "queued"
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

// Job is a point-in-time snapshot of one generation job for the status
// endpoint.
type Job struct {
	ID        string    `json:"id"`
	Status    JobStatus `json:"status"`
	Percent   int       `json:"percent"`
	Message   string    `json:"message,omitempty"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker records job progress for polling clients.
type Tracker struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewTracker creates an empty job tracker.
func NewTracker() *Tracker {
	return &Tracker{jobs: make(map[string]*Job)}
}

// Start registers a queued job. Restarting an existing job resets it.
func (t *Tracker) Start(id string) {
	now := time.Now()
	t.mu.Lock()
	t.jobs[id] = &Job{ID: id, Status: JobQueued, StartedAt: now, UpdatedAt: now}
	t.mu.Unlock()
}

// StartIfInactive registers a queued job unless one with the same ID is
// already queued or running. It reports whether the job was registered.
func (t *Tracker) StartIfInactive(id string) bool {
	now := time.Now()
	t.mu.Lock()
	defer t.mu.Unlock()
	if job, ok := t.jobs[id]; ok && (job.Status == JobQueued || job.Status == JobRunning) {
		return false
	}
	t.jobs[id] = &Job{ID: id, Status: JobQueued, StartedAt: now, UpdatedAt: now}
	return true
}

// Update records progress on a running job.
func (t *Tracker) Update(id string, percent int, message string) {
	t.mu.Lock()
	if job, ok := t.jobs[id]; ok {
		job.Status = JobRunning
		if percent > job.Percent {
			job.Percent = percent
		}
		job.Message = message
		job.UpdatedAt = time.Now()
	}
	t.mu.Unlock()
}

// Complete marks a job done and attaches its result.
func (t *Tracker) Complete(id string, result *Result) {
	t.mu.Lock()
	if job, ok := t.jobs[id]; ok {
		job.Status = JobComplete
		job.Percent = 100
		job.Message = ""
		job.Result = result
		job.UpdatedAt = time.Now()
	}
	t.mu.Unlock()
}

// Fail marks a job failed.
func (t *Tracker) Fail(id string, err error) {
	t.mu.Lock()
	if job, ok := t.jobs[id]; ok {
		job.Status = JobFailed
		job.Error = err.Error()
		job.UpdatedAt = time.Now()
	}
	t.mu.Unlock()
}

// Get returns a copy of a job's current state.
func (t *Tracker) Get(id string) (Job, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	job, ok := t.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Active reports whether a job is queued or running.
func (t *Tracker) Active(id string) bool {
	job, ok := t.Get(id)
	return ok && (job.Status == JobQueued || job.Status == JobRunning)
}
