// internal/api/job/store.go
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// Status represents job status.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// DefaultMaxJobs bounds how many finished jobs are remembered.
const DefaultMaxJobs = 50

// Job tracks one asynchronous scan run.
type Job struct {
	ID        string          `json:"id"`
	Trigger   core.Trigger    `json:"trigger"`
	Status    Status          `json:"status"`
	Done      int             `json:"done"`
	Total     int             `json:"total"`
	Progress  int             `json:"progress"`
	ScanID    string          `json:"scan_id,omitempty"`
	Error     *core.ErrorInfo `json:"error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Finished reports whether the job reached a terminal state.
func (j Job) Finished() bool {
	return j.Status == StatusComplete || j.Status == StatusFailed
}

// SetProgress records done of total symbols processed.
func (j *Job) SetProgress(done, total int) {
	j.Done, j.Total = done, total
	if total > 0 {
		j.Progress = done * 100 / total
	}
}

// Complete marks the job as finished with the given scan.
func (j *Job) Complete(scanID string) {
	j.Status = StatusComplete
	j.ScanID = scanID
	j.Progress = 100
}

// Fail marks the job as failed with err.
func (j *Job) Fail(err error) {
	j.Status = StatusFailed
	j.Error = core.InfoFromError(err)
}

// Store manages async jobs.
type Store struct {
	jobs    map[string]*Job
	order   []string // insertion order for eviction
	maxSize int
	mu      sync.RWMutex
	now     func() time.Time
}

// NewStore creates a new job store.
func NewStore(maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = DefaultMaxJobs
	}
	return &Store{
		jobs:    make(map[string]*Job),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Create creates a new pending job and returns a copy of it.
func (s *Store) Create(trigger core.Trigger) Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	job := &Job{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Evict oldest if at capacity
	if len(s.jobs) >= s.maxSize && len(s.order) > 0 {
		oldest := s.order[0]
		delete(s.jobs, oldest)
		s.order = s.order[1:]
	}

	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)

	return *job
}

// Get retrieves a job by ID.
func (s *Store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, core.ErrJobNotFound
	}
	return *job, nil
}

// Update modifies a job using an update function.
func (s *Store) Update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return core.ErrJobNotFound
	}

	fn(job)
	job.UpdatedAt = s.now()
	return nil
}

// List returns all jobs, newest first.
func (s *Store) List() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Job, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		result = append(result, *s.jobs[s.order[i]])
	}
	return result
}
