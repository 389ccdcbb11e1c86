package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jaa/ytbr/internal/output"
	"github.com/jaa/ytbr/internal/provider"
)

type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is a status snapshot; the manager hands out copies, never the live
// record.
type Job struct {
	ID         string
	Request    DownloadRequest
	Status     JobStatus
	Percent    int
	OutputPath string
	Error      string
	Failure    FailureKind
	CreatedAt  time.Time
	FinishedAt time.Time
}

// Manager runs jobs through a shared worker behind a bounded semaphore, so a
// burst of submissions cannot saturate network and disk.
type Manager struct {
	worker *Worker
	sem    chan struct{}
	wg     sync.WaitGroup

	mu   sync.RWMutex
	jobs map[string]*Job
}

func NewManager(p provider.Provider, merger Merger, emitter output.EventEmitter, scratchRoot string, maxParallel int) *Manager {
	if maxParallel < 1 {
		maxParallel = 1
	}
	m := &Manager{
		sem:  make(chan struct{}, maxParallel),
		jobs: make(map[string]*Job),
	}
	worker := NewWorker(p, merger, &trackingEmitter{manager: m, next: workerEmitter(emitter)})
	worker.ScratchRoot = scratchRoot
	m.worker = worker
	return m
}

func workerEmitter(emitter output.EventEmitter) output.EventEmitter {
	if emitter == nil {
		return noOpEmitter{}
	}
	return emitter
}

// Submit registers a job and starts it in the background. The returned
// snapshot carries the job ID for later polling.
func (m *Manager) Submit(ctx context.Context, req DownloadRequest) Job {
	job := &Job{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    JobPending,
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.jobs[job.ID] = job
	snapshot := *job
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(ctx, job.ID, req)
	return snapshot
}

// Get returns a snapshot of the job with the given ID.
func (m *Manager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns snapshots of all known jobs.
func (m *Manager) List() []Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, *job)
	}
	return jobs
}

// Wait blocks until every submitted job has reached a terminal state.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (m *Manager) run(ctx context.Context, id string, req DownloadRequest) {
	defer m.wg.Done()

	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		m.finish(id, JobOutcome{Err: failure(FailureUnexpected, ctx.Err())})
		return
	}

	m.update(id, func(job *Job) {
		job.Status = JobRunning
	})
	m.finish(id, m.worker.Run(ctx, id, req))
}

func (m *Manager) finish(id string, outcome JobOutcome) {
	m.update(id, func(job *Job) {
		job.FinishedAt = time.Now()
		if outcome.Err != nil {
			job.Status = JobFailed
			job.Error = outcome.Err.Error()
			job.Failure = FailureKindOf(outcome.Err)
			return
		}
		job.Status = JobSucceeded
		job.Percent = 100
		job.OutputPath = outcome.OutputPath
	})
}

func (m *Manager) update(id string, apply func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		apply(job)
	}
}

// trackingEmitter mirrors progress events into the job table before
// forwarding them, so HTTP pollers see the same numbers the event stream
// carries.
type trackingEmitter struct {
	manager *Manager
	next    output.EventEmitter
}

func (e *trackingEmitter) Emit(event output.Event) error {
	if event.Event == output.EventProgress && event.JobID != "" && event.Percent != nil {
		e.manager.update(event.JobID, func(job *Job) {
			job.Percent = *event.Percent
		})
	}
	return e.next.Emit(event)
}
