package jobs

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a conversion job.
type Status string

const (
	StatusResolving  Status = "resolving"
	StatusConverting Status = "converting"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusEmpty      Status = "empty"
	StatusFailed     Status = "failed"
)

// Job stores counters and runtime state for one conversion request.
type Job struct {
	ID           string    `json:"id"`
	SetName      string    `json:"set_name"`
	ChatID       int64     `json:"chat_id"`
	Status       Status    `json:"status"`
	Total        int       `json:"total"`
	Index        int       `json:"index"`
	Processed    int       `json:"processed"`
	SkippedLarge int       `json:"skipped_large"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProgressEvent is pushed to listeners on every job update.
type ProgressEvent struct {
	ID           string `json:"id"`
	SetName      string `json:"set_name"`
	Status       Status `json:"status"`
	Total        int    `json:"total"`
	Index        int    `json:"index"`
	Processed    int    `json:"processed"`
	SkippedLarge int    `json:"skipped_large"`
	Error        string `json:"error,omitempty"`
}

// Event builds the progress snapshot for a job.
func (j Job) Event() ProgressEvent {
	return ProgressEvent{
		ID:           j.ID,
		SetName:      j.SetName,
		Status:       j.Status,
		Total:        j.Total,
		Index:        j.Index,
		Processed:    j.Processed,
		SkippedLarge: j.SkippedLarge,
		Error:        j.Error,
	}
}

// Listener receives job updates, e.g. for the live admin feed.
type Listener interface {
	JobUpdated(evt ProgressEvent)
}

// Registry is the in-memory job store shared by the pipeline and the admin
// surface. Jobs are transient; a TTL cleanup loop evicts finished ones.
type Registry struct {
	logger *slog.Logger

	mu        sync.RWMutex
	jobs      map[string]*Job
	listeners []Listener
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		jobs:   make(map[string]*Job),
	}
}

func (r *Registry) AddListener(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

// Create registers a new job in the resolving state and returns a copy.
func (r *Registry) Create(setName string, chatID int64) Job {
	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		SetName:   setName,
		ChatID:    chatID,
		Status:    StatusResolving,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	r.notify(job.Event())
	return *job
}

// Update applies fn to the job and fans the new snapshot out to listeners.
func (r *Registry) Update(id string, fn func(*Job)) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return
	}
	fn(job)
	job.UpdatedAt = time.Now()
	evt := job.Event()
	r.mu.Unlock()

	r.notify(evt)
}

func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Recent returns up to limit jobs, most recently updated first.
func (r *Registry) Recent(limit int) []Job {
	r.mu.RLock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, *j)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *Registry) notify(evt ProgressEvent) {
	r.mu.RLock()
	listeners := make([]Listener, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.RUnlock()

	for _, l := range listeners {
		l.JobUpdated(evt)
	}
}

// StartCleanupLoop evicts jobs untouched for longer than ttl.
func (r *Registry) StartCleanupLoop(ctx context.Context, interval, ttl time.Duration) {
	if interval <= 0 || ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.cleanup(ttl)
			}
		}
	}()
}

func (r *Registry) cleanup(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)
	removed := 0

	r.mu.Lock()
	for id, job := range r.jobs {
		if job.UpdatedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	r.mu.Unlock()

	if removed > 0 {
		r.logger.Info("cleanup completed", "removed_jobs", removed)
	}
}
