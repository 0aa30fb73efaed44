// Package jobs runs recomputation tasks in the background. Jobs are rows in
// the job_runs table written in the same transaction as the change that
// caused them, and a pool of workers claims and executes them.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"vendor-service/internal/model"

	"gorm.io/gorm"
)

// ErrNoHandler is recorded on a job whose task has no registered handler
var ErrNoHandler = errors.New("no handler registered for task")

// Handler executes one task type. Run receives the transaction that will
// also mark the job succeeded; all writes must go through it.
type Handler interface {
	Type() string
	Run(ctx context.Context, tx *gorm.DB, job *model.JobRun) error
}

// HandlerFunc adapts a function to a Handler
type HandlerFunc func(ctx context.Context, tx *gorm.DB, job *model.JobRun) error

type funcHandler struct {
	taskType string
	fn       HandlerFunc
}

func (h funcHandler) Type() string { return h.taskType }

func (h funcHandler) Run(ctx context.Context, tx *gorm.DB, job *model.JobRun) error {
	return h.fn(ctx, tx, job)
}

// NewHandler builds a Handler for taskType from fn
func NewHandler(taskType string, fn HandlerFunc) Handler {
	return funcHandler{taskType: taskType, fn: fn}
}

// Registry maps task names to handlers
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register adds h; registering the same task twice is an error
func (r *Registry) Register(h Handler) error {
	if h == nil || h.Type() == "" {
		return errors.New("handler must have a task type")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[h.Type()]; exists {
		return fmt.Errorf("handler already registered for task %q", h.Type())
	}
	r.handlers[h.Type()] = h
	return nil
}

// Get returns the handler for taskType
func (r *Registry) Get(taskType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[taskType]
	return h, ok
}
