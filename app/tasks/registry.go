package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sagepoint/listing-sync/app/source"
	"github.com/sagepoint/listing-sync/app/sync"
)

// ErrUnknownTask is returned when a task name has no registered handler.
var ErrUnknownTask = errors.New("unknown task")

// Registry maps task names to their handlers. All handlers are registered
// at construction time; the map is read-only afterwards, so concurrent
// Run calls need no locking.
type Registry struct {
	tasks map[string]TaskFunc
}

func NewRegistry(importer *sync.Importer, client *source.Client, tokens *source.TokenProvider) *Registry {
	r := &Registry{tasks: make(map[string]TaskFunc)}

	r.tasks[TaskImport] = func(ctx context.Context) (any, error) {
		return importer.Run(ctx)
	}
	r.tasks[TaskResetOffset] = func(_ context.Context) (any, error) {
		return nil, client.ResetOffset()
	}
	r.tasks[TaskInvalidateToken] = func(_ context.Context) (any, error) {
		return nil, tokens.Invalidate()
	}

	return r
}

// Run executes the named task and reports its outcome. A concurrent
// import is not an execution failure; the caller decides how to surface
// sync.ErrImportRunning.
func (r *Registry) Run(ctx context.Context, name string) (any, error) {
	fn, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}

	started := time.Now()
	slog.Info("Task started", "task", name)

	result, err := fn(ctx)
	if err != nil {
		if errors.Is(err, sync.ErrImportRunning) {
			slog.Warn("Task skipped, batch already running", "task", name)
		} else {
			slog.Error("Task failed", "task", name, "error", err)
		}
		return nil, err
	}

	slog.Info("Task completed", "task", name, "duration", time.Since(started))
	return result, nil
}

// Names lists the registered task names in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
