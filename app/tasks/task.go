package tasks

import "context"

// Task names accepted by the registry and exposed on the task endpoint.
const (
	TaskImport          = "import"
	TaskResetOffset     = "reset-offset"
	TaskInvalidateToken = "invalidate-token"
)

// TaskFunc runs one named maintenance operation. The returned value is
// task specific; the import task returns its batch result, the others
// return nil.
type TaskFunc func(ctx context.Context) (any, error)
