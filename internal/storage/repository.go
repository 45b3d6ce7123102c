package storage

import (
	"context"
	"errors"
	"time"

	"github.com/sandeepkv93/memoria/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// ImportStatus reports what happened to a single record during an import.
type ImportStatus string

const (
	ImportInserted ImportStatus = "inserted"
	ImportUpdated  ImportStatus = "updated"
	ImportSkipped  ImportStatus = "skipped"
	ImportFailed   ImportStatus = "failed"
)

type MemoryListFilter struct {
	Query  string
	Limit  int
	Offset int
}

// MemoryPage carries one page of memories plus the unpaginated total for the
// caller's pagination math.
type MemoryPage struct {
	Items []model.Memory
	Total int
}

type TaskListFilter struct {
	OpenOnly bool
	Limit    int
}

type Repository interface {
	AddMemory(ctx context.Context, text string) (model.Memory, error)
	GetMemory(ctx context.Context, id int64) (model.Memory, error)
	ListMemories(ctx context.Context, filter MemoryListFilter) (MemoryPage, error)
	UpdateMemoryText(ctx context.Context, id int64, text string) (model.Memory, error)
	DeleteMemory(ctx context.Context, id int64) error
	AllMemories(ctx context.Context) ([]model.Memory, error)
	ImportMemory(ctx context.Context, in model.Memory, overwrite bool) (ImportStatus, error)

	AddTask(ctx context.Context, title, due, rrule string) (model.Task, error)
	GetTask(ctx context.Context, id int64) (model.Task, error)
	ListTasks(ctx context.Context, filter TaskListFilter) ([]model.Task, error)
	UpdateTask(ctx context.Context, id int64, patch model.TaskPatch) (model.Task, error)
	SetDone(ctx context.Context, id int64, done bool) (model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	AllTasks(ctx context.Context) ([]model.Task, error)
	ImportTask(ctx context.Context, in model.Task, overwrite bool) (ImportStatus, error)

	DueUnnotified(ctx context.Context, now time.Time) ([]model.Task, error)
	SetNotified(ctx context.Context, id int64, when time.Time) error
}
