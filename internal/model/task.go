package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmptyTitle = errors.New("model: task title is required")
	ErrEmptyText  = errors.New("model: memory text is required")
)

// Task is a reminder with an optional due time and an optional RFC 5545
// recurrence rule. Due is kept as the stored string form: normalization is
// fail-open, so a legacy or malformed value can survive in this field and
// consumers must tolerate it.
type Task struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Due        string     `json:"due,omitempty"`
	Done       bool       `json:"done"`
	Created    time.Time  `json:"created"`
	Tags       []string   `json:"tags"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	RRule      string     `json:"rrule,omitempty"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if t.Created.IsZero() {
		return errors.New("model: task created is required")
	}
	return nil
}

// IsRecurring reports whether the task carries a recurrence rule.
func (t Task) IsRecurring() bool {
	return strings.TrimSpace(t.RRule) != ""
}

// TaskPatch is a partial task update; nil fields are left untouched.
type TaskPatch struct {
	Title *string
	Due   *string
	Done  *bool
	RRule *string
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Due == nil && p.Done == nil && p.RRule == nil
}
