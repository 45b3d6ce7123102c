package model

import "time"

type CaptureKind string

const (
	CaptureTask   CaptureKind = "task"
	CaptureMemory CaptureKind = "memory"
)

func (k CaptureKind) IsValid() bool {
	switch k {
	case CaptureTask, CaptureMemory:
		return true
	default:
		return false
	}
}

// CaptureResult is the outcome of classifying one free-form submission. It
// seeds a Task or Memory record and is never persisted itself.
type CaptureResult struct {
	Kind CaptureKind
	Text string
	Due  *time.Time
}
