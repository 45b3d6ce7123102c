package model

import (
	"strings"
	"time"
)

// Memory is a durable free-form note.
type Memory struct {
	ID      int64     `json:"id"`
	Text    string    `json:"text"`
	Created time.Time `json:"created"`
	Tags    []string  `json:"tags"`
}

func (m Memory) Validate() error {
	if strings.TrimSpace(m.Text) == "" {
		return ErrEmptyText
	}
	return nil
}
