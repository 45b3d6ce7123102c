package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/sandeepkv93/memoria/internal/model"
	"github.com/sandeepkv93/memoria/internal/recur"
	"github.com/sandeepkv93/memoria/internal/storage"
	"github.com/sandeepkv93/memoria/internal/timeparse"
)

// TaskView is the wire shape for task listings. Recurring tasks are listed
// as their expanded occurrences, so the id is a string: either the numeric
// task id or the synthetic occurrence id.
type TaskView struct {
	ID                  string     `json:"id"`
	ParentTaskID        *int64     `json:"parent_task_id,omitempty"`
	IsRecurringInstance bool       `json:"is_recurring_instance,omitempty"`
	Title               string     `json:"title"`
	Due                 *string    `json:"due"`
	Done                bool       `json:"done"`
	Created             time.Time  `json:"created"`
	Tags                []string   `json:"tags"`
	NotifiedAt          *time.Time `json:"notified_at,omitempty"`
	RRule               string     `json:"rrule,omitempty"`
}

func taskViewFrom(o recur.Occurrence) TaskView {
	view := TaskView{
		ID:         o.DisplayID(),
		Title:      o.Task.Title,
		Done:       o.Task.Done,
		Created:    o.Task.Created,
		Tags:       o.Task.Tags,
		NotifiedAt: o.Task.NotifiedAt,
		RRule:      o.Task.RRule,
	}
	if o.Task.Due != "" {
		due := o.Task.Due
		view.Due = &due
	}
	if o.Recurring {
		parent := o.ParentID
		view.ParentTaskID = &parent
		view.IsRecurringInstance = true
	}
	return view
}

type taskRequest struct {
	Title string `json:"title"`
	Due   string `json:"due"`
	RRule string `json:"rrule"`
}

type taskPatchRequest struct {
	Title *string `json:"title"`
	Due   *string `json:"due"`
	Done  *bool   `json:"done"`
	RRule *string `json:"rrule"`
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	openOnly, _ := strconv.ParseBool(q.Get("open_only"))
	windowStart := parseWindowBound(q.Get("start"))
	windowEnd := parseWindowBound(q.Get("end"))

	tasks, err := s.repo.ListTasks(r.Context(), storage.TaskListFilter{OpenOnly: openOnly})
	if err != nil {
		writeStoreError(w, err)
		return
	}

	now := time.Now()
	occs := make([]recur.Occurrence, 0, len(tasks))
	for _, t := range tasks {
		expanded, expandErr := recur.Expand(t, now, windowStart, windowEnd)
		if expandErr != nil {
			// Fail open: the unexpanded task is already in expanded.
			log.Printf("api: %v", expandErr)
		}
		occs = append(occs, expanded...)
	}
	if windowStart != nil || windowEnd != nil {
		occs = filterWindow(occs, windowStart, windowEnd)
	}
	recur.Sort(occs, openOnly)

	views := make([]TaskView, 0, len(occs))
	for _, o := range occs {
		views = append(views, taskViewFrom(o))
	}
	writeJSON(w, http.StatusOK, views)
}

// filterWindow applies the requested date range to non-recurring entries;
// the expander has already bounded recurring instances. Entries without a
// usable due time fall outside any explicit window.
func filterWindow(occs []recur.Occurrence, start, end *time.Time) []recur.Occurrence {
	out := occs[:0]
	for _, o := range occs {
		if o.Recurring {
			out = append(out, o)
			continue
		}
		if o.At == nil {
			continue
		}
		if start != nil && o.At.Before(*start) {
			continue
		}
		if end != nil && o.At.After(*end) {
			continue
		}
		out = append(out, o)
	}
	return out
}

func parseWindowBound(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, ok := timeparse.ParseDue(raw)
	if !ok {
		return nil
	}
	return &t
}

func (s *Server) addTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	task, err := s.repo.AddTask(r.Context(), req.Title, timeparse.NormalizeDue(req.Due), req.RRule)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) doneTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	done := true
	if raw := r.URL.Query().Get("done"); raw != "" {
		done, err = strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid done value")
			return
		}
	}
	task, err := s.repo.SetDone(r.Context(), id, done)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) patchTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	var req taskPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	patch := model.TaskPatch{Title: req.Title, Done: req.Done, RRule: req.RRule}
	if req.Due != nil {
		normalized := timeparse.NormalizeDue(*req.Due)
		patch.Due = &normalized
	}
	task, err := s.repo.UpdateTask(r.Context(), id, patch)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	if err := s.repo.DeleteTask(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
