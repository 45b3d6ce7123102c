package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/memoria/internal/capture"
	"github.com/sandeepkv93/memoria/internal/model"
	"github.com/sandeepkv93/memoria/internal/storage"
	"github.com/sandeepkv93/memoria/internal/timeparse"
)

type captureRequest struct {
	Text string `json:"text"`
}

// CaptureResponse reports how a submission was classified and the record it
// produced. Due is the normalized UTC due string, or null for a memory or an
// undated task.
type CaptureResponse struct {
	Kind string  `json:"kind"`
	Text string  `json:"text"`
	Due  *string `json:"due"`
	Item any     `json:"item"`
}

func (s *Server) capture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result := capture.Classify(req.Text, time.Now())
	resp := CaptureResponse{Kind: string(result.Kind), Text: result.Text}

	if result.Kind == model.CaptureTask {
		due := ""
		if result.Due != nil {
			due = timeparse.NormalizeDue(result.Due.Format(time.RFC3339))
		}
		task, err := s.repo.AddTask(r.Context(), result.Text, due, "")
		if err != nil {
			writeStoreError(w, err)
			return
		}
		if task.Due != "" {
			resp.Due = &task.Due
		}
		resp.Item = task
		writeJSON(w, http.StatusCreated, resp)
		return
	}

	mem, err := s.repo.AddMemory(r.Context(), result.Text)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	resp.Item = mem
	writeJSON(w, http.StatusCreated, resp)
}

// ExportData is the full-database JSON snapshot produced by /export and
// accepted by /import.
type ExportData struct {
	Memories []model.Memory `json:"memories"`
	Tasks    []model.Task   `json:"tasks"`
}

type importCounts struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

func (c *importCounts) record(status storage.ImportStatus) {
	switch status {
	case storage.ImportInserted:
		c.Inserted++
	case storage.ImportUpdated:
		c.Updated++
	case storage.ImportSkipped:
		c.Skipped++
	default:
		c.Failed++
	}
}

func (s *Server) exportData(w http.ResponseWriter, r *http.Request) {
	memories, err := s.repo.AllMemories(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	tasks, err := s.repo.AllTasks(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ExportData{Memories: memories, Tasks: tasks})
}

func (s *Server) importData(w http.ResponseWriter, r *http.Request) {
	var data ExportData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid data format, expected {memories: [...], tasks: [...]}")
		return
	}
	overwrite, _ := strconv.ParseBool(r.URL.Query().Get("overwrite"))

	var memories, tasks importCounts
	for _, mem := range data.Memories {
		status, _ := s.repo.ImportMemory(r.Context(), mem, overwrite)
		memories.record(status)
	}
	for _, task := range data.Tasks {
		status, _ := s.repo.ImportTask(r.Context(), task, overwrite)
		tasks.record(status)
	}

	writeJSON(w, http.StatusOK, map[string]importCounts{
		"memories": memories,
		"tasks":    tasks,
	})
}
