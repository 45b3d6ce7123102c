// Package api exposes the capture service over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sandeepkv93/memoria/internal/config"
	"github.com/sandeepkv93/memoria/internal/model"
	"github.com/sandeepkv93/memoria/internal/storage"
)

type Server struct {
	repo storage.Repository
	cfg  config.Config
}

func New(repo storage.Repository, cfg config.Config) *Server {
	return &Server{repo: repo, cfg: cfg}
}

// Handler builds the full route table. Split out from Run so tests can drive
// it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /{$}", s.root)
	if s.cfg.WebDir != "" {
		mux.Handle("GET /web/", http.StripPrefix("/web/", http.FileServer(http.Dir(s.cfg.WebDir))))
	}

	mux.HandleFunc("POST /capture", s.auth(s.capture))

	mux.HandleFunc("GET /memories", s.auth(s.listMemories))
	mux.HandleFunc("POST /memories", s.auth(s.addMemory))
	mux.HandleFunc("PATCH /memories/{id}", s.auth(s.patchMemory))
	mux.HandleFunc("DELETE /memories/{id}", s.auth(s.deleteMemory))

	mux.HandleFunc("GET /tasks", s.auth(s.listTasks))
	mux.HandleFunc("POST /tasks", s.auth(s.addTask))
	mux.HandleFunc("POST /tasks/{id}/done", s.auth(s.doneTask))
	mux.HandleFunc("PATCH /tasks/{id}", s.auth(s.patchTask))
	mux.HandleFunc("DELETE /tasks/{id}", s.auth(s.deleteTask))

	mux.HandleFunc("GET /export", s.auth(s.exportData))
	mux.HandleFunc("POST /import", s.auth(s.importData))

	return withCORS(mux)
}

func (s *Server) Run() error {
	log.Printf("api: listening on %s", s.cfg.Addr)
	return http.ListenAndServe(s.cfg.Addr, s.Handler())
}

// auth enforces the x-auth-token header when a token is configured. An empty
// configured token disables the check entirely.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AuthToken != "" && r.Header.Get("X-Auth-Token") != s.cfg.AuthToken {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	if s.cfg.WebDir != "" {
		index := filepath.Join(s.cfg.WebDir, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "app": "Memoria Server"})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeStoreError maps repository errors onto status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, model.ErrEmptyTitle), errors.Is(err, model.ErrEmptyText):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
