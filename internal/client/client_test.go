package client

import (
	"context"
	"database/sql"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sandeepkv93/memoria/internal/api"
	"github.com/sandeepkv93/memoria/internal/config"
	"github.com/sandeepkv93/memoria/internal/storage"
)

func setupClient(t *testing.T, token string) *Client {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "client.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.MigrateUp(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	repo, err := storage.NewSQLiteRepository(db)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	srv := httptest.NewServer(api.New(repo, config.Config{AuthToken: "secret"}).Handler())
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", token)
}

func TestClientCaptureAndList(t *testing.T) {
	c := setupClient(t, "secret")
	ctx := context.Background()

	resp, err := c.Capture(ctx, "remind me to water the plants tomorrow at 8am")
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if resp.Kind != "task" || resp.Text != "water the plants" {
		t.Fatalf("capture response: %+v", resp)
	}

	if _, err := c.Capture(ctx, "bought milk"); err != nil {
		t.Fatalf("capture memory: %v", err)
	}

	tasks, err := c.ListTasks(ctx, true)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "water the plants" {
		t.Fatalf("tasks: %+v", tasks)
	}

	page, err := c.ListMemories(ctx, "milk")
	if err != nil {
		t.Fatalf("list memories: %v", err)
	}
	if page.Total != 1 || page.Items[0].Text != "bought milk" {
		t.Fatalf("memories: %+v", page)
	}
}

func TestClientExportImport(t *testing.T) {
	c := setupClient(t, "secret")
	ctx := context.Background()

	if _, err := c.Capture(ctx, "remember that the gate code is 4321"); err != nil {
		t.Fatalf("capture: %v", err)
	}
	data, err := c.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(data.Memories) != 1 {
		t.Fatalf("export: %+v", data)
	}

	counts, err := c.Import(ctx, data, false)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if counts["memories"]["skipped"] != 1 {
		t.Fatalf("import counts: %+v", counts)
	}
}

func TestClientSurfacesAPIError(t *testing.T) {
	c := setupClient(t, "wrong-token")

	_, err := c.ListTasks(context.Background(), false)
	if err == nil {
		t.Fatal("expected an auth error")
	}
	if !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("error does not carry the api message: %v", err)
	}
}
