package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/memoria/internal/model"
	"github.com/sandeepkv93/memoria/internal/storage"
)

// stubRepo implements only the two repository methods the watcher touches.
type stubRepo struct {
	storage.Repository

	due      []model.Task
	dueErr   error
	notified []int64
	scanned  chan struct{}
}

func (s *stubRepo) DueUnnotified(ctx context.Context, now time.Time) ([]model.Task, error) {
	if s.scanned != nil {
		select {
		case s.scanned <- struct{}{}:
		default:
		}
	}
	return s.due, s.dueErr
}

func (s *stubRepo) SetNotified(ctx context.Context, id int64, when time.Time) error {
	s.notified = append(s.notified, id)
	return nil
}

type stubPublisher struct {
	published []string
	err       error
}

func (s *stubPublisher) Publish(ctx context.Context, title, body string) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, body)
	return nil
}

func TestScanPublishesAndMarks(t *testing.T) {
	repo := &stubRepo{due: []model.Task{
		{ID: 1, Title: "call mom", Due: "2026-02-09T09:00:00Z"},
		{ID: 2, Title: "never normalized", Due: "whenever"},
	}}
	pub := &stubPublisher{}
	w := NewWatcher(repo, pub, time.Minute)

	w.scan(context.Background(), time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC))

	if len(pub.published) != 1 || pub.published[0] != "call mom" {
		t.Fatalf("published: %v", pub.published)
	}
	if len(repo.notified) != 1 || repo.notified[0] != 1 {
		t.Fatalf("notified: %v", repo.notified)
	}
}

func TestScanRetriesOnPublishFailure(t *testing.T) {
	repo := &stubRepo{due: []model.Task{
		{ID: 1, Title: "call mom", Due: "2026-02-09T09:00:00Z"},
	}}
	pub := &stubPublisher{err: errors.New("ntfy down")}
	w := NewWatcher(repo, pub, time.Minute)

	w.scan(context.Background(), time.Now().UTC())

	if len(repo.notified) != 0 {
		t.Fatalf("task marked notified despite publish failure: %v", repo.notified)
	}
}

func TestWatcherLifecycle(t *testing.T) {
	repo := &stubRepo{scanned: make(chan struct{}, 1)}
	w := NewWatcher(repo, &stubPublisher{}, 5*time.Millisecond)

	w.Start()
	w.Start() // second start is a no-op

	select {
	case <-repo.scanned:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher never scanned")
	}

	w.Stop()
	w.Stop() // second stop is a no-op
}
