package notify

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/sandeepkv93/memoria/internal/storage"
	"github.com/sandeepkv93/memoria/internal/timeparse"
)

const defaultScanInterval = 30 * time.Second

// Watcher periodically scans storage for open tasks whose due time has
// passed without a notification and publishes a reminder for each. Due-ness
// is a database predicate, so the watcher polls rather than keeping its own
// timer queue. A reminder failure leaves notified_at unset and the task is
// retried on the next scan.
type Watcher struct {
	repo     storage.Repository
	pub      Publisher
	interval time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewWatcher(repo storage.Repository, pub Publisher, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = defaultScanInterval
	}
	return &Watcher{
		repo:     repo,
		pub:      pub,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return
	}
	w.started = true
	go w.loop()
}

func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stopCh)
	w.mu.Unlock()
	<-w.doneCh
}

func (w *Watcher) loop() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.scan(context.Background(), time.Now().UTC())
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) scan(ctx context.Context, now time.Time) {
	tasks, err := w.repo.DueUnnotified(ctx, now)
	if err != nil {
		log.Printf("notify: due scan failed: %v", err)
		return
	}
	for _, t := range tasks {
		if _, ok := timeparse.ParseDue(t.Due); !ok {
			// Fail-open normalization can leave an unparseable due behind.
			continue
		}
		if err := w.pub.Publish(ctx, "Reminder", t.Title); err != nil {
			log.Printf("notify: task %d: %v", t.ID, err)
			continue
		}
		if err := w.repo.SetNotified(ctx, t.ID, now); err != nil {
			log.Printf("notify: mark task %d notified: %v", t.ID, err)
		}
	}
}
