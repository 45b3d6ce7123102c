// Package notify delivers due-task reminders through an ntfy topic and runs
// the background watcher that finds tasks to remind about.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Publisher pushes a notification for a due task.
type Publisher interface {
	Publish(ctx context.Context, title, body string) error
}

// NtfyClient publishes to an ntfy topic. An empty topic disables publishing,
// matching a server run without notification config.
type NtfyClient struct {
	server string
	topic  string
	client *http.Client
}

func NewNtfyClient(server, topic string) *NtfyClient {
	return &NtfyClient{
		server: strings.TrimRight(server, "/"),
		topic:  topic,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (n *NtfyClient) Publish(ctx context.Context, title, body string) error {
	if n.topic == "" {
		return nil
	}
	url := n.server + "/" + n.topic
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Title", title)
	req.Header.Set("Tags", "bell")
	req.Header.Set("Priority", "4")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: publish: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("notify: publish: unexpected status %s", resp.Status)
	}
	return nil
}
