// Package client is a thin HTTP client for a running Memoria server, used by
// the CLI one-shots and the capture TUI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandeepkv93/memoria/internal/api"
	"github.com/sandeepkv93/memoria/internal/model"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *Client) Capture(ctx context.Context, text string) (api.CaptureResponse, error) {
	var out api.CaptureResponse
	err := c.do(ctx, http.MethodPost, "/capture", nil, map[string]string{"text": text}, &out)
	return out, err
}

func (c *Client) ListTasks(ctx context.Context, openOnly bool) ([]api.TaskView, error) {
	query := url.Values{}
	if openOnly {
		query.Set("open_only", "true")
	}
	var out []api.TaskView
	err := c.do(ctx, http.MethodGet, "/tasks", query, nil, &out)
	return out, err
}

type MemoryPage struct {
	Items []model.Memory `json:"items"`
	Total int            `json:"total"`
}

func (c *Client) ListMemories(ctx context.Context, search string) (MemoryPage, error) {
	query := url.Values{}
	if search != "" {
		query.Set("q", search)
	}
	var out MemoryPage
	err := c.do(ctx, http.MethodGet, "/memories", query, nil, &out)
	return out, err
}

func (c *Client) Export(ctx context.Context) (api.ExportData, error) {
	var out api.ExportData
	err := c.do(ctx, http.MethodGet, "/export", nil, nil, &out)
	return out, err
}

func (c *Client) Import(ctx context.Context, data api.ExportData, overwrite bool) (map[string]map[string]int, error) {
	query := url.Values{}
	if overwrite {
		query.Set("overwrite", "true")
	}
	var out map[string]map[string]int
	err := c.do(ctx, http.MethodPost, "/import", query, data, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("client: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("client: %s %s: %s (%s)", method, path, apiErr.Error, resp.Status)
		}
		return fmt.Errorf("client: %s %s: unexpected status %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decode response: %w", err)
	}
	return nil
}
