package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/SecretPocketCat/chela/internal/daemon"
)

// apiClient talks to a running daemon over its HTTP API.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(addr string, timeout time.Duration) *apiClient {
	base := strings.TrimRight(strings.TrimSpace(addr), "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &apiClient{baseURL: base, http: &http.Client{Timeout: timeout}}
}

func (c *apiClient) openDir(ctx context.Context, dir string) (daemon.ImageDir, error) {
	var result daemon.ImageDir
	body, err := json.Marshal(map[string]string{"path": dir})
	if err != nil {
		return result, err
	}
	err = c.do(ctx, http.MethodPost, "/api/dirs", bytes.NewReader(body), &result)
	return result, err
}

func (c *apiClient) status(ctx context.Context) (daemon.Status, error) {
	var result daemon.Status
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &result)
	return result, err
}

func (c *apiClient) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return wrapDialError(err, c.baseURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, payload.Error)
		}
		return fmt.Errorf("daemon returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

var errDaemonUnreachable = errors.New("daemon unreachable")

func wrapDialError(err error, base string) error {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("%w: %s refused the connection; start the daemon with `chela serve`", errDaemonUnreachable, base)
	}
	return fmt.Errorf("%w: %v", errDaemonUnreachable, err)
}
