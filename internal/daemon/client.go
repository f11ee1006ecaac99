// Copyright (c) 2024-2025 Cortex Linux Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package daemon is the control client for the background cortex daemon.
//
// The daemon listens on localhost only. Setup uses this client to tell a
// running daemon to pick up fresh configuration, and the CLI surfaces
// its health in status output.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultPort is the daemon's localhost control port.
	DefaultPort = 8787

	// DefaultTimeout bounds control requests; the daemon is local, so
	// anything slower than this is effectively down.
	DefaultTimeout = 3 * time.Second
)

// ErrNotRunning means no daemon answered on the control port.
var ErrNotRunning = errors.New("cortex daemon is not running")

// Status is the daemon's self-reported state.
type Status struct {
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	PID     int    `json:"pid"`
}

// Client talks to the daemon's control API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the daemon on the default local port.
func NewClient() *Client {
	return NewClientAt(fmt.Sprintf("http://127.0.0.1:%d", DefaultPort))
}

// NewClientAt returns a client for an explicit base URL, for tests and
// non-default ports.
func NewClientAt(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// Ping reports whether the daemon is up.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon health check failed: %s", resp.Status)
	}
	return nil
}

// GetStatus fetches the daemon's version and uptime.
func (c *Client) GetStatus(ctx context.Context) (*Status, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daemon status failed: %s", resp.Status)
	}
	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode daemon status: %w", err)
	}
	return &status, nil
}

// ReloadConfig tells the daemon to re-read its configuration files.
// Setup calls this after writing fresh config so a running daemon does
// not keep serving stale settings.
func (c *Client) ReloadConfig(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/reload")
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon config reload failed: %s", resp.Status)
	}
	return nil
}

// Shutdown asks the daemon to stop gracefully.
func (c *Client) Shutdown(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodPost, "/v1/shutdown")
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("daemon shutdown failed: %s", resp.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ErrNotRunning
	}
	return resp, nil
}
