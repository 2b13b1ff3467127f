// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client provides a Go client library for the wayout API.
//
// wayout launches and stops local graphical applications on behalf of a
// browser UI. This package gives typed access to the same HTTP surface the
// UI uses.
//
// # Getting Started
//
//	c := client.New("http://localhost:3001")
//
//	apps, err := c.Applications.List(ctx)
//
//	app, err := c.Applications.Launch(ctx, "calculator")
//
//	err = c.Applications.Stop(ctx, app.AppID)
//
// # Error Handling
//
// Failed requests return *APIError carrying the server's error code:
//
//	_, err := c.Applications.Launch(ctx, "calculator")
//	var apiErr *client.APIError
//	if errors.As(err, &apiErr) && apiErr.Code == client.ErrCodeAlreadyRunning {
//	    // already up
//	}
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a wayout API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Applications provides catalog and process operations.
	Applications *ApplicationClient

	// Events provides access to the event log and live event stream.
	Events *EventClient

	// Crashes provides access to stored crash reports.
	Crashes *CrashClient
}

// Option configures a [Client].
type Option func(*Client)

// New creates a client for the server at baseURL. Any trailing slash is
// removed. Requests time out after 30 seconds unless configured otherwise.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Applications = &ApplicationClient{c: c}
	c.Events = &EventClient{c: c}
	c.Crashes = &CrashClient{c: c}

	return c
}

// WithHTTPClient sets a custom HTTP client for making requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP client timeout for all requests.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// BaseURL returns the base URL of the API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health returns the server liveness report.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/health", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// APIError is an error response from the server.
type APIError struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`

	// Code is one of the ErrCode* constants.
	Code string `json:"code"`

	// Message is a human-readable description of the error.
	Message string `json:"error"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// IsNotFound reports whether err is a NOT_FOUND API error.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == ErrCodeNotFound
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, out)
}

func (c *Client) post(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, out)
}

func (c *Client) delete(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodDelete, path, out)
}

// do performs an HTTP request and decodes a successful body into out.
func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
