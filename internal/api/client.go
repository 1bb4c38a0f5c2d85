// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides a typed HTTP client for the remote ituhouse backend.
// All persistent state (accounts, posts, comments, about sections, uploads)
// lives behind this client; the web application itself stores nothing but
// session data.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// RequestTimeout is the timeout applied to every backend call.
	RequestTimeout = 30 * time.Second
	// UserAgent identifies this frontend to the backend.
	UserAgent = "ituhouse-web/1.0"
	// MaxResponseLen caps how much of a response body is read (1MB).
	MaxResponseLen = 1 << 20
)

// Error is returned for any non-2xx backend response. Message carries the
// backend's structured detail when one was provided, else the status text.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsUnauthorized reports whether err is a backend 401.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// Client talks to the remote ituhouse API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given base URL (no trailing slash).
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request issues a JSON request. A nil in sends no body. A non-empty token is
// attached as a bearer credential. The response body is read fully as text
// first, then JSON-parsed; non-JSON bodies (empty bodies, plain-text errors)
// never make the parser throw.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, in any, token string, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(path, query), body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCommonHeaders(req, token)

	return c.send(req, out)
}

// requestMultipart issues a multipart request. The Content-Type (with its
// boundary) must come from the multipart writer, so it is passed through
// verbatim instead of being forced to JSON.
func (c *Client) requestMultipart(ctx context.Context, path string, body io.Reader, contentType, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(path, nil), body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	c.setCommonHeaders(req, token)

	return c.send(req, out)
}

func (c *Client) setCommonHeaders(req *http.Request, token string) {
	req.Header.Set("User-Agent", UserAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) buildURL(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp == nil {
		return fmt.Errorf("nil response from server")
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw, resp),
		}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// errorMessage extracts a human-readable message from an error response body.
// It prefers the backend's structured "detail" field, then "message", and
// falls back to the HTTP status text.
func errorMessage(raw []byte, resp *http.Response) string {
	var parsed map[string]any
	if json.Unmarshal(raw, &parsed) == nil {
		if detail, ok := parsed["detail"].(string); ok && detail != "" {
			return detail
		}
		if msg, ok := parsed["message"].(string); ok && msg != "" {
			return msg
		}
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}
