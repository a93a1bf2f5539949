/*
 * Copyright (c) 2026, the KeyReg authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
 * implied. See the License for the specific language governing
 * permissions and limitations under the License.
 */

// Package refresh triggers a running server's cache reload from the
// administrative tool. The object store is always the source of truth: a
// committed mutation whose refresh signal is lost only means the running
// instance serves the prior cached state until the next refresh or
// restart, so callers treat a failed trigger as a warning, never as a
// failed mutation. There is no automatic retry.
package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds the refresh trigger call; on expiry the trigger
// is reported failed rather than left hanging
const DefaultTimeout = 5 * time.Second

// Response is the server's refresh trigger response body
type Response struct {
	Status     string `json:"status"`
	KeysLoaded int    `json:"keys_loaded"`
	Timestamp  string `json:"timestamp"`
}

// Client invokes the refresh trigger of a running server
type Client struct {
	httpClient *http.Client
}

// NewClient creates a refresh client with the given per-call timeout;
// zero means DefaultTimeout
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Trigger calls POST <baseURL>/refresh and returns the number of keys the
// server loaded
func (c *Client) Trigger(ctx context.Context, baseURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/refresh", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build refresh request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("refresh trigger unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("refresh trigger failed (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed Response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse refresh response: %w", err)
	}

	return parsed.KeysLoaded, nil
}
