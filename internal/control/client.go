// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/matt-FFFFFF/herd/internal/supervisor"
)

const clientTimeout = 2 * time.Minute

var (
	// ErrUnreachable is returned when no supervisor answers at the address.
	ErrUnreachable = errors.New("supervisor is not reachable")
	// ErrRemote is returned for API errors that do not map to a known kind.
	ErrRemote = errors.New("supervisor returned an error")
)

// Client talks to a Server.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for addr, either host:port or a full base URL.
func NewClient(addr string) *Client {
	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}

	return &Client{
		base: strings.TrimSuffix(base, "/"),
		http: &http.Client{Timeout: clientTimeout},
	}
}

// Health checks that a supervisor is listening.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, pathHealth, nil, nil)
}

// List returns the instance summaries.
func (c *Client) List(ctx context.Context) ([]supervisor.Summary, error) {
	var out []supervisor.Summary

	err := c.do(ctx, http.MethodGet, pathInstances, nil, &out)

	return out, err
}

// Get returns the instance detail. ok is false when the instance is not registered.
func (c *Client) Get(ctx context.Context, id string) (supervisor.Detail, bool, error) {
	var out supervisor.Detail

	err := c.do(ctx, http.MethodGet, instancePath(id), nil, &out)
	if errors.Is(err, supervisor.ErrInstanceNotFound) {
		return supervisor.Detail{}, false, nil
	}

	return out, err == nil, err
}

// Start starts an instance.
func (c *Client) Start(ctx context.Context, id, path string, opts supervisor.StartOptions) (supervisor.Instance, error) {
	var out supervisor.Instance

	err := c.do(ctx, http.MethodPost, pathInstances, StartRequest{ID: id, Path: path, Options: opts}, &out)

	return out, err
}

// Stop sends a stop signal. It returns false when the instance is not registered.
func (c *Client) Stop(ctx context.Context, id string, force bool) (bool, error) {
	err := c.do(ctx, http.MethodPost, instancePath(id, "stop"), StopRequest{Force: force}, nil)
	if errors.Is(err, supervisor.ErrInstanceNotFound) {
		return false, nil
	}

	return err == nil, err
}

// StopAll stops every instance.
func (c *Client) StopAll(ctx context.Context, force bool) (StopAllResponse, error) {
	var out StopAllResponse

	err := c.do(ctx, http.MethodPost, pathStopAll, StopRequest{Force: force}, &out)

	return out, err
}

// Restart restarts an instance, waiting for the old process when wait is set.
func (c *Client) Restart(ctx context.Context, id string, opts supervisor.RestartOptions, wait bool) (supervisor.Instance, error) {
	var out supervisor.Instance

	err := c.do(ctx, http.MethodPost, instancePath(id, "restart"), RestartRequest{Options: opts, Wait: wait}, &out)

	return out, err
}

// Signal sends a signal. It returns false when the instance is not registered
// or the signal was not delivered.
func (c *Client) Signal(ctx context.Context, id, sig string) (bool, error) {
	err := c.do(ctx, http.MethodPost, instancePath(id, "signal"), SignalRequest{Signal: sig}, nil)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, supervisor.ErrInstanceNotFound), errors.Is(err, supervisor.ErrSignalDelivery):
		return false, nil
	default:
		return false, err
	}
}

// Logs returns log lines. ok is false when no log exists.
func (c *Client) Logs(ctx context.Context, id string, opts supervisor.LogOptions) (string, bool, error) {
	q := url.Values{}
	if opts.Tail != nil {
		q.Set("tail", strconv.Itoa(*opts.Tail))
	}

	if opts.Head != nil {
		q.Set("head", strconv.Itoa(*opts.Head))
	}

	path := instancePath(id, "logs")
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return "", false, err
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", false, decodeError(resp)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, err
	}

	return string(b), true, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader

	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}

		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, r)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrUnreachable, err)
	}

	return resp, nil
}

func decodeError(resp *http.Response) error {
	var e ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
		return fmt.Errorf("%w: %s", ErrRemote, resp.Status)
	}

	for _, s := range sentinels {
		if s.kind == e.Kind {
			return fmt.Errorf("%w: %s", s.err, e.Error)
		}
	}

	return fmt.Errorf("%w: %s", ErrRemote, e.Error)
}

func instancePath(id string, action ...string) string {
	p := pathInstances + "/" + url.PathEscape(id)
	for _, a := range action {
		p += "/" + a
	}

	return p
}
