// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package control

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/matt-FFFFFF/herd/internal/ctxlog"
	"github.com/matt-FFFFFF/herd/internal/supervisor"
)

const (
	readHeaderTimeout = 5 * time.Second
	maxBodyBytes      = 1 << 20
)

// Supervisor is the part of supervisor.Manager served over HTTP.
type Supervisor interface {
	Start(ctx context.Context, id, path string, opts supervisor.StartOptions) (supervisor.Instance, error)
	Stop(ctx context.Context, id string, opts supervisor.StopOptions) bool
	StopAll(ctx context.Context, opts supervisor.StopOptions) (int, error)
	Restart(ctx context.Context, id string, opts supervisor.RestartOptions) (supervisor.Instance, error)
	RestartAndWait(ctx context.Context, id string, opts supervisor.RestartOptions) (supervisor.Instance, error)
	List() []supervisor.Summary
	Get(id string) (supervisor.Detail, bool)
	SendSignal(ctx context.Context, id, sig string) bool
	GetLogs(id string, opts supervisor.LogOptions) (string, bool, error)
}

// Server serves the control API for one supervisor.
type Server struct {
	sup     Supervisor
	metrics http.Handler
	mux     *http.ServeMux
}

// NewServer builds the handler tree. metrics may be nil.
func NewServer(sup Supervisor, metrics http.Handler) *Server {
	s := &Server{
		sup:     sup,
		metrics: metrics,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("GET "+pathHealth, s.handleHealth)
	s.mux.HandleFunc("GET "+pathInstances, s.handleList)
	s.mux.HandleFunc("POST "+pathInstances, s.handleStart)
	s.mux.HandleFunc("GET "+pathInstances+"/{id}", s.handleGet)
	s.mux.HandleFunc("POST "+pathInstances+"/{id}/stop", s.handleStop)
	s.mux.HandleFunc("POST "+pathInstances+"/{id}/restart", s.handleRestart)
	s.mux.HandleFunc("POST "+pathInstances+"/{id}/signal", s.handleSignal)
	s.mux.HandleFunc("GET "+pathInstances+"/{id}/logs", s.handleLogs)
	s.mux.HandleFunc("POST "+pathStopAll, s.handleStopAll)

	if metrics != nil {
		s.mux.Handle("GET "+pathMetrics, metrics)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
// ready, if not nil, receives the bound address once the listener is open.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready chan<- string) error {
	logger := ctxlog.Logger(ctx)

	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if ready != nil {
		ready <- ln.Addr().String()
	}

	logger.Info("control API listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), readHeaderTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sup.List())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if !readJSON(w, r, &req) {
		return
	}

	if req.ID == "" || req.Path == "" {
		writeError(w, http.StatusBadRequest, errors.New("id and path are required"))
		return
	}

	inst, err := s.sup.Start(r.Context(), req.ID, req.Path, req.Options)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, inst)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	d, ok := s.sup.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, supervisor.ErrInstanceNotFound)
		return
	}

	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	var req StopRequest
	if !readJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")

	if _, ok := s.sup.Get(id); !ok {
		writeError(w, http.StatusNotFound, supervisor.ErrInstanceNotFound)
		return
	}

	if !s.sup.Stop(r.Context(), id, supervisor.StopOptions{Force: req.Force}) {
		writeError(w, http.StatusConflict, supervisor.ErrSignalDelivery)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleStopAll(w http.ResponseWriter, r *http.Request) {
	var req StopRequest
	if !readJSON(w, r, &req) {
		return
	}

	n, err := s.sup.StopAll(r.Context(), supervisor.StopOptions{Force: req.Force})

	resp := StopAllResponse{Count: n}

	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			resp.Errors = append(resp.Errors, e.Error())
		}
	} else if err != nil {
		resp.Errors = []string{err.Error()}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	var req RestartRequest
	if !readJSON(w, r, &req) {
		return
	}

	restart := s.sup.Restart
	if req.Wait {
		restart = s.sup.RestartAndWait
	}

	inst, err := restart(r.Context(), r.PathValue("id"), req.Options)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, inst)
}

func (s *Server) handleSignal(w http.ResponseWriter, r *http.Request) {
	var req SignalRequest
	if !readJSON(w, r, &req) {
		return
	}

	id := r.PathValue("id")

	if _, ok := s.sup.Get(id); !ok {
		writeError(w, http.StatusNotFound, supervisor.ErrInstanceNotFound)
		return
	}

	if !s.sup.SendSignal(r.Context(), id, req.Signal) {
		writeError(w, http.StatusConflict, supervisor.ErrSignalDelivery)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	var opts supervisor.LogOptions

	for key, dst := range map[string]**int{"tail": &opts.Tail, "head": &opts.Head} {
		v := r.URL.Query().Get(key)
		if v == "" {
			continue
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, supervisor.ErrInvalidLogRange)
			return
		}

		*dst = &n
	}

	content, ok, err := s.sup.GetLogs(r.PathValue("id"), opts)

	switch {
	case err != nil:
		writeError(w, statusFor(err), err)
	case !ok:
		writeError(w, http.StatusNotFound, errors.New("no log file"))
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(content))
	}
}

// statusFor maps supervisor errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, supervisor.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, supervisor.ErrInstanceNotFound):
		return http.StatusNotFound
	case errors.Is(err, supervisor.ErrFileNotFound),
		errors.Is(err, supervisor.ErrInvalidLogRange),
		errors.Is(err, supervisor.ErrUnknownSignal):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorKind names the sentinel so the client can rebuild it.
func errorKind(err error) string {
	for _, s := range sentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}

	return ""
}

var sentinels = []struct {
	kind string
	err  error
}{
	{"duplicate_id", supervisor.ErrDuplicateID},
	{"file_not_found", supervisor.ErrFileNotFound},
	{"instance_not_found", supervisor.ErrInstanceNotFound},
	{"spawn", supervisor.ErrSpawn},
	{"log_open", supervisor.ErrLogOpen},
	{"signal_delivery", supervisor.ErrSignalDelivery},
	{"invalid_log_range", supervisor.ErrInvalidLogRange},
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: errorKind(err)})
}
