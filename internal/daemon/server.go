package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"git.home.luguber.info/inful/blogpress/internal/history"
	"git.home.luguber.info/inful/blogpress/internal/logfields"
	"git.home.luguber.info/inful/blogpress/internal/metrics"
)

// startHTTPServer binds the listen address up front so startup fails fast on
// a taken port, then serves in a worker goroutine.
func (d *Daemon) startHTTPServer() (*http.Server, error) {
	ln, err := net.Listen("tcp", d.cfg.Daemon.Listen)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", d.cfg.Daemon.Listen, err)
	}
	d.setBoundAddr(ln.Addr().String())

	srv := &http.Server{
		Handler:           d.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	d.workers.Go(func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", logfields.Error(err))
		}
	})
	return srv, nil
}

func (d *Daemon) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", d.handleWebhook)
	mux.HandleFunc("GET /healthz", d.handleHealthz)
	mux.HandleFunc("GET /status", d.handleStatus)
	if d.registry != nil {
		mux.Handle("GET /metrics", metrics.HTTPHandler(d.registry))
	}
	return mux
}

// handleWebhook accepts a plain-text branch identifier as the request body;
// an empty body means the configured branch. The build runs asynchronously,
// so the response only acknowledges the trigger.
func (d *Daemon) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 256))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	j := newJob(history.TriggerWebhook, branchFromPayload(body))
	accepted := d.Enqueue(j)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":    j.id,
		"coalesced": !accepted,
	})
}

func (d *Daemon) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	st := d.Status()
	code := http.StatusOK
	if st != StatusRunning {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": string(st)})
}

func (d *Daemon) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.snapshot(r.Context()))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", logfields.Error(err))
	}
}

func (d *Daemon) setBoundAddr(addr string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.boundAddr = addr
}

// BoundAddr returns the address the HTTP server actually listens on, useful
// when the configured port is 0.
func (d *Daemon) BoundAddr() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.boundAddr
}
