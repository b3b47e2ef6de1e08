// Package web provides a read-only HTTP status page for the fancontrold
// daemon.
package web

import (
	"context"
	"net"
	"net/http"

	"github.com/WataNekko/home-server-utils/internal/journal"
	"github.com/WataNekko/home-server-utils/internal/status"
)

// recentEventsLimit caps how many journal rows the index page shows.
const recentEventsLimit = 20

// EventSource supplies recent journal entries for the index page. A nil
// EventSource means the daemon runs without a journal and the page simply
// omits the history table.
type EventSource interface {
	Recent(ctx context.Context, n int) ([]journal.Entry, error)
}

// Server serves the status page over HTTP.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	events     EventSource
}

// New creates a Server that reads state from the given tracker and event
// history from the given source.
func New(addr string, tracker *status.Tracker, events EventSource) *Server {
	s := &Server{tracker: tracker, events: events}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/index.json", s.handleJSON)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	snap := s.tracker.Snapshot()

	var entries []journal.Entry
	if s.events != nil {
		// A broken journal must not take the status page down with it.
		entries, _ = s.events.Recent(r.Context(), recentEventsLimit)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, snap, entries)
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Write(status.FormatJSON(snap))
}
