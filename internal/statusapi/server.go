// Package statusapi exposes a small read-only HTTP surface for external
// monitoring of a run in progress. It is not a control plane and it is not
// a chat front end — it only renders whatever snapshot the run controller
// hands it.
package statusapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// TaskSnapshot mirrors one task's state for the /tasks endpoint.
type TaskSnapshot struct {
	Key        string `json:"key"`
	Text       string `json:"text"`
	Done       bool   `json:"done"`
	RetryCount int    `json:"retry_count"`
}

// RunSnapshot mirrors the controller's RunState for the /status endpoint.
type RunSnapshot struct {
	Phase            string    `json:"phase"`
	CurrentTaskKey   string    `json:"current_task_key,omitempty"`
	TokensUsed       int       `json:"tokens_used"`
	Commits          int       `json:"commits"`
	Iterations       int       `json:"iterations"`
	AutoCompleted    int       `json:"auto_completed"`
	Aborted          bool      `json:"aborted"`
	StartedAt        time.Time `json:"started_at"`
	LastHeartbeatAt  time.Time `json:"last_heartbeat_at"`
}

// StateProvider is the narrow read interface the status server polls. The
// run controller is the only intended implementor; the server never
// mutates anything it reads.
type StateProvider interface {
	RunSnapshot() RunSnapshot
	TaskSnapshots() []TaskSnapshot
}

// Server is a minimal chi-routed read-only HTTP server over a StateProvider.
type Server struct {
	httpServer *http.Server
	state      StateProvider
	host       string
	port       int
}

// NewServer builds a status server bound to host:port.
func NewServer(state StateProvider, host string, port int) *Server {
	s := &Server{state: state, host: host, port: port}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Get("/tasks", s.handleTasks)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start listens and serves until the process is shut down. It returns
// http.ErrServerClosed on a clean Shutdown, which callers should ignore.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.state.RunSnapshot())
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.state.TaskSnapshots())
}
