// Package http exposes the engine as a JSON control API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/autopilot/internal/logging"
	"github.com/aretw0/autopilot/internal/presentation/graph"
	"github.com/aretw0/autopilot/pkg/domain"
	"github.com/aretw0/autopilot/pkg/schema"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the part of the autopilot engine served over HTTP.
type Engine interface {
	ListTasks(ctx context.Context) ([]string, error)
	LoadTask(ctx context.Context, name string) (*domain.Task, error)
	Open(ctx context.Context, name string) (*domain.Task, error)
	ImportTask(ctx context.Context, name string, records []schema.Record) (*domain.Task, error)
	DeleteTask(ctx context.Context, name string) error
	Task() *domain.Task
	AddNode(kind domain.Kind, name, geometry string) (*domain.Node, error)
	DeleteNode(name string) error
	UpdateField(node, key string, value any) (*domain.Node, error)
	Save(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() domain.Status
	Reports() []domain.Report
}

// Server holds the HTTP handlers.
type Server struct {
	Engine  Engine
	Version string

	events  http.Handler
	metrics prometheus.Gatherer
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithEvents mounts a WebSocket event stream at /events.
func WithEvents(h http.Handler) Option {
	return func(s *Server) {
		s.events = h
	}
}

// WithMetrics exposes g at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = g
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.Version = v
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine, Version: "dev", logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", s.ListTasks)
		r.Get("/{name}", s.GetTask)
		r.Put("/{name}", s.PutTask)
		r.Delete("/{name}", s.DeleteTask)
		r.Post("/{name}/open", s.OpenTask)
	})

	r.Route("/task", func(r chi.Router) {
		r.Get("/", s.GetCurrent)
		r.Get("/graph", s.GetGraph)
		r.Post("/nodes", s.AddNode)
		r.Patch("/nodes/{node}", s.UpdateNode)
		r.Delete("/nodes/{node}", s.DeleteNode)
	})

	r.Post("/run/start", s.Start)
	r.Post("/run/stop", s.Stop)
	r.Get("/status", s.GetStatus)
	r.Get("/reports", s.GetReports)

	if s.events != nil {
		r.Handle("/events", s.events)
	}
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TaskResponse is the wire form of a task.
type TaskResponse struct {
	Name    string          `json:"name"`
	Records []schema.Record `json:"records"`
	Targets []string        `json:"targets"`
}

// TaskRequest replaces a task.
type TaskRequest struct {
	Records []schema.Record `json:"records"`
}

// NodeRequest adds a node to the selected task.
type NodeRequest struct {
	Kind     domain.Kind `json:"kind"`
	Name     string      `json:"name"`
	Geometry string      `json:"geometry,omitempty"`
}

// FieldRequest sets one record field of a node.
type FieldRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func taskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{Name: t.Name, Records: schema.TaskRecords(t), Targets: t.TargetChoices()}
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "autopilot-http",
		"version": s.Version,
	})
}

// ListTasks handles the GET /tasks request.
func (s *Server) ListTasks(w http.ResponseWriter, r *http.Request) {
	names, err := s.Engine.ListTasks(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	s.writeJSON(w, http.StatusOK, names)
}

// GetTask handles the GET /tasks/{name} request.
func (s *Server) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.Engine.LoadTask(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, taskResponse(task))
}

// PutTask handles the PUT /tasks/{name} request.
func (s *Server) PutTask(w http.ResponseWriter, r *http.Request) {
	var body TaskRequest
	if !s.decode(w, r, &body) {
		return
	}
	task, err := s.Engine.ImportTask(r.Context(), chi.URLParam(r, "name"), body.Records)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, taskResponse(task))
}

// DeleteTask handles the DELETE /tasks/{name} request.
func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteTask(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenTask handles the POST /tasks/{name}/open request.
func (s *Server) OpenTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.Engine.Open(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, taskResponse(task))
}

// GetCurrent handles the GET /task request.
func (s *Server) GetCurrent(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, taskResponse(s.Engine.Task()))
}

// GetGraph handles the GET /task/graph request, returning a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	overlay := &graph.GraphOverlay{CurrentNode: s.Engine.Status().Current}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(graph.GenerateMermaid(s.Engine.Task(), overlay)))
}

// AddNode handles the POST /task/nodes request.
func (s *Server) AddNode(w http.ResponseWriter, r *http.Request) {
	var body NodeRequest
	if !s.decode(w, r, &body) {
		return
	}
	n, err := s.Engine.AddNode(body.Kind, body.Name, body.Geometry)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Engine.Save(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, schema.Encode(n))
}

// UpdateNode handles the PATCH /task/nodes/{node} request.
func (s *Server) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var body FieldRequest
	if !s.decode(w, r, &body) {
		return
	}
	n, err := s.Engine.UpdateField(chi.URLParam(r, "node"), body.Key, body.Value)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Engine.Save(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, schema.Encode(n))
}

// DeleteNode handles the DELETE /task/nodes/{node} request.
func (s *Server) DeleteNode(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.DeleteNode(chi.URLParam(r, "node")); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Engine.Save(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Start handles the POST /run/start request.
func (s *Server) Start(w http.ResponseWriter, r *http.Request) {
	// The run outlives the request.
	if err := s.Engine.Start(context.WithoutCancel(r.Context())); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Engine.Status())
}

// Stop handles the POST /run/stop request.
func (s *Server) Stop(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Stop(context.WithoutCancel(r.Context())); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.Engine.Status())
}

// GetStatus handles the GET /status request.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Status())
}

// GetReports handles the GET /reports request.
func (s *Server) GetReports(w http.ResponseWriter, r *http.Request) {
	reports := s.Engine.Reports()
	if reports == nil {
		reports = []domain.Report{}
	}
	s.writeJSON(w, http.StatusOK, reports)
}

// -- Helpers --

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "error", err)
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

type errorBody struct {
	Error string `json:"error"`
}

func statusFor(err error) int {
	var verr *schema.ValidationError
	switch {
	case errors.Is(err, domain.ErrTaskNotFound), errors.Is(err, domain.ErrNodeNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTaskRunning),
		errors.Is(err, domain.ErrAlreadyRunning),
		errors.Is(err, domain.ErrNotRunning),
		errors.Is(err, domain.ErrTaskExists),
		errors.Is(err, domain.ErrDuplicateNode),
		errors.Is(err, domain.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrInvalidGeometry),
		errors.Is(err, domain.ErrInvalidNode),
		errors.Is(err, schema.ErrUnknownEventType),
		errors.Is(err, schema.ErrInvalidRecord),
		errors.As(err, &verr):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, errorBody{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
