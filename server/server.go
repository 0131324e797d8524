package server

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/callbacks"
	"github.com/effective-security/agentloop/pkg/llms"
	"github.com/effective-security/agentloop/tools"
	"github.com/effective-security/x/values"
	"github.com/effective-security/xlog"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentloop", "server")

// DefaultStatusTimeout is the timeout of the completion endpoint health probe.
const DefaultStatusTimeout = 5 * time.Second

// Option is a function that can be used to modify the Server.
type Option func(*Server)

// WithAssistantOptions sets the options of the session assistants.
func WithAssistantOptions(opts ...assistants.Option) Option {
	return func(s *Server) {
		s.assistantOpts = append(s.assistantOpts, opts...)
	}
}

// WithLLMEndpoint sets the completion endpoint root probed by /llm/status.
func WithLLMEndpoint(endpoint string) Option {
	return func(s *Server) {
		s.llmEndpoint = endpoint
	}
}

// WithHTTPClient sets the client used for the completion endpoint health probe.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Server) {
		s.httpClient = client
	}
}

// WithCallback adds a callback notified on every turn of every session,
// next to the metrics.
func WithCallback(cb assistants.Callback) Option {
	return func(s *Server) {
		s.callbacks = append(s.callbacks, cb)
	}
}

// Server serves the assistant API.
type Server struct {
	llm           llms.Model
	registry      *tools.Registry
	executor      *tools.Executor
	assistantOpts []assistants.Option
	llmEndpoint   string
	httpClient    *http.Client
	callbacks     []assistants.Callback

	sessions *sessions
	metrics  *Metrics
}

// New returns the server for the model and the tools.
func New(model llms.Model, registry *tools.Registry, opts ...Option) (*Server, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if registry == nil {
		registry, _ = tools.NewRegistry()
	}

	s := &Server{
		llm:      model,
		registry: registry,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: DefaultStatusTimeout}
	}

	s.sessions = newSessions(s.newAssistant)
	s.metrics = NewMetrics(func() float64 { return float64(s.sessions.len()) })
	s.executor = tools.NewExecutor(registry, s.metrics.Callback())

	// fail early on invalid assistant options
	if _, err := s.newAssistant(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) newAssistant() (*assistants.Assistant, error) {
	opts := append([]assistants.Option{}, s.assistantOpts...)
	cb := callbacks.NewFanout(s.metrics.Callback())
	for _, c := range s.callbacks {
		cb.Add(c)
	}
	opts = append(opts, assistants.WithCallback(cb))
	return assistants.NewAssistant(s.llm, s.registry, opts...)
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// EvictSessions removes the sessions idle for longer than the given duration.
func (s *Server) EvictSessions(idle time.Duration) int {
	count := s.sessions.evict(time.Now().Add(-idle))
	if count > 0 {
		logger.KV(xlog.INFO, "status", "sessions_evicted", "count", count)
	}
	return count
}

// RunEviction evicts idle sessions periodically until the context is done.
func (s *Server) RunEviction(ctx context.Context, idle time.Duration) {
	period := values.NumbersCoalesce(idle/2, time.Minute)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.EvictSessions(idle)
		}
	}
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)

	r.Get("/health", s.health)
	r.Get("/llm/status", s.llmStatus)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/agent", func(r chi.Router) {
		r.Post("/chat", s.chat)
		r.Get("/tools", s.listTools)
		r.Get("/sessions/{id}", s.getSession)
		r.Delete("/sessions/{id}", s.deleteSession)

		r.Get("/opportunities", s.opportunities)
		r.Get("/support-cases", s.supportCases)
		r.Get("/accounts", s.accountInfo)
		r.Get("/accounts/{id}", s.accountInfo)
		r.Get("/account-health/{id}", s.accountHealth)
	})
	return r
}
