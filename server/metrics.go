package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/tools"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the Prometheus collectors of the server.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	turns           *prometheus.CounterVec
	toolCalls       *prometheus.CounterVec
	sessions        prometheus.GaugeFunc
}

// NewMetrics returns the collectors registered in a new registry.
func NewMetrics(activeSessions func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "method", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agentloop_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloop_chat_turns_total",
				Help: "Total number of chat turns",
			},
			[]string{"assistant", "result"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agentloop_tool_calls_total",
				Help: "Total number of tool calls",
			},
			[]string{"tool", "result"},
		),
		sessions: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "agentloop_sessions",
				Help: "Number of active chat sessions",
			},
			activeSessions,
		),
	}
	m.registry.MustRegister(
		m.requests,
		m.requestDuration,
		m.turns,
		m.toolCalls,
		m.sessions,
	)
	return m
}

// Handler returns the /metrics handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records the request count and duration by route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unknown"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(route, r.Method).Observe(time.Since(started).Seconds())
	})
}

// Callback returns the assistant callback counting turns and tool calls.
func (m *Metrics) Callback() assistants.Callback {
	return &metricsCallback{m: m}
}

type metricsCallback struct {
	assistants.NoopCallback
	m *Metrics
}

func (c *metricsCallback) OnAssistantEnd(_ context.Context, a assistants.IAssistant, _ string, turn *assistants.Turn) {
	result := "answered"
	if turn.UsedTools() {
		result = "answered_with_tools"
	}
	c.m.turns.WithLabelValues(a.Name(), result).Inc()
}

func (c *metricsCallback) OnAssistantError(_ context.Context, a assistants.IAssistant, _ string, _ error) {
	c.m.turns.WithLabelValues(a.Name(), "failed").Inc()
}

func (c *metricsCallback) OnToolEnd(_ context.Context, tool tools.ITool, _ map[string]any, _ string) {
	c.m.toolCalls.WithLabelValues(tool.Name(), "succeeded").Inc()
}

func (c *metricsCallback) OnToolError(_ context.Context, tool tools.ITool, _ map[string]any, _ error) {
	c.m.toolCalls.WithLabelValues(tool.Name(), "failed").Inc()
}

func (c *metricsCallback) OnToolNotFound(_ context.Context, name string) {
	c.m.toolCalls.WithLabelValues(name, "not_found").Inc()
}
