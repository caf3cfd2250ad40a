package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

const namespace = "ledgerly"

// Registry owns the collectors of one process.
type Registry struct {
	registry *prometheus.Registry

	AuthAttempts       *prometheus.CounterVec
	TokensIssued       prometheus.Counter
	TokenVerifications *prometheus.CounterVec
	CeremoniesStarted  *prometheus.CounterVec
	grpcRequests       *prometheus.CounterVec
	grpcLatency        *prometheus.HistogramVec
}

// NewRegistry builds a registry with the service collectors plus the Go
// runtime and process collectors.
func NewRegistry(service string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	labels := prometheus.Labels{"service": service}

	return &Registry{
		registry: reg,
		AuthAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "auth_attempts_total",
			Help:        "Authentication attempts by method and result.",
			ConstLabels: labels,
		}, []string{"method", "result"}),
		TokensIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "tokens_issued_total",
			Help:        "Session tokens issued.",
			ConstLabels: labels,
		}),
		TokenVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "token_verifications_total",
			Help:        "Token verifications by outcome.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		CeremoniesStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "passkey_ceremonies_started_total",
			Help:        "Passkey ceremonies started by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		grpcRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "grpc_requests_total",
			Help:        "gRPC requests by method and status code.",
			ConstLabels: labels,
		}, []string{"method", "code"}),
		grpcLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "grpc_request_duration_seconds",
			Help:        "gRPC request latency by method.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: labels,
		}, []string{"method"}),
	}
}

// Handler exposes the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer returns the underlying gatherer.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordAuthAttempt counts one authentication attempt.
func (r *Registry) RecordAuthAttempt(method string, success bool) {
	if r == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	r.AuthAttempts.WithLabelValues(method, result).Inc()
}

// RecordTokenIssued counts one issued session token.
func (r *Registry) RecordTokenIssued() {
	if r == nil {
		return
	}
	r.TokensIssued.Inc()
}

// RecordTokenVerification counts one verification by outcome.
func (r *Registry) RecordTokenVerification(outcome string) {
	if r == nil {
		return
	}
	r.TokenVerifications.WithLabelValues(outcome).Inc()
}

// RecordCeremonyStarted counts one started passkey ceremony.
func (r *Registry) RecordCeremonyStarted(kind string) {
	if r == nil {
		return
	}
	r.CeremoniesStarted.WithLabelValues(kind).Inc()
}

// UnaryServerInterceptor records request count and latency per method.
func (r *Registry) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		r.grpcLatency.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
		r.grpcRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
		return resp, err
	}
}
