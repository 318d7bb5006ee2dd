package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

var (
	// Logger is the structured pipeline logger, initialized by Init.
	Logger *zap.Logger

	moderationActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_actions_total",
			Help: "Moderation actions taken, by action kind",
		},
		[]string{"action"},
	)

	adScoreObserved = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ad_score",
			Help:    "Ad-likelihood scores of classified messages",
			Buckets: []float64{0, 1, 2, 3, 5, 7, 10, 15, 20},
		},
	)

	messageProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "message_processing_duration_seconds",
			Help:    "Time spent deciding and enforcing per message",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)
)

func Init(_ context.Context) error {
	var err error
	Logger, err = zap.NewProduction()
	if err != nil {
		return err
	}

	prometheus.MustRegister(moderationActionsTotal)
	prometheus.MustRegister(adScoreObserved)
	prometheus.MustRegister(messageProcessingDuration)

	tp := trace.NewTracerProvider()
	otel.SetTracerProvider(tp)

	return nil
}

// RecordAction counts one finalized moderation action.
func RecordAction(kind string) {
	moderationActionsTotal.WithLabelValues(kind).Inc()
}

// RecordAdScore tracks the classifier score distribution.
func RecordAdScore(score int) {
	adScoreObserved.Observe(float64(score))
}

// StartMessageProcessing returns a function that records the elapsed
// processing time under the given status label.
func StartMessageProcessing() func(status string) {
	start := time.Now()
	return func(status string) {
		messageProcessingDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}

// Server exposes the prometheus endpoint as a lifecycle component.
type Server struct {
	addr string
	srv  *http.Server
}

func NewServer(addr string) *Server {
	return &Server{addr: addr}
}

func (s *Server) Start(_ context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	s.srv = &http.Server{Addr: s.addr, Handler: mux}
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server failed")
		}
	}()
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
