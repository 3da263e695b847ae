package metrics

import (
	"net/http"

	"github.com/campusmarket/marketplace-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Manager holds the custom Prometheus metrics for the marketplace core.
type Manager struct {
	Registry *prometheus.Registry

	RatingsSubmittedTotal      prometheus.Counter
	RatingsRemovedTotal        prometheus.Counter
	ReportsCreatedTotal        prometheus.Counter
	ReportsModeratedTotal      prometheus.Counter
	PromotionsActivatedTotal   prometheus.Counter
	PromotionsDeactivatedTotal prometheus.Counter
	FavoriteMutationsTotal     *prometheus.CounterVec

	HTTPErrorsTotal *prometheus.CounterVec
	HTTPLatency     *prometheus.HistogramVec
}

// NewManager initializes and registers the marketplace metrics on a
// dedicated registry.
func NewManager(serviceName string) *Manager {
	registry := prometheus.NewRegistry()

	ratingsSubmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "ratings_submitted_total",
		Help:      "Total number of rating upserts.",
	})
	ratingsRemoved := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "ratings_removed_total",
		Help:      "Total number of rating removals.",
	})
	reportsCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "reports_created_total",
		Help:      "Total number of abuse reports created.",
	})
	reportsModerated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "reports_moderated_total",
		Help:      "Total number of report moderation updates.",
	})
	promotionsActivated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "promotions_activated_total",
		Help:      "Total number of promotion activations.",
	})
	promotionsDeactivated := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "promotions_deactivated_total",
		Help:      "Total number of promotion deactivations.",
	})
	favoriteMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "favorite_mutations_total",
		Help:      "Total number of favorite set mutations by operation.",
	}, []string{"op"})

	httpErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: serviceName,
		Name:      "http_errors_total",
		Help:      "Total number of HTTP error responses by route and status.",
	}, []string{"route", "status"})
	httpLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: serviceName,
		Name:      "http_request_latency_seconds",
		Help:      "Latency of HTTP requests by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	registry.MustRegister(
		ratingsSubmitted,
		ratingsRemoved,
		reportsCreated,
		reportsModerated,
		promotionsActivated,
		promotionsDeactivated,
		favoriteMutations,
		httpErrors,
		httpLatency,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return &Manager{
		Registry:                   registry,
		RatingsSubmittedTotal:      ratingsSubmitted,
		RatingsRemovedTotal:        ratingsRemoved,
		ReportsCreatedTotal:        reportsCreated,
		ReportsModeratedTotal:      reportsModerated,
		PromotionsActivatedTotal:   promotionsActivated,
		PromotionsDeactivatedTotal: promotionsDeactivated,
		FavoriteMutationsTotal:     favoriteMutations,
		HTTPErrorsTotal:            httpErrors,
		HTTPLatency:                httpLatency,
	}
}

// StartServer exposes the registry on its own HTTP port under /metrics.
func StartServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start.")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("Prometheus metrics server starting", zap.String("port", port), zap.String("path", "/metrics"))

	server := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}
	return server.ListenAndServe()
}
