package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Connection cache metrics
	connectionCacheHits   prometheus.Counter
	connectionCacheMisses prometheus.Counter
	connectionBuildsTotal *prometheus.CounterVec

	// SharePoint call metrics
	tokenRequestsTotal  prometheus.Counter
	requestRetriesTotal prometheus.Counter

	// Webhook metrics
	webhookOperationsTotal     *prometheus.CounterVec
	notificationsReceivedTotal prometheus.Counter

	// Registration guard
	metricsOnce       sync.Once
	metricsRegistered bool
)

// ServiceMetrics provides methods to record service metrics.
type ServiceMetrics struct{}

// NewServiceMetrics creates a new ServiceMetrics instance.
// Metrics are registered separately via InitMetrics.
func NewServiceMetrics() *ServiceMetrics {
	return &ServiceMetrics{}
}

// InitMetrics initializes all Prometheus metrics.
// This should be called once at startup.
func InitMetrics() {
	metricsOnce.Do(func() {
		connectionCacheHits = promauto.NewCounter(prometheus.CounterOpts{
			Name: "spwebhooks_connection_cache_hits_total",
			Help: "Total number of connection cache hits",
		})

		connectionCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
			Name: "spwebhooks_connection_cache_misses_total",
			Help: "Total number of connection cache misses",
		})

		connectionBuildsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spwebhooks_connection_builds_total",
				Help: "Total number of site connection constructions",
			},
			[]string{"outcome"},
		)

		tokenRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "spwebhooks_token_requests_total",
			Help: "Total number of access tokens issued through the debug surface",
		})

		requestRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "spwebhooks_request_retries_total",
			Help: "Total number of SharePoint request retries",
		})

		webhookOperationsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "spwebhooks_webhook_operations_total",
				Help: "Total number of webhook subscription operations",
			},
			[]string{"operation", "outcome"},
		)

		notificationsReceivedTotal = promauto.NewCounter(prometheus.CounterOpts{
			Name: "spwebhooks_notifications_received_total",
			Help: "Total number of change notifications received",
		})

		metricsRegistered = true
	})
}

// RecordCacheHit records a connection cache hit.
func (m *ServiceMetrics) RecordCacheHit() {
	if !metricsRegistered || connectionCacheHits == nil {
		return
	}
	connectionCacheHits.Inc()
}

// RecordCacheMiss records a connection cache miss.
func (m *ServiceMetrics) RecordCacheMiss() {
	if !metricsRegistered || connectionCacheMisses == nil {
		return
	}
	connectionCacheMisses.Inc()
}

// RecordConnectionBuild records a connection construction with its outcome.
func (m *ServiceMetrics) RecordConnectionBuild(outcome string) {
	if !metricsRegistered || connectionBuildsTotal == nil {
		return
	}
	connectionBuildsTotal.WithLabelValues(outcome).Inc()
}

// RecordTokenRequest records a debug token issuance.
func (m *ServiceMetrics) RecordTokenRequest() {
	if !metricsRegistered || tokenRequestsTotal == nil {
		return
	}
	tokenRequestsTotal.Inc()
}

// RecordRequestRetry records a SharePoint request retry.
func (m *ServiceMetrics) RecordRequestRetry() {
	if !metricsRegistered || requestRetriesTotal == nil {
		return
	}
	requestRetriesTotal.Inc()
}

// RecordWebhookOperation records a webhook subscription operation with its outcome.
func (m *ServiceMetrics) RecordWebhookOperation(operation, outcome string) {
	if !metricsRegistered || webhookOperationsTotal == nil {
		return
	}
	webhookOperationsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordNotificationReceived records one received change notification.
func (m *ServiceMetrics) RecordNotificationReceived() {
	if !metricsRegistered || notificationsReceivedTotal == nil {
		return
	}
	notificationsReceivedTotal.Inc()
}

// GetConnectionBuildsTotal returns the connection build counter for testing.
func GetConnectionBuildsTotal() *prometheus.CounterVec {
	return connectionBuildsTotal
}

// IsMetricsRegistered returns whether metrics have been initialized.
func IsMetricsRegistered() bool {
	return metricsRegistered
}
