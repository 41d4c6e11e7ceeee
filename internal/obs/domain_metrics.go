package obs

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartMutationsTotal counts cart store mutations by operation.
	CartMutationsTotal *prometheus.CounterVec
	// CartStorageFallbackTotal counts reads served by the secondary storage backend.
	CartStorageFallbackTotal prometheus.Counter
	// CartPersistErrorsTotal counts best-effort persistence writes that failed on both backends.
	CartPersistErrorsTotal prometheus.Counter
	// CheckoutTotal counts checkout attempts by outcome.
	CheckoutTotal *prometheus.CounterVec
	// OrderSubmitLatency records order submission latency in milliseconds.
	OrderSubmitLatency prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartMutationsTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart store mutations by operation.",
		}, []string{"op"}))
		CartStorageFallbackTotal = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_storage_fallback_total",
			Help:      "Number of cart loads served by the secondary storage backend.",
		}))
		CartPersistErrorsTotal = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_persist_errors_total",
			Help:      "Number of cart persistence writes that failed on every backend.",
		}))
		CheckoutTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout attempts by outcome.",
		}, []string{"result"}))
		OrderSubmitLatency = registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_submit_duration_ms",
			Help:      "Latency for order submission attempts in milliseconds.",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}))
	})
}

// ObserveCartMutation records a cart mutation. Safe to call before registration.
func ObserveCartMutation(op string) {
	if CartMutationsTotal != nil {
		CartMutationsTotal.WithLabelValues(op).Inc()
	}
}

// ObserveStorageFallback records a read served by the secondary backend.
func ObserveStorageFallback() {
	if CartStorageFallbackTotal != nil {
		CartStorageFallbackTotal.Inc()
	}
}

// ObservePersistError records a fully failed best-effort persistence write.
func ObservePersistError() {
	if CartPersistErrorsTotal != nil {
		CartPersistErrorsTotal.Inc()
	}
}

// ObserveCheckout records a checkout outcome ("accepted", "rejected",
// "invalid", "in_flight").
func ObserveCheckout(result string) {
	if CheckoutTotal != nil {
		CheckoutTotal.WithLabelValues(result).Inc()
	}
}

// ObserveOrderSubmitLatency records one order submission round trip.
func ObserveOrderSubmitLatency(d time.Duration) {
	if OrderSubmitLatency != nil {
		OrderSubmitLatency.Observe(DurationMillis(d))
	}
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram) prometheus.Histogram {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing
			}
		}
		panic(err)
	}
	return h
}
