package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrderSubmittedTotal counts order submission outcomes.
	OrderSubmittedTotal *prometheus.CounterVec
	// OrderSessionsOpen tracks the number of currently open order sessions.
	OrderSessionsOpen prometheus.Gauge
	// RatesRefreshTotal counts rate configuration refresh outcomes.
	RatesRefreshTotal *prometheus.CounterVec
	// MenuCacheTotal counts menu cache lookups by result.
	MenuCacheTotal *prometheus.CounterVec
	// ReceiptTaskTotal counts receipt task processing outcomes.
	ReceiptTaskTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrderSubmittedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_submitted_total",
			Help:      "Count of order submission outcomes.",
		}, []string{"type", "result"})
		OrderSessionsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "order_sessions_open",
			Help:      "Number of currently open order sessions.",
		})
		RatesRefreshTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rates_refresh_total",
			Help:      "Count of rate configuration refresh outcomes.",
		}, []string{"result"})
		MenuCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "menu_cache_total",
			Help:      "Count of menu cache lookups by result.",
		}, []string{"result"})
		ReceiptTaskTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_task_total",
			Help:      "Count of receipt task processing outcomes.",
		}, []string{"result"})

		collectors := []prometheus.Collector{
			OrderSubmittedTotal,
			OrderSessionsOpen,
			RatesRefreshTotal,
			MenuCacheTotal,
			ReceiptTaskTotal,
		}
		for _, c := range collectors {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
					continue
				}
				panic(fmt.Errorf("register domain metric: %w", err))
			}
		}
	})
}
