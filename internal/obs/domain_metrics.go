package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts finalized orders by fulfilment mode.
	OrdersCreatedTotal *prometheus.CounterVec
	// OrderValueCents records the total value of finalized orders.
	OrderValueCents *prometheus.HistogramVec
	// SalesReportTotal counts sales report requests by period.
	SalesReportTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers billing Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of finalized orders by mode.",
		}, []string{"mode"})
		OrderValueCents = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value_cents",
			Help:      "Distribution of order totals in cents.",
			Buckets:   []float64{1000, 5000, 10000, 25000, 50000, 100000, 250000, 500000},
		}, []string{"mode"})
		SalesReportTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sales_report_requests_total",
			Help:      "Count of sales report requests by period.",
		}, []string{"period"})

		mustRegisterCollector(reg, OrdersCreatedTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrdersCreatedTotal = v
			}
		})
		mustRegisterCollector(reg, OrderValueCents, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				OrderValueCents = v
			}
		})
		mustRegisterCollector(reg, SalesReportTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				SalesReportTotal = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, c prometheus.Collector, replace func(prometheus.Collector)) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			replace(are.ExistingCollector)
			return
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
}
