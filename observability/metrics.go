// Package observability exposes prometheus collectors fed from the core's
// event stream. The core itself never reads these; hosts register them and
// wrap their emitter with NewMetricsEmitter.
package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"lendex/core/events"
)

// LendingMetrics gauges the per-reserve ledger fields and counts reward
// payouts.
type LendingMetrics struct {
	borrowedAmount      *prometheus.GaugeVec
	availableAmount     *prometheus.GaugeVec
	ctokenSupply        *prometheus.GaugeVec
	unclaimedSpreadFees *prometheus.GaugeVec
	interestUpdates     *prometheus.CounterVec
	rewardClaims        *prometheus.CounterVec
	rewardPaidTotal     *prometheus.CounterVec
}

var (
	lendingMetricsOnce sync.Once
	lendingRegistry    *LendingMetrics
)

// Metrics returns the lazily-initialised collector set.
func Metrics() *LendingMetrics {
	lendingMetricsOnce.Do(func() {
		lendingRegistry = &LendingMetrics{
			borrowedAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "lendex",
				Subsystem: "reserve",
				Name:      "borrowed_amount",
				Help:      "Outstanding borrowed amount per reserve, whole token units.",
			}, []string{"coin_type"}),
			availableAmount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "lendex",
				Subsystem: "reserve",
				Name:      "available_amount",
				Help:      "Idle liquidity per reserve in raw token units.",
			}, []string{"coin_type"}),
			ctokenSupply: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "lendex",
				Subsystem: "reserve",
				Name:      "ctoken_supply",
				Help:      "Outstanding cToken claims per reserve.",
			}, []string{"coin_type"}),
			unclaimedSpreadFees: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Namespace: "lendex",
				Subsystem: "reserve",
				Name:      "unclaimed_spread_fees",
				Help:      "Spread fees accrued and not yet claimed, whole token units.",
			}, []string{"coin_type"}),
			interestUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lendex",
				Subsystem: "reserve",
				Name:      "interest_updates_total",
				Help:      "Compounding events per reserve.",
			}, []string{"coin_type"}),
			rewardClaims: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lendex",
				Subsystem: "rewards",
				Name:      "claims_total",
				Help:      "Successful reward claims per reward coin type.",
			}, []string{"coin_type"}),
			rewardPaidTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "lendex",
				Subsystem: "rewards",
				Name:      "paid_total",
				Help:      "Cumulative reward amount paid out per reward coin type.",
			}, []string{"coin_type"}),
		}
	})
	return lendingRegistry
}

// Register attaches every collector to the given registerer.
func (m *LendingMetrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.borrowedAmount, m.availableAmount, m.ctokenSupply,
		m.unclaimedSpreadFees, m.interestUpdates,
		m.rewardClaims, m.rewardPaidTotal,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// MetricsEmitter records metrics from core events before forwarding them to
// the wrapped emitter.
type MetricsEmitter struct {
	next    events.Emitter
	metrics *LendingMetrics
}

// NewMetricsEmitter wraps next; a nil next discards forwarded events.
func NewMetricsEmitter(next events.Emitter) *MetricsEmitter {
	if next == nil {
		next = events.NoopEmitter{}
	}
	return &MetricsEmitter{next: next, metrics: Metrics()}
}

// Emit implements events.Emitter.
func (e *MetricsEmitter) Emit(evt events.Event) {
	switch v := evt.(type) {
	case events.InterestUpdate:
		labels := prometheus.Labels{"coin_type": v.CoinType}
		e.metrics.borrowedAmount.With(labels).Set(float64(v.BorrowedAmount.Floor()))
		e.metrics.availableAmount.With(labels).Set(float64(v.AvailableAmount))
		e.metrics.ctokenSupply.With(labels).Set(float64(v.CTokenSupply))
		e.metrics.unclaimedSpreadFees.With(labels).Set(float64(v.UnclaimedSpreadFees.Floor()))
		e.metrics.interestUpdates.With(labels).Inc()
	case events.RewardClaimed:
		labels := prometheus.Labels{"coin_type": v.CoinType}
		e.metrics.rewardClaims.With(labels).Inc()
		e.metrics.rewardPaidTotal.With(labels).Add(float64(v.Amount))
	}
	e.next.Emit(evt)
}
