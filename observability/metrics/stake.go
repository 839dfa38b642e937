package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// StakeMetrics tracks the staking ledger's operational counters and pool
// gauges. Amount gauges are reported in whole tokens and lose precision past
// float64 range; they are trend indicators, not accounting records.
type StakeMetrics struct {
	operations     *prometheus.CounterVec
	totalTokens    prometheus.Gauge
	totalShares    prometheus.Gauge
	unfundedTokens prometheus.Gauge
	unsentTokens   prometheus.Gauge
}

var (
	stakeOnce     sync.Once
	stakeRegistry *StakeMetrics
)

func Stake() *StakeMetrics {
	stakeOnce.Do(func() {
		stakeRegistry = &StakeMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "stake_operations_total",
				Help: "Count of staking operations by method and outcome.",
			}, []string{"method", "outcome"}),
			totalTokens: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stake_pool_tokens",
				Help: "Tokens currently held by the staking pool.",
			}),
			totalShares: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stake_pool_shares",
				Help: "Shares currently issued by the staking pool.",
			}),
			unfundedTokens: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stake_unfunded_tokens",
				Help: "Unbonding demand not yet covered by funding deposits.",
			}),
			unsentTokens: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "stake_unsent_tokens",
				Help: "Bonded principal buffered while treasury routing is disabled.",
			}),
		}
		prometheus.MustRegister(
			stakeRegistry.operations,
			stakeRegistry.totalTokens,
			stakeRegistry.totalShares,
			stakeRegistry.unfundedTokens,
			stakeRegistry.unsentTokens,
		)
	})
	return stakeRegistry
}

func (m *StakeMetrics) ObserveOperation(method, outcome string) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.operations.WithLabelValues(method, outcome).Inc()
}

func (m *StakeMetrics) SetPool(tokens, shares float64) {
	if m == nil {
		return
	}
	m.totalTokens.Set(tokens)
	m.totalShares.Set(shares)
}

func (m *StakeMetrics) SetUnfunded(tokens float64) {
	if m == nil {
		return
	}
	m.unfundedTokens.Set(tokens)
}

func (m *StakeMetrics) SetUnsent(tokens float64) {
	if m == nil {
		return
	}
	m.unsentTokens.Set(tokens)
}
