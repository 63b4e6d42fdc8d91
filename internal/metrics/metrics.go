package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Heartbeats = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yigicoin_heartbeats_total",
			Help: "Total heartbeat calls by resulting status",
		},
		[]string{"status"},
	)
	TotemsConsumed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "yigicoin_totems_consumed_total",
			Help: "Total totems consumed to avert suspension",
		},
	)
	Suspensions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "yigicoin_suspensions_total",
			Help: "Total accounts suspended by counter expiry",
		},
	)
	Upgrades = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yigicoin_rank_upgrades_total",
			Help: "Total successful rank upgrades by target rank",
		},
		[]string{"rank"},
	)
	AdClaims = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "yigicoin_ad_claims_total",
			Help: "Total ad point claims by result",
		},
		[]string{"result"},
	)
	Reactivations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "yigicoin_reactivations_total",
			Help: "Total accounts reactivated via penalty payment",
		},
	)
)

func init() {
	prometheus.MustRegister(
		Heartbeats,
		TotemsConsumed,
		Suspensions,
		Upgrades,
		AdClaims,
		Reactivations,
	)
}
