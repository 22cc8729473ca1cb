package replay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pushesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reinforced_replay_pushes_total",
		Help: "Nodes pushed into replay buffers by marker kind",
	}, []string{"marker"})

	evictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reinforced_replay_evictions_total",
		Help: "Nodes evicted from full replay buffers",
	})

	promotionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reinforced_replay_promotions_total",
		Help: "Step nodes promoted to episode starts after their first node was evicted",
	})

	vanishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reinforced_replay_vanished_episodes_total",
		Help: "Episodes that lost their last live node to eviction",
	})
)
