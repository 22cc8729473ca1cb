package policies

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchLoss = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reinforced_trainer_batch_loss",
		Help:    "Mean squared error of training batches",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
	})

	trainingRounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reinforced_trainer_rounds_total",
		Help: "Training rounds run by Q agents",
	})

	targetSyncs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reinforced_agent_target_syncs_total",
		Help: "Target model synchronisations followed by target back fills",
	})

	explorationRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reinforced_agent_epsilon",
		Help: "Last exploration probability set by a Q agent",
	})
)
