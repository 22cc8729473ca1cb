package policies

import (
	"log/slog"

	"github.com/zeu5/reinforced/replay"
	"github.com/zeu5/reinforced/types"
	"golang.org/x/exp/rand"
)

// Memory is the replay buffer of a Q agent: encoded states, action indices
// and the training target of each node
type Memory = replay.Buffer[types.Features, int, *Target]

// attempts per batch slot before a batch is given up, nodes without a
// target are skipped while sampling
const sampleAttemptsPerSlot = 16

// QTrainer fits the model to the targets stored in the replay buffer with
// uniformly sampled mini batches
type QTrainer struct {
	BatchSize int
	Epochs    int
	rand      *rand.Rand
	logger    *slog.Logger
}

func NewQTrainer(batchSize, epochs int, seed uint64, logger *slog.Logger) *QTrainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &QTrainer{
		BatchSize: batchSize,
		Epochs:    epochs,
		rand:      rand.New(rand.NewSource(seed)),
		logger:    logger,
	}
}

// Train runs the configured epochs and returns the mean loss of the last epoch
func (t *QTrainer) Train(memory *Memory, model types.Model) float32 {
	if memory.Len() == 0 || t.BatchSize < 1 {
		return 0
	}
	batches := memory.Len() / t.BatchSize
	if batches == 0 {
		batches = 1
	}

	lastLoss := float32(0)
	for epoch := 0; epoch < t.Epochs; epoch++ {
		epochLoss := float32(0)
		done := 0
		for batch := 0; batch < batches; batch++ {
			loss, ok := t.trainBatch(memory, model)
			if !ok {
				t.logger.Debug("no targets to sample", "epoch", epoch, "batch", batch, "len", memory.Len())
				break
			}
			t.logger.Debug("batch loss", "epoch", epoch, "batch", batch, "loss", loss)
			batchLoss.Observe(float64(loss))
			epochLoss += loss
			done++
		}
		if done == 0 {
			return lastLoss
		}
		lastLoss = epochLoss / float32(done)
		t.logger.Debug("epoch loss", "epoch", epoch, "loss", lastLoss)
	}
	trainingRounds.Inc()
	return lastLoss
}

func (t *QTrainer) trainBatch(memory *Memory, model types.Model) (float32, bool) {
	n := 0
	loss := float32(0)
	for attempts := 0; n < t.BatchSize && attempts < t.BatchSize*sampleAttemptsPerSlot; attempts++ {
		node, err := memory.Ref(t.rand.Intn(memory.Len()))
		if err != nil || node.Payload == nil {
			continue
		}
		n++
		loss += model.ApplyPartialUpdate(node.State, node.Payload.Index, node.Payload.Value)
	}
	if n == 0 {
		return 0, false
	}
	model.Update()
	return loss / float32(n), true
}
