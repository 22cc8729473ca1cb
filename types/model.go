package types

// Model predicts one value per action of the action space.
// It keeps an online copy that is trained and a target copy used to compute
// training targets, synchronised on SyncTarget.
type Model interface {
	// Predict with the online copy
	Predict(Features) []float32
	// PredictTarget with the target copy
	PredictTarget(Features) []float32
	// ApplyPartialUpdate accumulates the gradient moving output index of the
	// online copy towards target and returns the squared error
	ApplyPartialUpdate(state Features, index int, target float32) float32
	// Update applies the accumulated gradients
	Update()
	// SyncTarget copies the online parameters into the target copy
	SyncTarget()
}

// ExplorationSchedule gives the probability of a random action at a training step
type ExplorationSchedule interface {
	Probability(step int) float32
}

// TargetRule computes the training target of a transition from its reward
// and the target predictions of the next state. Empty predictions mean the
// next state is terminal.
type TargetRule interface {
	Value(reward float32, predictions []float32) float32
}
