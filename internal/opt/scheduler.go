package opt

import "math"

// Scheduler adjusts an optimizer's learning rate once per epoch.
type Scheduler interface {
	// Step is called at the end of every epoch with that epoch's loss.
	Step(loss float64)
	LearningRate() float64
}

// StepLR multiplies the learning rate by Gamma every StepSize epochs.
type StepLR struct {
	optimizer Optimizer
	StepSize  int
	Gamma     float64
	epoch     int
}

func NewStepLR(optimizer Optimizer, stepSize int, gamma float64) *StepLR {
	if stepSize <= 0 {
		stepSize = 1
	}
	return &StepLR{optimizer: optimizer, StepSize: stepSize, Gamma: gamma}
}

func (s *StepLR) Step(loss float64) {
	s.epoch++
	if s.epoch%s.StepSize == 0 {
		s.optimizer.SetLearningRate(s.optimizer.LearningRate() * s.Gamma)
	}
}

func (s *StepLR) LearningRate() float64 { return s.optimizer.LearningRate() }

// ExponentialLR multiplies the learning rate by Gamma every epoch.
type ExponentialLR struct {
	optimizer Optimizer
	Gamma     float64
}

func NewExponentialLR(optimizer Optimizer, gamma float64) *ExponentialLR {
	return &ExponentialLR{optimizer: optimizer, Gamma: gamma}
}

func (s *ExponentialLR) Step(loss float64) {
	s.optimizer.SetLearningRate(s.optimizer.LearningRate() * s.Gamma)
}

func (s *ExponentialLR) LearningRate() float64 { return s.optimizer.LearningRate() }

// ReduceLROnPlateau multiplies the learning rate by Factor once the loss has
// failed to improve by more than Threshold for Patience epochs, never going
// below MinLR. Cooldown epochs after a reduction are not counted.
type ReduceLROnPlateau struct {
	optimizer Optimizer
	Factor    float64
	Patience  int
	Threshold float64
	Cooldown  int
	MinLR     float64

	best            float64
	numBadEpochs    int
	cooldownCounter int
}

func NewReduceLROnPlateau(optimizer Optimizer, factor float64, patience int, threshold, minLR float64) *ReduceLROnPlateau {
	return &ReduceLROnPlateau{
		optimizer: optimizer,
		Factor:    factor,
		Patience:  patience,
		Threshold: threshold,
		MinLR:     minLR,
		best:      math.Inf(1),
	}
}

func (s *ReduceLROnPlateau) Step(loss float64) {
	if s.cooldownCounter > 0 {
		s.cooldownCounter--
		return
	}

	if loss < s.best-s.Threshold {
		s.best = loss
		s.numBadEpochs = 0
		return
	}
	s.numBadEpochs++

	if s.numBadEpochs >= s.Patience {
		s.optimizer.SetLearningRate(math.Max(s.optimizer.LearningRate()*s.Factor, s.MinLR))
		s.numBadEpochs = 0
		s.cooldownCounter = s.Cooldown
	}
}

func (s *ReduceLROnPlateau) LearningRate() float64 { return s.optimizer.LearningRate() }
