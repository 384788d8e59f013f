package opt

import (
	"math"
	"testing"
)

func TestStepLR(t *testing.T) {
	a := NewAdam(0.1)
	s := NewStepLR(a, 2, 0.5)

	want := []float64{0.1, 0.05, 0.05, 0.025}
	for i, w := range want {
		s.Step(1)
		if math.Abs(s.LearningRate()-w) > 1e-12 {
			t.Errorf("epoch %d: lr = %v, want %v", i+1, s.LearningRate(), w)
		}
	}
}

func TestExponentialLR(t *testing.T) {
	o := NewSGD(1)
	s := NewExponentialLR(o, 0.9)
	for i := 0; i < 3; i++ {
		s.Step(0)
	}
	if math.Abs(o.LearningRate()-0.729) > 1e-12 {
		t.Errorf("lr = %v, want 0.729", o.LearningRate())
	}
}

func TestReduceLROnPlateau(t *testing.T) {
	o := NewSGD(0.1)
	s := NewReduceLROnPlateau(o, 0.5, 2, 0, 0.02)
	s.Cooldown = 1

	steps := []struct {
		loss float64
		lr   float64
	}{
		{1.0, 0.1},   // new best
		{0.9, 0.1},   // new best
		{0.95, 0.1},  // bad 1
		{0.95, 0.05}, // bad 2: reduce, start cooldown
		{0.99, 0.05}, // cooldown
		{0.99, 0.05}, // bad 1
		{0.99, 0.025},
		{0.99, 0.025}, // cooldown
		{0.99, 0.025},
		{0.99, 0.02}, // clamped at MinLR
	}
	for i, st := range steps {
		s.Step(st.loss)
		if math.Abs(o.LearningRate()-st.lr) > 1e-12 {
			t.Errorf("epoch %d: lr = %v, want %v", i+1, o.LearningRate(), st.lr)
		}
	}
}
