// Package activations provides unit tests for activation functions.
package activations

import (
	"math"
	"testing"
)

// TestReLU tests ReLU activation.
func TestReLU(t *testing.T) {
	relu := ReLU{}

	tests := []struct {
		input    float64
		expected float64
	}{
		{-1.0, 0.0},
		{0.0, 0.0},
		{1.0, 1.0},
		{2.5, 2.5},
		{-0.1, 0.0},
	}

	for _, tt := range tests {
		output := relu.Activate(tt.input)
		if math.Abs(output-tt.expected) > 1e-12 {
			t.Errorf("ReLU(%v) = %v, want %v", tt.input, output, tt.expected)
		}
	}
}

// TestReLUDerivative tests ReLU derivative.
func TestReLUDerivative(t *testing.T) {
	relu := ReLU{}

	tests := []struct {
		input    float64
		expected float64
	}{
		{-1.0, 0.0},
		{0.0, 0.0}, // x must be > 0
		{1.0, 1.0},
		{2.5, 1.0},
	}

	for _, tt := range tests {
		output := relu.Derivative(tt.input)
		if output != tt.expected {
			t.Errorf("ReLU.Derivative(%v) = %v, want %v", tt.input, output, tt.expected)
		}
	}
}

// TestSigmoid tests Sigmoid activation and derivative.
func TestSigmoid(t *testing.T) {
	s := Sigmoid{}

	if got := s.Activate(0); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Sigmoid(0) = %v, want 0.5", got)
	}
	if got := s.Derivative(0); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("Sigmoid.Derivative(0) = %v, want 0.25", got)
	}
	if got := s.Activate(math.Inf(1)); got != 1 {
		t.Errorf("Sigmoid(+inf) = %v, want 1", got)
	}
}

// TestTanhDerivative checks the derivative against a central difference.
func TestTanhDerivative(t *testing.T) {
	tanh := Tanh{}
	const h = 1e-6
	for _, x := range []float64{-2, -0.5, 0, 0.3, 1.7} {
		numeric := (tanh.Activate(x+h) - tanh.Activate(x-h)) / (2 * h)
		if math.Abs(numeric-tanh.Derivative(x)) > 1e-6 {
			t.Errorf("Tanh.Derivative(%v) = %v, numeric %v", x, tanh.Derivative(x), numeric)
		}
	}
}

// TestSoftmaxRowSumsToOne tests that softmax output is a distribution.
func TestSoftmaxRowSumsToOne(t *testing.T) {
	sm := Softmax{}

	inputs := [][]float64{
		{1, 2, 3},
		{0, 0},
		{1000, 1001}, // would overflow without max subtraction
		{-5, 0, 5, 10},
	}

	for _, in := range inputs {
		out := make([]float64, len(in))
		sm.ActivateRow(out, in)

		sum := 0.0
		for _, v := range out {
			if v < 0 || v > 1 || math.IsNaN(v) {
				t.Fatalf("Softmax(%v) produced %v", in, out)
			}
			sum += v
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("Softmax(%v) sums to %v, want 1", in, sum)
		}
	}
}

// TestSoftmaxInPlace tests that dst and src may alias.
func TestSoftmaxInPlace(t *testing.T) {
	row := []float64{0, math.Log(3)}
	Softmax{}.ActivateRow(row, row)

	if math.Abs(row[0]-0.25) > 1e-12 || math.Abs(row[1]-0.75) > 1e-12 {
		t.Errorf("in-place softmax = %v, want [0.25 0.75]", row)
	}
}

// TestSoftmaxBackwardRow compares the Jacobian-vector product with
// finite differences of sum(grad * softmax(z)).
func TestSoftmaxBackwardRow(t *testing.T) {
	sm := Softmax{}
	z := []float64{0.2, -1.3, 0.7}
	grad := []float64{0.5, -2, 1}

	out := make([]float64, len(z))
	sm.ActivateRow(out, z)
	got := make([]float64, len(z))
	sm.BackwardRow(got, out, grad)

	objective := func(z []float64) float64 {
		s := make([]float64, len(z))
		sm.ActivateRow(s, z)
		var v float64
		for i := range s {
			v += grad[i] * s[i]
		}
		return v
	}

	const h = 1e-6
	for i := range z {
		zp := append([]float64(nil), z...)
		zm := append([]float64(nil), z...)
		zp[i] += h
		zm[i] -= h
		numeric := (objective(zp) - objective(zm)) / (2 * h)
		if math.Abs(numeric-got[i]) > 1e-6 {
			t.Errorf("dz[%d] = %v, numeric %v", i, got[i], numeric)
		}
	}
}

// TestSoftmaxElementWisePanics tests that softmax refuses scalar use.
func TestSoftmaxElementWisePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Softmax.Activate should panic")
		}
	}()
	Softmax{}.Activate(1)
}

func TestByName(t *testing.T) {
	for _, name := range []string{"relu", "sigmoid", "tanh", "linear", "softmax"} {
		act, err := ByName(name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		if act.Name() != name {
			t.Errorf("ByName(%q).Name() = %q", name, act.Name())
		}
	}

	if _, err := ByName("swish"); err == nil {
		t.Error("ByName(swish) should fail")
	}
}
