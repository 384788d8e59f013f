// Package activations provides the activation functions used by dense layers.
package activations

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Activation is an element-wise activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x) from the pre-activation value.
	Derivative(x float64) float64

	Name() string
}

// VectorActivation is an activation applied to a whole row at once.
// Layers check for it before falling back to the element-wise methods.
type VectorActivation interface {
	Activation

	// ActivateRow writes f(src) into dst. dst and src may alias.
	ActivateRow(dst, src []float64)

	// BackwardRow writes the gradient w.r.t. the pre-activation into dst,
	// given the activated output and the gradient w.r.t. that output.
	BackwardRow(dst, out, grad []float64)
}

// ReLU activation function.
type ReLU struct{}

// Activate computes max(0, x)
func (ReLU) Activate(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

// Derivative returns 1 if x > 0, else 0
func (ReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

func (ReLU) Name() string { return "relu" }

// Sigmoid activation function.
type Sigmoid struct{}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Activate computes sigmoid(x)
func (Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (Sigmoid) Derivative(x float64) float64 {
	s := sigmoid(x)
	return s * (1 - s)
}

func (Sigmoid) Name() string { return "sigmoid" }

// Tanh activation function.
type Tanh struct{}

// Activate computes tanh(x)
func (Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

// Derivative computes 1 - tanh(x)^2
func (Tanh) Derivative(x float64) float64 {
	t := math.Tanh(x)
	return 1 - t*t
}

func (Tanh) Name() string { return "tanh" }

// Linear is the identity activation.
type Linear struct{}

func (Linear) Activate(x float64) float64   { return x }
func (Linear) Derivative(x float64) float64 { return 1 }
func (Linear) Name() string                 { return "linear" }

// Softmax activation function for the output layer.
type Softmax struct{}

// Activate panics: softmax is only defined over a row.
func (Softmax) Activate(x float64) float64 {
	panic("Softmax.Activate: use ActivateRow for Softmax")
}

// Derivative panics: softmax is only defined over a row.
func (Softmax) Derivative(x float64) float64 {
	panic("Softmax.Derivative: use BackwardRow for Softmax")
}

func (Softmax) Name() string { return "softmax" }

// ActivateRow computes exp(x - max) / sum(exp(x - max)).
func (Softmax) ActivateRow(dst, src []float64) {
	maxVal := floats.Max(src)
	var sum float64
	for i, v := range src {
		e := math.Exp(v - maxVal)
		dst[i] = e
		sum += e
	}
	floats.Scale(1/sum, dst)
}

// BackwardRow computes dz_i = s_i * (g_i - sum_j g_j*s_j).
func (Softmax) BackwardRow(dst, out, grad []float64) {
	dot := floats.Dot(grad, out)
	for i := range dst {
		dst[i] = out[i] * (grad[i] - dot)
	}
}

// ByName returns the activation registered under name.
func ByName(name string) (Activation, error) {
	switch name {
	case "relu":
		return ReLU{}, nil
	case "sigmoid":
		return Sigmoid{}, nil
	case "tanh":
		return Tanh{}, nil
	case "linear", "":
		return Linear{}, nil
	case "softmax":
		return Softmax{}, nil
	default:
		return nil, fmt.Errorf("unknown activation %q", name)
	}
}
