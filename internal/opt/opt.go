// Package opt provides optimization algorithms.
package opt

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Optimizer updates network parameters in place from their gradients.
type Optimizer interface {
	// Step applies one update. params[i] is updated from gradients[i].
	Step(params, gradients []*mat.Dense)

	LearningRate() float64
	SetLearningRate(lr float64)
	Name() string
}

func checkPairs(name string, params, gradients []*mat.Dense) {
	if len(params) != len(gradients) {
		panic(fmt.Sprintf("%s: %d params but %d gradients", name, len(params), len(gradients)))
	}
	for i := range params {
		pr, pc := params[i].Dims()
		gr, gc := gradients[i].Dims()
		if pr != gr || pc != gc {
			panic(fmt.Sprintf("%s: param %d is %dx%d, gradient is %dx%d", name, i, pr, pc, gr, gc))
		}
	}
}

// SGD (Stochastic Gradient Descent) optimizer.
type SGD struct {
	LR float64
}

// NewSGD creates an SGD optimizer.
func NewSGD(learningRate float64) *SGD {
	return &SGD{LR: learningRate}
}

// Step computes params = params - lr * gradients
func (s *SGD) Step(params, gradients []*mat.Dense) {
	checkPairs("SGD", params, gradients)
	for i := range params {
		params[i].Apply(func(r, c int, v float64) float64 {
			return v - s.LR*gradients[i].At(r, c)
		}, params[i])
	}
}

func (s *SGD) LearningRate() float64      { return s.LR }
func (s *SGD) SetLearningRate(lr float64) { s.LR = lr }
func (s *SGD) Name() string               { return "sgd" }

// Adam optimizer with Keras default hyper-parameters.
type Adam struct {
	LR      float64
	Beta1   float64 // Exponential decay rate for first moment
	Beta2   float64 // Exponential decay rate for second moment
	Epsilon float64 // Small constant for numerical stability

	t int
	m []*mat.Dense
	v []*mat.Dense
}

// NewAdam creates a new Adam optimizer with default values.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LR:      learningRate,
		Beta1:   0.9,
		Beta2:   0.999,
		Epsilon: 1e-7,
	}
}

// Step performs one Adam iteration over every parameter.
// Moment buffers are allocated on the first call and tied to the position
// of each parameter in the slice, so callers must pass them in a stable order.
func (a *Adam) Step(params, gradients []*mat.Dense) {
	checkPairs("Adam", params, gradients)
	if a.m == nil {
		a.m = make([]*mat.Dense, len(params))
		a.v = make([]*mat.Dense, len(params))
		for i, p := range params {
			r, c := p.Dims()
			a.m[i] = mat.NewDense(r, c, nil)
			a.v[i] = mat.NewDense(r, c, nil)
		}
	}
	if len(a.m) != len(params) {
		panic(fmt.Sprintf("Adam: initialised for %d params, got %d", len(a.m), len(params)))
	}

	a.t++
	t := float64(a.t)
	alpha := a.LR * math.Sqrt(1-math.Pow(a.Beta2, t)) / (1 - math.Pow(a.Beta1, t))

	for i := range params {
		p := params[i].RawMatrix()
		g := gradients[i].RawMatrix()
		m := a.m[i].RawMatrix()
		v := a.v[i].RawMatrix()
		for r := 0; r < p.Rows; r++ {
			for c := 0; c < p.Cols; c++ {
				pi := r*p.Stride + c
				gi := g.Data[r*g.Stride+c]
				mi, vi := r*m.Stride+c, r*v.Stride+c

				m.Data[mi] = a.Beta1*m.Data[mi] + (1-a.Beta1)*gi
				v.Data[vi] = a.Beta2*v.Data[vi] + (1-a.Beta2)*gi*gi
				p.Data[pi] -= alpha * m.Data[mi] / (math.Sqrt(v.Data[vi]) + a.Epsilon)
			}
		}
	}
}

// Iterations returns the number of steps taken.
func (a *Adam) Iterations() int { return a.t }

func (a *Adam) LearningRate() float64      { return a.LR }
func (a *Adam) SetLearningRate(lr float64) { a.LR = lr }
func (a *Adam) Name() string               { return "adam" }

// ByName returns a fresh optimizer registered under name.
func ByName(name string, learningRate float64) (Optimizer, error) {
	switch name {
	case "adam":
		return NewAdam(learningRate), nil
	case "sgd":
		return NewSGD(learningRate), nil
	default:
		return nil, fmt.Errorf("unknown optimizer %q", name)
	}
}
