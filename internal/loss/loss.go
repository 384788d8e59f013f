// Package loss provides batch loss functions.
package loss

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Loss is a loss function with derivative, averaged over the rows of a batch.
type Loss interface {
	// Forward computes the mean loss over the batch.
	Forward(yPred, yTrue *mat.Dense) float64

	// Backward computes the gradient of Forward w.r.t. yPred.
	Backward(yPred, yTrue *mat.Dense) *mat.Dense

	Name() string
}

func checkShape(name string, yPred, yTrue *mat.Dense) (int, int) {
	r, c := yPred.Dims()
	tr, tc := yTrue.Dims()
	if r != tr || c != tc {
		panic(fmt.Sprintf("%s: prediction is %dx%d, target is %dx%d", name, r, c, tr, tc))
	}
	return r, c
}

// Epsilon bounds probabilities away from 0 and 1 before taking logs.
const Epsilon = 1e-7

// CategoricalCrossEntropy expects probability rows (softmax output) and
// one-hot targets.
type CategoricalCrossEntropy struct{}

// Forward computes mean over rows of -sum(y_true * log(clip(y_pred))).
func (CategoricalCrossEntropy) Forward(yPred, yTrue *mat.Dense) float64 {
	rows, _ := checkShape("CategoricalCrossEntropy", yPred, yTrue)

	var sum float64
	for r := 0; r < rows; r++ {
		p := yPred.RawRowView(r)
		y := yTrue.RawRowView(r)
		for i := range p {
			if y[i] == 0 {
				continue
			}
			sum -= y[i] * math.Log(clip(p[i]))
		}
	}
	return sum / float64(rows)
}

// Backward computes -y_true / (clip(y_pred) * n). Entries where clipping was
// active get zero gradient.
func (CategoricalCrossEntropy) Backward(yPred, yTrue *mat.Dense) *mat.Dense {
	rows, cols := checkShape("CategoricalCrossEntropy", yPred, yTrue)

	n := float64(rows)
	grad := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		p := yPred.RawRowView(r)
		y := yTrue.RawRowView(r)
		g := grad.RawRowView(r)
		for i := range p {
			if p[i] < Epsilon || p[i] > 1-Epsilon {
				continue
			}
			g[i] = -y[i] / (p[i] * n)
		}
	}
	return grad
}

func (CategoricalCrossEntropy) Name() string { return "categorical_crossentropy" }

func clip(p float64) float64 {
	return math.Min(math.Max(p, Epsilon), 1-Epsilon)
}

// MSE (Mean Squared Error) loss.
type MSE struct{}

// Forward computes mean over rows of (1/c) * sum((y_pred - y_true)^2).
func (MSE) Forward(yPred, yTrue *mat.Dense) float64 {
	rows, cols := checkShape("MSE", yPred, yTrue)

	var diff mat.Dense
	diff.Sub(yPred, yTrue)
	diff.MulElem(&diff, &diff)
	return mat.Sum(&diff) / float64(rows*cols)
}

// Backward computes 2 * (y_pred - y_true) / (n*c).
func (MSE) Backward(yPred, yTrue *mat.Dense) *mat.Dense {
	rows, cols := checkShape("MSE", yPred, yTrue)

	grad := mat.NewDense(rows, cols, nil)
	grad.Sub(yPred, yTrue)
	grad.Scale(2/float64(rows*cols), grad)
	return grad
}

func (MSE) Name() string { return "mse" }

// ByName returns the loss registered under name.
func ByName(name string) (Loss, error) {
	switch name {
	case "categorical_crossentropy":
		return CategoricalCrossEntropy{}, nil
	case "mse":
		return MSE{}, nil
	default:
		return nil, fmt.Errorf("unknown loss %q", name)
	}
}
