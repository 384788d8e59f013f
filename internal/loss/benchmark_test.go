// Package loss provides benchmarks for loss functions.
package loss

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func benchData() (yPred, yTrue *mat.Dense) {
	yPred = mat.NewDense(4, 2, []float64{0.7, 0.3, 0.2, 0.8, 0.4, 0.6, 0.9, 0.1})
	yTrue = mat.NewDense(4, 2, []float64{1, 0, 0, 1, 0, 1, 1, 0})
	return yPred, yTrue
}

// BenchmarkCategoricalCrossEntropyForward benchmarks CCE forward pass.
func BenchmarkCategoricalCrossEntropyForward(b *testing.B) {
	l := CategoricalCrossEntropy{}
	yPred, yTrue := benchData()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Forward(yPred, yTrue)
	}
}

// BenchmarkCategoricalCrossEntropyBackward benchmarks CCE backward pass.
func BenchmarkCategoricalCrossEntropyBackward(b *testing.B) {
	l := CategoricalCrossEntropy{}
	yPred, yTrue := benchData()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Backward(yPred, yTrue)
	}
}

// BenchmarkMSEForward benchmarks MSE forward pass.
func BenchmarkMSEForward(b *testing.B) {
	l := MSE{}
	yPred, yTrue := benchData()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.Forward(yPred, yTrue)
	}
}
