// Package metrics accumulates training and evaluation statistics across batches.
package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Mean is a weighted running mean.
type Mean struct {
	total float64
	count float64
}

// Update adds value with the given weight (usually the batch size).
func (m *Mean) Update(value, weight float64) {
	m.total += value * weight
	m.count += weight
}

// Result returns the mean so far, or 0 before any update.
func (m *Mean) Result() float64 {
	if m.count == 0 {
		return 0
	}
	return m.total / m.count
}

func (m *Mean) Reset() {
	m.total, m.count = 0, 0
}

// CategoricalAccuracy counts rows whose predicted class (argmax) equals the
// target class.
type CategoricalAccuracy struct {
	correct int
	total   int
}

// Update scores one batch and returns that batch's accuracy.
func (a *CategoricalAccuracy) Update(yPred, yTrue *mat.Dense) float64 {
	rows, cols := yPred.Dims()
	if tr, tc := yTrue.Dims(); tr != rows || tc != cols {
		panic(fmt.Sprintf("CategoricalAccuracy: prediction is %dx%d, target is %dx%d", rows, cols, tr, tc))
	}

	correct := 0
	for r := 0; r < rows; r++ {
		if floats.MaxIdx(yPred.RawRowView(r)) == floats.MaxIdx(yTrue.RawRowView(r)) {
			correct++
		}
	}
	a.correct += correct
	a.total += rows
	return float64(correct) / float64(rows)
}

// Result returns the accuracy over every row seen since the last Reset.
func (a *CategoricalAccuracy) Result() float64 {
	if a.total == 0 {
		return 0
	}
	return float64(a.correct) / float64(a.total)
}

func (a *CategoricalAccuracy) Reset() {
	a.correct, a.total = 0, 0
}

// Argmax returns the index of the largest entry of each row.
func Argmax(m mat.Matrix) []int {
	rows, cols := m.Dims()
	out := make([]int, rows)
	row := make([]float64, cols)
	for r := 0; r < rows; r++ {
		mat.Row(row, r, m)
		out[r] = floats.MaxIdx(row)
	}
	return out
}
