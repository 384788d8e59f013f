package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMeanWeighted(t *testing.T) {
	var m Mean
	if m.Result() != 0 {
		t.Errorf("empty Result = %v, want 0", m.Result())
	}

	m.Update(1.0, 1)
	m.Update(4.0, 3)
	if got := m.Result(); math.Abs(got-13.0/4) > 1e-12 {
		t.Errorf("Result = %v, want 3.25", got)
	}

	m.Reset()
	m.Update(2, 1)
	if m.Result() != 2 {
		t.Errorf("after Reset Result = %v, want 2", m.Result())
	}
}

func TestCategoricalAccuracy(t *testing.T) {
	var acc CategoricalAccuracy

	pred := mat.NewDense(4, 2, []float64{
		0.9, 0.1, // class 0, right
		0.3, 0.7, // class 1, right
		0.6, 0.4, // class 0, wrong
		0.2, 0.8, // class 1, wrong
	})
	target := mat.NewDense(4, 2, []float64{
		1, 0,
		0, 1,
		0, 1,
		1, 0,
	})

	if batch := acc.Update(pred, target); batch != 0.5 {
		t.Errorf("batch accuracy = %v, want 0.5", batch)
	}

	right := mat.NewDense(1, 2, []float64{0.1, 0.9})
	acc.Update(right, mat.NewDense(1, 2, []float64{0, 1}))
	if got := acc.Result(); math.Abs(got-3.0/5) > 1e-12 {
		t.Errorf("Result = %v, want 0.6", got)
	}

	acc.Reset()
	if acc.Result() != 0 {
		t.Errorf("after Reset Result = %v, want 0", acc.Result())
	}
}

func TestCategoricalAccuracyShapePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	var acc CategoricalAccuracy
	acc.Update(mat.NewDense(2, 2, nil), mat.NewDense(1, 2, nil))
}

func TestArgmax(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		1, 5, 2,
		9, 0, 0,
		0, 0, 3,
	})
	got := Argmax(m)
	want := []int{1, 0, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Argmax[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
