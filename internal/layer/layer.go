// Package layer provides neural network layer implementations.
package layer

import (
	"fmt"

	"github.com/FlavioCFOliveira/xorclass/internal/activations"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Layer is a neural network layer operating on a batch of rows.
type Layer interface {
	Forward(x *mat.Dense) *mat.Dense
	Backward(grad *mat.Dense) *mat.Dense

	// Params returns the trainable matrices. The optimizer updates them in place.
	Params() []*mat.Dense
	// Gradients returns matrices matching Params one to one.
	Gradients() []*mat.Dense

	InSize() int
	OutSize() int
	NumParams() int
}

// Dense is a fully connected layer: A = act(X·W + b).
//
// The kernel is stored as in×out so that a batch of n rows multiplies
// straight through without transposes in the forward pass.
type Dense struct {
	weights *mat.Dense // in × out
	biases  *mat.Dense // 1 × out
	act     activations.Activation
	inSize  int
	outSize int

	// Cached by Forward for Backward.
	input  *mat.Dense
	preAct *mat.Dense
	output *mat.Dense

	gradW *mat.Dense
	gradB *mat.Dense
}

// NewDense creates a dense layer with Glorot-uniform weights and zero biases.
func NewDense(in, out int, act activations.Activation) *Dense {
	return NewDenseWithSource(in, out, act, defaultSource())
}

// NewDenseWithSource is NewDense with an explicit random source, for
// reproducible initialisation.
func NewDenseWithSource(in, out int, act activations.Activation, src rand.Source) *Dense {
	if in <= 0 || out <= 0 {
		panic(fmt.Sprintf("Dense: invalid shape %dx%d", in, out))
	}
	if act == nil {
		act = activations.Linear{}
	}
	return &Dense{
		weights: GlorotUniform(in, out, src),
		biases:  mat.NewDense(1, out, nil),
		act:     act,
		inSize:  in,
		outSize: out,
		gradW:   mat.NewDense(in, out, nil),
		gradB:   mat.NewDense(1, out, nil),
	}
}

// Forward computes act(X·W + b) for every row of x.
func (d *Dense) Forward(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	if cols != d.inSize {
		panic(fmt.Sprintf("Dense: input has %d columns, layer expects %d", cols, d.inSize))
	}

	d.input = mat.DenseCopyOf(x)

	z := mat.NewDense(rows, d.outSize, nil)
	z.Mul(x, d.weights)
	bias := d.biases.RawRowView(0)
	for r := 0; r < rows; r++ {
		floats.Add(z.RawRowView(r), bias)
	}
	d.preAct = z

	out := mat.NewDense(rows, d.outSize, nil)
	if va, ok := d.act.(activations.VectorActivation); ok {
		for r := 0; r < rows; r++ {
			va.ActivateRow(out.RawRowView(r), z.RawRowView(r))
		}
	} else {
		out.Apply(func(_, _ int, v float64) float64 {
			return d.act.Activate(v)
		}, z)
	}
	d.output = out

	return out
}

// Backward takes dL/dA for the last Forward batch, stores dL/dW and dL/db
// and returns dL/dX.
func (d *Dense) Backward(grad *mat.Dense) *mat.Dense {
	if d.input == nil {
		panic("Dense: Backward called before Forward")
	}
	rows, cols := grad.Dims()
	if r, _ := d.output.Dims(); r != rows || cols != d.outSize {
		panic(fmt.Sprintf("Dense: gradient is %dx%d, want %dx%d", rows, cols, r, d.outSize))
	}

	// dz = dL/dA * act'(z)
	dz := mat.NewDense(rows, d.outSize, nil)
	if va, ok := d.act.(activations.VectorActivation); ok {
		for r := 0; r < rows; r++ {
			va.BackwardRow(dz.RawRowView(r), d.output.RawRowView(r), grad.RawRowView(r))
		}
	} else {
		dz.Apply(func(i, j int, v float64) float64 {
			return v * d.act.Derivative(d.preAct.At(i, j))
		}, grad)
	}

	d.gradW.Mul(d.input.T(), dz)

	gb := d.gradB.RawRowView(0)
	for i := range gb {
		gb[i] = 0
	}
	for r := 0; r < rows; r++ {
		floats.Add(gb, dz.RawRowView(r))
	}

	dx := mat.NewDense(rows, d.inSize, nil)
	dx.Mul(dz, d.weights.T())
	return dx
}

// Params returns the kernel and bias matrices.
func (d *Dense) Params() []*mat.Dense {
	return []*mat.Dense{d.weights, d.biases}
}

// Gradients returns the kernel and bias gradients from the last Backward.
func (d *Dense) Gradients() []*mat.Dense {
	return []*mat.Dense{d.gradW, d.gradB}
}

// Weights returns the in×out kernel.
func (d *Dense) Weights() *mat.Dense { return d.weights }

// Biases returns the 1×out bias row.
func (d *Dense) Biases() *mat.Dense { return d.biases }

// SetWeight sets the weight from input row to output col.
func (d *Dense) SetWeight(row, col int, val float64) {
	d.weights.Set(row, col, val)
}

// SetBias sets a single bias.
func (d *Dense) SetBias(idx int, val float64) {
	d.biases.Set(0, idx, val)
}

// InSize returns the input size of the layer.
func (d *Dense) InSize() int { return d.inSize }

// OutSize returns the output size of the layer.
func (d *Dense) OutSize() int { return d.outSize }

// NumParams returns in*out + out.
func (d *Dense) NumParams() int { return d.inSize*d.outSize + d.outSize }

// Activation returns the activation function used by this layer.
func (d *Dense) Activation() activations.Activation { return d.act }
