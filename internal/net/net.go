// Package net provides core neural network types.
package net

import (
	"errors"
	"fmt"
	"math"

	"github.com/FlavioCFOliveira/xorclass/internal/layer"
	"github.com/FlavioCFOliveira/xorclass/internal/loss"
	"github.com/FlavioCFOliveira/xorclass/internal/opt"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotCompiled is returned when training or evaluating before Compile.
	ErrNotCompiled = errors.New("net: model is not compiled")
	// ErrShapeMismatch is returned when data or layers do not line up.
	ErrShapeMismatch = errors.New("net: shape mismatch")
	// ErrNoLayers is returned for a model without layers.
	ErrNoLayers = errors.New("net: model has no layers")
)

// Network is a collection of layers that can be forwarded and backwarded.
type Network struct {
	layers []layer.Layer
	loss   loss.Loss
	opt    opt.Optimizer

	// clipNorm bounds the global gradient norm before each step; 0 disables.
	clipNorm float64

	// Gathered once; the optimizer ties its state to this order.
	params []*mat.Dense
	grads  []*mat.Dense
}

// New creates a new neural network with the given layers. The loss and
// optimizer may be nil until the network is compiled.
func New(layers []layer.Layer, lossFn loss.Loss, optimizer opt.Optimizer) *Network {
	return &Network{
		layers: layers,
		loss:   lossFn,
		opt:    optimizer,
	}
}

// checkLayers verifies that each layer's output feeds the next layer's input.
func (n *Network) checkLayers() error {
	if len(n.layers) == 0 {
		return ErrNoLayers
	}
	for i := 1; i < len(n.layers); i++ {
		prev, next := n.layers[i-1], n.layers[i]
		if prev.OutSize() != next.InSize() {
			return fmt.Errorf("%w: layer %d outputs %d values, layer %d expects %d",
				ErrShapeMismatch, i-1, prev.OutSize(), i, next.InSize())
		}
	}
	return nil
}

// Forward performs a forward pass through all layers.
func (n *Network) Forward(x *mat.Dense) *mat.Dense {
	curr := x
	for _, l := range n.layers {
		curr = l.Forward(curr)
	}
	return curr
}

// Backward performs a backward pass through all layers.
func (n *Network) Backward(grad *mat.Dense) *mat.Dense {
	curr := grad
	for i := len(n.layers) - 1; i >= 0; i-- {
		curr = n.layers[i].Backward(curr)
	}
	return curr
}

// Step applies one optimizer update to every layer's parameters.
func (n *Network) Step() {
	if n.params == nil {
		for _, l := range n.layers {
			n.params = append(n.params, l.Params()...)
			n.grads = append(n.grads, l.Gradients()...)
		}
	}
	if n.clipNorm > 0 {
		clipGradients(n.grads, n.clipNorm)
	}
	n.opt.Step(n.params, n.grads)
}

// SetClipNorm rescales the gradients before every optimizer step so that
// their global L2 norm is at most maxNorm. Zero or a negative value disables it.
func (n *Network) SetClipNorm(maxNorm float64) {
	n.clipNorm = max(maxNorm, 0)
}

// ClipNorm returns the gradient norm bound, 0 when clipping is off.
func (n *Network) ClipNorm() float64 { return n.clipNorm }

// clipGradients scales grads in place by maxNorm/norm when their global
// norm exceeds maxNorm and returns the norm measured before scaling.
func clipGradients(grads []*mat.Dense, maxNorm float64) float64 {
	var sum float64
	for _, g := range grads {
		raw := g.RawMatrix()
		for i := 0; i < raw.Rows; i++ {
			row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
			sum += floats.Dot(row, row)
		}
	}
	norm := math.Sqrt(sum)
	if norm <= maxNorm {
		return norm
	}
	scale := maxNorm / norm
	for _, g := range grads {
		g.Scale(scale, g)
	}
	return norm
}

// TrainBatch runs forward, backward and one optimizer step on a batch.
// It returns the batch loss and the predictions made before the update.
func (n *Network) TrainBatch(x, y *mat.Dense) (float64, *mat.Dense) {
	yPred := n.Forward(x)
	l := n.loss.Forward(yPred, y)

	n.Backward(n.loss.Backward(yPred, y))
	n.Step()

	return l, yPred
}

// NumParams returns the total number of trainable scalars.
func (n *Network) NumParams() int {
	total := 0
	for _, l := range n.layers {
		total += l.NumParams()
	}
	return total
}

// Layers returns the network's layers slice.
func (n *Network) Layers() []layer.Layer {
	return n.layers
}

// Loss returns the configured loss, or nil before Compile.
func (n *Network) Loss() loss.Loss { return n.loss }

// Optimizer returns the configured optimizer, or nil before Compile.
func (n *Network) Optimizer() opt.Optimizer { return n.opt }

// InSize returns the width the first layer expects.
func (n *Network) InSize() int {
	if len(n.layers) == 0 {
		return 0
	}
	return n.layers[0].InSize()
}

// OutSize returns the width of the last layer.
func (n *Network) OutSize() int {
	if len(n.layers) == 0 {
		return 0
	}
	return n.layers[len(n.layers)-1].OutSize()
}
