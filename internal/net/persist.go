package net

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/FlavioCFOliveira/xorclass/internal/activations"
	"github.com/FlavioCFOliveira/xorclass/internal/layer"
	"github.com/FlavioCFOliveira/xorclass/internal/loss"
	"github.com/FlavioCFOliveira/xorclass/internal/opt"
	"gonum.org/v1/gonum/mat"
)

// formatVersion is bumped whenever savedModel changes incompatibly.
const formatVersion = 1

type savedModel struct {
	Version      int
	Loss         string
	Optimizer    string
	LearningRate float64
	Layers       []LayerConfig
}

// LayerConfig holds the configuration needed to reconstruct a layer.
type LayerConfig struct {
	Type       string
	InSize     int
	OutSize    int
	Activation string
	Weights    []float64 // row-major in×out
	Biases     []float64
}

// ExtractLayerConfig extracts the configuration from a layer.
func ExtractLayerConfig(l layer.Layer) (LayerConfig, error) {
	dense, ok := l.(*layer.Dense)
	if !ok {
		return LayerConfig{}, fmt.Errorf("unsupported layer type %T", l)
	}
	return LayerConfig{
		Type:       "Dense",
		InSize:     dense.InSize(),
		OutSize:    dense.OutSize(),
		Activation: dense.Activation().Name(),
		Weights:    mat.DenseCopyOf(dense.Weights()).RawMatrix().Data,
		Biases:     append([]float64(nil), dense.Biases().RawRowView(0)...),
	}, nil
}

// CreateLayer creates a new layer from the configuration.
func (c *LayerConfig) CreateLayer() (layer.Layer, error) {
	if c.Type != "Dense" {
		return nil, fmt.Errorf("unsupported layer type: %s", c.Type)
	}
	if c.InSize <= 0 || c.OutSize <= 0 {
		return nil, fmt.Errorf("invalid Dense shape %dx%d", c.InSize, c.OutSize)
	}
	if len(c.Weights) != c.InSize*c.OutSize || len(c.Biases) != c.OutSize {
		return nil, fmt.Errorf("Dense %dx%d: got %d weights and %d biases", c.InSize, c.OutSize, len(c.Weights), len(c.Biases))
	}

	act, err := activations.ByName(c.Activation)
	if err != nil {
		return nil, err
	}

	dense := layer.NewDense(c.InSize, c.OutSize, act)
	dense.Weights().Copy(mat.NewDense(c.InSize, c.OutSize, append([]float64(nil), c.Weights...)))
	dense.Biases().Copy(mat.NewDense(1, c.OutSize, append([]float64(nil), c.Biases...)))
	return dense, nil
}

// Save saves the network to a file using gob encoding.
// Optimizer moments are not saved; a loaded model starts a fresh optimizer.
func (n *Network) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}

	if err := n.Encode(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Encode writes the network to an io.Writer using gob encoding.
func (n *Network) Encode(w io.Writer) error {
	if n.loss == nil || n.opt == nil {
		return ErrNotCompiled
	}

	m := savedModel{
		Version:      formatVersion,
		Loss:         n.loss.Name(),
		Optimizer:    n.opt.Name(),
		LearningRate: n.opt.LearningRate(),
	}
	for i, l := range n.layers {
		cfg, err := ExtractLayerConfig(l)
		if err != nil {
			return fmt.Errorf("failed to encode layer %d: %w", i, err)
		}
		m.Layers = append(m.Layers, cfg)
	}

	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// Load loads a compiled Sequential model from a file.
func Load(filename string) (*Sequential, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Decode(file)
}

// Decode reads a model written by Encode.
func Decode(r io.Reader) (*Sequential, error) {
	var m savedModel
	if err := gob.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if m.Version != formatVersion {
		return nil, fmt.Errorf("unsupported model format version %d", m.Version)
	}

	layers := make([]layer.Layer, 0, len(m.Layers))
	for i := range m.Layers {
		l, err := m.Layers[i].CreateLayer()
		if err != nil {
			return nil, fmt.Errorf("failed to create layer %d: %w", i, err)
		}
		layers = append(layers, l)
	}

	lossFn, err := loss.ByName(m.Loss)
	if err != nil {
		return nil, err
	}
	optimizer, err := opt.ByName(m.Optimizer, m.LearningRate)
	if err != nil {
		return nil, err
	}

	s := NewSequential(layers...)
	if err := s.Compile(optimizer, lossFn); err != nil {
		return nil, err
	}
	return s, nil
}
