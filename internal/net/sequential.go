package net

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/FlavioCFOliveira/xorclass/internal/dataset"
	"github.com/FlavioCFOliveira/xorclass/internal/layer"
	"github.com/FlavioCFOliveira/xorclass/internal/loss"
	"github.com/FlavioCFOliveira/xorclass/internal/metrics"
	"github.com/FlavioCFOliveira/xorclass/internal/opt"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// DefaultBatchSize is used when FitOptions or Evaluate get a zero batch size.
const DefaultBatchSize = 32

// Sequential is a high-level wrapper around Network to provide a Keras-like API.
type Sequential struct {
	*Network
	Name string
}

// NewSequential creates a new Sequential model.
func NewSequential(layers ...layer.Layer) *Sequential {
	return &Sequential{
		Network: New(layers, nil, nil),
		Name:    "sequential",
	}
}

// Compile configures the model for training.
func (s *Sequential) Compile(optimizer opt.Optimizer, lossFn loss.Loss) error {
	if optimizer == nil || lossFn == nil {
		return fmt.Errorf("net: compile needs an optimizer and a loss")
	}
	if err := s.checkLayers(); err != nil {
		return err
	}
	s.opt = optimizer
	s.loss = lossFn
	s.params, s.grads = nil, nil
	return nil
}

func (s *Sequential) compiled() bool {
	return s.opt != nil && s.loss != nil
}

func (s *Sequential) checkData(ds *dataset.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	if ds.Features() != s.InSize() {
		return fmt.Errorf("%w: data has %d features, model expects %d", ErrShapeMismatch, ds.Features(), s.InSize())
	}
	if ds.Classes() != s.OutSize() {
		return fmt.Errorf("%w: data has %d classes, model outputs %d", ErrShapeMismatch, ds.Classes(), s.OutSize())
	}
	return nil
}

// FitOptions controls a call to Fit.
type FitOptions struct {
	Epochs    int
	BatchSize int // 0 means DefaultBatchSize
	Shuffle   bool
	Seed      uint64
	Callbacks []Callback
}

// History holds per-epoch training metrics.
type History struct {
	Epoch    []int
	Loss     []float64
	Accuracy []float64
}

func (h *History) append(epoch int, logs Logs) {
	h.Epoch = append(h.Epoch, epoch)
	h.Loss = append(h.Loss, logs.Loss)
	h.Accuracy = append(h.Accuracy, logs.Accuracy)
}

// Fit trains the model on ds. The reported epoch loss is the sample-weighted
// mean of batch losses and the accuracy is measured on the predictions made
// before each update. Context cancellation is checked between batches; the
// history up to that point is returned with the error.
func (s *Sequential) Fit(ctx context.Context, ds *dataset.Dataset, o FitOptions) (*History, error) {
	if !s.compiled() {
		return nil, ErrNotCompiled
	}
	if o.Epochs <= 0 {
		return nil, fmt.Errorf("net: epochs must be > 0, got %d", o.Epochs)
	}
	if o.BatchSize < 0 {
		return nil, fmt.Errorf("net: batch size must be > 0, got %d", o.BatchSize)
	}
	if o.BatchSize == 0 {
		o.BatchSize = DefaultBatchSize
	}
	if err := s.checkData(ds); err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if o.Shuffle {
		rng = rand.New(rand.NewSource(o.Seed))
	}

	steps := (ds.Len() + o.BatchSize - 1) / o.BatchSize
	params := Params{Epochs: o.Epochs, Steps: steps, Samples: ds.Len()}
	for _, cb := range o.Callbacks {
		cb.OnTrainBegin(s.Network, params)
	}

	history := &History{}
	var err error
epochs:
	for epoch := 1; epoch <= o.Epochs; epoch++ {
		for _, cb := range o.Callbacks {
			cb.OnEpochBegin(epoch)
		}

		batches, berr := ds.Batches(o.BatchSize, rng)
		if berr != nil {
			err = berr
			break
		}

		var lossMean metrics.Mean
		var acc metrics.CategoricalAccuracy
		start := time.Now()
		for b, idx := range batches {
			if err = ctx.Err(); err != nil {
				break epochs
			}

			x, y := ds.Rows(idx)
			l, pred := s.TrainBatch(x, y)
			lossMean.Update(l, float64(len(idx)))
			acc.Update(pred, y)

			logs := Logs{Loss: lossMean.Result(), Accuracy: acc.Result(), Step: b + 1, Elapsed: time.Since(start)}
			for _, cb := range o.Callbacks {
				cb.OnBatchEnd(b+1, logs)
			}
		}

		logs := Logs{Loss: lossMean.Result(), Accuracy: acc.Result(), Step: len(batches), Elapsed: time.Since(start)}
		history.append(epoch, logs)
		for _, cb := range o.Callbacks {
			cb.OnEpochEnd(epoch, logs)
		}

		for _, cb := range o.Callbacks {
			if st, ok := cb.(Stopper); ok && st.StopTraining() {
				break epochs
			}
		}
	}

	for _, cb := range o.Callbacks {
		cb.OnTrainEnd(s.Network, history)
	}
	return history, err
}

// Result is the outcome of Evaluate.
type Result struct {
	Loss     float64
	Accuracy float64
}

// Evaluate computes loss and accuracy on ds without updating parameters.
// When progress is non-nil a single Keras-style summary line is written to it.
func (s *Sequential) Evaluate(ds *dataset.Dataset, batchSize int, progress io.Writer) (Result, error) {
	if !s.compiled() {
		return Result{}, ErrNotCompiled
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if err := s.checkData(ds); err != nil {
		return Result{}, err
	}

	batches, err := ds.Batches(batchSize, nil)
	if err != nil {
		return Result{}, err
	}

	var lossMean metrics.Mean
	var acc metrics.CategoricalAccuracy
	start := time.Now()
	for _, idx := range batches {
		x, y := ds.Rows(idx)
		pred := s.Forward(x)
		lossMean.Update(s.loss.Forward(pred, y), float64(len(idx)))
		acc.Update(pred, y)
	}

	res := Result{Loss: lossMean.Result(), Accuracy: acc.Result()}
	if progress != nil {
		writeProgressLine(progress, len(batches), Logs{
			Loss:     res.Loss,
			Accuracy: res.Accuracy,
			Step:     len(batches),
			Elapsed:  time.Since(start),
		})
	}
	return res, nil
}

// Predict performs a forward pass and returns the class probabilities.
func (s *Sequential) Predict(x *mat.Dense) (*mat.Dense, error) {
	if err := s.checkLayers(); err != nil {
		return nil, err
	}
	if _, c := x.Dims(); c != s.InSize() {
		return nil, fmt.Errorf("%w: input has %d columns, model expects %d", ErrShapeMismatch, c, s.InSize())
	}
	return s.Forward(x), nil
}

// PredictClasses returns the argmax class of each prediction row.
func (s *Sequential) PredictClasses(x *mat.Dense) ([]int, error) {
	pred, err := s.Predict(x)
	if err != nil {
		return nil, err
	}
	return metrics.Argmax(pred), nil
}

// layerName returns Keras-style names: dense, dense_1, dense_2...
func layerName(l layer.Layer, counts map[string]int) (string, string) {
	lType := fmt.Sprintf("%T", l)
	if i := strings.LastIndexByte(lType, '.'); i >= 0 {
		lType = lType[i+1:]
	}
	base := strings.ToLower(lType)
	n := counts[base]
	counts[base]++
	if n == 0 {
		return base, lType
	}
	return fmt.Sprintf("%s_%d", base, n), lType
}

// Summary writes a summary of the network architecture to w.
func (s *Sequential) Summary(w io.Writer) {
	const rule = "_________________________________________________________________"
	const double = "================================================================="

	fmt.Fprintf(w, "Model: %q\n", s.Name)
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, " %-27s %-25s %s\n", "Layer (type)", "Output Shape", "Param #")
	fmt.Fprintln(w, double)

	counts := make(map[string]int)
	for i, l := range s.layers {
		name, lType := layerName(l, counts)
		fmt.Fprintf(w, " %-27s %-25s %d\n",
			fmt.Sprintf("%s (%s)", name, lType),
			fmt.Sprintf("(None, %d)", l.OutSize()),
			l.NumParams())
		if i < len(s.layers)-1 {
			fmt.Fprintln(w)
		}
	}

	total := s.NumParams()
	fmt.Fprintln(w, double)
	fmt.Fprintf(w, "Total params: %d\n", total)
	fmt.Fprintf(w, "Trainable params: %d\n", total)
	fmt.Fprintf(w, "Non-trainable params: 0\n")
	fmt.Fprintln(w, rule)
}
