package net

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/FlavioCFOliveira/xorclass/internal/opt"
)

// Params describes a training run to callbacks.
type Params struct {
	Epochs  int
	Steps   int // batches per epoch
	Samples int
}

// Logs carries the running metrics of the current epoch.
type Logs struct {
	Loss     float64
	Accuracy float64
	Step     int
	Elapsed  time.Duration
}

// Callback defines the interface for training callbacks.
type Callback interface {
	OnTrainBegin(n *Network, p Params)
	OnTrainEnd(n *Network, h *History)
	OnEpochBegin(epoch int)
	OnEpochEnd(epoch int, logs Logs)
	OnBatchEnd(batch int, logs Logs)
}

// Stopper is implemented by callbacks that can end training early.
type Stopper interface {
	StopTraining() bool
}

// BaseCallback provides default empty implementations for Callback.
type BaseCallback struct{}

func (BaseCallback) OnTrainBegin(n *Network, p Params) {}
func (BaseCallback) OnTrainEnd(n *Network, h *History) {}
func (BaseCallback) OnEpochBegin(epoch int)            {}
func (BaseCallback) OnEpochEnd(epoch int, logs Logs)   {}
func (BaseCallback) OnBatchEnd(batch int, logs Logs)   {}

// ProgressLogger writes Keras-style progress:
//
//	Epoch 1/10
//	4/4 [==============================] - 0s 1ms/step - loss: 0.6931 - accuracy: 0.5000
type ProgressLogger struct {
	BaseCallback
	W io.Writer

	params Params
}

// NewProgressLogger creates a ProgressLogger writing to w.
func NewProgressLogger(w io.Writer) *ProgressLogger {
	return &ProgressLogger{W: w}
}

func (c *ProgressLogger) OnTrainBegin(n *Network, p Params) {
	c.params = p
}

func (c *ProgressLogger) OnEpochBegin(epoch int) {
	fmt.Fprintf(c.W, "Epoch %d/%d\n", epoch, c.params.Epochs)
}

func (c *ProgressLogger) OnEpochEnd(epoch int, logs Logs) {
	writeProgressLine(c.W, c.params.Steps, logs)
}

const barWidth = 30

func writeProgressLine(w io.Writer, steps int, logs Logs) {
	done := barWidth
	if steps > 0 && logs.Step < steps {
		done = barWidth * logs.Step / steps
	}
	bar := strings.Repeat("=", done) + strings.Repeat(".", barWidth-done)

	perStep := time.Duration(0)
	if logs.Step > 0 {
		perStep = logs.Elapsed / time.Duration(logs.Step)
	}

	fmt.Fprintf(w, "%d/%d [%s] - %.0fs %s - loss: %.4f - accuracy: %.4f\n",
		logs.Step, steps, bar, math.Floor(logs.Elapsed.Seconds()), formatPerStep(perStep),
		logs.Loss, logs.Accuracy)
}

func formatPerStep(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.0fs/step", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%dms/step", d.Milliseconds())
	default:
		return fmt.Sprintf("%dus/step", d.Microseconds())
	}
}

// SchedulerCallback is a callback that wraps a learning rate scheduler.
type SchedulerCallback struct {
	BaseCallback
	scheduler opt.Scheduler
}

func NewSchedulerCallback(scheduler opt.Scheduler) *SchedulerCallback {
	return &SchedulerCallback{scheduler: scheduler}
}

func (c *SchedulerCallback) OnEpochEnd(epoch int, logs Logs) {
	c.scheduler.Step(logs.Loss)
}

// EarlyStopping stops training when the loss has stopped improving.
type EarlyStopping struct {
	BaseCallback
	Patience  int
	Threshold float64
	W         io.Writer // optional; receives a note when training stops

	bestLoss     float64
	numBadEpochs int
	Stopped      bool
	StoppedEpoch int
}

func NewEarlyStopping(patience int, threshold float64) *EarlyStopping {
	return &EarlyStopping{
		Patience:  patience,
		Threshold: threshold,
		bestLoss:  math.MaxFloat64,
	}
}

func (c *EarlyStopping) OnTrainBegin(n *Network, p Params) {
	c.bestLoss = math.MaxFloat64
	c.numBadEpochs = 0
	c.Stopped = false
	c.StoppedEpoch = 0
}

func (c *EarlyStopping) OnEpochEnd(epoch int, logs Logs) {
	if logs.Loss < c.bestLoss-c.Threshold {
		c.bestLoss = logs.Loss
		c.numBadEpochs = 0
		return
	}
	c.numBadEpochs++

	if c.numBadEpochs >= c.Patience {
		c.Stopped = true
		c.StoppedEpoch = epoch
		if c.W != nil {
			fmt.Fprintf(c.W, "Early stopping at epoch %d: loss %.6f did not improve for %d epochs\n", epoch, logs.Loss, c.Patience)
		}
	}
}

func (c *EarlyStopping) StopTraining() bool { return c.Stopped }

// ModelCheckpoint saves the model after every epoch if it's the best so far.
type ModelCheckpoint struct {
	BaseCallback
	Filename string
	W        io.Writer // optional; receives save notes and errors

	network  *Network
	bestLoss float64
	// Err holds the last save error.
	Err error
}

func NewModelCheckpoint(filename string) *ModelCheckpoint {
	return &ModelCheckpoint{
		Filename: filename,
		bestLoss: math.MaxFloat64,
	}
}

func (c *ModelCheckpoint) OnTrainBegin(n *Network, p Params) {
	c.network = n
}

func (c *ModelCheckpoint) OnEpochEnd(epoch int, logs Logs) {
	if c.network == nil || logs.Loss >= c.bestLoss {
		return
	}
	c.bestLoss = logs.Loss
	if err := c.network.Save(c.Filename); err != nil {
		c.Err = err
		if c.W != nil {
			fmt.Fprintf(c.W, "Error saving checkpoint: %v\n", err)
		}
		return
	}
	if c.W != nil {
		fmt.Fprintf(c.W, "Checkpoint saved: loss %.6f is new best\n", logs.Loss)
	}
}
