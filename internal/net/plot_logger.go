package net

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PlotLogger collects the epoch loss and renders an epochs vs loss scatter
// plot when training ends. The image format follows the file extension.
type PlotLogger struct {
	BaseCallback
	Filename string
	Width    vg.Length
	Height   vg.Length

	points plotter.XYs
	// Err holds the error from rendering or writing the plot.
	Err error
}

// NewPlotLogger creates a PlotLogger writing an 8x8 inch image to filename.
func NewPlotLogger(filename string) *PlotLogger {
	return &PlotLogger{
		Filename: filename,
		Width:    8 * vg.Inch,
		Height:   8 * vg.Inch,
	}
}

func (c *PlotLogger) OnTrainBegin(n *Network, p Params) {
	c.points = make(plotter.XYs, 0, p.Epochs)
	c.Err = nil
}

func (c *PlotLogger) OnEpochEnd(epoch int, logs Logs) {
	c.points = append(c.points, plotter.XY{X: float64(epoch), Y: logs.Loss})
}

func (c *PlotLogger) OnTrainEnd(n *Network, h *History) {
	if len(c.points) == 0 {
		return
	}

	p := plot.New()
	p.Title.Text = "epochs vs loss"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "loss"

	scatter, err := plotter.NewScatter(c.points)
	if err != nil {
		c.Err = fmt.Errorf("plot logger: %w", err)
		return
	}
	scatter.GlyphStyle.Radius = vg.Length(2)
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(scatter)

	if err := p.Save(c.Width, c.Height, c.Filename); err != nil {
		c.Err = fmt.Errorf("plot logger: %w", err)
	}
}
