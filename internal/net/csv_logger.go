package net

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSVLogger logs per-epoch metrics to a CSV file.
type CSVLogger struct {
	BaseCallback
	Filename string
	Append   bool

	file   *os.File
	writer *csv.Writer
	start  time.Time
	// Err holds the first I/O error; later epochs are skipped once set.
	Err error
}

// NewCSVLogger creates a new CSVLogger.
func NewCSVLogger(filename string, append bool) *CSVLogger {
	return &CSVLogger{
		Filename: filename,
		Append:   append,
	}
}

func (c *CSVLogger) OnTrainBegin(n *Network, p Params) {
	mode := os.O_CREATE | os.O_WRONLY
	if c.Append {
		mode |= os.O_APPEND
	} else {
		mode |= os.O_TRUNC
	}

	file, err := os.OpenFile(c.Filename, mode, 0o644)
	if err != nil {
		c.Err = fmt.Errorf("csv logger: %w", err)
		return
	}
	c.file = file
	c.writer = csv.NewWriter(file)
	c.start = time.Now()

	// Header only for a fresh file
	info, err := file.Stat()
	if err == nil && (info.Size() == 0 || !c.Append) {
		c.write([]string{"epoch", "loss", "accuracy", "time_seconds"})
	}
}

func (c *CSVLogger) write(record []string) {
	if c.writer == nil || c.Err != nil {
		return
	}
	if err := c.writer.Write(record); err != nil {
		c.Err = fmt.Errorf("csv logger: %w", err)
		return
	}
	c.writer.Flush()
	if err := c.writer.Error(); err != nil {
		c.Err = fmt.Errorf("csv logger: %w", err)
	}
}

func (c *CSVLogger) OnEpochEnd(epoch int, logs Logs) {
	c.write([]string{
		strconv.Itoa(epoch),
		strconv.FormatFloat(logs.Loss, 'f', 6, 64),
		strconv.FormatFloat(logs.Accuracy, 'f', 4, 64),
		strconv.FormatFloat(time.Since(c.start).Seconds(), 'f', 2, 64),
	})
}

func (c *CSVLogger) OnTrainEnd(n *Network, h *History) {
	if c.file != nil {
		c.writer.Flush()
		if err := c.file.Close(); err != nil && c.Err == nil {
			c.Err = fmt.Errorf("csv logger: %w", err)
		}
		c.file = nil
		c.writer = nil
	}
}
