package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FlavioCFOliveira/xorclass/internal/config"
	"github.com/FlavioCFOliveira/xorclass/internal/dataset"
	"github.com/FlavioCFOliveira/xorclass/internal/history"
	"github.com/FlavioCFOliveira/xorclass/internal/layer"
	"github.com/FlavioCFOliveira/xorclass/internal/net"
	"github.com/FlavioCFOliveira/xorclass/xorclass"
)

func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (default: xorclass.yaml or configs/xorclass.yaml if present)")
	epochs := flag.Int("epochs", 0, "Number of training epochs")
	batchSize := flag.Int("batch-size", 0, "Mini-batch size")
	lr := flag.Float64("lr", 0, "Learning rate")
	seed := flag.Uint64("seed", 0, "PRNG seed for weights and shuffling (0: time-based)")
	data := flag.String("data", "", "CSV file with a header row, feature columns and an integer class column")
	historyDB := flag.String("history", "", "SQLite file to record the run in")
	save := flag.String("save", "", "Write the trained model to this file")
	plotPath := flag.String("plot", "", "Write an epochs vs loss plot to this image file (.png, .svg, .pdf)")
	quiet := flag.Bool("quiet", false, "Only print the final loss and accuracy")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, *cfgPath, config.Overrides{
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		LearningRate: *lr,
		Seed:         *seed,
		DataPath:     *data,
		HistoryDB:    *historyDB,
		SavePath:     *save,
		PlotPath:     *plotPath,
		Quiet:        *quiet,
	}, os.Stdout)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "xorclass: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath string, ov config.Overrides, stdout io.Writer) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyOverrides(ov)
	if err := cfg.Validate(); err != nil {
		return err
	}

	seed := cfg.Train.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	ds := dataset.XOR()
	if cfg.Output.DataPath != "" {
		ds, err = dataset.LoadCSV(cfg.Output.DataPath, cfg.Model.NumClasses, true)
		if err != nil {
			return fmt.Errorf("load data: %w", err)
		}
	}

	out := stdout
	if cfg.Output.Quiet {
		out = io.Discard
	}

	m, err := xorclass.Build(cfg, seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Device: %s\n", layer.GetDefaultDevice().Description())
	m.Summary(out)

	callbacks := []net.Callback{net.NewProgressLogger(out)}
	if cfg.Train.Patience > 0 {
		es := net.NewEarlyStopping(cfg.Train.Patience, 0)
		es.W = out
		callbacks = append(callbacks, es)
	}

	sched, err := xorclass.NewScheduler(cfg.Train.Schedule, m.Optimizer())
	if err != nil {
		return err
	}
	if sched != nil {
		callbacks = append(callbacks, net.NewSchedulerCallback(sched))
	}

	var csvLog *net.CSVLogger
	if cfg.Output.HistoryCSV != "" {
		csvLog = net.NewCSVLogger(cfg.Output.HistoryCSV, false)
		callbacks = append(callbacks, csvLog)
	}

	var plotLog *net.PlotLogger
	if cfg.Output.PlotPath != "" {
		plotLog = net.NewPlotLogger(cfg.Output.PlotPath)
		callbacks = append(callbacks, plotLog)
	}

	var rec *history.Recorder
	if cfg.Output.HistoryDB != "" {
		store, err := history.Open(cfg.Output.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err = history.NewRecorder(ctx, store, cfg.String())
		if err != nil {
			return err
		}
		callbacks = append(callbacks, rec)
		fmt.Fprintf(out, "Run %s\n", rec.RunID())
	}

	_, err = m.Fit(ctx, ds, net.FitOptions{
		Epochs:    cfg.Train.Epochs,
		BatchSize: cfg.Train.BatchSize,
		Shuffle:   cfg.Train.Shuffle,
		Seed:      seed,
		Callbacks: callbacks,
	})
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	if csvLog != nil && csvLog.Err != nil {
		return csvLog.Err
	}
	if rec != nil && rec.Err != nil {
		return rec.Err
	}
	if plotLog != nil {
		if plotLog.Err != nil {
			return plotLog.Err
		}
		fmt.Fprintf(out, "Loss plot saved to %s\n", cfg.Output.PlotPath)
	}

	res, err := m.Evaluate(ds, net.DefaultBatchSize, out)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	if cfg.Output.SavePath != "" {
		if err := m.Save(cfg.Output.SavePath); err != nil {
			return fmt.Errorf("save model: %w", err)
		}
		fmt.Fprintf(out, "Model saved to %s\n", cfg.Output.SavePath)
	}

	fmt.Fprintf(stdout, "loss: %.4f - accuracy: %.4f\n", res.Loss, res.Accuracy)
	return nil
}
