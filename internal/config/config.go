// Package config loads the classifier's settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/FlavioCFOliveira/xorclass/internal/activations"
	"github.com/FlavioCFOliveira/xorclass/internal/opt"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Model  ModelConfig  `yaml:"model"`
	Train  TrainConfig  `yaml:"train"`
	Output OutputConfig `yaml:"output"`
}

type ModelConfig struct {
	InputDim   int    `yaml:"input_dim"`
	Hidden     []int  `yaml:"hidden"`
	Activation string `yaml:"activation"` // hidden layers
	NumClasses int    `yaml:"num_classes"`
}

type TrainConfig struct {
	Epochs       int            `yaml:"epochs"`
	BatchSize    int            `yaml:"batch_size"`
	LearningRate float64        `yaml:"learning_rate"`
	Optimizer    string         `yaml:"optimizer"`
	Shuffle      bool           `yaml:"shuffle"`
	Seed         uint64         `yaml:"seed"`                    // 0 picks a time-based seed
	Patience     int            `yaml:"early_stopping_patience"` // 0 disables
	ClipNorm     float64        `yaml:"clip_norm"`               // 0 disables
	Schedule     ScheduleConfig `yaml:"lr_schedule"`
}

// ScheduleConfig selects a learning rate schedule. Type is one of "" (none),
// "step", "exponential" or "plateau"; Gamma is the multiplicative factor.
type ScheduleConfig struct {
	Type     string  `yaml:"type"`
	StepSize int     `yaml:"step_size"`
	Gamma    float64 `yaml:"gamma"`
	Patience int     `yaml:"patience"`
	MinLR    float64 `yaml:"min_lr"`
}

type OutputConfig struct {
	Quiet      bool   `yaml:"quiet"`
	DataPath   string `yaml:"data"`        // CSV; empty trains on XOR
	HistoryDB  string `yaml:"history_db"`  // SQLite; empty disables
	HistoryCSV string `yaml:"history_csv"` // empty disables
	SavePath   string `yaml:"save"`        // empty disables
	PlotPath   string `yaml:"plot"`        // loss curve image; empty disables
}

// Default returns the settings of the reference XOR run: 2-64-32-2,
// ReLU hidden layers, Adam, 10 epochs with batch size 1.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			InputDim:   2,
			Hidden:     []int{64, 32},
			Activation: "relu",
			NumClasses: 2,
		},
		Train: TrainConfig{
			Epochs:       10,
			BatchSize:    1,
			LearningRate: 0.001,
			Optimizer:    "adam",
			Shuffle:      true,
		},
	}
}

// Load reads configPath over the defaults. With an empty path it looks for
// xorclass.yaml and configs/xorclass.yaml and falls back to the defaults.
// The result is not validated so that overrides can still fix it; call
// Validate once they are applied.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"xorclass.yaml", "configs/xorclass.yaml"} {
			data, err := os.ReadFile(p)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if err := decode(data, cfg, p); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	if err := decode(data, cfg, configPath); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config, path string) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

// Overrides holds command-line values; zero values leave the loaded
// configuration untouched.
type Overrides struct {
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         uint64
	DataPath     string
	HistoryDB    string
	SavePath     string
	PlotPath     string
	Quiet        bool
}

func (c *Config) ApplyOverrides(o Overrides) {
	if o.Epochs != 0 {
		c.Train.Epochs = o.Epochs
	}
	if o.BatchSize != 0 {
		c.Train.BatchSize = o.BatchSize
	}
	if o.LearningRate != 0 {
		c.Train.LearningRate = o.LearningRate
	}
	if o.Seed != 0 {
		c.Train.Seed = o.Seed
	}
	if o.DataPath != "" {
		c.Output.DataPath = o.DataPath
	}
	if o.HistoryDB != "" {
		c.Output.HistoryDB = o.HistoryDB
	}
	if o.SavePath != "" {
		c.Output.SavePath = o.SavePath
	}
	if o.PlotPath != "" {
		c.Output.PlotPath = o.PlotPath
	}
	if o.Quiet {
		c.Output.Quiet = true
	}
}

// Validate rejects settings that cannot build or train a model.
func (c *Config) Validate() error {
	if c.Model.InputDim <= 0 {
		return fmt.Errorf("config: input_dim must be > 0, got %d", c.Model.InputDim)
	}
	if c.Model.NumClasses < 2 {
		return fmt.Errorf("config: num_classes must be >= 2, got %d", c.Model.NumClasses)
	}
	for i, h := range c.Model.Hidden {
		if h <= 0 {
			return fmt.Errorf("config: hidden[%d] must be > 0, got %d", i, h)
		}
	}
	if _, err := activations.ByName(c.Model.Activation); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Model.Activation == "softmax" {
		return errors.New("config: softmax is reserved for the output layer")
	}
	if c.Train.Epochs <= 0 {
		return fmt.Errorf("config: epochs must be > 0, got %d", c.Train.Epochs)
	}
	if c.Train.BatchSize <= 0 {
		return fmt.Errorf("config: batch_size must be > 0, got %d", c.Train.BatchSize)
	}
	if c.Train.LearningRate <= 0 {
		return fmt.Errorf("config: learning_rate must be > 0, got %v", c.Train.LearningRate)
	}
	if _, err := opt.ByName(c.Train.Optimizer, c.Train.LearningRate); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Train.Schedule.validate(); err != nil {
		return err
	}
	if c.Train.Patience < 0 {
		return fmt.Errorf("config: early_stopping_patience must be >= 0, got %d", c.Train.Patience)
	}
	if c.Train.ClipNorm < 0 {
		return fmt.Errorf("config: clip_norm must be >= 0, got %v", c.Train.ClipNorm)
	}
	return nil
}

func (s ScheduleConfig) validate() error {
	switch s.Type {
	case "":
		return nil
	case "step":
		if s.StepSize <= 0 {
			return fmt.Errorf("config: lr_schedule.step_size must be > 0, got %d", s.StepSize)
		}
	case "exponential":
	case "plateau":
		if s.Patience <= 0 {
			return fmt.Errorf("config: lr_schedule.patience must be > 0, got %d", s.Patience)
		}
		if s.MinLR < 0 {
			return fmt.Errorf("config: lr_schedule.min_lr must be >= 0, got %v", s.MinLR)
		}
	default:
		return fmt.Errorf("config: unknown lr_schedule.type %q", s.Type)
	}
	if s.Gamma <= 0 || s.Gamma > 1 {
		return fmt.Errorf("config: lr_schedule.gamma must be in (0, 1], got %v", s.Gamma)
	}
	return nil
}

// String renders the configuration as YAML.
func (c *Config) String() string {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("%+v", *c)
	}
	return string(data)
}
