package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/FlavioCFOliveira/xorclass/internal/config"
	"github.com/FlavioCFOliveira/xorclass/internal/history"
	"github.com/FlavioCFOliveira/xorclass/internal/net"
)

// chdir moves into an empty directory so no stray xorclass.yaml is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestRunDefaults(t *testing.T) {
	chdir(t)

	var out bytes.Buffer
	if err := run(context.Background(), "", config.Overrides{Seed: 1}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}

	s := out.String()
	for _, want := range []string{
		"Device: ",
		`Model: "sequential"`,
		"Total params: 2338",
		"Epoch 1/10",
		"Epoch 10/10",
		"1/1 [",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if got := strings.Count(s, "4/4 ["); got != 10 {
		t.Errorf("per-epoch progress lines = %d, want 10", got)
	}

	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	last := lines[len(lines)-1]
	if !strings.HasPrefix(last, "loss: ") || !strings.Contains(last, " - accuracy: ") {
		t.Errorf("last line = %q", last)
	}
}

func TestRunQuiet(t *testing.T) {
	chdir(t)

	var out bytes.Buffer
	if err := run(context.Background(), "", config.Overrides{Seed: 1, Epochs: 2, Quiet: true}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "loss: ") {
		t.Errorf("quiet output = %q", out.String())
	}
}

func TestRunConfigFileAndOutputs(t *testing.T) {
	dir := chdir(t)

	yaml := `
train:
  epochs: 200
  batch_size: 4
  learning_rate: 0.01
  seed: 42
output:
  history_csv: log.csv
  plot: loss.png
`
	if err := os.WriteFile("xorclass.yaml", []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "runs.db")
	modelPath := filepath.Join(dir, "model.gob")

	var out bytes.Buffer
	ov := config.Overrides{HistoryDB: dbPath, SavePath: modelPath, Quiet: true}
	if err := run(context.Background(), "", ov, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := strings.TrimSpace(out.String()); !strings.HasSuffix(got, "accuracy: 1.0000") {
		t.Errorf("final line = %q, want accuracy 1", got)
	}

	m, err := net.Load(modelPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.NumParams() != 2338 {
		t.Errorf("saved model has %d params", m.NumParams())
	}

	img, err := os.ReadFile(filepath.Join(dir, "loss.png"))
	if err != nil {
		t.Fatal(err)
	}
	if len(img) == 0 || !bytes.HasPrefix(img, []byte("\x89PNG")) {
		t.Errorf("loss.png is not a PNG (%d bytes)", len(img))
	}

	csvData, err := os.ReadFile(filepath.Join(dir, "log.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(csvData), "\n"); got != 201 {
		t.Errorf("csv lines = %d, want header + 200", got)
	}

	store, err := history.Open(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	runs, err := store.Runs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || !strings.Contains(runs[0].Config, "epochs: 200") {
		t.Fatalf("runs = %+v", runs)
	}
	epochs, err := store.Epochs(context.Background(), runs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(epochs) != 200 {
		t.Errorf("stored epochs = %d, want 200", len(epochs))
	}
}

func TestRunFlagFixesFileValue(t *testing.T) {
	chdir(t)

	if err := os.WriteFile("xorclass.yaml", []byte("train:\n  learning_rate: 0\n  epochs: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := run(context.Background(), "", config.Overrides{Seed: 1, Quiet: true}, &out); err == nil {
		t.Error("run with learning_rate 0 should fail")
	}
	if err := run(context.Background(), "", config.Overrides{Seed: 1, LearningRate: 0.01, Quiet: true}, &out); err != nil {
		t.Errorf("run with -lr override: %v", err)
	}
}

func TestRunCSVData(t *testing.T) {
	chdir(t)

	data := "a,b,label\n0,0,0\n0,1,1\n1,0,1\n1,1,0\n"
	if err := os.WriteFile("xor.csv", []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	if err := run(context.Background(), "", config.Overrides{Seed: 5, Epochs: 1, DataPath: "xor.csv"}, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "4/4 [") {
		t.Errorf("expected 4 training steps:\n%s", out.String())
	}
}

func TestRunErrors(t *testing.T) {
	chdir(t)

	if err := os.WriteFile("wide.csv", []byte("a,b,c,label\n1,2,3,0\n3,4,5,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfgPath string
		ov      config.Overrides
	}{
		{"missing config", "nope.yaml", config.Overrides{}},
		{"missing data", "", config.Overrides{DataPath: "nope.csv"}},
		{"feature mismatch", "", config.Overrides{DataPath: "wide.csv"}},
		{"bad learning rate", "", config.Overrides{LearningRate: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(context.Background(), tt.cfgPath, tt.ov, &out); err == nil {
				t.Error("run should fail")
			}
		})
	}
}

func TestRunCancelled(t *testing.T) {
	chdir(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	if err := run(ctx, "", config.Overrides{Seed: 1}, &out); err == nil {
		t.Error("run with a cancelled context should fail")
	}
}
