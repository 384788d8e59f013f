// Package dataset holds labelled samples for classification and splits them
// into mini-batches.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrEmpty is returned for a dataset without samples.
	ErrEmpty = errors.New("dataset: no samples")
	// ErrShapeMismatch is returned when rows are ragged or X and Y disagree.
	ErrShapeMismatch = errors.New("dataset: shape mismatch")
	// ErrNotOneHot is returned when a label row is not a one-hot vector.
	ErrNotOneHot = errors.New("dataset: label is not one-hot")
)

// Dataset is a set of feature rows X (n × features) with one-hot labels
// Y (n × classes).
type Dataset struct {
	X *mat.Dense
	Y *mat.Dense
}

// XOR returns the four XOR samples with two-class one-hot labels.
func XOR() *Dataset {
	return &Dataset{
		X: mat.NewDense(4, 2, []float64{
			0, 0,
			0, 1,
			1, 0,
			1, 1,
		}),
		Y: mat.NewDense(4, 2, []float64{
			1, 0,
			0, 1,
			0, 1,
			1, 0,
		}),
	}
}

// New builds a dataset from row slices and validates it.
func New(x, y [][]float64) (*Dataset, error) {
	if len(x) == 0 {
		return nil, ErrEmpty
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("%w: %d samples but %d labels", ErrShapeMismatch, len(x), len(y))
	}
	xm, err := fromRows(x)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}
	ym, err := fromRows(y)
	if err != nil {
		return nil, fmt.Errorf("labels: %w", err)
	}

	d := &Dataset{X: xm, Y: ym}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

func fromRows(rows [][]float64) (*mat.Dense, error) {
	cols := len(rows[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: row 0 is empty", ErrShapeMismatch)
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShapeMismatch, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

// Validate checks that X and Y have the same number of rows and that every
// label row has exactly one 1 and zeros elsewhere.
func (d *Dataset) Validate() error {
	if d == nil || d.X == nil || d.Y == nil {
		return ErrEmpty
	}
	xr, _ := d.X.Dims()
	yr, yc := d.Y.Dims()
	if xr != yr {
		return fmt.Errorf("%w: %d samples but %d labels", ErrShapeMismatch, xr, yr)
	}
	for r := 0; r < yr; r++ {
		ones := 0
		for c := 0; c < yc; c++ {
			switch d.Y.At(r, c) {
			case 1:
				ones++
			case 0:
			default:
				return fmt.Errorf("%w: row %d has value %v", ErrNotOneHot, r, d.Y.At(r, c))
			}
		}
		if ones != 1 {
			return fmt.Errorf("%w: row %d has %d ones", ErrNotOneHot, r, ones)
		}
	}
	return nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	r, _ := d.X.Dims()
	return r
}

// Features returns the width of X.
func (d *Dataset) Features() int {
	_, c := d.X.Dims()
	return c
}

// Classes returns the width of Y.
func (d *Dataset) Classes() int {
	_, c := d.Y.Dims()
	return c
}

// Batches splits the sample indices into groups of batchSize. When rng is
// non-nil the order is shuffled first. The last batch may be short.
func (d *Dataset) Batches(batchSize int, rng *rand.Rand) ([][]int, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("dataset: batch size must be > 0, got %d", batchSize)
	}
	n := d.Len()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	}

	batches := make([][]int, 0, (n+batchSize-1)/batchSize)
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)
		batches = append(batches, idx[start:end])
	}
	return batches, nil
}

// Rows copies the selected samples into new matrices.
func (d *Dataset) Rows(idx []int) (x, y *mat.Dense) {
	x = mat.NewDense(len(idx), d.Features(), nil)
	y = mat.NewDense(len(idx), d.Classes(), nil)
	for i, r := range idx {
		x.SetRow(i, d.X.RawRowView(r))
		y.SetRow(i, d.Y.RawRowView(r))
	}
	return x, y
}

// OneHot returns a row of length classes with a 1 at class.
func OneHot(class, classes int) []float64 {
	row := make([]float64, classes)
	row[class] = 1
	return row
}

// LoadCSV loads samples from a CSV file. The last column holds an integer
// class id in [0, numClasses); every other column is a feature.
// hasHeader skips the first line if true.
func LoadCSV(filename string, numClasses int, hasHeader bool) (*Dataset, error) {
	if numClasses < 2 {
		return nil, fmt.Errorf("dataset: need at least 2 classes, got %d", numClasses)
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	startRow := 0
	if hasHeader {
		startRow = 1
	}
	if len(records) <= startRow {
		return nil, ErrEmpty
	}

	numCols := len(records[startRow])
	if numCols < 2 {
		return nil, fmt.Errorf("%w: need at least one feature and a label column", ErrShapeMismatch)
	}

	samples := make([][]float64, 0, len(records)-startRow)
	labels := make([][]float64, 0, len(records)-startRow)
	for i := startRow; i < len(records); i++ {
		record := records[i]
		if len(record) != numCols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShapeMismatch, i, len(record), numCols)
		}

		row := make([]float64, numCols-1)
		for j := 0; j < numCols-1; j++ {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("failed to parse value at row %d, col %d: %w", i, j, err)
			}
			row[j] = v
		}

		label, err := strconv.ParseFloat(record[numCols-1], 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse label at row %d: %w", i, err)
		}
		class := int(label)
		if float64(class) != label || class < 0 || class >= numClasses || math.IsNaN(label) {
			return nil, fmt.Errorf("%w: row %d has class %v, want integer in [0,%d)", ErrNotOneHot, i, label, numClasses)
		}

		samples = append(samples, row)
		labels = append(labels, OneHot(class, numClasses))
	}

	return New(samples, labels)
}
