package layer

import (
	"math"
	"sync/atomic"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var seedCounter atomic.Uint64

// defaultSource returns a fresh time-based source. The counter keeps two
// layers built within the same clock tick from sharing weights.
func defaultSource() rand.Source {
	return rand.NewSource(uint64(time.Now().UnixNano()) + seedCounter.Add(1))
}

// GlorotUniform returns an in×out matrix drawn from U(-limit, limit) with
// limit = sqrt(6 / (in + out)).
func GlorotUniform(in, out int, src rand.Source) *mat.Dense {
	limit := math.Sqrt(6.0 / float64(in+out))
	dist := distuv.Uniform{Min: -limit, Max: limit, Src: src}

	data := make([]float64, in*out)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(in, out, data)
}
