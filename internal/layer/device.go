package layer

import (
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"
)

// DeviceType represents the hardware device used for computation.
type DeviceType int

const (
	CPU DeviceType = iota
)

func (t DeviceType) String() string {
	switch t {
	case CPU:
		return "CPU"
	default:
		return fmt.Sprintf("DeviceType(%d)", int(t))
	}
}

// Device describes the hardware running the layer math.
type Device interface {
	Type() DeviceType
	IsAvailable() bool
	Description() string
}

// CPUDevice handles computations on the host CPU.
type CPUDevice struct{}

func (d *CPUDevice) Type() DeviceType  { return CPU }
func (d *CPUDevice) IsAvailable() bool { return true }

// Description reports the brand, core count and widest SIMD extension.
func (d *CPUDevice) Description() string {
	brand := cpuid.CPU.BrandName
	if brand == "" {
		brand = runtime.GOARCH
	}
	cores := cpuid.CPU.PhysicalCores
	if cores == 0 {
		cores = runtime.NumCPU()
	}
	return fmt.Sprintf("%s (%d cores, %s)", brand, cores, simdLevel())
}

func simdLevel() string {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ):
		return "avx512"
	case cpuid.CPU.Supports(cpuid.AVX2, cpuid.FMA3):
		return "avx2"
	case cpuid.CPU.Supports(cpuid.SSE4):
		return "sse4"
	case cpuid.CPU.Supports(cpuid.ASIMD):
		return "neon"
	default:
		return "scalar"
	}
}

// GetDefaultDevice returns the best available device for the current platform.
func GetDefaultDevice() Device {
	return &CPUDevice{}
}
