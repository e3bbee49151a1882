package gudaprim

import (
	"runtime"
	"strings"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"
)

// CPUFeatures tracks available CPU instruction set extensions
type CPUFeatures struct {
	HasSSE4    bool
	HasAVX     bool
	HasAVX2    bool
	HasAVX512F bool
	HasNEON    bool
	HasSVE     bool
}

// Device represents a compute device. In gudaprim, this is the CPU with its
// cores and available memory.
type Device struct {
	ID          int    // Unique device identifier
	Name        string // Human-readable device name
	Vendor      string // CPU vendor as reported by CPUID
	TotalMem    uint64 // Total available memory in bytes
	NumCores    int    // Number of physical cores
	MaxThreads  int    // Maximum concurrent threads
	L1DataCache int    // L1 data cache per core in bytes
	L2Cache     int    // L2 cache in bytes
	Features    CPUFeatures
}

var (
	device     *Device
	deviceOnce sync.Once
)

// detectedDevice returns the process-wide device description, probing the
// CPU the first time it is called.
func detectedDevice() *Device {
	deviceOnce.Do(func() {
		device = detectDevice()
	})
	return device
}

func detectDevice() *Device {
	d := &Device{
		ID:          0,
		Name:        strings.TrimSpace(cpuid.CPU.BrandName),
		Vendor:      cpuid.CPU.VendorString,
		TotalMem:    systemMemory(),
		NumCores:    cpuid.CPU.PhysicalCores,
		MaxThreads:  runtime.NumCPU(),
		L1DataCache: cpuid.CPU.Cache.L1D,
		L2Cache:     cpuid.CPU.Cache.L2,
		Features:    detectCPUFeatures(),
	}
	if d.Name == "" {
		d.Name = "CPU"
	}
	if d.NumCores <= 0 {
		d.NumCores = runtime.NumCPU()
	}
	if d.L1DataCache <= 0 {
		d.L1DataCache = L1CacheSize
	}
	if d.L2Cache <= 0 {
		d.L2Cache = L2CacheSize
	}
	return d
}

func detectCPUFeatures() CPUFeatures {
	return CPUFeatures{
		HasSSE4:    cpu.X86.HasSSE41 || cpu.X86.HasSSE42,
		HasAVX:     cpu.X86.HasAVX,
		HasAVX2:    cpu.X86.HasAVX2,
		HasAVX512F: cpu.X86.HasAVX512F,
		HasNEON:    cpu.ARM64.HasASIMD,
		HasSVE:     cpu.ARM64.HasSVE,
	}
}

// PreferredBlockSize picks a power-of-two block size whose double-buffered
// int32 working set fits in one core's L1 data cache.
func (d *Device) PreferredBlockSize() int {
	elems := d.L1DataCache / (2 * ElementSize)
	if elems < MinBlockSize {
		return MinBlockSize
	}
	if elems > MaxThreadsPerBlock {
		return MaxThreadsPerBlock
	}
	return 1 << (Log2Ceil(elems+1) - 1)
}

// String returns a short description of available CPU features
func (f CPUFeatures) String() string {
	features := []string{}
	if f.HasSSE4 {
		features = append(features, "SSE4")
	}
	if f.HasAVX {
		features = append(features, "AVX")
	}
	if f.HasAVX2 {
		features = append(features, "AVX2")
	}
	if f.HasAVX512F {
		features = append(features, "AVX512F")
	}
	if f.HasNEON {
		features = append(features, "NEON")
	}
	if f.HasSVE {
		features = append(features, "SVE")
	}
	if len(features) == 0 {
		return "scalar"
	}
	return strings.Join(features, " ")
}
