package gudaprim

import (
	"math/rand"
	"testing"
)

// NewContextOrFail creates a context that is destroyed when the test ends
func NewContextOrFail(t testing.TB, cfg Config) *Context {
	t.Helper()
	ctx, err := NewContext(cfg)
	if err != nil {
		t.Fatalf("Failed to create context: %v", err)
	}
	t.Cleanup(func() {
		if err := ctx.Destroy(); err != nil {
			t.Errorf("Destroy failed: %v", err)
		}
	})
	return ctx
}

// MallocOrFail allocates device memory and fails the test if unsuccessful
func MallocOrFail(t testing.TB, ctx *Context, n int) DevicePtr {
	t.Helper()
	ptr, err := ctx.Malloc(n)
	if err != nil {
		t.Fatalf("Failed to allocate %d elements: %v", n, err)
	}
	return ptr
}

// MemcpyOrFail copies data and fails the test if unsuccessful
func MemcpyOrFail(t testing.TB, s *Stream, dst, src interface{}, n int, kind MemcpyKind) {
	t.Helper()
	if err := s.Memcpy(dst, src, n, kind); err != nil {
		t.Fatalf("Memcpy failed: %v", err)
	}
}

// LaunchOrFail launches a kernel and fails the test if unsuccessful
func LaunchOrFail(t testing.TB, s *Stream, kernel KernelFunc, grid, block Dim3) {
	t.Helper()
	if err := s.Launch(t.Name(), kernel, grid, block); err != nil {
		t.Fatalf("Kernel launch failed: %v", err)
	}
}

// SynchronizeOrFail synchronizes and fails the test if unsuccessful
func SynchronizeOrFail(t testing.TB, s *Stream) {
	t.Helper()
	if err := s.Synchronize(); err != nil {
		t.Fatalf("Synchronize failed: %v", err)
	}
}

// RandomInts returns n values in [-limit, limit) from a seeded source, so
// failures reproduce.
func RandomInts(n int, limit int32, seed int64) []int32 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int32, n)
	for i := range out {
		out[i] = rng.Int31n(2*limit) - limit
	}
	return out
}

// TestSizes lists lengths that cover empty, tiny, power-of-two and
// non-power-of-two inputs, including sizes larger than one block.
var TestSizes = []int{0, 1, 2, 3, 4, 5, 7, 8, 13, 64, 255, 256, 257, 1000, 1024, 1 << 12, 1<<12 - 3, 50_001}
