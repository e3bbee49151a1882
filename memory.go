package gudaprim

import (
	"fmt"
	"sync"
)

// MemcpyKind specifies the direction of memory transfer.
// In the unified memory model every kind is a plain copy, but the kind is
// checked against the operand types so transfers read like their CUDA
// counterparts.
type MemcpyKind int

const (
	MemcpyHostToHost     MemcpyKind = iota // Host to host transfer
	MemcpyHostToDevice                     // Host to device transfer
	MemcpyDeviceToHost                     // Device to host transfer
	MemcpyDeviceToDevice                   // Device to device transfer
	MemcpyDefault                          // Default transfer (infer direction)
)

// defaultSystemMemory is assumed when the OS does not report total memory.
const defaultSystemMemory = 16 * 1024 * 1024 * 1024

// MemoryPool tracks device allocations against a byte limit.
// Freed memory is dropped rather than cached, so no buffer outlives the
// call that allocated it.
type MemoryPool struct {
	mu         sync.Mutex
	live       map[*allocation]struct{}
	limit      uint64
	totalAlloc uint64
	peakAlloc  uint64
}

type allocation struct {
	mem   []int32
	bytes uint64
	freed bool
}

// DevicePtr represents a pointer to device memory holding int32 elements.
// Use Int32 to access the data and Offset for sub-regions.
type DevicePtr struct {
	alloc  *allocation
	offset int // in elements
	n      int // in elements
}

// NewMemoryPool creates a memory pool that refuses allocations beyond
// limit bytes. A zero limit means unlimited.
func NewMemoryPool(limit uint64) *MemoryPool {
	return &MemoryPool{
		live:  make(map[*allocation]struct{}),
		limit: limit,
	}
}

// Malloc allocates device memory for n int32 elements, zero-filled.
//
// Example:
//
//	ptr, err := ctx.Malloc(1024)
//	if err != nil {
//		return err
//	}
//	defer ctx.Free(ptr)
func (ctx *Context) Malloc(n int) (DevicePtr, error) {
	ptr, err := ctx.memory.Allocate(n)
	if err != nil {
		return DevicePtr{}, err
	}
	ctx.log.Debug("malloc", "elems", n)
	return ptr, nil
}

// MallocPadded allocates a zero-filled buffer of m = NextPow2(n) elements
// for algorithms that work on a power-of-two range. Positions [n, m) hold
// the additive identity.
func (ctx *Context) MallocPadded(n int) (DevicePtr, int, error) {
	if n <= 0 {
		return DevicePtr{}, 0, ErrInvalidSize
	}
	m := NextPow2(n)
	ptr, err := ctx.Malloc(m)
	if err != nil {
		return DevicePtr{}, 0, err
	}
	return ptr, m, nil
}

// Free releases device memory allocated by Malloc.
// It is safe to call Free with a zero DevicePtr.
func (ctx *Context) Free(ptr DevicePtr) error {
	if ptr.alloc == nil {
		return nil
	}
	return ctx.memory.Free(ptr)
}

// MemoryStats returns the live and peak bytes allocated on the device.
func (ctx *Context) MemoryStats() (allocated, peak uint64) {
	return ctx.memory.GetStats()
}

// Memcpy copies n elements between host and device. Operands are
// DevicePtr or []int32. The copy is queued on the stream behind earlier
// work and Memcpy blocks until it has completed.
func (s *Stream) Memcpy(dst, src interface{}, n int, kind MemcpyKind) error {
	d, dDevice, err := memcpyOperand("Memcpy", dst, n)
	if err != nil {
		return err
	}
	sv, sDevice, err := memcpyOperand("Memcpy", src, n)
	if err != nil {
		return err
	}
	if err := checkKind(kind, dDevice, sDevice); err != nil {
		return err
	}

	if err := s.submit(task{fn: func() error {
		copy(d[:n], sv[:n])
		return nil
	}}); err != nil {
		return err
	}
	return s.Synchronize()
}

// Memset fills every element of dst with v. It is queued like a launch.
func (s *Stream) Memset(dst DevicePtr, v int32) error {
	mem := dst.Int32()
	if mem == nil {
		return NewInvalidArgError("Memset", "null pointer")
	}
	return s.submit(task{fn: func() error {
		for i := range mem {
			mem[i] = v
		}
		return nil
	}})
}

func memcpyOperand(op string, v interface{}, n int) ([]int32, bool, error) {
	if n < 0 {
		return nil, false, NewInvalidArgError(op, fmt.Sprintf("negative element count %d", n))
	}
	var (
		mem    []int32
		device bool
	)
	switch p := v.(type) {
	case DevicePtr:
		if p.alloc == nil || p.alloc.freed {
			return nil, true, NewInvalidArgError(op, "null pointer")
		}
		mem, device = p.Int32(), true
	case []int32:
		mem = p
	default:
		return nil, false, NewInvalidArgError(op, fmt.Sprintf("unsupported operand type: %T", v))
	}
	if len(mem) < n {
		return nil, device, NewInvalidArgError(op, fmt.Sprintf("buffer of %d elements is shorter than %d", len(mem), n))
	}
	return mem, device, nil
}

func checkKind(kind MemcpyKind, dstDevice, srcDevice bool) error {
	var ok bool
	switch kind {
	case MemcpyHostToHost:
		ok = !dstDevice && !srcDevice
	case MemcpyHostToDevice:
		ok = dstDevice && !srcDevice
	case MemcpyDeviceToHost:
		ok = !dstDevice && srcDevice
	case MemcpyDeviceToDevice:
		ok = dstDevice && srcDevice
	case MemcpyDefault:
		ok = true
	}
	if !ok {
		return NewInvalidArgError("Memcpy", fmt.Sprintf("operands do not match transfer kind %d", kind))
	}
	return nil
}

// MemoryPool methods

// Allocate allocates n elements from the pool
func (mp *MemoryPool) Allocate(n int) (DevicePtr, error) {
	if n <= 0 {
		return DevicePtr{}, ErrInvalidSize
	}

	// Round up to alignment
	bytes := uint64(n) * ElementSize
	aligned := (bytes + MemoryAlignment - 1) &^ (MemoryAlignment - 1)

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if mp.limit > 0 && mp.totalAlloc+aligned > mp.limit {
		return DevicePtr{}, NewMemoryError("Malloc", "out of memory",
			fmt.Errorf("requested %d bytes with %d of %d in use", aligned, mp.totalAlloc, mp.limit))
	}

	alloc := &allocation{
		mem:   make([]int32, n),
		bytes: aligned,
	}
	mp.live[alloc] = struct{}{}

	// Update tracking
	mp.totalAlloc += aligned
	if mp.totalAlloc > mp.peakAlloc {
		mp.peakAlloc = mp.totalAlloc
	}

	return DevicePtr{alloc: alloc, n: n}, nil
}

// Free returns memory to the pool
func (mp *MemoryPool) Free(ptr DevicePtr) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	alloc := ptr.alloc
	if alloc.freed {
		return ErrDoubleFree
	}
	if _, ok := mp.live[alloc]; !ok {
		return ErrUnknownPointer
	}

	alloc.freed = true
	alloc.mem = nil
	delete(mp.live, alloc)
	mp.totalAlloc -= alloc.bytes
	return nil
}

// GetStats returns memory pool statistics
func (mp *MemoryPool) GetStats() (allocated, peak uint64) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return mp.totalAlloc, mp.peakAlloc
}

// release frees every live allocation and reports how many there were.
func (mp *MemoryPool) release() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	n := len(mp.live)
	for alloc := range mp.live {
		alloc.freed = true
		alloc.mem = nil
		delete(mp.live, alloc)
	}
	mp.totalAlloc = 0
	return n
}

// DevicePtr methods for convenience

// Int32 returns an int32 slice view of the device memory.
// The slice can be used directly for reading and writing data. It is nil
// once the memory has been freed.
//
// Example:
//
//	d_indices, _ := ctx.Malloc(1024)
//	indices := d_indices.Int32()
//	indices[0] = 42 // Direct access
func (d DevicePtr) Int32() []int32 {
	if d.alloc == nil || d.alloc.mem == nil {
		return nil
	}
	return d.alloc.mem[d.offset : d.offset+d.n : d.offset+d.n]
}

// Offset returns a new DevicePtr offset by the given number of elements.
// The returned DevicePtr shares the same underlying memory.
func (d DevicePtr) Offset(elems int) DevicePtr {
	return DevicePtr{
		alloc:  d.alloc,
		offset: d.offset + elems,
		n:      d.n - elems,
	}
}

// Len returns the number of elements addressable through d.
func (d DevicePtr) Len() int {
	return d.n
}

// IsNil reports whether d points at no allocation.
func (d DevicePtr) IsNil() bool {
	return d.alloc == nil
}
