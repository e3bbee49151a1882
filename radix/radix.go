// Package radix implements a least-significant-bit-first radix sort for
// int32 keys built on any gudaprim.Scanner.
//
// Every pass splits the keys on one bit: keys whose bit is 0 keep their
// relative order at the front, keys whose bit is 1 keep theirs behind them.
// The split is stable, so after KeyBits passes the keys are fully sorted.
// Slots come from an exclusive scan of the inverted bit: zeroPos[i] counts
// the 0-keys before i, and a 1-key lands at i - zeroPos[i] + totalZeros.
//
// Keys are biased by flipping the sign bit before the first pass and
// flipped back after the last, so negative keys sort before positive ones.
package radix

import (
	"math"

	"github.com/LynnColeArt/gudaprim"
)

// KeyBits is the number of split passes, one per bit of an int32 key.
const KeyBits = 32

// Sorter sorts with scan-driven split passes.
type Sorter struct {
	ctx     *gudaprim.Context
	stream  *gudaprim.Stream
	scanner gudaprim.Scanner
	timer   *gudaprim.DeviceTimer
}

// New creates a Sorter whose split positions come from scanner. The sorter
// launches its own kernels on a dedicated stream of ctx.
func New(ctx *gudaprim.Context, scanner gudaprim.Scanner) (*Sorter, error) {
	if scanner == nil {
		return nil, gudaprim.NewInvalidArgError("radix.New", "nil scanner")
	}
	stream, err := ctx.CreateStream()
	if err != nil {
		return nil, err
	}
	return &Sorter{
		ctx:     ctx,
		stream:  stream,
		scanner: scanner,
		timer:   gudaprim.NewDeviceTimer(stream),
	}, nil
}

// Timer returns the device timer holding the most recent call's duration.
func (s *Sorter) Timer() gudaprim.Timer {
	return s.timer
}

// Close releases the sorter's stream. The scanner is not closed.
func (s *Sorter) Close() error {
	return s.ctx.DestroyStream(s.stream)
}

// Sort writes in[0:n) sorted ascending to out[0:n).
func (s *Sorter) Sort(n int, out, in []int32) error {
	if err := gudaprim.ValidateBuffers("radix.Sort", n, out, in); err != nil {
		return err
	}
	return gudaprim.Measure(s.timer, func() error {
		if n == 0 {
			return nil
		}
		return s.sort(n, out, in, nil, nil)
	})
}

// SortPairs sorts keys[0:n) ascending into keysOut and moves vals[i] along
// with keys[i] into valsOut. Values of equal keys keep their input order.
func (s *Sorter) SortPairs(n int, keysOut, valsOut, keys, vals []int32) error {
	if err := gudaprim.ValidateBuffers("radix.SortPairs", n, keysOut, keys); err != nil {
		return err
	}
	if err := gudaprim.ValidateBuffers("radix.SortPairs", n, valsOut, vals); err != nil {
		return err
	}
	return gudaprim.Measure(s.timer, func() error {
		if n == 0 {
			return nil
		}
		return s.sort(n, keysOut, keys, valsOut, vals)
	})
}

// buffers holds one call's device allocations.
type buffers struct {
	keys, keysAlt gudaprim.DevicePtr
	vals, valsAlt gudaprim.DevicePtr
	notBit        gudaprim.DevicePtr
	zeroPos       gudaprim.DevicePtr
}

func (s *Sorter) alloc(n int, withVals bool) (*buffers, error) {
	b := &buffers{}
	targets := []*gudaprim.DevicePtr{&b.keys, &b.keysAlt, &b.notBit, &b.zeroPos}
	if withVals {
		targets = append(targets, &b.vals, &b.valsAlt)
	}
	for _, p := range targets {
		ptr, err := s.ctx.Malloc(n)
		if err != nil {
			s.free(b)
			return nil, err
		}
		*p = ptr
	}
	return b, nil
}

func (s *Sorter) free(b *buffers) {
	for _, p := range []gudaprim.DevicePtr{b.keys, b.keysAlt, b.vals, b.valsAlt, b.notBit, b.zeroPos} {
		s.ctx.Free(p)
	}
}

func (s *Sorter) sort(n int, keysOut, keysIn, valsOut, valsIn []int32) error {
	withVals := valsIn != nil
	b, err := s.alloc(n, withVals)
	if err != nil {
		return err
	}
	defer s.free(b)

	if err := s.stream.Memcpy(b.keys, keysIn[:n], n, gudaprim.MemcpyHostToDevice); err != nil {
		return err
	}
	if withVals {
		if err := s.stream.Memcpy(b.vals, valsIn[:n], n, gudaprim.MemcpyHostToDevice); err != nil {
			return err
		}
	}

	grid, block := s.ctx.GridFor(n)
	if err := s.stream.Launch("radix.flipSign", flipSign(b.keys.Int32(), n), grid, block); err != nil {
		return err
	}

	for bit := 0; bit < KeyBits; bit++ {
		if err := s.splitPass(b, n, bit, withVals); err != nil {
			return err
		}
		b.keys, b.keysAlt = b.keysAlt, b.keys
		b.vals, b.valsAlt = b.valsAlt, b.vals
	}

	if err := s.stream.Launch("radix.flipSign", flipSign(b.keys.Int32(), n), grid, block); err != nil {
		return err
	}
	if err := s.stream.Memcpy(keysOut[:n], b.keys, n, gudaprim.MemcpyDeviceToHost); err != nil {
		return err
	}
	if withVals {
		return s.stream.Memcpy(valsOut[:n], b.vals, n, gudaprim.MemcpyDeviceToHost)
	}
	return nil
}

// splitPass stably partitions b.keys on bit into b.keysAlt.
func (s *Sorter) splitPass(b *buffers, n, bit int, withVals bool) error {
	grid, block := s.ctx.GridFor(n)
	if err := s.stream.Launch("radix.invertedBit", invertedBit(b.notBit.Int32(), b.keys.Int32(), bit, n), grid, block); err != nil {
		return err
	}
	// The scanner reads notBit through its own stream.
	if err := s.stream.Synchronize(); err != nil {
		return err
	}
	if err := s.scanner.Scan(n, b.zeroPos.Int32(), b.notBit.Int32()); err != nil {
		return err
	}

	var lastPos, lastNotBit [1]int32
	if err := s.stream.Memcpy(lastPos[:], b.zeroPos.Offset(n-1), 1, gudaprim.MemcpyDeviceToHost); err != nil {
		return err
	}
	if err := s.stream.Memcpy(lastNotBit[:], b.notBit.Offset(n-1), 1, gudaprim.MemcpyDeviceToHost); err != nil {
		return err
	}
	totalZeros := lastPos[0] + lastNotBit[0]

	var vals, valsAlt []int32
	if withVals {
		vals, valsAlt = b.vals.Int32(), b.valsAlt.Int32()
	}
	return s.stream.Launch("radix.scatter",
		scatter(b.keysAlt.Int32(), valsAlt, b.keys.Int32(), vals, b.notBit.Int32(), b.zeroPos.Int32(), totalZeros, n),
		grid, block)
}

// flipSign toggles bit 31 so that signed order matches unsigned bit order.
func flipSign(keys []int32, n int) gudaprim.KernelFunc {
	return func(tid gudaprim.ThreadID) {
		i := tid.Global()
		if i >= n {
			return
		}
		keys[i] ^= math.MinInt32
	}
}

// invertedBit writes 1 where the key's bit is 0, the scan input that
// counts each key's position in the 0 bucket.
func invertedBit(notBit, keys []int32, bit, n int) gudaprim.KernelFunc {
	return func(tid gudaprim.ThreadID) {
		i := tid.Global()
		if i >= n {
			return
		}
		notBit[i] = 1 - int32(uint32(keys[i])>>bit&1)
	}
}

// destination returns the slot element i moves to in a split pass.
func destination(i int, notBit, zeroPos, totalZeros int32) int32 {
	if notBit == 1 {
		return zeroPos
	}
	return int32(i) - zeroPos + totalZeros
}

// scatter moves keys (and vals, when non-nil) to their split slots. The
// slots form a permutation, so no two threads write the same index.
func scatter(keysOut, valsOut, keys, vals, notBit, zeroPos []int32, totalZeros int32, n int) gudaprim.KernelFunc {
	return func(tid gudaprim.ThreadID) {
		i := tid.Global()
		if i >= n {
			return
		}
		dst := destination(i, notBit[i], zeroPos[i], totalZeros)
		keysOut[dst] = keys[i]
		if vals != nil {
			valsOut[dst] = vals[i]
		}
	}
}
