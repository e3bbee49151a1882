// Package efficient implements the work-efficient (Blelloch) scan and the
// stream compaction built on it.
//
// The scan lays an implicit balanced binary tree over a power-of-two
// buffer. The up-sweep reduces partial sums toward the root at index m-1;
// the root is then cleared and the down-sweep pushes prefix sums back to
// the leaves. Level d touches only the m/2^(d+1) tree nodes of that level,
// so both sweeps together do O(m) work.
package efficient

import (
	"fmt"

	"github.com/LynnColeArt/gudaprim"
)

// Scanner runs the work-efficient scan and compaction on its own stream.
type Scanner struct {
	ctx    *gudaprim.Context
	stream *gudaprim.Stream
	timer  *gudaprim.DeviceTimer
}

var _ gudaprim.Scanner = (*Scanner)(nil)

// New creates a Scanner with a dedicated stream on ctx.
func New(ctx *gudaprim.Context) (*Scanner, error) {
	stream, err := ctx.CreateStream()
	if err != nil {
		return nil, err
	}
	return &Scanner{
		ctx:    ctx,
		stream: stream,
		timer:  gudaprim.NewDeviceTimer(stream),
	}, nil
}

// Timer returns the device timer holding the most recent call's duration.
func (s *Scanner) Timer() gudaprim.Timer {
	return s.timer
}

// Close releases the scanner's stream.
func (s *Scanner) Close() error {
	return s.ctx.DestroyStream(s.stream)
}

// Scan writes the exclusive prefix sum of in[0:n) to out[0:n).
func (s *Scanner) Scan(n int, out, in []int32) error {
	if err := gudaprim.ValidateBuffers("efficient.Scan", n, out, in); err != nil {
		return err
	}
	return gudaprim.Measure(s.timer, func() error {
		if n == 0 {
			return nil
		}

		buf, m, err := s.ctx.MallocPadded(n)
		if err != nil {
			return err
		}
		defer s.ctx.Free(buf)

		if err := s.stream.Memcpy(buf, in[:n], n, gudaprim.MemcpyHostToDevice); err != nil {
			return err
		}
		if err := s.scanDevice(buf, m); err != nil {
			return err
		}
		return s.stream.Memcpy(out[:n], buf, n, gudaprim.MemcpyDeviceToHost)
	})
}

// ScanDevice scans the first m elements of buf in place. m must be a
// power of two, and buf's padding beyond the meaningful prefix must hold
// zeros. The call returns after the scan has completed.
func (s *Scanner) ScanDevice(buf gudaprim.DevicePtr, m int) error {
	if !gudaprim.IsPow2(m) {
		return gudaprim.NewInvalidArgError("efficient.ScanDevice", fmt.Sprintf("length %d is not a power of two", m))
	}
	if buf.Len() < m {
		return gudaprim.NewInvalidArgError("efficient.ScanDevice", fmt.Sprintf("buffer holds %d elements, need %d", buf.Len(), m))
	}
	return s.scanDevice(buf, m)
}

func (s *Scanner) scanDevice(buf gudaprim.DevicePtr, m int) error {
	data := buf.Int32()
	levels := gudaprim.Log2Ceil(m)

	for d := 0; d < levels; d++ {
		nodes := nodesAtLevel(m, d)
		grid, block := s.ctx.GridFor(nodes)
		if err := s.stream.Launch("efficient.upSweep", upSweep(data, nodes, d), grid, block); err != nil {
			return err
		}
	}

	grid, block := s.ctx.GridFor(1)
	if err := s.stream.Launch("efficient.clearRoot", clearRoot(data, m), grid, block); err != nil {
		return err
	}

	for d := levels - 1; d >= 0; d-- {
		nodes := nodesAtLevel(m, d)
		grid, block := s.ctx.GridFor(nodes)
		if err := s.stream.Launch("efficient.downSweep", downSweep(data, nodes, d), grid, block); err != nil {
			return err
		}
	}
	return s.stream.Synchronize()
}

// nodesAtLevel is the number of tree nodes combined at level d of a
// buffer of m elements.
func nodesAtLevel(m, d int) int {
	return m >> (d + 1)
}

// sweepNode returns the two slots node t of level d combines: left holds
// the sum of the node's left subtree, right the sum of the whole node
// (up-sweep) or the prefix flowing into it (down-sweep).
func sweepNode(t, d int) (left, right int) {
	k := t << (d + 1)
	return k + 1<<d - 1, k + 1<<(d+1) - 1
}

func upSweep(data []int32, nodes, d int) gudaprim.KernelFunc {
	return func(tid gudaprim.ThreadID) {
		t := tid.Global()
		if t >= nodes {
			return
		}
		left, right := sweepNode(t, d)
		data[right] += data[left]
	}
}

func clearRoot(data []int32, m int) gudaprim.KernelFunc {
	return func(tid gudaprim.ThreadID) {
		if tid.Global() == 0 {
			data[m-1] = 0
		}
	}
}

func downSweep(data []int32, nodes, d int) gudaprim.KernelFunc {
	return func(tid gudaprim.ThreadID) {
		t := tid.Global()
		if t >= nodes {
			return
		}
		left, right := sweepNode(t, d)
		v := data[left]
		data[left] = data[right]
		data[right] += v
	}
}
