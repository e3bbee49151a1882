// Package naive implements the doubling-distance parallel scan.
//
// Each of the log2(m) levels is one launch in which every position i at or
// beyond the offset 2^d adds the value 2^d places to its left. Reads and
// writes go to different buffers, so all threads of a level observe the
// previous level's values. The result is an inclusive scan that one more
// launch shifts right into an exclusive one. Total work is O(m log m).
package naive

import (
	"github.com/LynnColeArt/gudaprim"
)

// Scanner runs the naive scan on its own stream.
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
	if err := gudaprim.ValidateBuffers("naive.Scan", n, out, in); err != nil {
		return err
	}
	return gudaprim.Measure(s.timer, func() error {
		if n == 0 {
			return nil
		}
		return s.scan(n, out, in)
	})
}

func (s *Scanner) scan(n int, out, in []int32) error {
	ping, m, err := s.ctx.MallocPadded(n)
	if err != nil {
		return err
	}
	defer s.ctx.Free(ping)
	pong, _, err := s.ctx.MallocPadded(n)
	if err != nil {
		return err
	}
	defer s.ctx.Free(pong)

	if err := s.stream.Memcpy(ping, in[:n], n, gudaprim.MemcpyHostToDevice); err != nil {
		return err
	}

	grid, block := s.ctx.GridFor(m)
	src, dst := ping, pong
	for d := 0; d < gudaprim.Log2Ceil(m); d++ {
		if err := s.stream.Launch("naive.scanStep", scanStep(dst.Int32(), src.Int32(), 1<<d, m), grid, block); err != nil {
			return err
		}
		src, dst = dst, src
	}
	if err := s.stream.Launch("naive.shiftRight", shiftRight(dst.Int32(), src.Int32(), m), grid, block); err != nil {
		return err
	}

	return s.stream.Memcpy(out[:n], dst, n, gudaprim.MemcpyDeviceToHost)
}

// scanStep is one doubling level: positions below offset carry over,
// every other position adds its partner offset places to the left.
func scanStep(dst, src []int32, offset, m int) gudaprim.KernelFunc {
	return func(tid gudaprim.ThreadID) {
		i := tid.Global()
		if i >= m {
			return
		}
		if i >= offset {
			dst[i] = src[i-offset] + src[i]
		} else {
			dst[i] = src[i]
		}
	}
}

// shiftRight turns an inclusive scan into an exclusive one by moving every
// element one place right and placing the identity at index 0.
func shiftRight(dst, src []int32, m int) gudaprim.KernelFunc {
	return func(tid gudaprim.ThreadID) {
		i := tid.Global()
		if i >= m {
			return
		}
		if i == 0 {
			dst[i] = 0
		} else {
			dst[i] = src[i-1]
		}
	}
}
