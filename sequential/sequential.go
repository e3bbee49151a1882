// Package sequential implements scan and stream compaction on a single
// goroutine. Its results are the reference every parallel variant is
// checked against.
package sequential

import (
	"github.com/LynnColeArt/gudaprim"
)

// Scanner is the single-threaded scan and compaction implementation.
type Scanner struct {
	timer *gudaprim.HostTimer
}

var _ gudaprim.Scanner = (*Scanner)(nil)

// New returns a Scanner with its own host timer.
func New() *Scanner {
	return &Scanner{timer: gudaprim.NewHostTimer()}
}

// Timer returns the timer holding the most recent call's duration.
func (s *Scanner) Timer() gudaprim.Timer {
	return s.timer
}

// Scan writes the exclusive prefix sum of in[0:n) to out[0:n).
// out may alias in.
func (s *Scanner) Scan(n int, out, in []int32) error {
	if err := gudaprim.ValidateBuffers("sequential.Scan", n, out, in); err != nil {
		return err
	}
	return gudaprim.Measure(s.timer, func() error {
		scan(out[:n], in[:n])
		return nil
	})
}

// CompactWithoutScan copies the nonzero elements of in[0:n) to the front
// of out in their original order and returns how many were copied.
func (s *Scanner) CompactWithoutScan(n int, out, in []int32) (int, error) {
	if err := gudaprim.ValidateBuffers("sequential.CompactWithoutScan", n, out, in); err != nil {
		return 0, err
	}
	count := 0
	err := gudaprim.Measure(s.timer, func() error {
		for _, v := range in[:n] {
			if v != 0 {
				out[count] = v
				count++
			}
		}
		return nil
	})
	return count, err
}

// CompactWithScan produces the same result as CompactWithoutScan through
// the map, scan and scatter steps the parallel compactor uses.
func (s *Scanner) CompactWithScan(n int, out, in []int32) (int, error) {
	if err := gudaprim.ValidateBuffers("sequential.CompactWithScan", n, out, in); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, gudaprim.Measure(s.timer, func() error { return nil })
	}

	count := 0
	err := gudaprim.Measure(s.timer, func() error {
		mask := make([]int32, n)
		for i, v := range in[:n] {
			if v != 0 {
				mask[i] = 1
			}
		}

		indices := make([]int32, n)
		scan(indices, mask)

		for i := 0; i < n; i++ {
			if mask[i] == 1 {
				out[indices[i]] = in[i]
			}
		}
		count = int(indices[n-1] + mask[n-1])
		return nil
	})
	return count, err
}

func scan(out, in []int32) {
	var acc int32
	for i, v := range in {
		out[i] = acc
		acc += v
	}
}
