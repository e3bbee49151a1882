// Package reference provides a scan delegated to the pargo parallel
// library. It is not derived here: it serves as the performance and
// correctness yardstick for the hand-written variants.
package reference

import (
	"runtime"

	"github.com/exascience/pargo/parallel"

	"github.com/LynnColeArt/gudaprim"
)

// Scanner is a reduce-then-scan over pargo batches.
type Scanner struct {
	batches int
	timer   *gudaprim.HostTimer
}

var _ gudaprim.Scanner = (*Scanner)(nil)

// New returns a Scanner that splits its input into the given number of
// batches. batches <= 0 uses GOMAXPROCS.
func New(batches int) *Scanner {
	if batches <= 0 {
		batches = runtime.GOMAXPROCS(0)
	}
	return &Scanner{
		batches: batches,
		timer:   gudaprim.NewHostTimer(),
	}
}

// Timer returns the host timer holding the most recent call's duration.
func (s *Scanner) Timer() gudaprim.Timer {
	return s.timer
}

// Scan writes the exclusive prefix sum of in[0:n) to out[0:n).
// out may alias in.
func (s *Scanner) Scan(n int, out, in []int32) error {
	if err := gudaprim.ValidateBuffers("reference.Scan", n, out, in); err != nil {
		return err
	}
	return gudaprim.Measure(s.timer, func() error {
		if n == 0 {
			return nil
		}
		s.scan(out[:n], in[:n])
		return nil
	})
}

func (s *Scanner) scan(out, in []int32) {
	n := len(in)
	batches := min(s.batches, n)
	size := (n + batches - 1) / batches
	batches = (n + size - 1) / size
	bounds := func(b int) (int, int) {
		return b * size, min((b+1)*size, n)
	}

	sums := make([]int32, batches)
	parallel.Range(0, batches, batches, func(low, high int) {
		for b := low; b < high; b++ {
			start, end := bounds(b)
			var acc int32
			for _, v := range in[start:end] {
				acc += v
			}
			sums[b] = acc
		}
	})

	var carry int32
	for b, v := range sums {
		sums[b] = carry
		carry += v
	}

	parallel.Range(0, batches, batches, func(low, high int) {
		for b := low; b < high; b++ {
			start, end := bounds(b)
			acc := sums[b]
			for i := start; i < end; i++ {
				v := in[i]
				out[i] = acc
				acc += v
			}
		}
	})
}
