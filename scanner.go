package gudaprim

import "fmt"

// Scanner computes an exclusive prefix sum: out[0] = 0 and
// out[i] = in[0] + ... + in[i-1] for i in [1, n). Sums wrap on overflow.
//
// Every variant produces bit-identical results for the same input. A
// Scanner instance measures its most recent call with its own Timer and
// is not safe for concurrent use; give each goroutine its own instance.
type Scanner interface {
	Scan(n int, out, in []int32) error
	Timer() Timer
}

// ValidateBuffers checks the preconditions shared by every primitive:
// n is non-negative and both buffers hold at least n elements.
func ValidateBuffers(op string, n int, out, in []int32) error {
	if n < 0 {
		return NewInvalidArgError(op, fmt.Sprintf("negative length %d", n))
	}
	if len(in) < n {
		return NewInvalidArgError(op, fmt.Sprintf("input holds %d elements, need %d", len(in), n))
	}
	if len(out) < n {
		return NewInvalidArgError(op, fmt.Sprintf("output holds %d elements, need %d", len(out), n))
	}
	return nil
}
