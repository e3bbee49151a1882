package efficient

import (
	"github.com/LynnColeArt/gudaprim"
)

// Compact copies the nonzero elements of in[0:n) to the front of out in
// their original order and returns how many were copied.
//
// It maps the input to a 0/1 mask, scans the mask to give every survivor
// its output slot, and scatters. Nothing is written to out when the input
// holds no nonzero element.
func (s *Scanner) Compact(n int, out, in []int32) (int, error) {
	if err := gudaprim.ValidateBuffers("efficient.Compact", n, out, in); err != nil {
		return 0, err
	}
	count := 0
	err := gudaprim.Measure(s.timer, func() error {
		if n == 0 {
			return nil
		}
		var err error
		count, err = s.compact(n, out, in)
		return err
	})
	return count, err
}

func (s *Scanner) compact(n int, out, in []int32) (int, error) {
	idata, err := s.ctx.Malloc(n)
	if err != nil {
		return 0, err
	}
	defer s.ctx.Free(idata)
	mask, err := s.ctx.Malloc(n)
	if err != nil {
		return 0, err
	}
	defer s.ctx.Free(mask)
	indices, m, err := s.ctx.MallocPadded(n)
	if err != nil {
		return 0, err
	}
	defer s.ctx.Free(indices)

	if err := s.stream.Memcpy(idata, in[:n], n, gudaprim.MemcpyHostToDevice); err != nil {
		return 0, err
	}

	grid, block := s.ctx.GridFor(n)
	if err := s.stream.Launch("efficient.mapToBoolean", mapToBoolean(mask.Int32(), idata.Int32(), n), grid, block); err != nil {
		return 0, err
	}
	if err := s.stream.Memcpy(indices, mask, n, gudaprim.MemcpyDeviceToDevice); err != nil {
		return 0, err
	}
	if err := s.scanDevice(indices, m); err != nil {
		return 0, err
	}

	var lastIndex, lastMask [1]int32
	if err := s.stream.Memcpy(lastIndex[:], indices.Offset(n-1), 1, gudaprim.MemcpyDeviceToHost); err != nil {
		return 0, err
	}
	if err := s.stream.Memcpy(lastMask[:], mask.Offset(n-1), 1, gudaprim.MemcpyDeviceToHost); err != nil {
		return 0, err
	}
	count := int(lastIndex[0] + lastMask[0])
	if count == 0 {
		return 0, nil
	}

	odata, err := s.ctx.Malloc(count)
	if err != nil {
		return 0, err
	}
	defer s.ctx.Free(odata)

	if err := s.stream.Launch("efficient.scatter",
		scatter(odata.Int32(), idata.Int32(), mask.Int32(), indices.Int32(), n), grid, block); err != nil {
		return 0, err
	}
	if err := s.stream.Memcpy(out[:count], odata, count, gudaprim.MemcpyDeviceToHost); err != nil {
		return 0, err
	}
	return count, nil
}

// mapToBoolean writes 1 for every nonzero input element and 0 otherwise.
func mapToBoolean(mask, in []int32, n int) gudaprim.KernelFunc {
	return func(tid gudaprim.ThreadID) {
		i := tid.Global()
		if i >= n {
			return
		}
		if in[i] != 0 {
			mask[i] = 1
		} else {
			mask[i] = 0
		}
	}
}

// scatter moves every surviving element to the slot the scan assigned it.
// Slots are distinct, so threads never write the same index.
func scatter(out, in, mask, indices []int32, n int) gudaprim.KernelFunc {
	return func(tid gudaprim.ThreadID) {
		i := tid.Global()
		if i >= n {
			return
		}
		if mask[i] == 1 {
			out[indices[i]] = in[i]
		}
	}
}
