package sequential

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LynnColeArt/gudaprim"
)

func TestScan(t *testing.T) {
	tests := []struct {
		name string
		in   []int32
		want []int32
	}{
		{"empty", nil, nil},
		{"single", []int32{7}, []int32{0}},
		{"descending", []int32{4, 3, 2, 1}, []int32{0, 4, 7, 9}},
		{"ones", []int32{1, 1, 1, 1, 1}, []int32{0, 1, 2, 3, 4}},
		{"negatives", []int32{-2, 5, -3}, []int32{0, -2, 3}},
	}
	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := make([]int32, len(tt.in))
			require.NoError(t, s.Scan(len(tt.in), out, tt.in))
			if tt.want == nil {
				assert.Empty(t, out)
				return
			}
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestScanInPlace(t *testing.T) {
	data := []int32{3, 1, 7, 0, 4, 1, 6, 3}
	require.NoError(t, New().Scan(len(data), data, data))
	assert.Equal(t, []int32{0, 3, 4, 11, 11, 15, 16, 22}, data)
}

func TestScanWrapsOnOverflow(t *testing.T) {
	in := []int32{1 << 30, 1 << 30, 1 << 30}
	out := make([]int32, 3)
	require.NoError(t, New().Scan(3, out, in))
	assert.Equal(t, []int32{0, 1 << 30, -1 << 31}, out)
}

func TestScanLeavesTailUntouched(t *testing.T) {
	out := []int32{9, 9, 9, 9}
	require.NoError(t, New().Scan(2, out, []int32{1, 2, 3, 4}))
	assert.Equal(t, []int32{0, 1, 9, 9}, out)
}

func TestCompact(t *testing.T) {
	tests := []struct {
		name string
		in   []int32
		want []int32
	}{
		{"mixed", []int32{1, 0, 3, 0, 2, 0, 5}, []int32{1, 3, 2, 5}},
		{"all zero", []int32{0, 0, 0}, []int32{}},
		{"no zero", []int32{4, -1, 2}, []int32{4, -1, 2}},
		{"trailing zero", []int32{0, 6, 0}, []int32{6}},
		{"trailing nonzero", []int32{0, 0, 8}, []int32{8}},
		{"empty", []int32{}, []int32{}},
	}
	s := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.in)

			out := make([]int32, n)
			count, err := s.CompactWithoutScan(n, out, tt.in)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), count)
			assert.Equal(t, tt.want, out[:count])

			out2 := make([]int32, n)
			count2, err := s.CompactWithScan(n, out2, tt.in)
			require.NoError(t, err)
			assert.Equal(t, count, count2)
			assert.Equal(t, out[:count], out2[:count2])
		})
	}
}

func TestCompactMatchesFilter(t *testing.T) {
	s := New()
	for _, n := range gudaprim.TestSizes {
		in := gudaprim.RandomInts(n, 4, int64(n))
		want := lo.Filter(in, func(v int32, _ int) bool { return v != 0 })

		out := make([]int32, n)
		count, err := s.CompactWithScan(n, out, in)
		require.NoError(t, err)
		require.Equal(t, len(want), count, "n=%d", n)
		if count > 0 {
			assert.Equal(t, want, out[:count], "n=%d", n)
		}
	}
}

func TestInvalidArguments(t *testing.T) {
	s := New()
	buf := make([]int32, 4)

	assert.True(t, gudaprim.IsInvalidArgError(s.Scan(-1, buf, buf)))
	assert.True(t, gudaprim.IsInvalidArgError(s.Scan(5, buf, make([]int32, 5))))

	_, err := s.CompactWithoutScan(5, buf, make([]int32, 5))
	assert.True(t, gudaprim.IsInvalidArgError(err))
	_, err = s.CompactWithScan(5, make([]int32, 5), buf)
	assert.True(t, gudaprim.IsInvalidArgError(err))
}

func TestTimerRecordsLastCall(t *testing.T) {
	s := New()
	_, err := s.Timer().Elapsed()
	assert.ErrorIs(t, err, gudaprim.ErrNoMeasurement)

	in := gudaprim.RandomInts(1<<16, 100, 1)
	out := make([]int32, len(in))
	require.NoError(t, s.Scan(len(in), out, in))

	d, err := s.Timer().Elapsed()
	require.NoError(t, err)
	assert.Positive(t, int64(d))
}

func BenchmarkScan(b *testing.B) {
	in := gudaprim.RandomInts(1<<20, 100, 1)
	out := make([]int32, len(in))
	s := New()
	b.SetBytes(int64(len(in) * gudaprim.ElementSize))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := s.Scan(len(in), out, in); err != nil {
			b.Fatal(err)
		}
	}
}
