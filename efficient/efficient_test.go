package efficient

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LynnColeArt/gudaprim"
	"github.com/LynnColeArt/gudaprim/sequential"
)

func newScanner(t testing.TB, cfg gudaprim.Config) (*gudaprim.Context, *Scanner) {
	t.Helper()
	ctx := gudaprim.NewContextOrFail(t, cfg)
	s, err := New(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return ctx, s
}

func TestScanSmall(t *testing.T) {
	_, s := newScanner(t, gudaprim.Config{})

	out := make([]int32, 5)
	require.NoError(t, s.Scan(5, out, []int32{1, 1, 1, 1, 1}))
	assert.Equal(t, []int32{0, 1, 2, 3, 4}, out)

	out = make([]int32, 8)
	require.NoError(t, s.Scan(8, out, []int32{3, 1, 7, 0, 4, 1, 6, 3}))
	assert.Equal(t, []int32{0, 3, 4, 11, 11, 15, 16, 22}, out)
}

func TestScanMatchesSequential(t *testing.T) {
	for _, bs := range []int{64, 1024} {
		_, s := newScanner(t, gudaprim.Config{BlockSize: bs, Workers: 3})
		ref := sequential.New()
		for _, n := range gudaprim.TestSizes {
			t.Run(fmt.Sprintf("block%d/n%d", bs, n), func(t *testing.T) {
				in := gudaprim.RandomInts(n, 1<<20, int64(n)+1)
				want := make([]int32, n)
				require.NoError(t, ref.Scan(n, want, in))

				got := make([]int32, n)
				require.NoError(t, s.Scan(n, got, in))
				assert.Equal(t, want, got)
			})
		}
	}
}

func TestScanWrapsOnOverflow(t *testing.T) {
	_, s := newScanner(t, gudaprim.Config{})
	in := []int32{1 << 30, 1 << 30, 1 << 30}
	out := make([]int32, 3)
	require.NoError(t, s.Scan(3, out, in))
	assert.Equal(t, []int32{0, 1 << 30, -1 << 31}, out)
}

func TestScanDevice(t *testing.T) {
	ctx, s := newScanner(t, gudaprim.Config{})

	buf := gudaprim.MallocOrFail(t, ctx, 8)
	defer ctx.Free(buf)
	copy(buf.Int32(), []int32{1, 2, 3, 4, 5, 0, 0, 0})

	require.NoError(t, s.ScanDevice(buf, 8))
	assert.Equal(t, []int32{0, 1, 3, 6, 10, 15, 15, 15}, buf.Int32())

	err := s.ScanDevice(buf, 6)
	assert.True(t, gudaprim.IsInvalidArgError(err), "non power of two")
	err = s.ScanDevice(buf, 16)
	assert.True(t, gudaprim.IsInvalidArgError(err), "buffer too short")
}

func TestSweepNode(t *testing.T) {
	// m = 8: level 0 pairs (0,1) (2,3) (4,5) (6,7), level 1 pairs (1,3)
	// (5,7), level 2 the root pair (3,7).
	tests := []struct {
		t, d        int
		left, right int
	}{
		{0, 0, 0, 1},
		{3, 0, 6, 7},
		{0, 1, 1, 3},
		{1, 1, 5, 7},
		{0, 2, 3, 7},
	}
	for _, tt := range tests {
		left, right := sweepNode(tt.t, tt.d)
		assert.Equal(t, tt.left, left, "left of node %d level %d", tt.t, tt.d)
		assert.Equal(t, tt.right, right, "right of node %d level %d", tt.t, tt.d)
	}
	assert.Equal(t, 4, nodesAtLevel(8, 0))
	assert.Equal(t, 1, nodesAtLevel(8, 2))
}

func TestCompact(t *testing.T) {
	tests := []struct {
		name string
		in   []int32
		want []int32
	}{
		{"mixed", []int32{1, 0, 3, 0, 2, 0, 5}, []int32{1, 3, 2, 5}},
		{"all zero", []int32{0, 0, 0, 0}, []int32{}},
		{"no zero", []int32{4, -1, 2}, []int32{4, -1, 2}},
		{"trailing zero", []int32{0, 6, 0}, []int32{6}},
		{"trailing nonzero", []int32{0, 0, 0, 0, 8}, []int32{8}},
		{"single nonzero", []int32{9}, []int32{9}},
		{"single zero", []int32{0}, []int32{}},
		{"empty", []int32{}, []int32{}},
	}
	_, s := newScanner(t, gudaprim.Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.in)
			out := make([]int32, n)
			count, err := s.Compact(n, out, tt.in)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), count)
			assert.Equal(t, tt.want, out[:count])
		})
	}
}

func TestCompactAllZeroLeavesOutputUntouched(t *testing.T) {
	_, s := newScanner(t, gudaprim.Config{})
	out := []int32{7, 7, 7}
	count, err := s.Compact(3, out, []int32{0, 0, 0})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, []int32{7, 7, 7}, out)
}

func TestCompactMatchesSequential(t *testing.T) {
	_, s := newScanner(t, gudaprim.Config{BlockSize: 64})
	ref := sequential.New()
	for _, n := range gudaprim.TestSizes {
		t.Run(fmt.Sprintf("n%d", n), func(t *testing.T) {
			in := gudaprim.RandomInts(n, 4, int64(n)+7)
			want := make([]int32, n)
			wantCount, err := ref.CompactWithoutScan(n, want, in)
			require.NoError(t, err)

			got := make([]int32, n)
			count, err := s.Compact(n, got, in)
			require.NoError(t, err)
			require.Equal(t, wantCount, count)
			assert.Equal(t, want[:count], got[:count])
		})
	}
}

func TestCompactIsIdempotent(t *testing.T) {
	_, s := newScanner(t, gudaprim.Config{})
	in := gudaprim.RandomInts(4093, 3, 11)

	once := make([]int32, len(in))
	c1, err := s.Compact(len(in), once, in)
	require.NoError(t, err)

	twice := make([]int32, c1)
	c2, err := s.Compact(c1, twice, once)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)
	assert.Equal(t, once[:c1], twice)
}

func TestInvalidArguments(t *testing.T) {
	_, s := newScanner(t, gudaprim.Config{})
	assert.True(t, gudaprim.IsInvalidArgError(s.Scan(4, make([]int32, 4), make([]int32, 3))))
	_, err := s.Compact(-2, nil, nil)
	assert.True(t, gudaprim.IsInvalidArgError(err))
}

func TestTimerTracksCompact(t *testing.T) {
	_, s := newScanner(t, gudaprim.Config{})
	_, err := s.Timer().Elapsed()
	assert.ErrorIs(t, err, gudaprim.ErrNoMeasurement)

	in := gudaprim.RandomInts(1<<14, 2, 1)
	_, err = s.Compact(len(in), make([]int32, len(in)), in)
	require.NoError(t, err)
	_, err = s.Timer().Elapsed()
	assert.NoError(t, err)
}

func BenchmarkScan(b *testing.B) {
	for _, n := range []int{1 << 16, 1 << 20} {
		b.Run(fmt.Sprintf("n%d", n), func(b *testing.B) {
			_, s := newScanner(b, gudaprim.Config{})
			in := gudaprim.RandomInts(n, 100, 1)
			out := make([]int32, n)
			b.SetBytes(int64(n * gudaprim.ElementSize))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := s.Scan(n, out, in); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkCompact(b *testing.B) {
	const n = 1 << 20
	_, s := newScanner(b, gudaprim.Config{})
	in := gudaprim.RandomInts(n, 4, 1)
	out := make([]int32, n)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := s.Compact(n, out, in); err != nil {
			b.Fatal(err)
		}
	}
}
