package gudaprim_test

import (
	"fmt"
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/LynnColeArt/gudaprim"
	"github.com/LynnColeArt/gudaprim/efficient"
	"github.com/LynnColeArt/gudaprim/naive"
	"github.com/LynnColeArt/gudaprim/radix"
	"github.com/LynnColeArt/gudaprim/reference"
	"github.com/LynnColeArt/gudaprim/sequential"
)

// StressInput represents a challenging input distribution
type StressInput struct {
	Name        string
	Generator   func(n int) []int32
	Description string
}

var stressInputs = []StressInput{
	{
		Name:        "OverflowHeavy",
		Description: "Values near the int32 limits so prefix sums wrap repeatedly",
		Generator: func(n int) []int32 {
			data := make([]int32, n)
			for i := range data {
				if i%2 == 0 {
					data[i] = math.MaxInt32 - int32(i%7)
				} else {
					data[i] = math.MinInt32 + int32(i%5)
				}
			}
			return data
		},
	},
	{
		Name:        "AllZero",
		Description: "Nothing survives compaction",
		Generator: func(n int) []int32 {
			return make([]int32, n)
		},
	},
	{
		Name:        "LastOnly",
		Description: "A single nonzero element in the final slot",
		Generator: func(n int) []int32 {
			data := make([]int32, n)
			if n > 0 {
				data[n-1] = -17
			}
			return data
		},
	},
	{
		Name:        "Sparse",
		Description: "Roughly one element in a hundred is nonzero",
		Generator: func(n int) []int32 {
			rng := rand.New(rand.NewSource(int64(n)))
			data := make([]int32, n)
			for i := range data {
				if rng.Intn(100) == 0 {
					data[i] = rng.Int31() - math.MaxInt32/2
				}
			}
			return data
		},
	},
	{
		Name:        "Descending",
		Description: "Strictly descending keys, the worst order for a comparison sort",
		Generator: func(n int) []int32 {
			data := make([]int32, n)
			for i := range data {
				data[i] = int32(n - i)
			}
			return data
		},
	},
}

func TestStressInputs(t *testing.T) {
	ctx := gudaprim.NewContextOrFail(t, gudaprim.Config{BlockSize: 64})
	nv, err := naive.New(ctx)
	require.NoError(t, err)
	eff, err := efficient.New(ctx)
	require.NoError(t, err)
	sorter, err := radix.New(ctx, eff)
	require.NoError(t, err)

	cpu := sequential.New()
	scanners := map[string]gudaprim.Scanner{
		"naive":     nv,
		"efficient": eff,
		"reference": reference.New(3),
	}

	for _, input := range stressInputs {
		for _, n := range []int{1, 5, 1000, 1 << 12, 1<<12 + 1} {
			t.Run(fmt.Sprintf("%s/n%d", input.Name, n), func(t *testing.T) {
				in := input.Generator(n)

				want := make([]int32, n)
				require.NoError(t, cpu.Scan(n, want, in))
				for name, s := range scanners {
					got := make([]int32, n)
					require.NoError(t, s.Scan(n, got, in))
					assert.Equal(t, want, got, "%s scan", name)
				}

				wantCompact := make([]int32, n)
				wantCount, err := cpu.CompactWithoutScan(n, wantCompact, in)
				require.NoError(t, err)
				gotCompact := make([]int32, n)
				count, err := eff.Compact(n, gotCompact, in)
				require.NoError(t, err)
				require.Equal(t, wantCount, count)
				assert.Equal(t, wantCompact[:count], gotCompact[:count])

				sorted := make([]int32, n)
				require.NoError(t, sorter.Sort(n, sorted, in))
				wantSorted := slices.Clone(in)
				slices.Sort(wantSorted)
				assert.Equal(t, wantSorted, sorted)
			})
		}
	}
}

// Independent scanner instances share one context from many goroutines.
func TestConcurrentScanners(t *testing.T) {
	const workers = 8
	ctx := gudaprim.NewContextOrFail(t, gudaprim.Config{Workers: 2})

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			s, err := efficient.New(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			in := gudaprim.RandomInts(3000+w, 1000, int64(w))
			want := make([]int32, len(in))
			if err := sequential.New().Scan(len(in), want, in); err != nil {
				return err
			}
			for rep := 0; rep < 5; rep++ {
				got := make([]int32, len(in))
				if err := s.Scan(len(in), got, in); err != nil {
					return err
				}
				if !slices.Equal(want, got) {
					return fmt.Errorf("worker %d: scan mismatch", w)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	allocated, _ := ctx.MemoryStats()
	assert.Zero(t, allocated)
}

func BenchmarkStressInputs(b *testing.B) {
	const n = 1 << 16
	ctx := gudaprim.NewContextOrFail(b, gudaprim.Config{})
	eff, err := efficient.New(ctx)
	require.NoError(b, err)

	for _, input := range stressInputs {
		in := input.Generator(n)
		out := make([]int32, n)
		b.Run(input.Name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := eff.Compact(n, out, in); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
