package main

import (
	"fmt"
	"io"
	"math/rand"
	"slices"
)

// genArray fills a[0:n) with values in [0, maxval).
func genArray(rng *rand.Rand, n int, a []int32, maxval int32) {
	for i := 0; i < n; i++ {
		a[i] = rng.Int31n(maxval)
	}
}

// genInput returns size values in [0, maxval) whose last element is 0, so
// every run exercises the trailing-zero edge case.
func genInput(rng *rand.Rand, size int, maxval int32) []int32 {
	a := make([]int32, size)
	genArray(rng, size-1, a, maxval)
	a[size-1] = 0
	return a
}

func printDesc(w io.Writer, desc string) {
	fmt.Fprintf(w, "==== %s ====\n", desc)
}

func printElapsed(w io.Writer, ms float64, clock string) {
	fmt.Fprintf(w, "   elapsed time: %.4fms    (%s clock)\n", ms, clock)
}

// printArray prints a, eliding the middle of long arrays when abridged.
func printArray(w io.Writer, a []int32, abridged bool) {
	fmt.Fprint(w, "    [ ")
	for i, v := range a {
		if abridged && i == 13 && len(a) > 16 {
			fmt.Fprintf(w, "... %3d %3d ", a[len(a)-2], a[len(a)-1])
			break
		}
		fmt.Fprintf(w, "%3d ", v)
	}
	fmt.Fprintln(w, "]")
}

// cmpArrays returns the first index at which a and b differ, or -1.
func cmpArrays(a, b []int32) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}

func checkEqual(want, got []int32) error {
	if i := cmpArrays(want, got); i >= 0 {
		return fmt.Errorf("value mismatch at %d: want %d, got %d", i, want[i], got[i])
	}
	return nil
}

func checkCompacted(wantCount, count int, want, got []int32) error {
	if count != wantCount {
		return fmt.Errorf("count mismatch: want %d, got %d", wantCount, count)
	}
	return checkEqual(want[:count], got[:count])
}

func checkSorted(in, got []int32) error {
	if !slices.IsSorted(got) {
		return fmt.Errorf("output is not sorted")
	}
	want := slices.Clone(in)
	slices.Sort(want)
	return checkEqual(want, got)
}
