package main

import (
	"fmt"
	"io"
	"math/rand"
	"strings"

	"github.com/spf13/cobra"

	"github.com/LynnColeArt/gudaprim"
)

type runFlags struct {
	pow     int
	print   bool
	jsonOut string
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scan, compaction and sort checks once",
		Long: `Run checks every implementation on a power-of-two input of 2^pow
elements and on a non-power-of-two prefix three elements shorter. Results
are compared with the sequential implementation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.pow < 2 || f.pow > 30 {
				return fmt.Errorf("--pow must be in [2, 30], got %d", f.pow)
			}
			s, err := newSuite(g.config())
			if err != nil {
				return err
			}
			defer s.Close()

			r := &runner{
				w:       cmd.OutOrStdout(),
				results: newResultLog(f.jsonOut),
				print:   f.print,
			}
			r.run(s, rand.New(rand.NewSource(g.seed)), 1<<f.pow)
			r.results.printSummary(r.w)
			if n := r.results.failed(); n > 0 {
				return fmt.Errorf("%d checks failed", n)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&f.pow, "pow", 20, "log2 of the power-of-two input size")
	cmd.Flags().BoolVar(&f.print, "print", true, "print abridged input and output arrays")
	cmd.Flags().StringVar(&f.jsonOut, "json", "", "also write results to this JSON file")
	return cmd
}

type runner struct {
	w       io.Writer
	results *resultLog
	print   bool
}

// check runs call, reports its elapsed time from t and verifies the output.
func (r *runner) check(desc, clock string, n int, t gudaprim.Timer, call func() error, verify func() error) {
	printDesc(r.w, desc)
	res := Result{Name: desc, N: n, Clock: clock, Status: "pass"}

	err := call()
	if err == nil {
		if ms, terr := gudaprim.ElapsedMillis(t); terr == nil {
			res.ElapsedMs = ms
			printElapsed(r.w, ms, clock)
		}
		err = verify()
	}
	if err != nil {
		res.Status = "fail"
		res.Error = err.Error()
		fmt.Fprintf(r.w, "    FAIL: %v\n", err)
	} else {
		fmt.Fprintln(r.w, "    passed")
	}
	if ferr := r.results.add(res); ferr != nil {
		fmt.Fprintf(r.w, "    could not write results: %v\n", ferr)
	}
}

func (r *runner) show(a []int32) {
	if r.print {
		printArray(r.w, a, true)
	}
}

func banner(w io.Writer, title string) {
	line := strings.Repeat("*", len(title)+6)
	fmt.Fprintf(w, "\n%s\n** %s **\n%s\n", line, title, line)
}

func (r *runner) run(s *suite, rng *rand.Rand, size int) {
	npot := size - 3
	b := make([]int32, size)
	c := make([]int32, size)

	banner(r.w, "SCAN TESTS")
	a := genInput(rng, size, 50)
	r.show(a)

	// b holds the sequential scan every other scan is compared with.
	r.check("cpu scan, power-of-two", "host", size, s.cpu.Timer(),
		func() error { return s.cpu.Scan(size, b, a) },
		func() error { r.show(b); return nil })
	clear(c)
	r.check("cpu scan, non-power-of-two", "host", npot, s.cpu.Timer(),
		func() error { return s.cpu.Scan(npot, c, a) },
		func() error { return checkEqual(b[:npot], c[:npot]) })

	scanners := []struct {
		name    string
		clock   string
		scanner gudaprim.Scanner
	}{
		{"naive scan", "device", s.naive},
		{"work-efficient scan", "device", s.efficient},
		{"reference scan", "host", s.reference},
	}
	for _, sc := range scanners {
		for _, n := range []int{size, npot} {
			clear(c)
			r.check(sizeDesc(sc.name, n, size), sc.clock, n, sc.scanner.Timer(),
				func() error { return sc.scanner.Scan(n, c, a) },
				func() error { return checkEqual(b[:n], c[:n]) })
		}
	}

	banner(r.w, "STREAM COMPACTION TESTS")
	a = genInput(rng, size, 4)
	r.show(a)

	var expectedCount, expectedNPOT, count int
	clear(b)
	r.check("cpu compact without scan, power-of-two", "host", size, s.cpu.Timer(),
		func() (err error) { expectedCount, err = s.cpu.CompactWithoutScan(size, b, a); return err },
		func() error { r.show(b[:expectedCount]); return nil })
	clear(c)
	r.check("cpu compact without scan, non-power-of-two", "host", npot, s.cpu.Timer(),
		func() (err error) { expectedNPOT, err = s.cpu.CompactWithoutScan(npot, c, a); return err },
		func() error { return checkEqual(b[:expectedNPOT], c[:expectedNPOT]) })
	clear(c)
	r.check("cpu compact with scan", "host", size, s.cpu.Timer(),
		func() (err error) { count, err = s.cpu.CompactWithScan(size, c, a); return err },
		func() error { return checkCompacted(expectedCount, count, b, c) })
	for _, n := range []int{size, npot} {
		want := expectedCount
		if n == npot {
			want = expectedNPOT
		}
		clear(c)
		r.check(sizeDesc("work-efficient compact", n, size), "device", n, s.efficient.Timer(),
			func() (err error) { count, err = s.efficient.Compact(n, c, a); return err },
			func() error { return checkCompacted(want, count, b, c) })
	}

	banner(r.w, "SORT TESTS")
	a = genInput(rng, size, 1<<20)
	for _, n := range []int{size, npot} {
		clear(c)
		r.check(sizeDesc("radix sort", n, size), "device", n, s.radix.Timer(),
			func() error { return s.radix.Sort(n, c, a) },
			func() error { r.show(c[:n]); return checkSorted(a[:n], c[:n]) })
	}
}

func sizeDesc(name string, n, size int) string {
	if n == size {
		return name + ", power-of-two"
	}
	return name + ", non-power-of-two"
}
