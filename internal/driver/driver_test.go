package driver

import (
	"errors"
	"strings"
	"testing"

	"github.com/nikitadanilov/fs-repalg/internal/simulator"
	"github.com/nikitadanilov/fs-repalg/internal/trace"
)

func mustMM(t *testing.T, params simulator.Params, policy simulator.Policy) *simulator.MM {
	t.Helper()
	mm, err := simulator.New(params, policy)
	if err != nil {
		t.Fatalf("simulator.New: %v", err)
	}
	return mm
}

func run(t *testing.T, text string, params simulator.Params, policy simulator.Policy) (Report, error) {
	t.Helper()
	mm := mustMM(t, params, policy)
	r := trace.NewReader(strings.NewReader(text))
	mm.AttachTrace(r)
	if err := mm.Init(); err != nil {
		t.Fatalf("mm.Init: %v", err)
	}
	defer mm.Finalize()
	return Run(mm, r, nil)
}

func TestFirstTouchAlwaysMisses(t *testing.T) {
	params := simulator.Params{NrFrames: 2, NrVPages: 4, NrObjects: 1}
	report, err := run(t, "0 0 0 R\n1 0 1 R\n", params, &simulator.LRUPolicy{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Hits != 0 || report.Misses != 2 {
		t.Fatalf("got %+v, want 0 hits 2 misses", report)
	}
}

func TestRereadOfResidentPageHits(t *testing.T) {
	params := simulator.Params{NrFrames: 2, NrVPages: 4, NrObjects: 1}
	report, err := run(t, "0 0 0 R\n0 0 0 R\n", params, &simulator.LRUPolicy{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Hits != 1 || report.Misses != 1 {
		t.Fatalf("got %+v, want 1 hit 1 miss", report)
	}
}

func TestWriteAndPunchAreUncounted(t *testing.T) {
	params := simulator.Params{NrFrames: 2, NrVPages: 4, NrObjects: 1}
	report, err := run(t, "0 0 0 W\n0 0 0 T\n", params, &simulator.LRUPolicy{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Hits != 0 || report.Misses != 0 {
		t.Fatalf("got %+v, want 0 hits 0 misses for WRITE/TRUNCATE", report)
	}
}

func TestOutOfRangePageIsFatal(t *testing.T) {
	params := simulator.Params{NrFrames: 1, NrVPages: 1, NrObjects: 1}
	_, err := run(t, "5 0 0 R\n", params, &simulator.LRUPolicy{})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("got %v, want ErrOutOfRange", err)
	}
}

func TestOutOfRangeObjectIsFatal(t *testing.T) {
	params := simulator.Params{NrFrames: 1, NrVPages: 2, NrObjects: 1}
	_, err := run(t, "0 9 0 R\n", params, &simulator.LRUPolicy{})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("got %v, want ErrOutOfRange", err)
	}
}

func TestIdentityContradictionOnObjectChange(t *testing.T) {
	params := simulator.Params{NrFrames: 1, NrVPages: 2, NrObjects: 2}
	_, err := run(t, "0 0 0 R\n0 1 0 R\n", params, &simulator.LRUPolicy{})
	if !errors.Is(err, ErrIdentityContradiction) {
		t.Fatalf("got %v, want ErrIdentityContradiction", err)
	}
}

func TestIdentityContradictionOnIndexChange(t *testing.T) {
	params := simulator.Params{NrFrames: 1, NrVPages: 2, NrObjects: 1}
	_, err := run(t, "0 0 0 R\n0 0 1 R\n", params, &simulator.LRUPolicy{})
	if !errors.Is(err, ErrIdentityContradiction) {
		t.Fatalf("got %v, want ErrIdentityContradiction", err)
	}
}

func TestMalformedTraceLineIsFatal(t *testing.T) {
	params := simulator.Params{NrFrames: 1, NrVPages: 1, NrObjects: 1}
	_, err := run(t, "not a trace line\n", params, &simulator.LRUPolicy{})
	if err == nil {
		t.Fatalf("expected an error for a malformed line")
	}
}

func TestEvictionMakesRoomForTheNextMiss(t *testing.T) {
	// One frame: page 0 then page 1 must evict page 0, so re-reading page
	// 0 afterwards misses again.
	params := simulator.Params{NrFrames: 1, NrVPages: 2, NrObjects: 1}
	report, err := run(t, "0 0 0 R\n1 0 1 R\n0 0 0 R\n", params, &simulator.LRUPolicy{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Hits != 0 || report.Misses != 3 {
		t.Fatalf("got %+v, want 0 hits 3 misses", report)
	}
}

func TestTruncatePunchesEveryQualifyingPage(t *testing.T) {
	// A TRUNCATE access punches every page in the object whose index is
	// >= the truncation index, not just itself. With three resident
	// pages in the same object and a truncate at index 0, all three
	// qualify and must be evicted, so both rereads afterwards miss
	// again.
	params := simulator.Params{NrFrames: 3, NrVPages: 3, NrObjects: 1}
	report, err := run(t,
		"0 0 0 R\n1 0 1 R\n2 0 2 R\n0 0 0 T\n1 0 1 R\n2 0 2 R\n",
		params, &simulator.LRUPolicy{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Hits != 0 || report.Misses != 5 {
		t.Fatalf("got %+v, want 0 hits 5 misses", report)
	}
}

func TestWriteMarksFrameDirty(t *testing.T) {
	params := simulator.Params{NrFrames: 1, NrVPages: 1, NrObjects: 1}
	mm := mustMM(t, params, &simulator.LRUPolicy{})
	r := trace.NewReader(strings.NewReader("0 0 0 W\n"))
	mm.AttachTrace(r)
	if err := mm.Init(); err != nil {
		t.Fatalf("mm.Init: %v", err)
	}
	if _, err := Run(mm, r, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	pg := mm.VPages[0]
	if pg.Frame == nil || !pg.Frame.Dirty {
		t.Fatalf("expected page 0's frame to be resident and dirty")
	}
}

func TestHitRatio(t *testing.T) {
	r := Report{Hits: 3, Misses: 1}
	if got := r.HitRatio(); got != 75.0 {
		t.Fatalf("got %v, want 75.0", got)
	}
}

func TestHitRatioOfEmptyReportIsNaN(t *testing.T) {
	r := Report{}
	if ratio := r.HitRatio(); ratio == ratio {
		t.Fatalf("expected NaN for an empty report, got %v", ratio)
	}
}
