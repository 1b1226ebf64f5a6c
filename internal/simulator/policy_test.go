package simulator

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/nikitadanilov/fs-repalg/internal/trace"
)

// touch drives a single access through mm the way internal/driver would,
// without pulling in that package: bind the page's identity, dispatch to
// the policy, then apply the post-dispatch bookkeeping the driver itself
// is responsible for (Referenced, Dirty).
func touch(t *testing.T, mm *MM, pageNo, objNo, index uint64, typ trace.Type) bool {
	t.Helper()
	pg := mm.VPages[pageNo]
	obj := mm.Objects[objNo]
	if err := BindPage(pg, obj, index); err != nil {
		t.Fatalf("BindPage: %v", err)
	}
	hit := pg.Frame != nil
	switch typ {
	case trace.Read:
		mm.Read(pg)
	case trace.ReadA:
		mm.ReadAhead(pg)
	case trace.Write:
		mm.Write(pg)
		pg.Frame.Dirty = true
	case trace.PageFault:
		mm.Fault(pg)
	case trace.Punch:
		mm.Punch(pg)
		return false
	}
	if pg.Frame == nil {
		t.Fatalf("page %#x: frame not installed after %v", pageNo, typ)
	}
	pg.Frame.Referenced = true
	if !frameInvariant(pg.Frame) || !vpageInvariant(pg) {
		t.Fatalf("page %#x: frame/vpage invariant broken", pageNo)
	}
	return hit
}

func newMM(t *testing.T, frames, vpages, objects uint64, policy Policy) *MM {
	t.Helper()
	mm, err := New(Params{NrFrames: frames, NrVPages: vpages, NrObjects: objects}, policy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := mm.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return mm
}

// newMMWithTrace is newMM plus AttachTrace, for WORST and OPT, whose Init
// or allocate dereferences mm.trace. Every other policy ignores it.
func newMMWithTrace(t *testing.T, frames, vpages, objects uint64, policy Policy, traceText string) *MM {
	t.Helper()
	mm, err := New(Params{NrFrames: frames, NrVPages: vpages, NrObjects: objects}, policy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mm.AttachTrace(trace.NewReader(strings.NewReader(traceText)))
	if err := mm.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return mm
}

func TestByNameConstructsEveryNamedPolicy(t *testing.T) {
	for _, name := range Names {
		policy, err := ByName(name)
		if err != nil {
			t.Errorf("ByName(%q): %v", name, err)
		}
		if policy == nil {
			t.Errorf("ByName(%q): nil policy", name)
		}
	}
}

func TestByNameRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := ByName("bogus"); err == nil {
		t.Fatalf("expected an error for an unknown algorithm")
	}
}

func TestNewRejectsZeroSizedUniverses(t *testing.T) {
	cases := []Params{
		{NrFrames: 0, NrVPages: 1, NrObjects: 1},
		{NrFrames: 1, NrVPages: 0, NrObjects: 1},
		{NrFrames: 1, NrVPages: 1, NrObjects: 0},
	}
	for _, p := range cases {
		if _, err := New(p, &LRUPolicy{}); err == nil {
			t.Errorf("New(%+v): expected an error", p)
		}
	}
}

// smokeTestPolicy drives every policy through the same minimal scenario:
// two frames, three pages. Pages 0 and 1 fill the cache; page 2 forces an
// eviction. This alone can't distinguish *which* victim each algorithm
// picks, but it does confirm every policy installs and evicts frames
// without violating basic residency bookkeeping.
func smokeTestPolicy(t *testing.T, name string) {
	t.Helper()
	policy, err := ByName(name)
	if err != nil {
		t.Fatalf("ByName(%q): %v", name, err)
	}
	// Mirrors the exact access sequence below, so OPT's whole-trace
	// pre-scan sees consistent data. touch never consumes from the
	// reader, so WORST's Peek(nil) sees the trace's first access (page 0).
	const traceText = "0 0 0 R\n1 0 1 R\n0 0 0 R\n2 0 2 R\n"
	mm := newMMWithTrace(t, 2, 8, 1, policy, traceText)

	if touch(t, mm, 0, 0, 0, trace.Read) {
		t.Errorf("%s: first touch of page 0 should miss", name)
	}
	if touch(t, mm, 1, 0, 1, trace.Read) {
		t.Errorf("%s: first touch of page 1 should miss", name)
	}
	if !touch(t, mm, 0, 0, 0, trace.Read) {
		t.Errorf("%s: rereading resident page 0 should hit", name)
	}
	// No free frame remains; page 2 must evict something.
	if mm.NrFree != 0 {
		t.Fatalf("%s: expected no free frames left, got %d", name, mm.NrFree)
	}
	if touch(t, mm, 2, 0, 2, trace.Read) {
		t.Errorf("%s: first touch of page 2 should miss", name)
	}
	// LINUX reclaims in batches: both resident frames are clean, so one
	// reclaim pass frees both and page 2 leaves one frame free.
	wantFree := uint64(0)
	if name == "linux" {
		wantFree = 1
	}
	if mm.NrFree != wantFree {
		t.Errorf("%s: NrFree = %d after page 2, want %d", name, mm.NrFree, wantFree)
	}
	mm.Finalize()
}

func TestSmokeEveryPolicy(t *testing.T) {
	for _, name := range Names {
		name := name
		t.Run(name, func(t *testing.T) {
			smokeTestPolicy(t, name)
		})
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	mm := newMM(t, 2, 8, 1, &LRUPolicy{})
	touch(t, mm, 0, 0, 0, trace.Read)
	touch(t, mm, 1, 0, 1, trace.Read)
	touch(t, mm, 0, 0, 0, trace.Read) // refresh page 0; page 1 is now LRU.
	touch(t, mm, 2, 0, 2, trace.Read) // must evict page 1, not page 0.

	if mm.VPages[0].Frame == nil {
		t.Fatalf("page 0 should still be resident")
	}
	if mm.VPages[1].Frame != nil {
		t.Fatalf("page 1 should have been evicted")
	}
}

func TestFIFOEvictsInInstallOrderRegardlessOfReuse(t *testing.T) {
	mm := newMM(t, 2, 8, 1, &FIFOPolicy{})
	touch(t, mm, 0, 0, 0, trace.Read)
	touch(t, mm, 1, 0, 1, trace.Read)
	touch(t, mm, 0, 0, 0, trace.Read) // FIFO ignores this reuse.
	touch(t, mm, 2, 0, 2, trace.Read) // must evict page 0, the first installed.

	if mm.VPages[0].Frame != nil {
		t.Fatalf("page 0 should have been evicted (installed first)")
	}
	if mm.VPages[1].Frame == nil {
		t.Fatalf("page 1 should still be resident")
	}
}

func TestFIFO2GivesAReferencedPageASecondChance(t *testing.T) {
	mm := newMM(t, 2, 8, 1, &FIFO2Policy{})
	touch(t, mm, 0, 0, 0, trace.Read) // installed first, Referenced set by touch.
	touch(t, mm, 1, 0, 1, trace.Read)
	// Both frames now have Referenced == true (touch sets it on every
	// access, mirroring the driver). A plain FIFO eviction would pick
	// page 0; FIFO2 must instead spare it once, clear its bit, and evict
	// whichever frame is referenced-false by the time the clock comes
	// back around. Since both are referenced, the first frame inspected
	// (page 0, installed first) gets a second chance and page 1 becomes
	// the next candidate; with only two frames in the ring, page 1 must
	// end up evicted once its own bit is already clear from never being
	// re-touched after installation... but both were touched by touch(),
	// so clear page 1's bit to make the outcome deterministic.
	mm.VPages[1].Frame.Referenced = false
	touch(t, mm, 2, 0, 2, trace.Read)

	if mm.VPages[1].Frame != nil {
		t.Fatalf("page 1 (unreferenced) should have been evicted, not page 0")
	}
	if mm.VPages[0].Frame == nil {
		t.Fatalf("page 0 should have survived its second chance")
	}
}

func TestSFIFOHitOnADemotedTailFramePromotesIt(t *testing.T) {
	mm := newMM(t, 4, 8, 1, &SFIFOPolicy{})
	mm.params.SFIFOTailPercent = 50
	touch(t, mm, 0, 0, 0, trace.Read)
	touch(t, mm, 1, 0, 1, trace.Read)
	touch(t, mm, 2, 0, 2, trace.Read)
	touch(t, mm, 3, 0, 3, trace.Read)
	if mm.NrFree != 0 {
		t.Fatalf("expected all 4 frames full")
	}
	// Filling a 4-frame, 50%-tail cache with 4 distinct pages demotes
	// pages 0-2 into the tail and evicts page 0 (see allocate: the loop
	// demotes until tailNr > target == 2, landing 3 frames in tail, then
	// evicts the tail's back). Touching page 4 triggers exactly that.
	touch(t, mm, 4, 0, 4, trace.Read)
	if mm.VPages[0].Frame != nil {
		t.Fatalf("page 0 should have been evicted")
	}
	// Page 1 is also in the tail segment now; hitting it must promote it
	// back to the head, so a subsequent miss does not re-evict it.
	if !touch(t, mm, 1, 0, 1, trace.Read) {
		t.Fatalf("page 1 should still be resident (tail, not evicted)")
	}
	if mm.VPages[1].Frame.Tail {
		t.Fatalf("hitting a tail frame should promote it out of the tail segment")
	}
}

func TestRandomIsDeterministicGivenASeededRNG(t *testing.T) {
	run := func() []bool {
		mm, err := New(Params{NrFrames: 1, NrVPages: 4, NrObjects: 1}, &RandomPolicy{})
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		mm.rng = rand.New(rand.NewSource(42))
		if err := mm.Init(); err != nil {
			t.Fatalf("Init: %v", err)
		}
		var hits []bool
		hits = append(hits, touch(t, mm, 0, 0, 0, trace.Read))
		hits = append(hits, touch(t, mm, 1, 0, 1, trace.Read))
		hits = append(hits, touch(t, mm, 0, 0, 0, trace.Read))
		return hits
	}
	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("two seeded runs diverged at access %d: %v vs %v", i, a, b)
		}
	}
}

func TestWorstFallsBackToRandomWithNoUsableLookAhead(t *testing.T) {
	mm := newMM(t, 1, 4, 1, &WorstPolicy{})
	r := trace.NewReader(strings.NewReader("")) // nothing left to peek.
	mm.AttachTrace(r)

	touch(t, mm, 0, 0, 0, trace.Read)
	touch(t, mm, 2, 0, 2, trace.Read) // must still make room somehow.
	if mm.VPages[0].Frame != nil {
		t.Fatalf("the only resident page should have been evicted to make room")
	}
}

func TestWorstEvictsTheUpcomingPageWhenItIsResident(t *testing.T) {
	mm := newMM(t, 2, 4, 1, &WorstPolicy{})
	r := trace.NewReader(strings.NewReader("0 0 0 R\n"))
	mm.AttachTrace(r)

	touch(t, mm, 0, 0, 0, trace.Read)
	touch(t, mm, 1, 0, 1, trace.Read)
	// Both frames full; the peeked next access (queued in r) is to page
	// 0, which is resident. WORST must evict exactly that frame so the
	// peeked access also faults.
	touch(t, mm, 2, 0, 2, trace.Read)

	if mm.VPages[0].Frame != nil {
		t.Fatalf("page 0 should have been evicted since it is the upcoming access")
	}
	if mm.VPages[1].Frame == nil {
		t.Fatalf("page 1 should have survived")
	}
}

func TestOPTEvictsThePageUsedFarthestInTheFuture(t *testing.T) {
	policy := &OPTPolicy{}
	mm, err := New(Params{NrFrames: 2, NrVPages: 4, NrObjects: 1}, policy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// Page 0 is used again at turn 4 (the very last access); page 1 is
	// never used again after turn 2. OPT must keep page 0 and evict
	// page 1 when page 2 needs a frame.
	traceText := "0 0 0 R\n1 0 1 R\n2 0 2 R\n0 0 0 R\n"
	r := trace.NewReader(strings.NewReader(traceText))
	mm.AttachTrace(r)
	if err := mm.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	touch(t, mm, 0, 0, 0, trace.Read)
	touch(t, mm, 1, 0, 1, trace.Read)
	touch(t, mm, 2, 0, 2, trace.Read) // must evict page 1, not page 0.

	if mm.VPages[1].Frame != nil {
		t.Fatalf("page 1 (never used again) should have been evicted")
	}
	if mm.VPages[0].Frame == nil {
		t.Fatalf("page 0 (used again at the final turn) should have survived")
	}
}

func TestGenericPunchFreesAResidentFrame(t *testing.T) {
	mm := newMM(t, 1, 2, 1, &LRUPolicy{})
	touch(t, mm, 0, 0, 0, trace.Read)
	if mm.NrFree != 0 {
		t.Fatalf("expected the frame to be occupied")
	}
	pg := mm.VPages[0]
	mm.Punch(pg)
	if pg.Frame != nil {
		t.Fatalf("expected punch to free the page's frame")
	}
	if mm.NrFree != 1 {
		t.Fatalf("expected the frame back on the free list, got NrFree=%d", mm.NrFree)
	}
}

func TestWriteMarksTheInstalledFrameDirtyViaCaller(t *testing.T) {
	// mm.Write itself never sets Dirty -- that is the driver's job, done
	// right after dispatch, exactly as touch() does here.
	mm := newMM(t, 1, 1, 1, &LRUPolicy{})
	touch(t, mm, 0, 0, 0, trace.Write)
	if !mm.VPages[0].Frame.Dirty {
		t.Fatalf("expected the frame to be marked dirty")
	}
}

func TestCARAndARCSurviveFillAndEvict(t *testing.T) {
	for _, name := range []string{"car", "arc"} {
		name := name
		t.Run(name, func(t *testing.T) {
			policy, err := ByName(name)
			if err != nil {
				t.Fatalf("ByName: %v", err)
			}
			mm := newMM(t, 2, 8, 1, policy)
			touch(t, mm, 0, 0, 0, trace.Read)
			touch(t, mm, 1, 0, 1, trace.Read)
			touch(t, mm, 2, 0, 2, trace.Read)
			if mm.NrFree != 0 {
				t.Fatalf("%s: expected all frames occupied after eviction", name)
			}
			resident := 0
			for _, pg := range []*VPage{mm.VPages[0], mm.VPages[1], mm.VPages[2]} {
				if pg.Frame != nil {
					resident++
				}
			}
			if resident != 2 {
				t.Fatalf("%s: expected exactly 2 of 3 pages resident, got %d", name, resident)
			}
		})
	}
}

func TestCARAdaptsPInBothDirections(t *testing.T) {
	policy, err := ByName("car")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	mm := newMM(t, 2, 4, 1, policy)

	touch(t, mm, 0, 0, 0, trace.Read) // T1: [page0]
	touch(t, mm, 0, 0, 0, trace.Read) // hit, carRef set
	touch(t, mm, 1, 0, 1, trace.Read) // T1: [page0, page1]
	touch(t, mm, 2, 0, 2, trace.Read) // referenced page0 spared to T2, page1 ghosted into B1

	touch(t, mm, 1, 0, 1, trace.Read) // B1 ghost hit: p grows from 0
	if mm.car.p != 1 {
		t.Fatalf("after a B1 ghost hit, p = %d, want 1", mm.car.p)
	}

	touch(t, mm, 3, 0, 3, trace.Read) // evicts page0 into B2

	touch(t, mm, 0, 0, 0, trace.Read) // B2 ghost hit with delta(2) > p(1): must floor at 0, not wrap.
	if mm.car.p != 0 {
		t.Fatalf("after a B2 ghost hit with delta > p, p = %d, want 0 (floored, not wrapped)", mm.car.p)
	}
}

func TestARCAdaptsPInBothDirections(t *testing.T) {
	policy, err := ByName("arc")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	mm := newMM(t, 2, 3, 1, policy)

	touch(t, mm, 0, 0, 0, trace.Read) // T1: [page0]
	touch(t, mm, 0, 0, 0, trace.Read) // hit, promotes page0 to T2
	touch(t, mm, 1, 0, 1, trace.Read) // T1: [page1]
	touch(t, mm, 2, 0, 2, trace.Read) // page1 evicted into B1 to make room

	touch(t, mm, 1, 0, 1, trace.Read) // B1 ghost hit: p grows from 0
	if mm.arc.p != 1 {
		t.Fatalf("after a B1 ghost hit, p = %d, want 1", mm.arc.p)
	}

	touch(t, mm, 0, 0, 0, trace.Read) // B2 ghost hit (page0 was pushed into B2 above): p shrinks back
	if mm.arc.p != 0 {
		t.Fatalf("after a B2 ghost hit, p = %d, want 0", mm.arc.p)
	}
}

func TestLinuxReclaimsUnderPressure(t *testing.T) {
	mm := newMM(t, 2, 16, 1, &LinuxPolicy{})
	for i := uint64(0); i < 8; i++ {
		touch(t, mm, i, 0, i, trace.Read)
	}
	if mm.NrFree != 0 {
		t.Fatalf("expected Linux to keep reclaiming down to 0 free frames, got %d", mm.NrFree)
	}
	resident := 0
	for _, pg := range mm.VPages {
		if pg.Frame != nil {
			resident++
		}
	}
	if resident != 2 {
		t.Fatalf("expected exactly 2 resident pages (NrFrames), got %d", resident)
	}
}
