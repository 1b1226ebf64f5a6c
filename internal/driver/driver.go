package driver

import (
	"fmt"
	"io"
	"log"

	"github.com/google/uuid"

	"github.com/nikitadanilov/fs-repalg/internal/simulator"
	"github.com/nikitadanilov/fs-repalg/internal/trace"
)

// Report summarizes a completed run. Only READ, READ-AHEAD and PFAULT
// accesses are counted as hits or misses; WRITE and TRUNCATE never are.
type Report struct {
	Hits, Misses uint64
}

// HitRatio returns the percentage of counted accesses that hit a
// resident page. Like the original tool, it does not guard against a
// zero-access run: Hits+Misses == 0 yields NaN, not a panic.
func (r Report) HitRatio() float64 {
	return float64(r.Hits) * 100.0 / float64(r.Hits+r.Misses)
}

// Run drives mm through every access r produces, in order, until the
// trace is exhausted or a fatal error occurs. mm must already have had
// AttachTrace(r) and then Init called, in that order, so that OPT's
// whole-trace pre-scan runs before any access is consumed from r.
//
// progress receives a "." every 1000 accesses when mm was configured
// with VerboseProgress; pass nil to suppress it regardless of the flag.
func Run(mm *simulator.MM, r *trace.Reader, progress io.Writer) (Report, error) {
	if logger := mm.Logger(); logger != nil && mm.Verbose()&simulator.VerboseLog != 0 {
		logger.Printf("run %s: %d frames, %d vpages, %d objects",
			uuid.New(), mm.NrFrames, mm.NrVPages, mm.NrObjects)
	}

	for {
		access, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Report{}, fmt.Errorf("reading trace: %w", err)
		}
		if err := step(mm, access, progress); err != nil {
			return Report{}, err
		}
	}
	return Report{Hits: mm.Hits, Misses: mm.Misses}, nil
}

func step(mm *simulator.MM, access trace.Access, progress io.Writer) error {
	if access.Page >= mm.NrVPages {
		return fmt.Errorf("%w: page %#x >= %#x", ErrOutOfRange, access.Page, mm.NrVPages)
	}
	if access.Object >= mm.NrObjects {
		return fmt.Errorf("%w: object %#x >= %#x", ErrOutOfRange, access.Object, mm.NrObjects)
	}

	pg := mm.VPages[access.Page]
	obj := mm.Objects[access.Object]
	if err := simulator.BindPage(pg, obj, access.Index); err != nil {
		return fmt.Errorf("%w: %w", ErrIdentityContradiction, err)
	}

	if logger := mm.Logger(); logger != nil && mm.Verbose()&simulator.VerboseLog != 0 {
		logAccess(logger, access.Type, pg)
	}

	if access.Type != trace.Write && access.Type != trace.Punch {
		if pg.Frame != nil {
			mm.Hits++
		} else {
			mm.Misses++
		}
	}
	mm.Total++

	switch access.Type {
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
		punch(mm, obj, access.Index)
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAccessType, byte(access.Type))
	}

	if pg.Frame == nil {
		return ErrFrameNotInstalled
	}
	pg.Frame.Referenced = true

	if progress != nil && mm.Verbose()&simulator.VerboseProgress != 0 && mm.Total%1000 == 0 {
		fmt.Fprint(progress, ".")
	}
	return nil
}

// punch walks obj's page list and invokes Punch on every page whose index
// is at or past the truncation point.
func punch(mm *simulator.MM, obj *simulator.Object, index uint64) {
	for e := obj.Pages.Front(); e != nil; e = e.Next() {
		scan := e.Value.(*simulator.VPage)
		if scan.Index >= index {
			mm.Punch(scan)
		}
	}
}

func logAccess(logger *log.Logger, typ trace.Type, pg *simulator.VPage) {
	if pg.Frame != nil {
		logger.Printf("%s %08x -> frame %d", typ, pg.No, pg.Frame.No)
	} else {
		logger.Printf("%s %08x -> NR", typ, pg.No)
	}
}
