package simulator

import (
	"container/list"
	"fmt"
	"strings"

	"github.com/nikitadanilov/fs-repalg/internal/trace"
)

// OPTPolicy implements Belady's optimal, clairvoyant algorithm: on a
// miss, evict whichever resident page will be used again furthest in the
// future (or never again, if any resident page qualifies). It needs the
// whole trace up front, which Init gets by peeking through MM.trace to the
// end, buffering every access before the driver consumes a single one.
type OPTPolicy struct{}

// turnEntry is one scheduled future use of a page, boxed so it can sit in
// VPage.future and be removed in O(1) once consumed.
type turnEntry struct {
	turn uint64
}

func (OPTPolicy) Init(mm *MM) error {
	return optBuild(mm)
}

func (OPTPolicy) Finalize(mm *MM) {}

// optBuild walks the entire trace via look-ahead, recording for every
// page the ascending sequence of turns (1-based access ordinals) at
// which it will next be touched. READ, READ-AHEAD and PFAULT all cause a
// fault and so all schedule a future use; WRITE and PUNCH don't.
func optBuild(mm *MM) error {
	var cursor trace.Cursor
	for turn := uint64(1); ; turn++ {
		access, next, err := mm.trace.Peek(cursor)
		if err != nil {
			break
		}
		cursor = next
		if access.Type != trace.Write && access.Type != trace.Punch {
			pg := mm.VPages[access.Page]
			if pg.future == nil {
				pg.future = list.New()
			}
			pg.future.PushBack(turnEntry{turn: turn})
		}
	}

	if mm.verbose&VerboseTable != 0 {
		for _, pg := range mm.VPages {
			if pg.future == nil || pg.future.Len() == 0 {
				continue
			}
			var b strings.Builder
			for e := pg.future.Front(); e != nil; e = e.Next() {
				fmt.Fprintf(&b, " %x", e.Value.(turnEntry).turn)
			}
			mm.tablef("%x:%s", pg.No, b.String())
		}
	}
	return nil
}

func (p OPTPolicy) Read(mm *MM, pg *VPage)      { optConsume(mm, pg, p.allocate) }
func (p OPTPolicy) ReadAhead(mm *MM, pg *VPage) { optConsume(mm, pg, p.allocate) }
func (p OPTPolicy) Fault(mm *MM, pg *VPage)     { optConsume(mm, pg, p.allocate) }
func (p OPTPolicy) Write(mm *MM, pg *VPage)     { genericWrite(mm, pg, p.allocate) }
func (OPTPolicy) Punch(mm *MM, pg *VPage)       { genericPunch(mm, pg) }

// optConsume pops the current turn's entry off pg's future list (it was
// put there for exactly this access, by optBuild) before allocating and
// paging the access in.
func optConsume(mm *MM, pg *VPage, alloc allocFunc) {
	if pg.future != nil && pg.future.Len() > 0 {
		pg.future.Remove(pg.future.Front())
	}
	alloc(mm, pg)
	mm.pagein(pg)
}

func (OPTPolicy) allocate(mm *MM, pg *VPage) {
	if pg.Frame != nil {
		return
	}
	if mm.NrFree == 0 {
		var victim *Frame
		var farthest uint64

		for _, frame := range mm.Frames {
			page := frame.Page
			if page == nil {
				continue
			}
			if page.future == nil || page.future.Len() == 0 {
				// Never used again: the obvious victim.
				victim = frame
				break
			}
			next := page.future.Front().Value.(turnEntry).turn
			if next > farthest {
				farthest = next
				victim = frame
			}
		}

		if mm.verbose&VerboseTable != 0 {
			var b strings.Builder
			for _, frame := range mm.Frames {
				page := frame.Page
				mark := byte(' ')
				if frame == victim {
					mark = '*'
				}
				if page != nil && page.future != nil && page.future.Len() > 0 {
					fmt.Fprintf(&b, "%8x%c", page.future.Front().Value.(turnEntry).turn, mark)
				} else {
					fmt.Fprintf(&b, "%8s%c", "never", mark)
				}
			}
			mm.tablef("%8x: %s", mm.Total, b.String())
		}

		mm.steal(victim)
	}
	mm.place(pg, mm.allocFreeFrame())
}
