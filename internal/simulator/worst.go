package simulator

// WorstPolicy evicts whichever resident page the trace's very next access
// will touch, forcing that access to fault too. It is the adversary of
// OPT: instead of minimizing faults it maximizes them. When there's no
// look-ahead available, or the upcoming access would fault regardless of
// what's evicted, it falls back to RANDOM.
type WorstPolicy struct{}

func (WorstPolicy) Init(mm *MM) error { return nil }
func (WorstPolicy) Finalize(mm *MM)   {}

func (p WorstPolicy) Read(mm *MM, pg *VPage)      { genericRead(mm, pg, p.allocate) }
func (p WorstPolicy) ReadAhead(mm *MM, pg *VPage) { genericRead(mm, pg, p.allocate) }
func (p WorstPolicy) Write(mm *MM, pg *VPage)     { genericWrite(mm, pg, p.allocate) }
func (p WorstPolicy) Fault(mm *MM, pg *VPage)     { genericRead(mm, pg, p.allocate) }
func (WorstPolicy) Punch(mm *MM, pg *VPage)       { genericPunch(mm, pg) }

func (WorstPolicy) allocate(mm *MM, pg *VPage) {
	if pg.Frame != nil {
		return
	}
	if mm.NrFree == 0 {
		peek, _, err := mm.trace.Peek(nil)
		if err != nil {
			randomAllocate(mm, pg)
			return
		}
		nextFault := mm.VPages[peek.Page]
		if nextFault.Frame != nil {
			// The next access is to a page already resident: evict it
			// so that access faults too.
			mm.steal(nextFault.Frame)
		} else {
			// The next access will fault no matter what we evict now.
			randomAllocate(mm, pg)
			return
		}
	}
	mm.place(pg, mm.allocFreeFrame())
}
