package simulator

// RandomPolicy evicts a uniformly random resident frame on a miss.
type RandomPolicy struct{}

func (RandomPolicy) Init(mm *MM) error { return nil }
func (RandomPolicy) Finalize(mm *MM)   {}

func (p RandomPolicy) Read(mm *MM, pg *VPage)      { genericRead(mm, pg, p.allocate) }
func (p RandomPolicy) ReadAhead(mm *MM, pg *VPage) { genericRead(mm, pg, p.allocate) }
func (p RandomPolicy) Write(mm *MM, pg *VPage)     { genericWrite(mm, pg, p.allocate) }
func (p RandomPolicy) Fault(mm *MM, pg *VPage)     { genericRead(mm, pg, p.allocate) }
func (RandomPolicy) Punch(mm *MM, pg *VPage)       { genericPunch(mm, pg) }

func (RandomPolicy) allocate(mm *MM, pg *VPage) { randomAllocate(mm, pg) }

// randomAllocate is RANDOM's allocation rule, broken out so WORST can fall
// back to it verbatim when look-ahead isn't available or doesn't help.
func randomAllocate(mm *MM, pg *VPage) {
	if pg.Frame == nil {
		if mm.NrFree == 0 {
			victim := mm.Frames[mm.rng.Int63n(int64(mm.NrFrames))]
			mm.steal(victim)
		}
		mm.place(pg, mm.allocFreeFrame())
	}
}
