package simulator

// LRUPolicy evicts the least-recently-touched resident frame on a miss
// and moves every touched frame to the front of a single recency list.
type LRUPolicy struct{}

func (LRUPolicy) Init(mm *MM) error { return nil }
func (LRUPolicy) Finalize(mm *MM)   {}

func (p LRUPolicy) Read(mm *MM, pg *VPage)      { genericRead(mm, pg, p.allocate) }
func (p LRUPolicy) ReadAhead(mm *MM, pg *VPage) { genericRead(mm, pg, p.allocate) }
func (p LRUPolicy) Write(mm *MM, pg *VPage)     { genericWrite(mm, pg, p.allocate) }
func (p LRUPolicy) Fault(mm *MM, pg *VPage)     { genericRead(mm, pg, p.allocate) }
func (LRUPolicy) Punch(mm *MM, pg *VPage)       { genericPunch(mm, pg) }

func (LRUPolicy) allocate(mm *MM, pg *VPage) {
	if pg.Frame == nil {
		if mm.NrFree == 0 {
			mm.steal(frameFromElem(mm.lru.Back()))
		}
		mm.place(pg, mm.allocFreeFrame())
	}
	frame := pg.Frame
	if frame.owner == mm.lru {
		mm.frameListMoveToFront(frame)
	} else {
		mm.frameListAdd(mm.lru, frame, true)
	}
}
