package simulator

// SFIFOPolicy is Segmented FIFO (Turner & Levy): resident frames start in
// a FIFO-ordered head segment; frames nearing eviction are first demoted
// into an LRU-ordered tail segment sized to TailPercent of NrFrames, and
// only evicted once they reach the back of that segment. A hit on a tail
// frame promotes it back to the head. TailPercent 100 degenerates to
// LRU, 0 to plain FIFO.
type SFIFOPolicy struct{}

func (SFIFOPolicy) Init(mm *MM) error { return nil }
func (SFIFOPolicy) Finalize(mm *MM)   {}

func (p SFIFOPolicy) Read(mm *MM, pg *VPage)      { genericRead(mm, pg, p.allocate) }
func (p SFIFOPolicy) ReadAhead(mm *MM, pg *VPage) { genericRead(mm, pg, p.allocate) }
func (p SFIFOPolicy) Write(mm *MM, pg *VPage)     { genericWrite(mm, pg, p.allocate) }
func (p SFIFOPolicy) Fault(mm *MM, pg *VPage)     { genericRead(mm, pg, p.allocate) }
func (SFIFOPolicy) Punch(mm *MM, pg *VPage)       { genericPunch(mm, pg) }

func (SFIFOPolicy) allocate(mm *MM, pg *VPage) {
	if pg.Frame != nil {
		frame := pg.Frame
		if frame.Tail {
			frame.Tail = false
			mm.sfifo.tailNr--
			mm.frameListAdd(mm.sfifo.head, frame, true)
		}
		return
	}

	if mm.NrFree == 0 {
		target := mm.NrFrames * uint64(mm.params.SFIFOTailPercent) / 100
		for mm.sfifo.tailNr <= target && mm.sfifo.head.Len() > 0 {
			frame := frameFromElem(mm.sfifo.head.Back())
			frame.Tail = true
			mm.frameListAdd(mm.sfifo.tail, frame, true)
			mm.sfifo.tailNr++
		}
		frame := frameFromElem(mm.sfifo.tail.Back())
		frame.Tail = false
		mm.sfifo.tailNr--
		mm.steal(frame)
	}

	frame := mm.allocFreeFrame()
	mm.place(pg, frame)
	mm.frameListAdd(mm.sfifo.head, frame, true)
}
