package simulator

// TwoQPolicy implements 2Q (Johnson & Shasha): new pages are admitted
// into a small FIFO-ordered A1in queue; a page that survives long enough
// to be demoted out of A1in leaves a ghost entry in A1out, and a
// subsequent access to that ghost promotes the page straight into the
// LRU-ordered main queue Am instead of re-entering A1in.
type TwoQPolicy struct{}

func (TwoQPolicy) Init(mm *MM) error { return nil }
func (TwoQPolicy) Finalize(mm *MM)   {}

func (p TwoQPolicy) Read(mm *MM, pg *VPage)      { genericRead(mm, pg, p.allocate) }
func (p TwoQPolicy) ReadAhead(mm *MM, pg *VPage) { genericRead(mm, pg, p.allocate) }
func (p TwoQPolicy) Write(mm *MM, pg *VPage)     { genericWrite(mm, pg, p.allocate) }
func (p TwoQPolicy) Fault(mm *MM, pg *VPage)     { genericRead(mm, pg, p.allocate) }
func (TwoQPolicy) Punch(mm *MM, pg *VPage)       { genericPunch(mm, pg) }

func (TwoQPolicy) allocate(mm *MM, pg *VPage) {
	if pg.Frame != nil {
		frame := pg.Frame
		if !frame.Tail {
			// Frame is in Am; a hit refreshes its recency.
			mm.frameListMoveToFront(frame)
		}
		return
	}

	reclaimFor2Q(mm, pg)
	frame := pg.Frame
	if pg.queueElem != nil {
		// Page was a ghost in A1out: promote straight to Am.
		mm.vpageQueueRemove(pg)
		mm.q2.a1outNr--
		mm.frameListAdd(mm.q2.am, frame, true)
		mm.q2.amNr++
	} else {
		frame.Tail = true
		mm.frameListAdd(mm.q2.a1in, frame, true)
		mm.q2.a1inNr++
	}
}

func reclaimFor2Q(mm *MM, pg *VPage) {
	if mm.NrFree == 0 {
		var victim *Frame
		if mm.q2.a1inNr > mm.NrFrames*uint64(mm.params.TwoQKin)/100 {
			victim = frameFromElem(mm.q2.a1in.Back())
			mm.q2.a1inNr--
			victim.Tail = false

			ghost := victim.Page
			mm.vpageQueueAdd(mm.q2.a1out, ghost, true)
			if mm.q2.a1outNr >= mm.NrFrames*uint64(mm.params.TwoQKout)/100 {
				oldest := vpageFromElem(mm.q2.a1out.Back())
				mm.vpageQueueRemove(oldest)
			} else {
				mm.q2.a1outNr++
			}
		} else {
			victim = frameFromElem(mm.q2.am.Back())
			mm.q2.amNr--
		}
		mm.steal(victim)
	}
	mm.place(pg, mm.allocFreeFrame())
}
