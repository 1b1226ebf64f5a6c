package simulator

// ARCPolicy implements ARC (Megiddo & Modha, "ARC: A Self-Tuning, Low
// Overhead Replacement Cache"). It shares CAR's T1/T2/B1/B2 directory
// structure but drives T1/T2 with plain LRU instead of a clock hand, and
// adapts the T1 target p on every ghost (B1/B2) hit rather than only
// during replacement.
type ARCPolicy struct{}

func (ARCPolicy) Init(mm *MM) error { return nil }
func (ARCPolicy) Finalize(mm *MM)   {}

func (p ARCPolicy) Read(mm *MM, pg *VPage)      { genericRead(mm, pg, p.allocate) }
func (p ARCPolicy) ReadAhead(mm *MM, pg *VPage) { genericRead(mm, pg, p.allocate) }
func (p ARCPolicy) Write(mm *MM, pg *VPage)     { genericWrite(mm, pg, p.allocate) }
func (p ARCPolicy) Fault(mm *MM, pg *VPage)     { genericRead(mm, pg, p.allocate) }

func (ARCPolicy) Punch(mm *MM, pg *VPage) {
	genericPunch(mm, pg)
	mm.carMove(&mm.arc, pg, QueueNone, false)
}

func (ARCPolicy) allocate(mm *MM, pg *VPage) {
	q := pg.carQueue
	target := QueueT2

	switch {
	case pg.Frame != nil:
		// Hit: no adaptation, the final carMove below moves the page to
		// the MRU end of T2 regardless of whether it came from T1 or T2.
	case q == QueueB1:
		delta := maxU64(1, mm.arc.q[QueueB2].nr/mm.arc.q[QueueB1].nr)
		mm.arc.p = minU64(mm.arc.p+delta, mm.NrFrames)
		target = QueueT2
	case q == QueueB2:
		delta := maxU64(1, mm.arc.q[QueueB1].nr/mm.arc.q[QueueB2].nr)
		mm.arc.p = satSubU64(mm.arc.p, delta)
		target = QueueT2
	default: // q == QueueNone
		if mm.arc.q[QueueT1].nr+mm.arc.q[QueueB1].nr == mm.NrFrames {
			var tail *VPage
			if mm.arc.q[QueueB1].nr > 0 {
				tail = carQueueRead(&mm.arc, QueueB1, true)
			} else {
				tail = carQueueRead(&mm.arc, QueueT1, true)
				mm.steal(tail.Frame)
			}
			mm.carMove(&mm.arc, tail, QueueNone, false)
		} else {
			total := mm.arc.q[QueueT1].nr + mm.arc.q[QueueB1].nr +
				mm.arc.q[QueueT2].nr + mm.arc.q[QueueB2].nr
			if total >= mm.NrFrames && total == 2*mm.NrFrames {
				mm.carMove(&mm.arc, carQueueRead(&mm.arc, QueueB2, true), QueueNone, false)
			}
		}
		target = QueueT1
	}

	if pg.Frame == nil {
		if mm.NrFree == 0 {
			t1 := mm.arc.q[QueueT1].nr
			var shrink, expand CarQueue
			if t1 > 0 && (t1 > mm.arc.p || (q == QueueB2 && t1 == mm.arc.p)) {
				shrink, expand = QueueT1, QueueB1
			} else {
				shrink, expand = QueueT2, QueueB2
			}
			shuttle := carQueueRead(&mm.arc, shrink, true)
			mm.steal(shuttle.Frame)
			mm.carMove(&mm.arc, shuttle, expand, false)
		}
		mm.place(pg, mm.allocFreeFrame())
	}
	mm.carMove(&mm.arc, pg, target, false)
}
