package simulator

// CARPolicy implements CAR (Bansal & Modha, "CAR: Clock with Adaptive
// Replacement"): two clock queues T1 (recency) and T2 (frequency) hold
// resident pages, backed by two ghost directories B1/B2 that remember
// recently evicted pages without their data. The target T1 size p adapts
// toward whichever of B1/B2 is seeing more ghost hits.
type CARPolicy struct{}

func (CARPolicy) Init(mm *MM) error { return nil }
func (CARPolicy) Finalize(mm *MM)   {}

func (p CARPolicy) Read(mm *MM, pg *VPage)      { genericRead(mm, pg, p.allocate) }
func (p CARPolicy) ReadAhead(mm *MM, pg *VPage) { genericRead(mm, pg, p.allocate) }
func (p CARPolicy) Write(mm *MM, pg *VPage)     { genericWrite(mm, pg, p.allocate) }
func (p CARPolicy) Fault(mm *MM, pg *VPage)     { genericRead(mm, pg, p.allocate) }

func (CARPolicy) Punch(mm *MM, pg *VPage) {
	genericPunch(mm, pg)
	mm.carMove(&mm.car, pg, QueueNone, false)
}

// carReplace runs CAR's clock hand until it finds an unreferenced page to
// evict, giving every referenced page it passes over a second chance in
// T2 first.
func carReplace(mm *MM) {
	for {
		var pg *VPage
		var target CarQueue

		if mm.car.q[QueueT1].nr >= maxU64(1, mm.car.p) {
			pg = carQueueRead(&mm.car, QueueT1, false)
			target = QueueB1
		} else {
			pg = carQueueRead(&mm.car, QueueT2, false)
			target = QueueB2
		}

		ref := pg.carRef
		found := false
		if !ref {
			found = true
			mm.steal(pg.Frame)
		} else {
			pg.carRef = false
			target = QueueT2
		}
		mm.carMove(&mm.car, pg, target, ref)
		if found {
			return
		}
	}
}

// carDirReplace trims the combined T1+T2+B1+B2 directory back down to at
// most twice NrFrames entries once cache and ghost directories fill up
// for a page CAR has never seen resident before.
func carDirReplace(mm *MM) {
	var chop CarQueue
	switch {
	case mm.car.q[QueueT1].nr+mm.car.q[QueueB1].nr == mm.NrFrames:
		chop = QueueB1
	case mm.car.q[QueueT1].nr+mm.car.q[QueueT2].nr+mm.car.q[QueueB1].nr+mm.car.q[QueueB2].nr == 2*mm.NrFrames:
		chop = QueueB2
	default:
		return
	}
	mm.carMove(&mm.car, carQueueRead(&mm.car, chop, true), QueueNone, false)
}

func (CARPolicy) allocate(mm *MM, pg *VPage) {
	q := pg.carQueue
	dirMiss := q != QueueB1 && q != QueueB2

	if pg.Frame != nil {
		pg.carRef = true
		return
	}

	if mm.NrFree == 0 {
		carReplace(mm)
		if dirMiss {
			carDirReplace(mm)
		}
	}

	mm.place(pg, mm.allocFreeFrame())

	var target CarQueue
	if dirMiss {
		target = QueueT1
	} else if q == QueueB1 {
		delta := maxU64(1, mm.car.q[QueueB2].nr/mm.car.q[QueueB1].nr)
		mm.car.p = minU64(mm.car.p+delta, mm.NrFrames)
		target = QueueT2
	} else {
		// q == QueueB2: shrink the T1 target, floored at zero.
		delta := maxU64(1, mm.car.q[QueueB1].nr/mm.car.q[QueueB2].nr)
		mm.car.p = satSubU64(mm.car.p, delta)
		target = QueueT2
	}
	mm.carMove(&mm.car, pg, target, true)
	pg.carRef = false
}
