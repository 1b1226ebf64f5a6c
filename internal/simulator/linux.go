package simulator

import "container/list"

// LinuxPolicy emulates the Linux 2.6 page reclaim loop (mm/vmscan.c):
// two lists, active and inactive, with a page promoted to active only
// after being referenced a second time while inactive. Reclaim scans the
// inactive list in SWAP_CLUSTER_MAX batches at increasing priority
// (decreasing scan restraint) until enough pages have been freed.
//
// Simplifying assumptions carried over from the original tool: no mapped
// or anonymous pages, no kswapd (direct reclaim only), single zone, no
// low-memory reserves.
type LinuxPolicy struct{}

const (
	defPriority    = 12
	swapClusterMax = 32
)

func (LinuxPolicy) Init(mm *MM) error { return nil }
func (LinuxPolicy) Finalize(mm *MM)   {}

func (p LinuxPolicy) Read(mm *MM, pg *VPage)      { genericRead(mm, pg, p.allocate) }
func (p LinuxPolicy) ReadAhead(mm *MM, pg *VPage) { genericRead(mm, pg, p.allocate) }
func (p LinuxPolicy) Write(mm *MM, pg *VPage)     { genericWrite(mm, pg, p.allocate) }
func (p LinuxPolicy) Fault(mm *MM, pg *VPage)     { genericRead(mm, pg, p.allocate) }

func (LinuxPolicy) Punch(mm *MM, pg *VPage) {
	if frame := pg.Frame; frame != nil {
		if frame.Tail {
			frame.Tail = false
			mm.linux.nrInactive--
		} else {
			mm.linux.nrActive--
		}
	}
	genericPunch(mm, pg)
}

func (LinuxPolicy) allocate(mm *MM, pg *VPage) {
	if pg.Frame == nil {
		if mm.NrFree == 0 {
			linuxTryToFreePages(mm)
		}
		frame := mm.allocFreeFrame()
		mm.place(pg, frame)
		linuxAddToInactive(mm, frame)
		frame.Tail = true
	} else {
		linuxMarkPageAccessed(mm, pg.Frame)
	}
}

func linuxAddToActive(mm *MM, frame *Frame) {
	mm.frameListAdd(mm.linux.active, frame, true)
	mm.linux.nrActive++
}

func linuxAddToInactive(mm *MM, frame *Frame) {
	mm.frameListAdd(mm.linux.inactive, frame, true)
	mm.linux.nrInactive++
}

func linuxDelFromInactive(mm *MM, frame *Frame) {
	mm.frameListRemove(frame)
	mm.linux.nrInactive--
}

func linuxActivatePage(mm *MM, frame *Frame) {
	if frame.Tail {
		linuxDelFromInactive(mm, frame)
		frame.Tail = false
		linuxAddToActive(mm, frame)
	}
}

// linuxMarkPageAccessed walks a page through Linux's reference-bit state
// machine:
//
//	inactive,unreferenced -> inactive,referenced
//	inactive,referenced   -> active,unreferenced
//	active,unreferenced   -> active,referenced
func linuxMarkPageAccessed(mm *MM, frame *Frame) {
	if frame.Tail && frame.Ref1 {
		linuxActivatePage(mm, frame)
		frame.Ref1 = false
	} else {
		frame.Ref1 = true
	}
}

type scanControl struct {
	nrScanned      uint64
	mayWritepage   bool
	swapClusterMax uint64
}

// linuxIsolateLRUPages moves up to nrToScan frames from the back (LRU
// end) of src onto dst, returning how many it actually moved.
func linuxIsolateLRUPages(mm *MM, nrToScan uint64, src, dst *list.List) uint64 {
	var scanned uint64
	for scanned < nrToScan && src.Len() > 0 {
		frame := frameFromElem(src.Back())
		mm.frameListAdd(dst, frame, true)
		scanned++
	}
	return scanned
}

// linuxShrinkPageList reclaims every frame in pageList that isn't dirty
// and referenced (or dirty with writeback disallowed), returning the
// ones it kept to pageList and the count of frames it freed.
func linuxShrinkPageList(mm *MM, pageList *list.List, sc *scanControl) uint64 {
	retained := list.New()
	var nrReclaimed uint64

	for pageList.Len() > 0 {
		frame := frameFromElem(pageList.Back())
		mm.frameListRemove(frame)

		sc.nrScanned++
		referenced := frame.Ref1
		frame.Ref1 = false

		if frame.Dirty && (referenced || !sc.mayWritepage) {
			mm.frameListAdd(retained, frame, true)
			continue
		}
		// Writeback always succeeds in this emulation (there's no real
		// secondary storage), so a dirty, unreferenced, writable frame
		// always proceeds to reclaim below.
		nrReclaimed++
		mm.steal(frame)
	}

	for retained.Len() > 0 {
		frame := frameFromElem(retained.Front())
		mm.frameListAdd(pageList, frame, false)
	}
	return nrReclaimed
}

func linuxShrinkInactive(maxScan uint64, mm *MM, sc *scanControl) uint64 {
	pageList := list.New()
	var nrScanned, nrReclaimed uint64

	for {
		nrTaken := linuxIsolateLRUPages(mm, sc.swapClusterMax, mm.linux.inactive, pageList)
		mm.linux.nrInactive -= nrTaken
		mm.linux.pagesScanned += nrTaken
		nrScanned += nrTaken
		nrReclaimed += linuxShrinkPageList(mm, pageList, sc)

		if nrTaken == 0 {
			break
		}
		for pageList.Len() > 0 {
			frame := frameFromElem(pageList.Back())
			mm.frameListRemove(frame)
			if !frame.Tail {
				linuxAddToActive(mm, frame)
			} else {
				linuxAddToInactive(mm, frame)
			}
		}
		if nrScanned >= maxScan {
			break
		}
	}
	return nrReclaimed
}

func linuxShrinkActive(nrPages uint64, mm *MM, sc *scanControl) {
	lHold := list.New()
	pgMoved := linuxIsolateLRUPages(mm, nrPages, mm.linux.active, lHold)
	mm.linux.pagesScanned += pgMoved
	mm.linux.nrActive -= pgMoved

	for lHold.Len() > 0 {
		frame := frameFromElem(lHold.Back())
		mm.frameListRemove(frame)
		frame.Tail = true
		linuxAddToInactive(mm, frame)
	}
}

func linuxShrinkZone(prio int, mm *MM, sc *scanControl) uint64 {
	// +1 makes sure the active list is slowly sifted through even when
	// it is much smaller than 1<<prio.
	mm.linux.nrScanActive += (mm.linux.nrActive >> uint(prio)) + 1
	nrActive := mm.linux.nrScanActive
	mm.linux.nrScanActive = 0

	mm.linux.nrScanInactive += (mm.linux.nrInactive >> uint(prio)) + 1
	nrInactive := mm.linux.nrScanInactive
	mm.linux.nrScanInactive = 0

	var nrReclaimed uint64
	for nrActive > 0 || nrInactive > 0 {
		if nrActive > 0 {
			nrToScan := minU64(nrActive, sc.swapClusterMax)
			nrActive -= nrToScan
			linuxShrinkActive(nrToScan, mm, sc)
		}
		if nrInactive > 0 {
			nrToScan := minU64(nrInactive, sc.swapClusterMax)
			nrInactive -= nrToScan
			nrReclaimed += linuxShrinkInactive(nrToScan, mm, sc)
		}
	}
	return nrReclaimed
}

func linuxShrinkZones(prio int, mm *MM, sc *scanControl) uint64 {
	mm.linux.tempPriority = prio
	if mm.linux.prevPriority > prio {
		mm.linux.prevPriority = prio
	}
	return linuxShrinkZone(prio, mm, sc)
}

func linuxTryToFreePages(mm *MM) {
	sc := scanControl{swapClusterMax: swapClusterMax}
	mm.linux.tempPriority = defPriority

	var totalScanned, nrReclaimed uint64
	for priority := defPriority; priority >= 0; priority-- {
		sc.nrScanned = 0
		nrReclaimed += linuxShrinkZones(priority, mm, &sc)
		totalScanned += sc.nrScanned
		if nrReclaimed >= sc.swapClusterMax {
			break
		}
		if totalScanned > sc.swapClusterMax+sc.swapClusterMax/2 {
			sc.mayWritepage = true
		}
	}
	mm.linux.prevPriority = mm.linux.tempPriority
}
