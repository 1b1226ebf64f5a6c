package simulator

// carcommon.go holds the T1/T2/B1/B2 queue bookkeeping shared by CAR and
// ARC (Bansal & Modha's CAR shares nearly all of its directory structure
// with Megiddo & Modha's ARC; only the replacement/adaptation rule
// differs between arc_alloc and car_alloc in the original).

func carQueueRead(state *carState, q CarQueue, tail bool) *VPage {
	if tail {
		return vpageFromElem(state.q[q].list.Back())
	}
	return vpageFromElem(state.q[q].list.Front())
}

// carMove relocates pg into queue target, updating both queues' resident
// counts and pg's own CarQueue tag. tail selects which end of the
// destination queue pg lands on, mirroring the original's list_move
// (tail=false, front) versus list_move_tail (tail=true, back).
func (mm *MM) carMove(state *carState, pg *VPage, target CarQueue, tail bool) {
	state.q[pg.carQueue].nr--
	state.q[target].nr++
	mm.vpageQueueAdd(state.q[target].list, pg, !tail)
	pg.carQueue = target
}
