// Package simulator implements the in-memory entity store (frames,
// virtual pages, file objects) and the eleven replacement policies that
// decide which resident page to evict when a free frame is needed.
package simulator

import (
	"container/list"
	"errors"
	"fmt"
)

// ErrIdentityMismatch is wrapped into the error BindPage returns when a
// page's object or index disagrees with how it was first bound.
var ErrIdentityMismatch = errors.New("page identity mismatch")

// CarQueue names the directory a page belongs to under CAR/ARC: the two
// resident lists T1/T2, the two ghost (ejected) lists B1/B2, or none.
type CarQueue int

const (
	QueueNone CarQueue = iota
	QueueT1
	QueueT2
	QueueB1
	QueueB2
	queueCount
)

// Frame is one slot of the emulated primary storage.
type Frame struct {
	No uint64

	Page *VPage

	// Referenced is set by the driver after every non-PUNCH access to the
	// page currently resident in this frame. FIFO2 is the only policy
	// that reads it.
	Referenced bool
	// Ref1 is a second, policy-private reference bit. Only LINUX uses it,
	// to track the inactive-list "referenced once" transition.
	Ref1 bool
	// Dirty marks that the page in this frame was written since pagein.
	Dirty bool
	// Tail marks frame membership in a policy's "tail" list: SFIFO's tail
	// segment, 2Q's A1in list, or LINUX's inactive list.
	Tail bool

	elem  *list.Element // this frame's node in owner, or nil if unlinked
	owner *list.List    // whichever frame list currently holds this frame
}

// VPage is a virtual page: one exists for every page of every object ever
// referenced in the trace.
type VPage struct {
	No     uint64
	Index  uint64
	Seen   bool
	Object *Object
	Frame  *Frame

	objElem *list.Element // membership in Object.Pages

	// queueElem is reserved for replacement-policy bookkeeping. 2Q uses it
	// for A1out membership; CAR and ARC use it for T1/T2/B1/B2 membership.
	// Exactly one policy runs per MM, so the field's meaning never
	// overlaps in practice.
	queueElem  *list.Element
	queueOwner *list.List
	carQueue   CarQueue
	carRef     bool

	// future holds, for OPT only, the ascending sequence of turn numbers
	// at which this page will be accessed again.
	future *list.List
}

// Object is a file-like container of pages.
type Object struct {
	No    uint64
	Pages *list.List // of *VPage, linked through VPage.objElem
}

func newFrame(no uint64) *Frame {
	return &Frame{No: no}
}

func newVPage(no uint64) *VPage {
	return &VPage{No: no}
}

func newObject(no uint64) *Object {
	return &Object{No: no, Pages: list.New()}
}

// addPage records pg as belonging to obj, the first time obj is seen to
// hold it.
func (obj *Object) addPage(pg *VPage) {
	pg.Object = obj
	pg.objElem = obj.Pages.PushFront(pg)
}

// BindPage binds pg to obj at index the first time pg is seen, and
// checks that every later sighting of pg agrees with that first binding.
func BindPage(pg *VPage, obj *Object, index uint64) error {
	if !pg.Seen {
		obj.addPage(pg)
		pg.Index = index
		pg.Seen = true
	}
	if pg.Object.No != obj.No {
		return fmt.Errorf("%w: page %#x bound to object %#x, saw %#x",
			ErrIdentityMismatch, pg.No, pg.Object.No, obj.No)
	}
	if pg.Index != index {
		return fmt.Errorf("%w: page %#x bound to index %#x, saw %#x",
			ErrIdentityMismatch, pg.No, pg.Index, index)
	}
	return nil
}

// frameInvariant mirrors replacement.c's frame_invariant: a frame's back
// pointer, if any, must point here.
func frameInvariant(frame *Frame) bool {
	return frame.Page == nil || frame.Page.Frame == frame
}

// vpageInvariant mirrors replacement.c's vpage_invariant.
func vpageInvariant(pg *VPage) bool {
	return pg.Frame == nil || pg.Frame.Page == pg
}
