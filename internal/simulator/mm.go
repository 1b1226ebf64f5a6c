package simulator

import (
	"container/list"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/nikitadanilov/fs-repalg/internal/trace"
)

// VerboseFlags is a bitmask controlling which diagnostics MM emits.
type VerboseFlags uint8

const (
	VerboseTrace VerboseFlags = 1 << iota
	VerboseTable
	VerboseLog
	VerboseProgress
)

// Params configures a run: the size of primary storage, the size of the
// virtual page and object universes, and per-policy tunables.
type Params struct {
	NrFrames  uint64
	NrVPages  uint64
	NrObjects uint64

	// SFIFOTailPercent is the percentage of frames kept in SFIFO's tail
	// (LRU-like) segment; 100 degenerates to LRU, 0 to FIFO.
	SFIFOTailPercent uint16
	// TwoQKin and TwoQKout are 2Q's A1in/A1out size targets, as
	// percentages of NrFrames.
	TwoQKin  uint16
	TwoQKout uint16

	Verbose VerboseFlags
	Logger  *log.Logger
	Rand    *rand.Rand
}

// MM is the emulated memory subsystem: the entity store plus whatever
// bookkeeping the selected Policy needs.
type MM struct {
	params Params

	NrFrames  uint64
	NrVPages  uint64
	NrObjects uint64
	NrFree    uint64

	Frames  []*Frame
	VPages  []*VPage
	Objects []*Object

	freeList *list.List

	lru   *list.List
	fifo  *list.List
	fifo2 *list.List

	sfifo struct {
		head, tail *list.List
		tailNr     uint64
	}

	q2 struct {
		am, a1in, a1out         *list.List
		amNr, a1inNr, a1outNr   uint64
	}

	car carState
	arc carState

	linux linuxState

	Hits, Misses, Total uint64

	policy  Policy
	verbose VerboseFlags
	logger  *log.Logger
	rng     *rand.Rand

	// trace backs WORST's one-access look-ahead and OPT's whole-trace
	// pre-scan. Nil until the driver calls AttachTrace.
	trace *trace.Reader
}

type carQueueState struct {
	list *list.List
	nr   uint64
}

type carState struct {
	q [queueCount]carQueueState
	p uint64
}

type linuxState struct {
	active, inactive             *list.List
	nrActive, nrInactive         uint64
	refillCounter, pagesScanned  uint64
	nrScanActive, nrScanInactive uint64
	tempPriority, prevPriority   int
}

// New builds a fresh MM with alg as the policy driving every subsequent
// allocation decision. It does not run alg's Init; call MM.Init before
// the first access.
func New(params Params, alg Policy) (*MM, error) {
	if params.NrFrames == 0 {
		return nil, fmt.Errorf("configuration: nr_frames must be > 0")
	}
	if params.NrVPages == 0 {
		return nil, fmt.Errorf("configuration: nr_vpages must be > 0")
	}
	if params.NrObjects == 0 {
		return nil, fmt.Errorf("configuration: nr_objects must be > 0")
	}

	mm := &MM{
		params:    params,
		NrFrames:  params.NrFrames,
		NrVPages:  params.NrVPages,
		NrObjects: params.NrObjects,
		NrFree:    params.NrFrames,
		Frames:    make([]*Frame, params.NrFrames),
		VPages:    make([]*VPage, params.NrVPages),
		Objects:   make([]*Object, params.NrObjects),
		freeList:  list.New(),
		lru:       list.New(),
		fifo:      list.New(),
		fifo2:     list.New(),
		policy:    alg,
		verbose:   params.Verbose,
		logger:    params.Logger,
		rng:       params.Rand,
	}
	mm.sfifo.head = list.New()
	mm.sfifo.tail = list.New()
	mm.q2.am = list.New()
	mm.q2.a1in = list.New()
	mm.q2.a1out = list.New()
	for i := range mm.car.q {
		mm.car.q[i].list = list.New()
	}
	for i := range mm.arc.q {
		mm.arc.q[i].list = list.New()
	}
	mm.car.q[QueueNone].nr = params.NrVPages
	mm.arc.q[QueueNone].nr = params.NrVPages
	mm.linux.active = list.New()
	mm.linux.inactive = list.New()

	for i := range mm.Frames {
		frame := newFrame(uint64(i))
		mm.Frames[i] = frame
		mm.frameListAdd(mm.freeList, frame, false)
	}
	for i := range mm.VPages {
		mm.VPages[i] = newVPage(uint64(i))
	}
	for i := range mm.Objects {
		mm.Objects[i] = newObject(uint64(i))
	}

	if mm.rng == nil {
		mm.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return mm, nil
}

// AttachTrace gives the policy access to the trace reader's look-ahead
// facility (Reader.Peek), which WORST and OPT need and every other policy
// ignores. Call this before Init so OPT's Init can pre-scan the whole
// trace without disturbing the order Reader.Next will later hand
// accesses to the driver in.
func (mm *MM) AttachTrace(r *trace.Reader) {
	mm.trace = r
}

// Init prepares the policy's private state. Callers must invoke this
// exactly once, after any AttachTrace call and before the first access is
// dispatched.
func (mm *MM) Init() error {
	if err := mm.policy.Init(mm); err != nil {
		return fmt.Errorf("policy init: %w", err)
	}
	return nil
}

// Finalize releases whatever the policy holds onto. Safe to call once,
// at the end of a run.
func (mm *MM) Finalize() {
	mm.policy.Finalize(mm)
}

// Verbose reports the verbosity bitmask this MM was configured with, for
// callers (the driver) that need to gate their own diagnostics on bits
// this package doesn't consume itself (VerboseLog, VerboseProgress).
func (mm *MM) Verbose() VerboseFlags { return mm.verbose }

// Logger returns the logger this MM was configured with, or nil.
func (mm *MM) Logger() *log.Logger { return mm.logger }

// Read, ReadAhead, Write, Fault and Punch dispatch to the policy
// installed at New, mirroring replacement.c's
// mm.m_alg->r_read(&mm, pg)-style function-pointer calls.
func (mm *MM) Read(pg *VPage)      { mm.policy.Read(mm, pg) }
func (mm *MM) ReadAhead(pg *VPage) { mm.policy.ReadAhead(mm, pg) }
func (mm *MM) Write(pg *VPage)     { mm.policy.Write(mm, pg) }
func (mm *MM) Fault(pg *VPage)     { mm.policy.Fault(mm, pg) }
func (mm *MM) Punch(pg *VPage)     { mm.policy.Punch(mm, pg) }

func (mm *MM) tracef(format string, args ...interface{}) {
	if mm.verbose&VerboseTrace != 0 && mm.logger != nil {
		mm.logger.Printf(format, args...)
	}
}

// tablef is tracef's counterpart for VerboseTable: OPT's per-page table of
// future turns at Init, and every frame's next-use turn on each eviction
// decision.
func (mm *MM) tablef(format string, args ...interface{}) {
	if mm.verbose&VerboseTable != 0 && mm.logger != nil {
		mm.logger.Printf(format, args...)
	}
}

// frameFromElem extracts the *Frame a list.Element was constructed from.
func frameFromElem(e *list.Element) *Frame { return e.Value.(*Frame) }

func vpageFromElem(e *list.Element) *VPage { return e.Value.(*VPage) }

// frameListAdd unlinks frame from whatever list currently holds it, if
// any, and links it into l, at the front or back as requested. Every
// policy's frame-list bookkeeping goes through this so a frame is never
// a member of two lists at once — container/list, unlike the original's
// intrusive list_head, cannot move a node between lists by itself.
func (mm *MM) frameListAdd(l *list.List, frame *Frame, front bool) {
	mm.frameListRemove(frame)
	if front {
		frame.elem = l.PushFront(frame)
	} else {
		frame.elem = l.PushBack(frame)
	}
	frame.owner = l
}

// frameListRemove unlinks frame from its current list, if linked.
func (mm *MM) frameListRemove(frame *Frame) {
	if frame.owner != nil {
		frame.owner.Remove(frame.elem)
		frame.owner = nil
		frame.elem = nil
	}
}

func (mm *MM) frameListMoveToFront(frame *Frame) {
	frame.owner.MoveToFront(frame.elem)
}

// vpageQueueAdd is frameListAdd's counterpart for VPage.queueElem, used
// by 2Q's A1out ghost list and by CAR/ARC's T1/T2/B1/B2 queues.
func (mm *MM) vpageQueueAdd(l *list.List, pg *VPage, front bool) {
	mm.vpageQueueRemove(pg)
	if front {
		pg.queueElem = l.PushFront(pg)
	} else {
		pg.queueElem = l.PushBack(pg)
	}
	pg.queueOwner = l
}

func (mm *MM) vpageQueueRemove(pg *VPage) {
	if pg.queueOwner != nil {
		pg.queueOwner.Remove(pg.queueElem)
		pg.queueOwner = nil
		pg.queueElem = nil
	}
}

// allocFreeFrame removes and returns a frame from the free list. It must
// not be called when NrFree == 0.
func (mm *MM) allocFreeFrame() *Frame {
	if mm.NrFree == 0 {
		panic("simulator: allocFreeFrame called with no free frames")
	}
	frame := frameFromElem(mm.freeList.Front())
	mm.frameListRemove(frame)
	mm.NrFree--
	return frame
}

// releaseFrame returns an empty frame to the free list.
func (mm *MM) releaseFrame(frame *Frame) {
	if frame.Page != nil {
		panic("simulator: releaseFrame called on an occupied frame")
	}
	frame.Referenced = false
	frame.Ref1 = false
	frame.Dirty = false
	frame.Tail = false
	mm.frameListAdd(mm.freeList, frame, false)
	mm.NrFree++
}

// place binds pg to frame. Both must currently be unbound.
func (mm *MM) place(pg *VPage, frame *Frame) {
	if pg.Frame != nil || frame.Page != nil {
		panic("simulator: place called on an already-bound frame or page")
	}
	pg.Frame = frame
	frame.Page = pg
	mm.tracef("P   %08x", pg.No)
}

// pagein is called once a page's frame has been installed by a read-type
// access, purely for tracing purposes.
func (mm *MM) pagein(pg *VPage) {
	if pg.Frame == nil {
		panic("simulator: pagein called on a non-resident page")
	}
	mm.tracef("I   %08x", pg.No)
}

// pageout clears the dirty bit of frame's page, as if it had been written
// back to secondary storage.
func (mm *MM) pageout(frame *Frame) {
	if frame.Page == nil {
		panic("simulator: pageout called on a free frame")
	}
	mm.tracef("O   %08x", frame.Page.No)
	frame.Dirty = false
}

// freeFrame unbinds frame from its page and returns it to the free list.
func (mm *MM) freeFrame(frame *Frame) {
	pg := frame.Page
	if pg == nil {
		panic("simulator: freeFrame called on a free frame")
	}
	mm.tracef("F   %08x", pg.No)
	pg.Frame = nil
	frame.Page = nil
	mm.releaseFrame(frame)
}

// steal evicts whatever page currently occupies frame, writing it back
// first if dirty. No-op if frame is already free.
func (mm *MM) steal(frame *Frame) {
	if frame.Page == nil {
		return
	}
	if frame.Dirty {
		mm.pageout(frame)
	}
	mm.freeFrame(frame)
}
