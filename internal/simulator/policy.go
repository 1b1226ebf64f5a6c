package simulator

import "fmt"

// Policy decides, for the selected replacement algorithm, which resident
// page to evict when a miss needs a free frame. It mirrors replacement.c's
// struct repalg function-pointer table, with one implementing type per
// algorithm instead of one struct literal per algorithm.
type Policy interface {
	// Init prepares algorithm-private state. Called once, after the
	// entity store is built and before the first access is processed.
	Init(mm *MM) error
	// Finalize releases whatever Init acquired. Called once, after the
	// last access has been processed.
	Finalize(mm *MM)

	Read(mm *MM, pg *VPage)
	ReadAhead(mm *MM, pg *VPage)
	Write(mm *MM, pg *VPage)
	Fault(mm *MM, pg *VPage)
	Punch(mm *MM, pg *VPage)
}

// allocFunc installs pg into a frame, evicting a victim first if
// necessary. Every policy's allocation logic has this shape; genericRead
// and genericWrite wrap it with the page-in/no-op bookkeeping that every
// policy except OPT shares.
type allocFunc func(mm *MM, pg *VPage)

func genericRead(mm *MM, pg *VPage, alloc allocFunc) {
	alloc(mm, pg)
	mm.pagein(pg)
}

func genericWrite(mm *MM, pg *VPage, alloc allocFunc) {
	alloc(mm, pg)
}

func genericPunch(mm *MM, pg *VPage) {
	if pg.Frame != nil {
		mm.freeFrame(pg.Frame)
	}
}

// Names lists every policy recognized by ByName, in the order the
// original tool listed them in its usage message.
var Names = []string{
	"random", "lru", "fifo", "fifo2", "sfifo", "2q",
	"car", "arc", "linux", "worst", "opt",
}

// ByName constructs the named policy. An unrecognized name is a
// configuration error.
func ByName(name string) (Policy, error) {
	switch name {
	case "random":
		return &RandomPolicy{}, nil
	case "lru":
		return &LRUPolicy{}, nil
	case "fifo":
		return &FIFOPolicy{}, nil
	case "fifo2":
		return &FIFO2Policy{}, nil
	case "sfifo":
		return &SFIFOPolicy{}, nil
	case "2q":
		return &TwoQPolicy{}, nil
	case "car":
		return &CARPolicy{}, nil
	case "arc":
		return &ARCPolicy{}, nil
	case "linux":
		return &LinuxPolicy{}, nil
	case "worst":
		return &WorstPolicy{}, nil
	case "opt":
		return &OPTPolicy{}, nil
	default:
		return nil, fmt.Errorf("configuration: unknown algorithm %q", name)
	}
}
