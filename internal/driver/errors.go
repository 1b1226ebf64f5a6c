// Package driver runs a parsed trace through a simulator.MM, classifying
// every access as a hit or a miss and reporting the end-of-run totals.
package driver

import "errors"

// Error kinds the driver's run loop can fail with, per spec.md §7. Each
// wraps more specific context via fmt.Errorf's %w; callers use errors.Is
// against these to classify a failure. cmd/fsreplay does not classify
// them: it prints every error as is and exits with status 1, as the
// original tool did for all of them.
var (
	// ErrOutOfRange reports a page or object number outside the
	// configured universe.
	ErrOutOfRange = errors.New("identifier out of range")
	// ErrIdentityContradiction reports a page whose object or index
	// disagrees with how it was first bound.
	ErrIdentityContradiction = errors.New("identity contradiction")
	// ErrUnknownAccessType reports a trace access of a type the parser
	// accepted but the driver doesn't know how to dispatch — this should
	// be unreachable given trace.Type.valid, and exists only to mirror
	// the original's defensive default case.
	ErrUnknownAccessType = errors.New("unknown access type")
	// ErrFrameNotInstalled reports a policy whose handler returned
	// without leaving the access's page resident, violating the one
	// invariant every Policy method must uphold.
	ErrFrameNotInstalled = errors.New("frame wasn't installed")
)
