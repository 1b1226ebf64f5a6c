package trace

import (
	"bufio"
	"container/list"
	"io"
	"strconv"
	"strings"
)

// Reader parses an access trace line by line and buffers accesses that
// have been looked ahead at but not yet consumed, so Next and Peek agree
// on a single consumption order regardless of how far Peek has looked.
type Reader struct {
	scanner *bufio.Scanner
	future  *list.List // buffered, not-yet-consumed *Access, oldest at Front
}

// NewReader wraps r as a trace source.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		scanner: bufio.NewScanner(r),
		future:  list.New(),
	}
}

// Next returns the next access in consumption order, draining the
// look-ahead buffer first. It returns io.EOF once the underlying stream
// is exhausted.
func (r *Reader) Next() (Access, error) {
	if front := r.future.Front(); front != nil {
		r.future.Remove(front)
		return front.Value.(Access), nil
	}
	return r.readLine()
}

// Cursor identifies a position within the look-ahead buffer, as returned
// by Peek. A nil Cursor means "before the next access to be consumed".
type Cursor = *list.Element

// Peek advances cursor by one access without consuming it, reading ahead
// from the underlying stream and buffering the result if necessary. Pass
// a nil cursor to peek at the very next access that Next would return.
func (r *Reader) Peek(cursor Cursor) (Access, Cursor, error) {
	var next *list.Element
	if cursor == nil {
		next = r.future.Front()
	} else {
		next = cursor.Next()
	}
	if next == nil {
		access, err := r.readLine()
		if err != nil {
			return Access{}, nil, err
		}
		next = r.future.PushBack(access)
	}
	return next.Value.(Access), next, nil
}

func (r *Reader) readLine() (Access, error) {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line == "" {
			continue
		}
		access, err := parseLine(line)
		if err != nil {
			return Access{}, err
		}
		return access, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Access{}, err
	}
	return Access{}, io.EOF
}

func parseLine(line string) (Access, error) {
	fields := strings.Fields(line)
	if len(fields) != 4 || len(fields[3]) != 1 {
		return Access{}, &ParseError{Line: line}
	}

	page, err := strconv.ParseUint(fields[0], 16, 64)
	if err != nil {
		return Access{}, &ParseError{Line: line}
	}
	object, err := strconv.ParseUint(fields[1], 16, 64)
	if err != nil {
		return Access{}, &ParseError{Line: line}
	}
	index, err := strconv.ParseUint(fields[2], 16, 64)
	if err != nil {
		return Access{}, &ParseError{Line: line}
	}
	typ := Type(fields[3][0])
	if !typ.valid() {
		return Access{}, &ParseError{Line: line}
	}
	return Access{Page: page, Object: object, Index: index, Type: typ}, nil
}
