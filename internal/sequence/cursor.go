// Package sequence holds the cursor that decides which image comes next.
package sequence

import (
	"errors"
	"fmt"
	"math/rand"
	"time"
)

var (
	// ErrExhausted signals that the loop budget is spent and no forward
	// wrap is permitted. The cursor stays on the last element.
	ErrExhausted = errors.New("sequence exhausted")

	// ErrNotFound is returned by Delete for a path the cursor never held.
	ErrNotFound = errors.New("path not in sequence")

	// ErrCatalogEmpty is returned by Delete when removing the path would
	// leave the sequence empty. The cursor is left untouched.
	ErrCatalogEmpty = errors.New("catalog empty")
)

// Mode selects the playback order.
type Mode int

const (
	Sequential Mode = iota
	Random
)

func (m Mode) String() string {
	if m == Random {
		return "random"
	}
	return "sequential"
}

// InsertPolicy governs where a newly discovered image lands relative
// to the current position.
type InsertPolicy int

const (
	// ShowNext splices the new path directly after the current element,
	// so the very next Advance shows it.
	ShowNext InsertPolicy = iota
	// Append makes the new path reachable in its eventual turn.
	Append
)

// Loop forever sentinel for the loops argument.
const LoopForever = -1

// Cursor owns the (possibly shuffled) working order of image paths and
// the current position within it. It is not safe for concurrent use;
// all calls must come from the single event-dispatch goroutine.
type Cursor struct {
	order  []string
	pos    int
	loops  int // additional forward wraps permitted, LoopForever for no limit
	mode   Mode
	policy InsertPolicy
	rng    *rand.Rand
}

// New builds a cursor over paths. Under Random the initial order is a
// uniform permutation of the input; the input slice is never mutated.
func New(paths []string, mode Mode, loops int, policy InsertPolicy) (*Cursor, error) {
	if len(paths) == 0 {
		return nil, errors.New("sequence: no paths")
	}
	if loops < LoopForever {
		return nil, fmt.Errorf("sequence: invalid loop count %d", loops)
	}

	order := make([]string, len(paths))
	copy(order, paths)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	if mode == Random {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	return &Cursor{
		order:  order,
		loops:  loops,
		mode:   mode,
		policy: policy,
		rng:    rng,
	}, nil
}

// Current returns the path at the cursor position.
func (c *Cursor) Current() string {
	return c.order[c.pos]
}

// Advance moves one step forward and returns the new current path.
// Running past the end wraps to the front and spends one unit of the
// loop budget; with the budget at zero it returns ErrExhausted and the
// position is left where it was.
func (c *Cursor) Advance() (string, error) {
	if c.pos+1 >= len(c.order) {
		if c.loops == 0 {
			return "", ErrExhausted
		}
		if c.loops > 0 {
			c.loops--
		}
		c.pos = 0
		return c.order[c.pos], nil
	}
	c.pos++
	return c.order[c.pos], nil
}

// Retreat moves one step backward, wrapping from the front to the end.
// Backward wraps never spend the loop budget.
func (c *Cursor) Retreat() string {
	c.pos--
	if c.pos < 0 {
		c.pos = len(c.order) - 1
	}
	return c.order[c.pos]
}

// First jumps to the start of the order.
func (c *Cursor) First() string {
	c.pos = 0
	return c.order[c.pos]
}

// Last jumps to the end of the order.
func (c *Cursor) Last() string {
	c.pos = len(c.order) - 1
	return c.order[c.pos]
}

// Insert adds a newly discovered path to the working order. The element
// at the current position is the same before and after the call.
//
// Under ShowNext the path is spliced directly after the current element
// in either mode; that is the only slot that both preserves the
// displayed image and makes the next Advance land on the new path.
// Under Append the path goes to the end in sequential mode, or to a
// uniformly random slot strictly after the current position in random
// mode so it cannot land among already-shown elements.
func (c *Cursor) Insert(path string) {
	var at int
	switch {
	case c.policy == ShowNext:
		at = c.pos + 1
	case c.mode == Random:
		// random index in (pos, len]
		at = c.pos + 1 + c.rng.Intn(len(c.order)-c.pos)
	default:
		at = len(c.order)
	}

	c.order = append(c.order, "")
	copy(c.order[at+1:], c.order[at:])
	c.order[at] = path
}

// Delete removes path from the working order. removedCurrent reports
// whether the displayed element went stale and must be re-rendered.
// Deleting a path the cursor does not hold returns ErrNotFound;
// deleting the last remaining path returns ErrCatalogEmpty without
// mutating the cursor.
func (c *Cursor) Delete(path string) (removedCurrent bool, err error) {
	idx := c.index(path)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if len(c.order) == 1 {
		return false, ErrCatalogEmpty
	}

	c.order = append(c.order[:idx], c.order[idx+1:]...)
	switch {
	case idx < c.pos:
		c.pos--
	case idx == c.pos:
		if c.pos >= len(c.order) {
			c.pos = len(c.order) - 1
		}
		removedCurrent = true
	}
	return removedCurrent, nil
}

// Seek repositions the cursor on an exact path, reporting whether it
// was found. Used to resume a previous session.
func (c *Cursor) Seek(path string) bool {
	idx := c.index(path)
	if idx < 0 {
		return false
	}
	c.pos = idx
	return true
}

// Contains reports whether path is in the working order.
func (c *Cursor) Contains(path string) bool {
	return c.index(path) >= 0
}

// Len returns the number of paths in the working order.
func (c *Cursor) Len() int {
	return len(c.order)
}

// LoopsRemaining returns the remaining loop budget, LoopForever for
// unbounded playback.
func (c *Cursor) LoopsRemaining() int {
	return c.loops
}

// Paths returns a copy of the working order.
func (c *Cursor) Paths() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Cursor) index(path string) int {
	for i, p := range c.order {
		if p == path {
			return i
		}
	}
	return -1
}
