// Package slideshow binds timer ticks, key commands and catalog events
// to the sequence cursor and forwards the chosen image to the renderer.
package slideshow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"goslide/internal/sequence"
	"goslide/internal/watch"
)

// Command is a discrete navigation request, usually mapped from a key.
type Command int

const (
	Next Command = iota
	Previous
	First
	Last
	TogglePause
	Quit
)

// Renderer displays one image. Display failures are treated as
// per-image decode errors: logged and skipped.
type Renderer interface {
	Display(path string) error
}

// ErrNoDisplayable means every remaining image failed to render; the
// session cannot continue.
var ErrNoDisplayable = errors.New("no displayable images left")

// errSessionDone ends the Run loop without reporting a failure.
var errSessionDone = errors.New("session done")

// Options tunes a Controller.
type Options struct {
	Interval  time.Duration
	HoldOnEnd bool              // keep the last image up once the loop budget is spent
	OnRender  func(path string) // called after every successful render
	Commands  chan Command      // shared with the key source; created when nil
	Logger    *logrus.Logger
}

// Controller is the single-threaded dispatch core. All cursor access
// happens on the goroutine running Run; external producers only ever
// touch the channels.
type Controller struct {
	cursor    *sequence.Cursor
	renderer  Renderer
	events    <-chan watch.Event
	commands  chan Command
	interval  time.Duration
	holdOnEnd bool
	onRender  func(string)
	logger    *logrus.Logger

	paused    bool
	exhausted bool
}

// New builds a controller. events may be nil when directory watching is
// disabled.
func New(cursor *sequence.Cursor, renderer Renderer, events <-chan watch.Event, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 6 * time.Second
	}
	commands := opts.Commands
	if commands == nil {
		commands = make(chan Command, 8)
	}
	return &Controller{
		cursor:    cursor,
		renderer:  renderer,
		events:    events,
		commands:  commands,
		interval:  interval,
		holdOnEnd: opts.HoldOnEnd,
		onRender:  opts.OnRender,
		logger:    logger,
	}
}

// Commands returns the channel the key source feeds.
func (c *Controller) Commands() chan<- Command {
	return c.commands
}

// Run displays the current image and then dispatches events until the
// context is cancelled or the session ends. It returns nil on a normal
// end (quit, exhaustion without hold, cancellation) and an error only
// when the session cannot continue.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.show(c.cursor.Current()); err != nil {
		return c.finish(err)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.handleTick(); err != nil {
				return c.finish(err)
			}
		case cmd := <-c.commands:
			if cmd == Quit {
				return nil
			}
			if err := c.handleCommand(cmd); err != nil {
				return c.finish(err)
			}
			// A manually navigated image gets its full interval.
			ticker.Reset(c.interval)
		case ev, ok := <-c.events:
			if !ok {
				c.events = nil
				continue
			}
			if err := c.handleEvent(ev); err != nil {
				return c.finish(err)
			}
		}
	}
}

func (c *Controller) finish(err error) error {
	if errors.Is(err, errSessionDone) {
		return nil
	}
	return err
}

// handleTick advances on the display timer.
func (c *Controller) handleTick() error {
	if c.paused || c.exhausted {
		return nil
	}
	path, err := c.cursor.Advance()
	if errors.Is(err, sequence.ErrExhausted) {
		return c.exhaust()
	}
	return c.show(path)
}

// handleCommand dispatches one manual navigation request.
func (c *Controller) handleCommand(cmd Command) error {
	switch cmd {
	case Next:
		path, err := c.cursor.Advance()
		if errors.Is(err, sequence.ErrExhausted) {
			return c.exhaust()
		}
		return c.show(path)
	case Previous:
		// Moving backward never spends the loop budget, and leaving the
		// last element means Advance may succeed again.
		c.exhausted = false
		return c.show(c.cursor.Retreat())
	case First:
		c.exhausted = false
		return c.show(c.cursor.First())
	case Last:
		return c.show(c.cursor.Last())
	case TogglePause:
		c.paused = !c.paused
		c.logger.WithField("paused", c.paused).Info("slideshow pause toggled")
		return nil
	default:
		c.logger.WithField("command", int(cmd)).Warn("unknown command")
		return nil
	}
}

// handleEvent applies one directory change to the cursor.
func (c *Controller) handleEvent(ev watch.Event) error {
	switch ev.Type {
	case watch.Created:
		if c.cursor.Contains(ev.Path) {
			return nil
		}
		c.cursor.Insert(ev.Path)
		// The previous end of the order is no longer the end.
		c.exhausted = false
		c.logger.WithField("path", ev.Path).Info("image added to sequence")
		return nil
	case watch.Removed:
		removedCurrent, err := c.cursor.Delete(ev.Path)
		switch {
		case errors.Is(err, sequence.ErrNotFound):
			// The watcher can report files the catalog never held.
			c.logger.WithField("path", ev.Path).Debug("removal for uncataloged path ignored")
			return nil
		case errors.Is(err, sequence.ErrCatalogEmpty):
			c.logger.Warn("last image removed, ending session")
			return errSessionDone
		case err != nil:
			return err
		}
		c.logger.WithField("path", ev.Path).Info("image removed from sequence")
		if removedCurrent {
			return c.show(c.cursor.Current())
		}
		return nil
	default:
		return nil
	}
}

// exhaust applies the end-of-loop policy.
func (c *Controller) exhaust() error {
	c.exhausted = true
	if c.holdOnEnd {
		c.logger.Info("loop budget spent, holding last image")
		return nil
	}
	c.logger.Info("loop budget spent, ending session")
	return errSessionDone
}

// show renders path, skipping over images that fail to decode. When
// every image in the sequence fails the session is over.
func (c *Controller) show(path string) error {
	for attempts := c.cursor.Len(); attempts > 0; attempts-- {
		err := c.renderer.Display(path)
		if err == nil {
			if c.onRender != nil {
				c.onRender(path)
			}
			return nil
		}
		c.logger.WithField("path", path).WithError(err).Warn("skipping undisplayable image")

		path, err = c.cursor.Advance()
		if errors.Is(err, sequence.ErrExhausted) {
			return c.exhaust()
		}
	}
	return fmt.Errorf("%w (tried all %d)", ErrNoDisplayable, c.cursor.Len())
}

// IsPaused reports the pause state. Only meaningful from the dispatch
// goroutine; exposed for the status surface and tests.
func (c *Controller) IsPaused() bool {
	return c.paused
}
