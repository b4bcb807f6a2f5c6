package slideshow

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goslide/internal/sequence"
	"goslide/internal/watch"
)

// fakeRenderer records every Display call and can be told to fail for
// specific paths.
type fakeRenderer struct {
	shown   []string
	failing map[string]bool
}

func (r *fakeRenderer) Display(path string) error {
	if r.failing[path] {
		return fmt.Errorf("decode failed for %s", path)
	}
	r.shown = append(r.shown, path)
	return nil
}

func (r *fakeRenderer) last() string {
	if len(r.shown) == 0 {
		return ""
	}
	return r.shown[len(r.shown)-1]
}

func newTestController(t *testing.T, paths []string, loops int, policy sequence.InsertPolicy, hold bool) (*Controller, *fakeRenderer) {
	t.Helper()
	cursor, err := sequence.New(paths, sequence.Sequential, loops, policy)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	renderer := &fakeRenderer{failing: map[string]bool{}}
	ctrl := New(cursor, renderer, nil, Options{
		Interval:  time.Minute,
		HoldOnEnd: hold,
		Logger:    logger,
	})
	return ctrl, renderer
}

func TestHandleCommandNavigation(t *testing.T) {
	ctrl, renderer := newTestController(t, []string{"a", "b", "c"}, sequence.LoopForever, sequence.ShowNext, false)

	require.NoError(t, ctrl.handleCommand(Next))
	assert.Equal(t, "b", renderer.last())

	require.NoError(t, ctrl.handleCommand(Previous))
	assert.Equal(t, "a", renderer.last())

	require.NoError(t, ctrl.handleCommand(Last))
	assert.Equal(t, "c", renderer.last())

	require.NoError(t, ctrl.handleCommand(First))
	assert.Equal(t, "a", renderer.last())
}

func TestHandleCommandTogglePause(t *testing.T) {
	ctrl, renderer := newTestController(t, []string{"a", "b"}, sequence.LoopForever, sequence.ShowNext, false)

	require.NoError(t, ctrl.handleCommand(TogglePause))
	assert.True(t, ctrl.IsPaused())

	// paused ticks do not advance
	require.NoError(t, ctrl.handleTick())
	assert.Empty(t, renderer.shown)

	require.NoError(t, ctrl.handleCommand(TogglePause))
	assert.False(t, ctrl.IsPaused())

	require.NoError(t, ctrl.handleTick())
	assert.Equal(t, "b", renderer.last())
}

func TestTickAdvances(t *testing.T) {
	ctrl, renderer := newTestController(t, []string{"a", "b", "c"}, sequence.LoopForever, sequence.ShowNext, false)

	require.NoError(t, ctrl.handleTick())
	require.NoError(t, ctrl.handleTick())
	require.NoError(t, ctrl.handleTick())
	assert.Equal(t, []string{"b", "c", "a"}, renderer.shown)
}

func TestTickExhaustionEndsSession(t *testing.T) {
	ctrl, _ := newTestController(t, []string{"a", "b"}, 0, sequence.ShowNext, false)

	require.NoError(t, ctrl.handleTick()) // b
	err := ctrl.handleTick()
	assert.ErrorIs(t, err, errSessionDone)
}

func TestTickExhaustionHoldsLastImage(t *testing.T) {
	ctrl, renderer := newTestController(t, []string{"a", "b"}, 0, sequence.ShowNext, true)

	require.NoError(t, ctrl.handleTick()) // b
	require.NoError(t, ctrl.handleTick()) // exhausted, holding
	assert.Equal(t, "b", renderer.last())

	// further ticks are quiet holds, manual navigation still works
	require.NoError(t, ctrl.handleTick())
	assert.Equal(t, []string{"b"}, renderer.shown)

	require.NoError(t, ctrl.handleCommand(Previous))
	assert.Equal(t, "a", renderer.last())
	require.NoError(t, ctrl.handleCommand(Next))
	assert.Equal(t, "b", renderer.last())
}

func TestShowSkipsUndisplayableImages(t *testing.T) {
	ctrl, renderer := newTestController(t, []string{"a", "b", "c"}, sequence.LoopForever, sequence.ShowNext, false)
	renderer.failing["b"] = true

	require.NoError(t, ctrl.handleTick())
	assert.Equal(t, "c", renderer.last(), "decode failure skips to the next image")
}

func TestShowGivesUpWhenEverythingFails(t *testing.T) {
	ctrl, renderer := newTestController(t, []string{"a", "b"}, sequence.LoopForever, sequence.ShowNext, false)
	renderer.failing["a"] = true
	renderer.failing["b"] = true

	err := ctrl.show("a")
	assert.ErrorIs(t, err, ErrNoDisplayable)
}

func TestEventCreatedShowNext(t *testing.T) {
	ctrl, renderer := newTestController(t, []string{"a", "b"}, sequence.LoopForever, sequence.ShowNext, false)

	require.NoError(t, ctrl.handleEvent(watch.Event{Type: watch.Created, Path: "new"}))
	assert.Empty(t, renderer.shown, "insertion does not re-render")

	require.NoError(t, ctrl.handleTick())
	assert.Equal(t, "new", renderer.last())
}

func TestEventCreatedDuplicateIgnored(t *testing.T) {
	ctrl, _ := newTestController(t, []string{"a", "b"}, sequence.LoopForever, sequence.Append, false)

	require.NoError(t, ctrl.handleEvent(watch.Event{Type: watch.Created, Path: "a"}))
	require.NoError(t, ctrl.handleEvent(watch.Event{Type: watch.Created, Path: "new"}))
	require.NoError(t, ctrl.handleEvent(watch.Event{Type: watch.Created, Path: "new"}))
	assert.Equal(t, 3, ctrl.cursor.Len())
}

func TestEventCreatedClearsExhaustion(t *testing.T) {
	ctrl, renderer := newTestController(t, []string{"a", "b"}, 0, sequence.ShowNext, true)

	require.NoError(t, ctrl.handleTick()) // b
	require.NoError(t, ctrl.handleTick()) // exhausted

	require.NoError(t, ctrl.handleEvent(watch.Event{Type: watch.Created, Path: "new"}))
	require.NoError(t, ctrl.handleTick())
	assert.Equal(t, "new", renderer.last())
}

func TestEventRemovedCurrentRerenders(t *testing.T) {
	ctrl, renderer := newTestController(t, []string{"a", "b", "c"}, sequence.LoopForever, sequence.ShowNext, false)

	require.NoError(t, ctrl.handleEvent(watch.Event{Type: watch.Removed, Path: "a"}))
	assert.Equal(t, "b", renderer.last(), "removing the displayed image re-renders")
}

func TestEventRemovedOtherNoRender(t *testing.T) {
	ctrl, renderer := newTestController(t, []string{"a", "b", "c"}, sequence.LoopForever, sequence.ShowNext, false)

	require.NoError(t, ctrl.handleEvent(watch.Event{Type: watch.Removed, Path: "c"}))
	assert.Empty(t, renderer.shown)
	assert.Equal(t, 2, ctrl.cursor.Len())
}

func TestEventRemovedUnknownIgnored(t *testing.T) {
	ctrl, _ := newTestController(t, []string{"a", "b"}, sequence.LoopForever, sequence.ShowNext, false)
	require.NoError(t, ctrl.handleEvent(watch.Event{Type: watch.Removed, Path: "nope"}))
}

func TestEventRemovedLastImageEndsSession(t *testing.T) {
	ctrl, _ := newTestController(t, []string{"a"}, sequence.LoopForever, sequence.ShowNext, false)
	err := ctrl.handleEvent(watch.Event{Type: watch.Removed, Path: "a"})
	assert.ErrorIs(t, err, errSessionDone)
}

func TestOnRenderHook(t *testing.T) {
	cursor, err := sequence.New([]string{"a", "b"}, sequence.Sequential, sequence.LoopForever, sequence.ShowNext)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	var recorded []string
	renderer := &fakeRenderer{failing: map[string]bool{}}
	ctrl := New(cursor, renderer, nil, Options{
		Interval: time.Minute,
		OnRender: func(path string) { recorded = append(recorded, path) },
		Logger:   logger,
	})

	require.NoError(t, ctrl.handleTick())
	assert.Equal(t, []string{"b"}, recorded)
}

func TestRunQuitCommand(t *testing.T) {
	ctrl, renderer := newTestController(t, []string{"a", "b"}, sequence.LoopForever, sequence.ShowNext, false)

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(context.Background()) }()

	ctrl.Commands() <- Next
	ctrl.Commands() <- Quit

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Quit")
	}
	assert.Equal(t, []string{"a", "b"}, renderer.shown)
}

func TestRunContextCancel(t *testing.T) {
	ctrl, _ := newTestController(t, []string{"a"}, sequence.LoopForever, sequence.ShowNext, false)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunTickerExhaustion(t *testing.T) {
	cursor, err := sequence.New([]string{"a", "b"}, sequence.Sequential, 0, sequence.ShowNext)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	renderer := &fakeRenderer{failing: map[string]bool{}}
	ctrl := New(cursor, renderer, nil, Options{
		Interval: 5 * time.Millisecond,
		Logger:   logger,
	})

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err, "exhaustion is a normal session end")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not end after the loop budget was spent")
	}
	assert.Equal(t, []string{"a", "b"}, renderer.shown)
}

func TestRunWatchChannelClose(t *testing.T) {
	cursor, err := sequence.New([]string{"a"}, sequence.Sequential, sequence.LoopForever, sequence.ShowNext)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	events := make(chan watch.Event)
	renderer := &fakeRenderer{failing: map[string]bool{}}
	ctrl := New(cursor, renderer, events, Options{
		Interval: time.Minute,
		Logger:   logger,
	})

	done := make(chan error, 1)
	go func() { done <- ctrl.Run(context.Background()) }()

	// a closed watcher channel must not spin or end the session
	close(events)
	ctrl.Commands() <- Quit

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not survive watcher shutdown")
	}
}
