// Package ui is the Fyne binding: the window, the image canvas and the
// keyboard. The slideshow core drives it through the Renderer interface
// and receives key presses as commands; nothing in here owns sequence
// state.
package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"github.com/sirupsen/logrus"

	"goslide/internal/slideshow"
)

// Viewer owns the single slideshow window.
type Viewer struct {
	fyneApp  fyne.App
	win      fyne.Window
	image    *canvas.Image
	commands chan<- slideshow.Command
	logger   *logrus.Logger
}

// New builds the viewer window. commands receives every mapped key
// press; the slideshow controller consumes it.
func New(commands chan<- slideshow.Command, windowed bool, logger *logrus.Logger) *Viewer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	a := app.New()
	win := a.NewWindow("GoSlide")

	v := &Viewer{
		fyneApp:  a,
		win:      win,
		image:    &canvas.Image{FillMode: canvas.ImageFillContain},
		commands: commands,
		logger:   logger,
	}

	win.SetContent(v.image)
	win.SetMaster()
	win.Resize(fyne.NewSize(1024, 768))
	win.CenterOnScreen()
	if !windowed {
		win.SetFullScreen(true)
	}
	v.bindKeys()
	return v
}

// Run hands control to the Fyne main loop. It blocks until the window
// closes.
func (v *Viewer) Run() {
	v.win.ShowAndRun()
}

// Close shuts the window down from any goroutine.
func (v *Viewer) Close() {
	fyne.Do(func() {
		v.fyneApp.Quit()
	})
}

func (v *Viewer) bindKeys() {
	// ctrl+q to quit, matching desktop conventions
	v.win.Canvas().AddShortcut(&desktop.CustomShortcut{
		KeyName:  fyne.KeyQ,
		Modifier: fyne.KeyModifierControl,
	}, func(_ fyne.Shortcut) { v.fyneApp.Quit() })

	v.win.Canvas().SetOnTypedKey(func(key *fyne.KeyEvent) {
		cmd, ok := CommandForKey(key.Name)
		if !ok {
			return
		}
		select {
		case v.commands <- cmd:
		default:
			v.logger.WithField("key", string(key.Name)).Warn("command channel full, key dropped")
		}
	})
}

// CommandForKey maps a raw key to a slideshow command. The mapping is
// presentation detail; the core only ever sees commands.
func CommandForKey(name fyne.KeyName) (slideshow.Command, bool) {
	switch name {
	case fyne.KeyRight:
		return slideshow.Next, true
	case fyne.KeyLeft:
		return slideshow.Previous, true
	case fyne.KeyHome:
		return slideshow.First, true
	case fyne.KeyEnd:
		return slideshow.Last, true
	case fyne.KeyP, fyne.KeySpace:
		return slideshow.TogglePause, true
	case fyne.KeyQ, fyne.KeyEscape:
		return slideshow.Quit, true
	default:
		return 0, false
	}
}
