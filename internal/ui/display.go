package ui

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"github.com/sirupsen/logrus"
)

// Display decodes path and shows it scaled to the window. It runs on
// the controller goroutine, so the decode happens off the UI thread and
// only the widget update is marshalled through fyne.Do.
//
// A failed open or decode is returned to the caller, which skips the
// image.
func (v *Viewer) Display(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening image %s: %w", path, err)
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return fmt.Errorf("decoding image %s: %w", path, err)
	}

	fyne.Do(func() {
		v.image.Image = img
		v.image.Refresh()
		v.win.SetTitle(fmt.Sprintf("GoSlide - %s", filepath.Base(path)))
	})

	v.logger.WithFields(logrus.Fields{
		"path":   path,
		"format": format,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	}).Debug("image displayed")
	return nil
}
