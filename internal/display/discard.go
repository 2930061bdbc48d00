package display

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Discard is a 128x128 drawer that keeps the last frame in memory and
// never touches hardware. It stands in for the panel when none is fitted.
type Discard struct {
	Last *image.RGBA
}

// NewDiscard returns a Discard with a 128x128 frame.
func NewDiscard() *Discard {
	return &Discard{Last: image.NewRGBA(image.Rect(0, 0, 128, 128))}
}

func (d *Discard) String() string          { return "discard" }
func (d *Discard) Halt() error             { return nil }
func (d *Discard) ColorModel() color.Model { return color.RGBAModel }
func (d *Discard) Bounds() image.Rectangle { return d.Last.Bounds() }

// Draw copies src into Last.
func (d *Discard) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	draw.Draw(d.Last, r, src, sp, draw.Src)
	return nil
}
