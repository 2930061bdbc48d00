// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package display

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"

	"github.com/relabs-tech/climate_panel/internal/sampler"
)

// Layout of the four-line block.
const (
	LineHeight = 16
	LineGap    = 8
	blockH     = 4*LineHeight + 3*LineGap
)

// Fixed line colors: temperature rows red, humidity rows blue (RGB565
// 0xF800 and 0x001F).
var (
	Background       = color.RGBA{0, 0, 0, 255}
	TemperatureColor = color.RGBA{255, 0, 0, 255}
	HumidityColor    = color.RGBA{0, 0, 255, 255}
)

// Face is the 8x16 monospace font used for every line.
var Face font.Face = inconsolata.Regular8x16

// TextWidth is the pixel width of s in Face.
func TextWidth(s string) int {
	return font.MeasureString(Face, s).Ceil()
}

// LineOrigin returns the top-left corner of line i of text s on a screen
// of the given bounds, shifted by off.
func LineOrigin(bounds image.Rectangle, i int, s string, off image.Point) image.Point {
	yStart := bounds.Min.Y + (bounds.Dy()-blockH)/2
	x := bounds.Min.X + (bounds.Dx()-TextWidth(s))/2 + off.X
	y := yStart + i*(LineHeight+LineGap) + off.Y
	return image.Pt(x, y)
}

// Render clears dst and draws the four lines centered, shifted by off.
func Render(dst draw.Image, lines sampler.Lines, off image.Point) {
	b := dst.Bounds()
	draw.Draw(dst, b, &image.Uniform{Background}, image.Point{}, draw.Src)

	ascent := Face.Metrics().Ascent
	for i, s := range lines {
		c := TemperatureColor
		if i >= 2 {
			c = HumidityColor
		}
		origin := LineOrigin(b, i, s, off)
		d := &font.Drawer{
			Dst:  dst,
			Src:  &image.Uniform{c},
			Face: Face,
			Dot:  fixed.Point26_6{X: fixed.I(origin.X), Y: fixed.I(origin.Y) + ascent},
		}
		d.DrawString(s)
	}
}
