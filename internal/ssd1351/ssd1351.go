// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package ssd1351 drives a 128x128 16-bit color SSD1351 OLED over SPI with
// a separate data/command pin.
//
// Dev implements periph's display.Drawer, so any image can be pushed to
// the panel with Draw.
package ssd1351

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

const (
	Width  = 128
	Height = 128
)

// Commands used by this driver.
const (
	cmdSetColumn     = 0x15
	cmdWriteRAM      = 0x5C
	cmdSetRow        = 0x75
	cmdRemap         = 0xA0
	cmdStartLine     = 0xA1
	cmdDisplayOffset = 0xA2
	cmdNormalDisplay = 0xA6
	cmdFunctionSel   = 0xAB
	cmdDisplayOff    = 0xAE
	cmdDisplayOn     = 0xAF
	cmdPrecharge     = 0xB1
	cmdClockDiv      = 0xB3
	cmdSetVSL        = 0xB4
	cmdSetGPIO       = 0xB5
	cmdPrecharge2    = 0xB6
	cmdVCOMH         = 0xBE
	cmdContrastABC   = 0xC1
	cmdContrastMain  = 0xC7
	cmdMuxRatio      = 0xCA
	cmdCommandLock   = 0xFD
)

// Opts configures the panel.
type Opts struct {
	// Remap is the A0h remap/color-depth byte. 0x74 selects 65k colors,
	// COM split and the orientation of the common 1.5" modules.
	Remap byte
}

// DefaultOpts matches the Waveshare 1.5" module.
var DefaultOpts = Opts{Remap: 0x74}

// maxTxDefault is the spidev default buffer size.
const maxTxDefault = 4096

// Dev is an open SSD1351 panel.
type Dev struct {
	c     spi.Conn
	dc    gpio.PinOut
	rst   gpio.PinOut
	rect  image.Rectangle
	maxTx int
	buf   []byte
}

// NewSPI connects to the panel on p at freq, resets it through rst (may
// be nil) and runs the init sequence.
func NewSPI(p spi.Port, dc, rst gpio.PinOut, freq physic.Frequency, opts *Opts) (*Dev, error) {
	c, err := p.Connect(freq, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("ssd1351: SPI connect: %w", err)
	}
	return New(c, dc, rst, opts)
}

// New initializes a panel on an already connected SPI conn.
func New(c spi.Conn, dc, rst gpio.PinOut, opts *Opts) (*Dev, error) {
	if dc == nil {
		return nil, fmt.Errorf("ssd1351: data/command pin is required")
	}
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{
		c:     c,
		dc:    dc,
		rst:   rst,
		rect:  image.Rect(0, 0, Width, Height),
		maxTx: maxTxDefault,
		buf:   make([]byte, Width*Height*2),
	}
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		d.maxTx = l.MaxTxSize()
	}

	if rst != nil {
		if err := d.reset(); err != nil {
			return nil, err
		}
	}
	if err := d.init(opts); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("SSD1351{%s, %s}", d.c, d.rect.Max)
}

// ColorModel implements display.Drawer. Colors are reduced to RGB565.
func (d *Dev) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle { return d.rect }

// Draw implements display.Drawer. Only the part of r inside the panel is
// written; src is read starting at sp.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.rect)
	if r.Empty() {
		return nil
	}

	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			v := RGB565(src.At(sp.X+x-r.Min.X, sp.Y+y-r.Min.Y))
			d.buf[n] = byte(v >> 8)
			d.buf[n+1] = byte(v)
			n += 2
		}
	}

	if err := d.command(cmdSetColumn, byte(r.Min.X), byte(r.Max.X-1)); err != nil {
		return err
	}
	if err := d.command(cmdSetRow, byte(r.Min.Y), byte(r.Max.Y-1)); err != nil {
		return err
	}
	if err := d.command(cmdWriteRAM); err != nil {
		return err
	}
	return d.data(d.buf[:n])
}

// Halt turns the panel off. The next Draw does not turn it back on.
func (d *Dev) Halt() error {
	return d.command(cmdDisplayOff)
}

// RGB565 packs c into the panel's 5-6-5 pixel format.
func RGB565(c color.Color) uint16 {
	r, g, b, _ := c.RGBA()
	return uint16((r>>11)<<11 | (g>>10)<<5 | b>>11)
}

func (d *Dev) reset() error {
	if err := d.rst.Out(gpio.Low); err != nil {
		return fmt.Errorf("ssd1351: reset low: %w", err)
	}
	time.Sleep(10 * time.Millisecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("ssd1351: reset high: %w", err)
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

func (d *Dev) init(opts *Opts) error {
	seq := [][]byte{
		{cmdCommandLock, 0x12},
		{cmdCommandLock, 0xB1},
		{cmdDisplayOff},
		{cmdClockDiv, 0xF1},
		{cmdMuxRatio, Height - 1},
		{cmdRemap, opts.Remap},
		{cmdSetColumn, 0, Width - 1},
		{cmdSetRow, 0, Height - 1},
		{cmdStartLine, 0},
		{cmdDisplayOffset, 0},
		{cmdSetGPIO, 0x00},
		{cmdFunctionSel, 0x01},
		{cmdPrecharge, 0x32},
		{cmdVCOMH, 0x05},
		{cmdNormalDisplay},
		{cmdContrastABC, 0xC8, 0x80, 0xC8},
		{cmdContrastMain, 0x0F},
		{cmdSetVSL, 0xA0, 0xB5, 0x55},
		{cmdPrecharge2, 0x01},
		{cmdDisplayOn},
	}
	for _, s := range seq {
		if err := d.command(s[0], s[1:]...); err != nil {
			return fmt.Errorf("ssd1351: init: %w", err)
		}
	}
	return nil
}

// command sends cmd with DC low followed by its arguments with DC high.
func (d *Dev) command(cmd byte, args ...byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return fmt.Errorf("ssd1351: dc low: %w", err)
	}
	if err := d.c.Tx([]byte{cmd}, nil); err != nil {
		return fmt.Errorf("ssd1351: command 0x%02X: %w", cmd, err)
	}
	if len(args) == 0 {
		return nil
	}
	return d.data(args)
}

func (d *Dev) data(b []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return fmt.Errorf("ssd1351: dc high: %w", err)
	}
	for len(b) > 0 {
		n := len(b)
		if n > d.maxTx {
			n = d.maxTx
		}
		if err := d.c.Tx(b[:n], nil); err != nil {
			return fmt.Errorf("ssd1351: data: %w", err)
		}
		b = b[n:]
	}
	return nil
}
