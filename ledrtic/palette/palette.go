// Package palette maps matrix brightness levels to colours for the tools that
// show the matrix somewhere other than on the board.
package palette

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
)

// Palette is a ramp from an unlit LED to a fully lit one.
type Palette struct {
	ramp [matrix.MaxBrightness + 1]colorful.Color
}

// New builds a ramp from off to on, blended in Lab space so the steps look
// evenly spaced.
func New(off, on colorful.Color) Palette {
	var p Palette
	for i := range p.ramp {
		p.ramp[i] = off.BlendLab(on, float64(i)/float64(matrix.MaxBrightness)).Clamped()
	}
	return p
}

// MustHex is like New but takes hex colours such as "#300000". It panics on
// a malformed colour and is meant for package-level defaults.
func MustHex(off, on string) Palette {
	c1, err := colorful.Hex(off)
	if err != nil {
		panic(err)
	}
	c2, err := colorful.Hex(on)
	if err != nil {
		panic(err)
	}
	return New(c1, c2)
}

// Hex is like MustHex but returns the parse error.
func Hex(off, on string) (Palette, error) {
	c1, err := colorful.Hex(off)
	if err != nil {
		return Palette{}, err
	}
	c2, err := colorful.Hex(on)
	if err != nil {
		return Palette{}, err
	}
	return New(c1, c2), nil
}

// MicrobitRed resembles the red LEDs of the micro:bit.
var MicrobitRed = MustHex("#1a0000", "#ff2010")

// Color returns the colour for a brightness level. Levels above
// matrix.MaxBrightness are clamped, as on the hardware.
func (p Palette) Color(level uint8) colorful.Color {
	return p.ramp[matrix.Level(level)]
}

// RGB255 returns the colour for a brightness level as 8-bit channels.
func (p Palette) RGB255(level uint8) (r, g, b uint8) {
	return p.Color(level).RGB255()
}
