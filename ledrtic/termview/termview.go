// Package termview draws matrix frames in a terminal, either with 24-bit
// colour escape codes or as plain characters.
package termview

import (
	"bytes"
	"io"
	"strconv"

	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
	"github.com/harveysanders/microbitplayground/ledrtic/palette"
)

// shades is used when colour is off, dimmest first.
const shades = " .:-=+*#"

// View renders frames to a writer.
type View struct {
	w       io.Writer
	pal     palette.Palette
	color   bool
	buf     bytes.Buffer
	redraws int
}

// New returns a View writing to w. With color set, each LED is drawn as a
// block in its palette colour and each frame redraws over the last one.
func New(w io.Writer, pal palette.Palette, color bool) *View {
	return &View{w: w, pal: pal, color: color}
}

// Draw renders f.
func (v *View) Draw(f matrix.Frame) error {
	v.buf.Reset()
	if v.color && v.redraws > 0 {
		// Move the cursor back to the top of the previous frame.
		v.buf.WriteString("\x1b[" + strconv.Itoa(matrix.Height) + "A")
	}
	for y := 0; y < matrix.Height; y++ {
		for x := 0; x < matrix.Width; x++ {
			lvl := matrix.Level(f.At(x, y))
			if v.color {
				r, g, b := v.pal.RGB255(lvl)
				v.buf.WriteString("\x1b[38;2;" + strconv.Itoa(int(r)) + ";" + strconv.Itoa(int(g)) + ";" + strconv.Itoa(int(b)) + "m██")
				continue
			}
			v.buf.WriteByte(shades[lvl])
			v.buf.WriteByte(shades[lvl])
		}
		if v.color {
			v.buf.WriteString("\x1b[0m")
		}
		v.buf.WriteByte('\n')
	}
	v.redraws++
	_, err := v.w.Write(v.buf.Bytes())
	return err
}
