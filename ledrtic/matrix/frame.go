// Package matrix drives a multiplexed 5x5 LED matrix, such as the one on the
// BBC micro:bit, with eight levels of greyscale produced by time-division
// multiplexing.
//
// The matrix is wired as a grid of row and column pins. Only one row is
// energized at a time; the driver steps through the rows quickly enough that
// the eye sees a steady image. Each row slot is split into seven phases and an
// LED stays lit for as many phases as its brightness level, so level 0 is off
// and level 7 is full brightness.
package matrix

const (
	// Width is the number of LED columns as seen from the front of the board.
	Width = 5
	// Height is the number of LED rows as seen from the front of the board.
	Height = 5
	// MaxBrightness is the highest greyscale level the driver can show.
	MaxBrightness = 7
)

// Frame is a 5x5 grid of brightness levels, indexed [y][x].
//
// A Frame is a value: once built it never changes, so it can be handed to the
// display and read by the refresh loop without copying concerns.
type Frame struct {
	px [Height][Width]uint8
}

// NewFrame builds a Frame from rows of brightness levels.
//
// Levels are stored as given. Values above MaxBrightness are clamped by the
// driver when the frame is shown, not here.
func NewFrame(px [Height][Width]uint8) Frame {
	return Frame{px: px}
}

// At returns the brightness level at column x, row y.
func (f Frame) At(x, y int) uint8 {
	return f.px[y][x]
}

// Pixels returns a copy of the frame's levels.
func (f Frame) Pixels() [Height][Width]uint8 {
	return f.px
}

// Level clamps a brightness value into the range the driver can show.
func Level(b uint8) uint8 {
	if b > MaxBrightness {
		return MaxBrightness
	}
	return b
}
