package matrix

import (
	"errors"
	"image/color"
	"strconv"
	"time"

	"tinygo.org/x/drivers"
)

// Pin is an output pin driving one row or column line of the matrix.
type Pin interface {
	Set(high bool) error
}

// Config describes how the matrix is wired.
type Config struct {
	// Layout maps visible LEDs to row/column pins. Zero means LayoutV2.
	Layout Layout
	// Rows and Cols are the row and column pins, in layout order.
	Rows []Pin
	Cols []Pin
	// RowActiveLow is set when a row is energized by driving it low.
	RowActiveLow bool
	// ColActiveLow is set when an LED in the energized row lights with its
	// column driven low. The micro:bit is wired this way.
	ColActiveLow bool
}

// Display is a greyscale multiplexing driver.
//
// Publish replaces the frame being shown. Advance performs one multiplexing
// step and must be called periodically at a steady rate; one full refresh of
// the matrix takes Layout.Rows*MaxBrightness steps.
//
// Display is not safe for concurrent use. Callers that publish from one task
// and advance from another must serialize access, see sched.Shared.
type Display struct {
	layout       Layout
	rows         []Pin
	cols         []Pin
	rowActiveLow bool
	colActiveLow bool

	frame  Frame
	levels [][]uint8 // [row][col], clamped
	staged [Height][Width]uint8

	row       int     // row the cursor is on
	phase     uint8   // phase within the row slot
	energized int     // row currently driven active, -1 if none
	current   []uint8 // levels latched for the energized row
}

var _ drivers.Displayer = (*Display)(nil)

// New returns a Display for the given wiring. It does not touch the pins; call
// Configure before the first Advance.
func New(cfg Config) (*Display, error) {
	layout := cfg.Layout
	if layout.IsZero() {
		layout = LayoutV2
	}
	if len(cfg.Rows) != layout.Rows {
		return nil, errors.New("matrix: want " + strconv.Itoa(layout.Rows) + " row pins, got " + strconv.Itoa(len(cfg.Rows)))
	}
	if len(cfg.Cols) != layout.Cols {
		return nil, errors.New("matrix: want " + strconv.Itoa(layout.Cols) + " column pins, got " + strconv.Itoa(len(cfg.Cols)))
	}
	d := &Display{
		layout:       layout,
		rows:         cfg.Rows,
		cols:         cfg.Cols,
		rowActiveLow: cfg.RowActiveLow,
		colActiveLow: cfg.ColActiveLow,
		energized:    -1,
		current:      make([]uint8, layout.Cols),
	}
	d.levels = d.physical(Frame{})
	return d, nil
}

// Configure drives every row inactive and every column off.
func (d *Display) Configure() error {
	return d.Off()
}

// Layout returns the wiring layout in use.
func (d *Display) Layout() Layout {
	return d.layout
}

// Publish makes f the frame shown from the start of the next row slot.
func (d *Display) Publish(f Frame) {
	// Build the complete row table before swapping it in so Advance never
	// sees a partially converted frame.
	levels := d.physical(f)
	d.frame = f
	d.levels = levels
}

// Frame returns the most recently published frame.
func (d *Display) Frame() Frame {
	return d.frame
}

// Clear publishes an all-off frame.
func (d *Display) Clear() {
	d.Publish(Frame{})
}

// Cursor reports the row and phase the next Advance will drive.
func (d *Display) Cursor() (row int, phase uint8) {
	return d.row, d.phase
}

// Advance performs one multiplexing step.
//
// At phase 0 the previous row is switched off, the next row is energized and
// every column with a non-zero level is lit. At phase p the columns whose
// level is exactly p are switched off, so an LED of level b stays lit for b of
// the MaxBrightness phases.
func (d *Display) Advance() error {
	if d.phase == 0 {
		if err := d.startRow(); err != nil {
			return err
		}
	} else {
		for c, lvl := range d.current {
			if lvl == d.phase {
				if err := d.setCol(c, false); err != nil {
					return err
				}
			}
		}
	}

	d.phase++
	if d.phase == MaxBrightness {
		d.phase = 0
		d.row = (d.row + 1) % d.layout.Rows
	}
	return nil
}

func (d *Display) startRow() error {
	for c := range d.cols {
		if err := d.setCol(c, false); err != nil {
			return err
		}
	}
	if d.energized >= 0 && d.energized != d.row {
		if err := d.setRow(d.energized, false); err != nil {
			return err
		}
	}
	copy(d.current, d.levels[d.row])
	if err := d.setRow(d.row, true); err != nil {
		return err
	}
	d.energized = d.row
	for c, lvl := range d.current {
		if lvl > 0 {
			if err := d.setCol(c, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// Off switches every row and column off and restarts the refresh cycle.
func (d *Display) Off() error {
	for c := range d.cols {
		if err := d.setCol(c, false); err != nil {
			return err
		}
	}
	for r := range d.rows {
		if err := d.setRow(r, false); err != nil {
			return err
		}
	}
	d.energized = -1
	d.row, d.phase = 0, 0
	return nil
}

// Hold shows f for duration dur by advancing the multiplexer every step, then
// switches the matrix off. It blocks for the whole duration and is meant for
// single-threaded programs that have no refresh task.
func (d *Display) Hold(f Frame, dur, step time.Duration) error {
	d.Publish(f)
	deadline := time.Now().Add(dur)
	for time.Now().Before(deadline) {
		if err := d.Advance(); err != nil {
			return err
		}
		time.Sleep(step)
	}
	d.Clear()
	return d.Off()
}

func (d *Display) setRow(r int, on bool) error {
	if err := d.rows[r].Set(on != d.rowActiveLow); err != nil {
		return errors.New("matrix: row " + strconv.Itoa(r) + ": " + err.Error())
	}
	return nil
}

func (d *Display) setCol(c int, on bool) error {
	if err := d.cols[c].Set(on != d.colActiveLow); err != nil {
		return errors.New("matrix: col " + strconv.Itoa(c) + ": " + err.Error())
	}
	return nil
}

// physical converts f into per-row column levels for the current layout.
func (d *Display) physical(f Frame) [][]uint8 {
	levels := make([][]uint8, d.layout.Rows)
	for r := range levels {
		levels[r] = make([]uint8, d.layout.Cols)
	}
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			p := d.layout.Position(x, y)
			levels[p.Row][p.Col] = Level(f.At(x, y))
		}
	}
	return levels
}

// Size implements drivers.Displayer.
func (d *Display) Size() (x, y int16) {
	return Width, Height
}

// SetPixel implements drivers.Displayer. The pixel is staged and becomes
// visible on the next call to Display. The brightest channel of c sets the
// level.
func (d *Display) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= Width || y >= Height {
		return
	}
	m := c.R
	if c.G > m {
		m = c.G
	}
	if c.B > m {
		m = c.B
	}
	d.staged[y][x] = uint8((uint16(m)*MaxBrightness + 127) / 255)
}

// Display implements drivers.Displayer by publishing the staged pixels.
func (d *Display) Display() error {
	d.Publish(NewFrame(d.staged))
	return nil
}

// Draw paints f onto any Displayer in colour c, scaled by each pixel's level,
// and shows it.
func Draw(d drivers.Displayer, f Frame, c color.RGBA) error {
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			l := uint16(f.At(x, y))
			d.SetPixel(int16(x), int16(y), color.RGBA{
				R: uint8(uint16(c.R) * l / MaxBrightness),
				G: uint8(uint16(c.G) * l / MaxBrightness),
				B: uint8(uint16(c.B) * l / MaxBrightness),
				A: c.A,
			})
		}
	}
	return d.Display()
}
