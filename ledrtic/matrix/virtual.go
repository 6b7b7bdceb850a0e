package matrix

import (
	"sync"
	"sync/atomic"
)

// VirtualPin is an in-memory output pin. It is safe for concurrent use.
type VirtualPin struct {
	level  atomic.Bool
	writes atomic.Uint64
}

// Set implements Pin.
func (p *VirtualPin) Set(high bool) error {
	p.level.Store(high)
	p.writes.Add(1)
	return nil
}

// Get returns the last level written.
func (p *VirtualPin) Get() bool {
	return p.level.Load()
}

// Writes returns how many times the pin has been set.
func (p *VirtualPin) Writes() uint64 {
	return p.writes.Load()
}

// Integrator watches a set of virtual pins and accumulates how long each LED
// has been lit, giving the brightness an observer would perceive.
//
// Sample must be called once after every Display.Advance.
type Integrator struct {
	layout       Layout
	rows         []*VirtualPin
	cols         []*VirtualPin
	rowActiveLow bool
	colActiveLow bool

	mu      sync.Mutex
	on      [Height][Width]uint32
	samples uint32
}

// NewVirtual creates virtual pins for layout and returns a Config to build a
// Display from, together with an Integrator observing the same pins.
func NewVirtual(layout Layout, rowActiveLow, colActiveLow bool) (Config, *Integrator) {
	if layout.IsZero() {
		layout = LayoutV2
	}
	in := &Integrator{
		layout:       layout,
		rows:         make([]*VirtualPin, layout.Rows),
		cols:         make([]*VirtualPin, layout.Cols),
		rowActiveLow: rowActiveLow,
		colActiveLow: colActiveLow,
	}
	cfg := Config{
		Layout:       layout,
		Rows:         make([]Pin, layout.Rows),
		Cols:         make([]Pin, layout.Cols),
		RowActiveLow: rowActiveLow,
		ColActiveLow: colActiveLow,
	}
	for i := range in.rows {
		in.rows[i] = &VirtualPin{}
		cfg.Rows[i] = in.rows[i]
	}
	for i := range in.cols {
		in.cols[i] = &VirtualPin{}
		cfg.Cols[i] = in.cols[i]
	}
	return cfg, in
}

// Lit reports whether the LED at column x, row y is currently lit.
func (in *Integrator) Lit(x, y int) bool {
	p := in.layout.Position(x, y)
	rowOn := in.rows[p.Row].Get() != in.rowActiveLow
	colOn := in.cols[p.Col].Get() != in.colActiveLow
	return rowOn && colOn
}

// Sample records which LEDs are lit right now.
func (in *Integrator) Sample() {
	in.mu.Lock()
	defer in.mu.Unlock()
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if in.Lit(x, y) {
				in.on[y][x]++
			}
		}
	}
	in.samples++
}

// Frame returns the perceived brightness of every LED since the last Reset,
// scaled so that an LED lit for its whole row slot reads MaxBrightness.
func (in *Integrator) Frame() Frame {
	in.mu.Lock()
	defer in.mu.Unlock()
	var px [Height][Width]uint8
	if in.samples == 0 {
		return NewFrame(px)
	}
	scale := uint32(in.layout.Rows * MaxBrightness)
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			px[y][x] = uint8((in.on[y][x]*scale + in.samples/2) / in.samples)
		}
	}
	return NewFrame(px)
}

// Samples returns the number of samples taken since the last Reset.
func (in *Integrator) Samples() uint32 {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.samples
}

// Reset discards the accumulated on-time.
func (in *Integrator) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.on = [Height][Width]uint32{}
	in.samples = 0
}
