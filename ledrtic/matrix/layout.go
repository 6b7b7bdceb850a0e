package matrix

// Position is the electrical location of one LED: the row pin and the column
// pin that must both be active for it to light.
type Position struct {
	Row, Col int
}

// Layout maps the visible 5x5 grid onto the electrical row/column grid.
type Layout struct {
	Rows int
	Cols int
	leds [Height][Width]Position
}

// Position returns the electrical location of the LED at column x, row y.
func (l Layout) Position(x, y int) Position {
	return l.leds[y][x]
}

// IsZero reports whether l is the zero Layout.
func (l Layout) IsZero() bool {
	return l.Rows == 0 && l.Cols == 0
}

// LayoutV2 is the micro:bit v2 wiring: five rows and five columns, one pin
// pair per visible LED.
var LayoutV2 = func() Layout {
	l := Layout{Rows: Height, Cols: Width}
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			l.leds[y][x] = Position{Row: y, Col: x}
		}
	}
	return l
}()

// LayoutV1 is the micro:bit v1 wiring: three row pins and nine column pins,
// with the 25 visible LEDs scattered over 27 possible positions.
var LayoutV1 = Layout{
	Rows: 3,
	Cols: 9,
	leds: [Height][Width]Position{
		{{0, 0}, {1, 3}, {0, 1}, {1, 4}, {0, 2}},
		{{2, 3}, {2, 4}, {2, 5}, {2, 6}, {2, 7}},
		{{1, 1}, {0, 8}, {1, 2}, {2, 8}, {1, 0}},
		{{0, 7}, {0, 6}, {0, 5}, {0, 4}, {0, 3}},
		{{2, 2}, {1, 6}, {2, 0}, {1, 5}, {2, 1}},
	},
}
