package palette

import (
	"testing"

	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
)

func TestRampEndpoints(t *testing.T) {
	p, err := Hex("#000000", "#ffffff")
	if err != nil {
		t.Fatal(err)
	}
	if r, g, b := p.RGB255(0); r != 0 || g != 0 || b != 0 {
		t.Errorf("level 0 = %d,%d,%d, want black", r, g, b)
	}
	if r, g, b := p.RGB255(matrix.MaxBrightness); r != 255 || g != 255 || b != 255 {
		t.Errorf("level 7 = %d,%d,%d, want white", r, g, b)
	}
	if p.Color(9) != p.Color(matrix.MaxBrightness) {
		t.Error("level 9 not clamped to level 7")
	}
}

func TestRampMonotonic(t *testing.T) {
	p := MustHex("#000000", "#ffffff")
	prev := -1.0
	for lvl := uint8(0); lvl <= matrix.MaxBrightness; lvl++ {
		l, _, _ := p.Color(lvl).Lab()
		if l <= prev {
			t.Fatalf("level %d lightness %.3f not above level %d", lvl, l, lvl-1)
		}
		prev = l
	}
}

func TestHexError(t *testing.T) {
	if _, err := Hex("red", "#ffffff"); err == nil {
		t.Error("Hex accepted a colour name")
	}
}
