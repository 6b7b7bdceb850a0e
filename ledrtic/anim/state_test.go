package anim

import (
	"encoding/json"
	"testing"

	"github.com/harveysanders/microbitplayground/ledrtic/images"
)

func TestInnerBrightness(t *testing.T) {
	for step := uint8(0); step < CycleSteps; step++ {
		var want uint8
		switch {
		case step <= 8:
			want = 9 - step
		case step >= 13 && step <= 20:
			want = 21 - step
		}
		if got := InnerBrightness(step, true); got != want {
			t.Errorf("InnerBrightness(%d) = %d, want %d", step, got, want)
		}
		if got := InnerBrightness(step, false); got != 0 {
			t.Errorf("InnerBrightness(%d, false) = %d, want 0", step, got)
		}
	}
	// Boundaries, including the values above the displayable range.
	for _, tc := range []struct{ step, want uint8 }{
		{0, 9}, {1, 8}, {2, 7}, {8, 1}, {9, 0}, {12, 0}, {13, 8}, {20, 1}, {21, 0}, {24, 0},
	} {
		if got := InnerBrightness(tc.step, true); got != tc.want {
			t.Errorf("InnerBrightness(%d) = %d, want %d", tc.step, got, tc.want)
		}
	}
}

func TestInnerBrightnessPanicsOutsideCycle(t *testing.T) {
	for _, step := range []uint8{25, 100, 255} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("InnerBrightness(%d) did not panic", step)
				}
			}()
			InnerBrightness(step, true)
		}()
	}
}

func TestVariantCycle(t *testing.T) {
	if Heart.Next() != Rust || Rust.Next() != Author || Author.Next() != Heart {
		t.Fatal("variant cycle is not Heart, Rust, Author")
	}
	for _, start := range []Variant{Heart, Rust, Author} {
		v := start
		for n := 1; n <= 10; n++ {
			v = v.Next()
			want := start
			for i := 0; i < n%3; i++ {
				want = want.Next()
			}
			if v != want {
				t.Errorf("%v advanced %d times = %v, want %v", start, n, v, want)
			}
		}
	}
}

func TestVariantText(t *testing.T) {
	b, err := json.Marshal(struct{ V Variant }{Author})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"V":"Author"}` {
		t.Errorf("marshal = %s", b)
	}
	var v Variant
	if err := v.UnmarshalText([]byte("Rust")); err != nil || v != Rust {
		t.Errorf("UnmarshalText(Rust) = %v, %v", v, err)
	}
	if err := v.UnmarshalText([]byte("Ferris")); err == nil {
		t.Error("UnmarshalText accepted an unknown name")
	}
}

func TestStateAdvanceWraps(t *testing.T) {
	s := NewState()
	for i := 0; i < CycleSteps; i++ {
		if int(s.Step) != i {
			t.Fatalf("tick %d: step = %d", i, s.Step)
		}
		s.Advance()
	}
	if s.Step != 0 {
		t.Errorf("step after full cycle = %d, want 0", s.Step)
	}

	s.Animate = false
	s.Step = 7
	s.Advance()
	if s.Step != 7 {
		t.Errorf("step moved while not animating: %d", s.Step)
	}
}

func TestToggleAnimateResetsStep(t *testing.T) {
	s := NewState()
	s.Step = 15
	s.ToggleAnimate()
	if s.Animate || s.Step != 0 {
		t.Fatalf("after stop: %+v", s)
	}
	s.Step = 3
	s.ToggleAnimate()
	if !s.Animate || s.Step != 0 {
		t.Fatalf("after start: %+v", s)
	}
}

func TestRender(t *testing.T) {
	for _, tc := range []struct {
		name  string
		state State
	}{
		{"heart animating", State{Heart, 4, true}},
		{"heart stopped", State{Heart, 4, false}},
		{"rust", State{Rust, 17, true}},
		{"author", State{Author, 10, true}},
		{"author stopped", State{Author, 10, false}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got := Render(tc.state)
			want := images.RustLogo()
			switch tc.state.Variant {
			case Heart:
				want = images.Heart(InnerBrightness(tc.state.Step, tc.state.Animate))
			case Author:
				want = images.AuthorSlide(tc.state.Step)
			}
			if got != want {
				t.Errorf("Render(%+v) = %v, want %v", tc.state, got.Pixels(), want.Pixels())
			}
		})
	}
}
