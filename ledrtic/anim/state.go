// Package anim holds the animation state machine and the periodic task that
// polls the buttons, steps the animation and publishes frames to the display.
package anim

import (
	"errors"
	"strconv"

	"github.com/harveysanders/microbitplayground/ledrtic/images"
	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
)

// Variant selects the image being shown.
type Variant uint8

const (
	Heart Variant = iota
	Rust
	Author
)

// Next returns the variant that follows v: Heart, Rust, Author, then Heart
// again.
func (v Variant) Next() Variant {
	switch v {
	case Heart:
		return Rust
	case Rust:
		return Author
	case Author:
		return Heart
	}
	panic("anim: invalid variant " + strconv.Itoa(int(v)))
}

func (v Variant) String() string {
	switch v {
	case Heart:
		return "Heart"
	case Rust:
		return "Rust"
	case Author:
		return "Author"
	}
	return "Variant(" + strconv.Itoa(int(v)) + ")"
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	switch v {
	case Heart, Rust, Author:
		return []byte(v.String()), nil
	}
	return nil, errors.New("anim: invalid variant " + strconv.Itoa(int(v)))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Heart":
		*v = Heart
	case "Rust":
		*v = Rust
	case "Author":
		*v = Author
	default:
		return errors.New("anim: unknown variant " + strconv.Quote(string(b)))
	}
	return nil
}

// CycleSteps is the length of the animation cycle in ticks.
const CycleSteps = 25

// State is the animation state owned by the animation task.
type State struct {
	Variant Variant
	Step    uint8
	Animate bool
}

// NewState returns the power-on state: the heart, animating, at step 0.
func NewState() State {
	return State{Variant: Heart, Animate: true}
}

// NextImage moves to the next image variant.
func (s *State) NextImage() {
	s.Variant = s.Variant.Next()
}

// ToggleAnimate starts or stops the animation and restarts the cycle.
func (s *State) ToggleAnimate() {
	s.Animate = !s.Animate
	s.Step = 0
}

// Advance moves to the next step of the cycle while animating.
func (s *State) Advance() {
	if !s.Animate {
		return
	}
	s.Step++
	if s.Step == CycleSteps {
		s.Step = 0
	}
}

// InnerBrightness returns the brightness of the heart's interior at step.
//
// Over a cycle the interior fades out from 9 to 1, stays dark for four steps,
// fades in from 8 to 1 and stays dark again. Levels above
// matrix.MaxBrightness are returned as is; the display clamps them.
//
// It returns 0 when not animating and panics on a step outside the cycle.
func InnerBrightness(step uint8, animate bool) uint8 {
	if !animate {
		return 0
	}
	switch {
	case step <= 8:
		return 9 - step
	case step <= 12:
		return 0
	case step <= 20:
		return 21 - step
	case step <= 24:
		return 0
	}
	panic("anim: step " + strconv.Itoa(int(step)) + " outside the animation cycle")
}

// Render draws the frame for s.
//
// Only the heart uses the brightness curve. The author slide scrolls with the
// raw step counter, and the Rust logo never changes.
func Render(s State) matrix.Frame {
	inner := InnerBrightness(s.Step, s.Animate)
	switch s.Variant {
	case Heart:
		return images.Heart(inner)
	case Rust:
		return images.RustLogo()
	case Author:
		return images.AuthorSlide(s.Step)
	}
	panic("anim: invalid variant " + strconv.Itoa(int(s.Variant)))
}
