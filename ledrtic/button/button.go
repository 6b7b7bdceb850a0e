// Package button reads push buttons wired active-low with a pull-up, like the
// A and B buttons on the micro:bit, and detects release edges by polling.
//
// There is no debounce filter. Polling at the animation rate (about 16 Hz)
// is slow enough that contact bounce, which settles within a few
// milliseconds, is normally missed. Polling much faster would let bounce
// through as extra edges.
package button

// Pin is a digital input.
type Pin interface {
	// Get returns the raw level of the pin, true meaning high.
	Get() (bool, error)
}

// Button is an active-low push button with single-sample edge detection.
type Button struct {
	pin        Pin
	wasPressed bool
}

// New returns a Button reading pin. The pin must already be configured as an
// input with a pull-up.
func New(pin Pin) *Button {
	return &Button{pin: pin}
}

// IsPressed reports whether the button is held down right now.
func (b *Button) IsPressed() (bool, error) {
	high, err := b.pin.Get()
	if err != nil {
		return false, err
	}
	return !high, nil
}

// CheckRisingEdge samples the button and reports whether it was pressed at the
// previous sample and is released now. The edge fires on release, once per
// press, however long the button was held.
//
// Call it exactly once per polling tick. The first call never reports an edge.
func (b *Button) CheckRisingEdge() (bool, error) {
	pressed, err := b.IsPressed()
	if err != nil {
		return false, err
	}
	edge := b.wasPressed && !pressed
	b.wasPressed = pressed
	return edge, nil
}
