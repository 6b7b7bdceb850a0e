//go:build tinygo

package button

import "machine"

// MachinePin reads a microcontroller GPIO line.
type MachinePin machine.Pin

// MachineInput configures pin as an input and returns it as a Pin. The
// micro:bit buttons have external pull-ups, so no internal pull is enabled.
func MachineInput(pin machine.Pin) Pin {
	pin.Configure(machine.PinConfig{Mode: machine.PinInput})
	return MachinePin(pin)
}

// Get implements Pin.
func (p MachinePin) Get() (bool, error) {
	return machine.Pin(p).Get(), nil
}
