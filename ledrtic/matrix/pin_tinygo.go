//go:build tinygo

package matrix

import "machine"

// MachinePin drives a microcontroller GPIO line.
type MachinePin machine.Pin

// Configure makes the pin a push-pull output.
func (p MachinePin) Configure() {
	machine.Pin(p).Configure(machine.PinConfig{Mode: machine.PinOutput})
}

// Set implements Pin. GPIO writes cannot fail.
func (p MachinePin) Set(high bool) error {
	machine.Pin(p).Set(high)
	return nil
}

// MachinePins configures every pin as an output and returns them as Pins.
func MachinePins(pins ...machine.Pin) []Pin {
	out := make([]Pin, len(pins))
	for i, p := range pins {
		mp := MachinePin(p)
		mp.Configure()
		out[i] = mp
	}
	return out
}
