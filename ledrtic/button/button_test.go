package button

import (
	"errors"
	"testing"
)

func TestCheckRisingEdge(t *testing.T) {
	for _, tc := range []struct {
		name    string
		samples []bool // pressed at each poll
		want    []bool
	}{
		{"idle", []bool{false, false, false}, []bool{false, false, false}},
		{"first call pressed", []bool{true}, []bool{false}},
		{"press and release", []bool{false, true, false}, []bool{false, false, true}},
		{"held", []bool{true, true, true, false, false}, []bool{false, false, false, true, false}},
		{"two presses", []bool{true, false, true, false}, []bool{false, true, false, true}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pin := &VirtualPin{}
			b := New(pin)
			for i, pressed := range tc.samples {
				pin.SetPressed(pressed)
				got, err := b.CheckRisingEdge()
				if err != nil {
					t.Fatalf("sample %d: %v", i, err)
				}
				if got != tc.want[i] {
					t.Errorf("sample %d: edge = %v, want %v", i, got, tc.want[i])
				}
			}
		})
	}
}

func TestIsPressedActiveLow(t *testing.T) {
	pin := &VirtualPin{}
	b := New(pin)
	if level, _ := pin.Get(); !level {
		t.Fatal("virtual pin should idle high")
	}
	if p, _ := b.IsPressed(); p {
		t.Error("idle button reported pressed")
	}
	pin.SetPressed(true)
	if p, _ := b.IsPressed(); !p {
		t.Error("low pin not reported as pressed")
	}
}

func TestReadError(t *testing.T) {
	pin := &VirtualPin{}
	b := New(pin)
	stuck := errors.New("gpio stuck")
	pin.Fail(stuck)
	if _, err := b.CheckRisingEdge(); !errors.Is(err, stuck) {
		t.Fatalf("err = %v, want %v", err, stuck)
	}
	pin.Fail(nil)
	if _, err := b.CheckRisingEdge(); err != nil {
		t.Fatalf("err after clearing failure = %v", err)
	}
}
