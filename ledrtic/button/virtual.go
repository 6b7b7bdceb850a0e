package button

import (
	"sync/atomic"
	"time"
)

// VirtualPin is an in-memory input pin that idles high, as a pulled-up button
// input does. It is safe for concurrent use.
type VirtualPin struct {
	low atomic.Bool
	err atomic.Pointer[error]
}

// Get implements Pin.
func (p *VirtualPin) Get() (bool, error) {
	if err := p.err.Load(); err != nil {
		return false, *err
	}
	return !p.low.Load(), nil
}

// SetPressed holds the button down or lets it go.
func (p *VirtualPin) SetPressed(pressed bool) {
	p.low.Store(pressed)
}

// Press holds the button down for d, then releases it. Choose d longer than
// the polling period so at least one sample sees the press.
func (p *VirtualPin) Press(d time.Duration) {
	p.SetPressed(true)
	time.AfterFunc(d, func() { p.SetPressed(false) })
}

// Fail makes every following Get return err. A nil err clears the failure.
func (p *VirtualPin) Fail(err error) {
	if err == nil {
		p.err.Store(nil)
		return
	}
	p.err.Store(&err)
}
