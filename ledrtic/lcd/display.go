// Package lcd mirrors the animation status on a 16x2 HD44780 character LCD.
//
// Example usage:
//
//	lcdMessages := make(chan lcd.Message, 4)
//	handler := lcd.NewHandler(&device, lcdMessages, logger)
//	go handler.Run()
//
//	// Send messages non-blocking
//	lcd.Send(lcdMessages, "Img: Heart", "Anim: on")
package lcd

import (
	"log/slog"

	"github.com/harveysanders/microbitplayground/ledrtic/anim"
)

// Device is the part of an HD44780 driver the handler uses.
// *hd44780i2c.Device satisfies it.
type Device interface {
	ClearDisplay()
	SetCursor(x, y uint8)
	Print(data []byte)
}

// Message represents a two-line LCD message.
type Message struct {
	Line1 []byte
	Line2 []byte
}

// Handler processes LCD messages from a channel.
type Handler struct {
	device   Device
	messages <-chan Message
	logger   *slog.Logger
	rows     int
	columns  int
}

// NewHandler creates a new 16x2 LCD message handler.
func NewHandler(device Device, messages <-chan Message, logger *slog.Logger) *Handler {
	return NewHandlerSize(device, messages, logger, 16, 2)
}

// NewHandlerSize creates a handler for a columns x rows LCD, such as a 16x1
// or 8x2 module.
func NewHandlerSize(device Device, messages <-chan Message, logger *slog.Logger, columns, rows int) *Handler {
	return &Handler{
		device:   device,
		messages: messages,
		logger:   logger,
		rows:     rows,
		columns:  columns,
	}
}

// Run processes messages from the channel and updates the LCD until the
// channel is closed. Run should be called in a separate goroutine.
func (h *Handler) Run() {
	for msg := range h.messages {
		h.display(msg)
	}
	h.logger.Debug("lcd:stopped")
}

// display prints msg to the LCD. Lines past the last row are dropped and
// each line is cut to the display width.
func (h *Handler) display(msg Message) {
	h.device.ClearDisplay()
	for y, line := range [][]byte{msg.Line1, msg.Line2} {
		if y >= h.rows {
			break
		}
		h.device.SetCursor(0, uint8(y))
		// Truncate in-place, no allocation
		if len(line) > h.columns {
			line = line[:h.columns]
		}
		h.device.Print(line)
	}
}

// Send queues a message without blocking. The message is dropped if the
// channel is full or nil.
func Send(messages chan<- Message, line1, line2 string) bool {
	if messages == nil {
		return false
	}
	select {
	case messages <- Message{Line1: []byte(line1), Line2: []byte(line2)}:
		return true
	default:
		return false
	}
}

// Status formats an animation event as a two-line status message.
func Status(ev anim.Event) Message {
	state := "off"
	if ev.Animate {
		state = "on"
	}
	return Message{
		Line1: []byte("Img: " + ev.Image.String()),
		Line2: []byte("Anim: " + state),
	}
}

// Follow turns animation events into status messages until events is closed,
// then closes messages. Messages are dropped while the LCD is busy.
func Follow(events <-chan anim.Event, messages chan<- Message) {
	defer close(messages)
	for ev := range events {
		select {
		case messages <- Status(ev):
		default:
		}
	}
}
