// Package opcmirror copies published frames to an Open Pixel Control server,
// such as a fadecandy board or the OPC gl_server simulator, so the matrix can
// be shown on a strip or a larger panel.
package opcmirror

import (
	"context"
	"encoding/binary"
	"log/slog"
	"net"
	"time"

	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
	"github.com/harveysanders/microbitplayground/ledrtic/palette"
)

// Mirror sends every new frame it receives to an OPC server.
type Mirror struct {
	Server  string
	Channel uint8
	Palette palette.Palette
	// Serpentine reverses every other row, for panels wired as one zig-zag
	// strip.
	Serpentine bool
	Logger     *slog.Logger
	// RetryDelay is the minimum time between connection attempts. Zero means
	// one second.
	RetryDelay time.Duration
}

// PixelIndex returns the strip position of the LED at column x, row y.
func PixelIndex(x, y int, serpentine bool) int {
	if serpentine && y%2 == 1 {
		x = matrix.Width - 1 - x
	}
	return y*matrix.Width + x
}

// cmdSetPixels is the OPC command that sets a run of 8-bit RGB pixels.
const cmdSetPixels = 0

// headerLen is the OPC header: channel, command and a big-endian data length.
const headerLen = 4

// Message builds the OPC set-pixel-colours message for f.
func (m *Mirror) Message(f matrix.Frame) []byte {
	const dataLen = matrix.Width * matrix.Height * 3
	msg := make([]byte, headerLen+dataLen)
	msg[0] = m.Channel
	msg[1] = cmdSetPixels
	binary.BigEndian.PutUint16(msg[2:headerLen], dataLen)
	for y := 0; y < matrix.Height; y++ {
		for x := 0; x < matrix.Width; x++ {
			r, g, b := m.Palette.RGB255(f.At(x, y))
			i := headerLen + PixelIndex(x, y, m.Serpentine)*3
			msg[i], msg[i+1], msg[i+2] = r, g, b
		}
	}
	return msg
}

// Run sends frames until ctx is done or frames is closed. Unchanged frames
// are skipped. Connection failures are logged and retried on a later frame;
// the mirror never holds up the animation.
func (m *Mirror) Run(ctx context.Context, frames <-chan matrix.Frame) {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retry := m.RetryDelay
	if retry <= 0 {
		retry = time.Second
	}

	var (
		conn        net.Conn
		lastAttempt time.Time
		last        matrix.Frame
		sent        bool
	)
	defer func() {
		if conn != nil {
			conn.Close()
		}
	}()
	var d net.Dialer
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				return
			}
			if sent && f == last {
				continue
			}
			if conn == nil {
				if time.Since(lastAttempt) < retry {
					continue
				}
				lastAttempt = time.Now()
				c, err := d.DialContext(ctx, "tcp", m.Server)
				if err != nil {
					logger.Error("opc:connect-failed", slog.String("server", m.Server), slog.Any("reason", err))
					continue
				}
				logger.Info("opc:connected", slog.String("server", m.Server))
				conn = c
			}
			conn.SetWriteDeadline(time.Now().Add(retry))
			if _, err := conn.Write(m.Message(f)); err != nil {
				logger.Error("opc:send-failed", slog.String("server", m.Server), slog.Any("reason", err))
				conn.Close()
				conn = nil
				continue
			}
			last, sent = f, true
		}
	}
}
