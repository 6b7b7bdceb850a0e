package telemetry

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/harveysanders/microbitplayground/ledrtic/anim"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPayload(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	b, err := Payload(anim.Event{Kind: anim.EventImage, Image: anim.Rust, Animate: true, Step: 3, At: at})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"kind":"image","image":"Rust","animate":true,"step":3,"at":"2024-05-01T12:00:00Z"}`
	if string(b) != want {
		t.Errorf("Payload =\n%s\nwant\n%s", b, want)
	}
	if _, err := Payload(anim.Event{Image: anim.Variant(42)}); err == nil {
		t.Error("Payload encoded an invalid variant")
	}
}

// readPacket reads one MQTT control packet and returns its type nibble and
// body.
func readPacket(r *bufio.Reader) (byte, []byte, error) {
	head, err := r.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	var length, shift int
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, nil, err
		}
		length |= int(b&0x7f) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	body := make([]byte, length)
	_, err = io.ReadFull(r, body)
	return head >> 4, body, err
}

// fakeBroker accepts one client, acknowledges its CONNECT, answers every
// PINGREQ and forwards the payload of every PUBLISH it receives. Each ping
// is also reported on pings when it is not nil. Reports that find a full
// channel are dropped so the broker never stalls.
func fakeBroker(t *testing.T, ln net.Listener, payloads chan<- []byte, pings chan<- struct{}) {
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	typ, _, err := readPacket(r)
	if err != nil || typ != 1 {
		t.Errorf("first packet type %d, err %v, want CONNECT", typ, err)
		return
	}
	if _, err := conn.Write([]byte{0x20, 0x02, 0x00, 0x00}); err != nil {
		t.Errorf("write CONNACK: %v", err)
		return
	}
	for {
		typ, body, err := readPacket(r)
		if err != nil {
			return
		}
		if typ == 12 {
			if _, err := conn.Write([]byte{0xd0, 0x00}); err != nil {
				t.Errorf("write PINGRESP: %v", err)
				return
			}
			select {
			case pings <- struct{}{}:
			default:
			}
			continue
		}
		if typ != 3 {
			continue
		}
		topicLen := int(body[0])<<8 | int(body[1])
		topic := string(body[2 : 2+topicLen])
		if topic != "test/events" {
			t.Errorf("topic = %q", topic)
		}
		rest := body[2+topicLen:]
		if i := bytes.IndexByte(rest, '{'); i >= 0 {
			rest = rest[i:]
		}
		select {
		case payloads <- rest:
		default:
		}
	}
}

func TestConnectAndPublish(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	payloads := make(chan []byte, 4)
	go fakeBroker(t, ln, payloads, nil)

	c := &Client{ID: "test", Topic: "test/events", Logger: quietLogger(), Timeout: time.Second}
	events := make(chan anim.Event, 1)
	done := make(chan error, 1)
	go func() { done <- c.ConnectAndPublish(context.Background(), ln.Addr().String(), events) }()

	events <- anim.Event{Kind: anim.EventAnimate, Image: anim.Heart, Animate: false}
	select {
	case p := <-payloads:
		var ev anim.Event
		if err := json.Unmarshal(p, &ev); err != nil {
			t.Fatalf("payload %q: %v", p, err)
		}
		if ev.Kind != anim.EventAnimate || ev.Image != anim.Heart || ev.Animate {
			t.Errorf("published %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no PUBLISH received")
	}

	close(events)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ConnectAndPublish = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ConnectAndPublish did not return after events closed")
	}
}

func TestHeartbeatPingsBeforeFirstEvent(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	payloads := make(chan []byte, 4)
	pings := make(chan struct{}, 4)
	go fakeBroker(t, ln, payloads, pings)

	c := &Client{
		ID:                "test",
		Topic:             "test/events",
		Logger:            quietLogger(),
		Timeout:           time.Second,
		HeartbeatInterval: 20 * time.Millisecond,
	}
	events := make(chan anim.Event, 1)
	done := make(chan error, 1)
	go func() { done <- c.ConnectAndPublish(context.Background(), ln.Addr().String(), events) }()

	for i := 0; i < 2; i++ {
		select {
		case <-pings:
		case <-time.After(5 * time.Second):
			t.Fatalf("ping %d not received", i+1)
		}
	}
	select {
	case p := <-payloads:
		t.Fatalf("published %q before any event", p)
	default:
	}

	// The session survived the pings and still publishes.
	events <- anim.Event{Kind: anim.EventImage, Image: anim.Rust, Animate: true}
	select {
	case p := <-payloads:
		var ev anim.Event
		if err := json.Unmarshal(p, &ev); err != nil {
			t.Fatalf("payload %q: %v", p, err)
		}
		if ev.Image != anim.Rust {
			t.Errorf("published %+v", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no PUBLISH received after pings")
	}

	close(events)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("ConnectAndPublish did not return after events closed")
	}
}

func TestConnectAndPublishGivesUpOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close() // nothing listening: every dial fails

	c := &Client{ID: "test", Logger: quietLogger(), RetryDelay: 10 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := c.ConnectAndPublish(ctx, addr, make(chan anim.Event)); err != nil {
		t.Errorf("ConnectAndPublish = %v, want nil", err)
	}
}
