// Package telemetry publishes animation state transitions to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"time"

	mqtt "github.com/soypat/natiu-mqtt"

	"github.com/harveysanders/microbitplayground/ledrtic/anim"
)

// DefaultTopic is used when Client.Topic is empty.
const DefaultTopic = "ledrtic/events"

var pubFlags, _ = mqtt.NewPublishFlags(mqtt.QoS0, false, false)

var errEventsClosed = errors.New("telemetry: event channel closed")

// Client publishes events as JSON. The zero value is usable once ID is set.
type Client struct {
	ID       string
	Topic    string
	Timeout  time.Duration
	Logger   *slog.Logger
	Username string // MQTT broker username (optional)
	Password string // MQTT broker password (optional, requires Username)
	// HeartbeatInterval is how often the broker is pinged, and the last event
	// published again if there is one. It must be shorter than the 60s keep
	// alive sent on connect. Zero means 30s.
	HeartbeatInterval time.Duration
	// RetryDelay is the pause between connection attempts. Zero means 2s.
	RetryDelay time.Duration

	packetID uint16
}

// Payload encodes an event the way it is published.
func Payload(ev anim.Event) ([]byte, error) {
	return json.Marshal(ev)
}

// ConnectAndPublish connects to the broker at addr and publishes every event
// received until ctx is done or events is closed, reconnecting after
// failures. Events that arrive while disconnected are dropped.
func (c *Client) ConnectAndPublish(ctx context.Context, addr string, events <-chan anim.Event) error {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.Logger.Info("mqtt:address", slog.String("addr", addr), slog.String("topic", c.topic()))
	for {
		err := c.session(ctx, addr, events)
		if ctx.Err() != nil || errors.Is(err, errEventsClosed) {
			return nil
		}
		c.Logger.Error("mqtt:disconnected", slog.Any("reason", err))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.retryDelay()):
		}
	}
}

func (c *Client) session(ctx context.Context, addr string, events <-chan anim.Event) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.New("dial " + addr + ": " + err.Error())
	}
	defer conn.Close()
	c.Logger.Info("tcp:connected", slog.String("remote", conn.RemoteAddr().String()))

	client, err := c.connect(conn)
	if err != nil {
		return err
	}
	c.Logger.Info("mqtt:connected")

	heartbeat := time.NewTicker(c.heartbeatInterval())
	defer heartbeat.Stop()
	var last *anim.Event
	for client.IsConnected() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return errEventsClosed
			}
			last = &ev
			if err := c.publish(client, conn, ev); err != nil {
				return err
			}
		case <-heartbeat.C:
			if err := c.ping(client, conn); err != nil {
				return err
			}
			if last == nil {
				continue
			}
			if err := c.publish(client, conn, *last); err != nil {
				return err
			}
		}
	}
	return client.Err()
}

func (c *Client) connect(conn net.Conn) (*mqtt.Client, error) {
	cfg := mqtt.ClientConfig{
		Decoder: mqtt.DecoderNoAlloc{UserBuffer: make([]byte, 1024)},
		OnPub: func(pubHead mqtt.Header, varPub mqtt.VariablesPublish, r io.Reader) error {
			c.Logger.Debug("received message", slog.String("topic", string(varPub.TopicName)))
			return nil
		},
	}
	var varconn mqtt.VariablesConnect
	varconn.SetDefaultMQTT([]byte(c.ID))
	if c.Username != "" {
		varconn.Username = []byte(c.Username)
		if c.Password != "" {
			varconn.Password = []byte(c.Password)
		}
	}

	client := mqtt.NewClient(cfg)
	conn.SetDeadline(time.Now().Add(c.timeout()))
	if err := client.StartConnect(conn, &varconn); err != nil {
		return nil, errors.New("mqtt connect: " + err.Error())
	}
	for retries := 50; retries > 0 && !client.IsConnected(); retries-- {
		if err := client.HandleNext(); err != nil {
			return nil, errors.New("mqtt connect: " + err.Error())
		}
	}
	if !client.IsConnected() {
		return nil, errors.New("mqtt connect: no CONNACK from broker")
	}
	return client, nil
}

func (c *Client) publish(client *mqtt.Client, conn net.Conn, ev anim.Event) error {
	payload, err := Payload(ev)
	if err != nil {
		// Only an invalid variant can fail to encode; skip it.
		c.Logger.Error("mqtt:marshal-failed", slog.Any("reason", err))
		return nil
	}
	c.packetID++
	vars := mqtt.VariablesPublish{
		TopicName:        []byte(c.topic()),
		PacketIdentifier: c.packetID,
	}
	conn.SetDeadline(time.Now().Add(c.timeout()))
	if err := client.PublishPayload(pubFlags, vars, payload); err != nil {
		return errors.New("mqtt publish: " + err.Error())
	}
	c.Logger.Debug("published message",
		slog.Uint64("packetID", uint64(c.packetID)),
		slog.String("kind", string(ev.Kind)),
	)
	return nil
}

// ping sends a PINGREQ and reads the broker's reply.
func (c *Client) ping(client *mqtt.Client, conn net.Conn) error {
	conn.SetDeadline(time.Now().Add(c.timeout()))
	if err := client.StartPing(); err != nil {
		return errors.New("mqtt ping: " + err.Error())
	}
	if err := client.HandleNext(); err != nil {
		return errors.New("mqtt ping: " + err.Error())
	}
	c.Logger.Debug("mqtt:pinged")
	return nil
}

func (c *Client) topic() string {
	if c.Topic == "" {
		return DefaultTopic
	}
	return c.Topic
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 5 * time.Second
	}
	return c.Timeout
}

func (c *Client) heartbeatInterval() time.Duration {
	if c.HeartbeatInterval <= 0 {
		return 30 * time.Second
	}
	return c.HeartbeatInterval
}

func (c *Client) retryDelay() time.Duration {
	if c.RetryDelay <= 0 {
		return 2 * time.Second
	}
	return c.RetryDelay
}
