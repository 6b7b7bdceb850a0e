// Package config loads the YAML settings shared by the host programs.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/harveysanders/microbitplayground/ledrtic/app"
	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
	"github.com/harveysanders/microbitplayground/ledrtic/sched"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// Config is the top level configuration file.
type Config struct {
	// Layout is "v1" (3x9 wiring) or "v2" (5x5 wiring).
	Layout      string `yaml:"layout"`
	RefreshRate int    `yaml:"refresh_rate"` // full scans per second
	Prescaler   uint32 `yaml:"prescaler"`    // animation tick divider, 2047 = 16 Hz
	LogLevel    string `yaml:"log_level"`    // debug, info, warn, error
	Color       bool   `yaml:"color"`        // 24-bit colour in the terminal view
	Pins        Pins   `yaml:"pins"`
	OPC         OPC    `yaml:"opc"`
	MQTT        MQTT   `yaml:"mqtt"`
}

// Pins names the GPIO lines used by ledpi. Empty lists are filled by
// GPIOPins.
type Pins struct {
	Rows    []string `yaml:"rows"`
	Cols    []string `yaml:"cols"`
	ButtonA string   `yaml:"button_a"`
	ButtonB string   `yaml:"button_b"`
}

// OPC configures the Open Pixel Control mirror. An empty server disables it.
type OPC struct {
	Server     string `yaml:"server"`
	Channel    uint8  `yaml:"channel"`
	Serpentine bool   `yaml:"serpentine"`
}

// MQTT configures event telemetry. An empty broker disables it.
type MQTT struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Layout:      "v2",
		RefreshRate: app.DefaultRefreshRate,
		Prescaler:   sched.DefaultPrescaler,
		LogLevel:    "info",
		MQTT: MQTT{
			ClientID: "ledrtic",
			Topic:    "ledrtic/events",
		},
	}
}

// DefaultPins is the Raspberry Pi wiring for a v2 layout matrix.
func DefaultPins() Pins {
	return Pins{
		Rows:    []string{"GPIO5", "GPIO6", "GPIO13", "GPIO19", "GPIO26"},
		Cols:    []string{"GPIO12", "GPIO16", "GPIO20", "GPIO21", "GPIO25"},
		ButtonA: "GPIO17",
		ButtonB: "GPIO27",
	}
}

// GPIOPins returns the configured pins with gaps filled from DefaultPins.
// Row and column lists only have defaults for the v2 layout.
func (c Config) GPIOPins() (Pins, error) {
	layout, err := c.MatrixLayout()
	if err != nil {
		return Pins{}, err
	}
	def := DefaultPins()
	p := c.Pins
	if p.ButtonA == "" {
		p.ButtonA = def.ButtonA
	}
	if p.ButtonB == "" {
		p.ButtonB = def.ButtonB
	}
	if layout == matrix.LayoutV2 {
		if len(p.Rows) == 0 {
			p.Rows = def.Rows
		}
		if len(p.Cols) == 0 {
			p.Cols = def.Cols
		}
	}
	if len(p.Rows) != layout.Rows {
		return Pins{}, fmt.Errorf("%w: layout %s needs %d row pins, got %d", ErrInvalid, c.Layout, layout.Rows, len(p.Rows))
	}
	if len(p.Cols) != layout.Cols {
		return Pins{}, fmt.Errorf("%w: layout %s needs %d column pins, got %d", ErrInvalid, c.Layout, layout.Cols, len(p.Cols))
	}
	return p, nil
}

// Load reads path on top of Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate reports the first problem found, wrapping ErrInvalid.
func (c Config) Validate() error {
	layout, err := c.MatrixLayout()
	if err != nil {
		return err
	}
	if c.RefreshRate <= 0 {
		return fmt.Errorf("%w: refresh_rate must be positive, got %d", ErrInvalid, c.RefreshRate)
	}
	if c.Prescaler > sched.MaxPrescaler {
		return fmt.Errorf("%w: prescaler %d exceeds %d", ErrInvalid, c.Prescaler, sched.MaxPrescaler)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if n := len(c.Pins.Rows); n != 0 && n != layout.Rows {
		return fmt.Errorf("%w: layout %s needs %d row pins, got %d", ErrInvalid, c.Layout, layout.Rows, n)
	}
	if n := len(c.Pins.Cols); n != 0 && n != layout.Cols {
		return fmt.Errorf("%w: layout %s needs %d column pins, got %d", ErrInvalid, c.Layout, layout.Cols, n)
	}
	if c.MQTT.Password != "" && c.MQTT.Username == "" {
		return fmt.Errorf("%w: mqtt password set without username", ErrInvalid)
	}
	if c.MQTT.Broker != "" && c.MQTT.ClientID == "" {
		return fmt.Errorf("%w: mqtt client_id is required", ErrInvalid)
	}
	return nil
}

// MatrixLayout maps the layout name to its wiring.
func (c Config) MatrixLayout() (matrix.Layout, error) {
	switch c.Layout {
	case "v1":
		return matrix.LayoutV1, nil
	case "v2", "":
		return matrix.LayoutV2, nil
	default:
		return matrix.Layout{}, fmt.Errorf("%w: unknown layout %q", ErrInvalid, c.Layout)
	}
}

// SlogLevel parses LogLevel. An empty level means info.
func (c Config) SlogLevel() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return l, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return l, nil
}
