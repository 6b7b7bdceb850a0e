// ledpi runs the LED matrix animation on a Raspberry Pi, driving a matrix
// and two push buttons wired to GPIO lines named in the configuration file.
// Rows are driven high and columns low to light an LED, as on the micro:bit.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/harveysanders/microbitplayground/ledrtic/anim"
	"github.com/harveysanders/microbitplayground/ledrtic/app"
	"github.com/harveysanders/microbitplayground/ledrtic/button"
	"github.com/harveysanders/microbitplayground/ledrtic/config"
	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
	"github.com/harveysanders/microbitplayground/ledrtic/telemetry"
)

var (
	configPath = ""
	verbose    = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "YAML configuration file")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

func main() {
	log.SetFlags(0)
	pflag.Parse()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			log.Fatal(err)
		}
	}
	level, _ := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph.io: %w", err)
	}

	layout, err := cfg.MatrixLayout()
	if err != nil {
		return err
	}
	pins, err := cfg.GPIOPins()
	if err != nil {
		return err
	}
	rows, err := outputs(pins.Rows)
	if err != nil {
		return err
	}
	cols, err := outputs(pins.Cols)
	if err != nil {
		return err
	}
	buttonA, err := input(pins.ButtonA)
	if err != nil {
		return err
	}
	buttonB, err := input(pins.ButtonB)
	if err != nil {
		return err
	}

	var events chan anim.Event
	if cfg.MQTT.Broker != "" {
		events = make(chan anim.Event, 8)
		c := &telemetry.Client{
			ID:       cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Logger:   logger.With("component", "mqtt"),
		}
		go func() {
			if err := c.ConnectAndPublish(ctx, cfg.MQTT.Broker, events); err != nil {
				logger.Error("mqtt:stopped", slog.Any("reason", err))
			}
		}()
	}

	a, err := app.New(app.Config{
		Display: matrix.Config{
			Layout:       layout,
			Rows:         rows,
			Cols:         cols,
			ColActiveLow: true,
		},
		ButtonA:     buttonA,
		ButtonB:     buttonB,
		Prescaler:   cfg.Prescaler,
		RefreshRate: cfg.RefreshRate,
		Logger:      logger,
		Events:      events,
	})
	if err != nil {
		return fmt.Errorf("failed to create the app: %w", err)
	}
	return a.Run(ctx)
}

// gpioOut adapts a periph output line to matrix.Pin.
type gpioOut struct{ p gpio.PinIO }

func (o gpioOut) Set(high bool) error { return o.p.Out(gpio.Level(high)) }

// gpioIn adapts a periph input line to button.Pin.
type gpioIn struct{ p gpio.PinIO }

func (i gpioIn) Get() (bool, error) { return bool(i.p.Read()), nil }

func lookup(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("GPIO pin %s not found", name)
	}
	return p, nil
}

func outputs(names []string) ([]matrix.Pin, error) {
	pins := make([]matrix.Pin, len(names))
	for i, name := range names {
		p, err := lookup(name)
		if err != nil {
			return nil, err
		}
		pins[i] = gpioOut{p}
	}
	return pins, nil
}

// input configures the named line as an input with the internal pull-up,
// since a bare push button to ground has none of its own.
func input(name string) (button.Pin, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure %s: %w", name, err)
	}
	return gpioIn{p}, nil
}
