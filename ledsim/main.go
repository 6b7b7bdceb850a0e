// ledsim runs the LED matrix animation on a desktop. The matrix pins are
// simulated and the perceived brightness is drawn in the terminal. Type
// "a" or "b" and Enter to click a button, "q" to quit.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/harveysanders/microbitplayground/ledrtic/anim"
	"github.com/harveysanders/microbitplayground/ledrtic/app"
	"github.com/harveysanders/microbitplayground/ledrtic/button"
	"github.com/harveysanders/microbitplayground/ledrtic/config"
	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
	"github.com/harveysanders/microbitplayground/ledrtic/opcmirror"
	"github.com/harveysanders/microbitplayground/ledrtic/palette"
	"github.com/harveysanders/microbitplayground/ledrtic/sched"
	"github.com/harveysanders/microbitplayground/ledrtic/telemetry"
	"github.com/harveysanders/microbitplayground/ledrtic/termview"
)

var (
	configPath = ""
	layoutName = ""
	opcServer  = ""
	mqttBroker = ""
	colorView  = false
	verbose    = false
)

func init() {
	pflag.StringVarP(&configPath, "config", "c", configPath, "YAML configuration file")
	pflag.StringVar(&layoutName, "layout", layoutName, "matrix wiring, v1 or v2 (overrides config)")
	pflag.StringVar(&opcServer, "opc", opcServer, "Open Pixel Control server to mirror frames to")
	pflag.StringVar(&mqttBroker, "mqtt", mqttBroker, "MQTT broker to publish events to")
	pflag.BoolVar(&colorView, "color", colorView, "draw the matrix with 24-bit colour")
	pflag.BoolVarP(&verbose, "verbose", "v", verbose, "verbose logging")
}

// viewPeriod is how long the terminal view integrates before each redraw.
const viewPeriod = 100 * time.Millisecond

func main() {
	log.SetFlags(0)
	pflag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	level, _ := cfg.SlogLevel()
	if verbose {
		level = slog.LevelDebug
	}

	logHandler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})

	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}
	if layoutName != "" {
		cfg.Layout = layoutName
	}
	if opcServer != "" {
		cfg.OPC.Server = opcServer
	}
	if mqttBroker != "" {
		cfg.MQTT.Broker = mqttBroker
	}
	if colorView {
		cfg.Color = true
	}
	// Every pin is simulated.
	cfg.Pins = config.Pins{}
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	layout, err := cfg.MatrixLayout()
	if err != nil {
		return err
	}
	display, integrator := matrix.NewVirtual(layout, false, true)
	var buttonA, buttonB button.VirtualPin

	events := make(chan anim.Event, 8)
	frames := make(chan matrix.Frame, 8)
	a, err := app.New(app.Config{
		Display:      display,
		ButtonA:      &buttonA,
		ButtonB:      &buttonB,
		Prescaler:    cfg.Prescaler,
		RefreshRate:  cfg.RefreshRate,
		Logger:       logger,
		Events:       events,
		Frames:       frames,
		AfterAdvance: integrator.Sample,
	})
	if err != nil {
		return fmt.Errorf("failed to create the app: %w", err)
	}

	var wg sync.WaitGroup
	var eventSinks []chan<- anim.Event
	var frameSinks []chan<- matrix.Frame

	if cfg.MQTT.Broker != "" {
		ch := make(chan anim.Event, 8)
		eventSinks = append(eventSinks, ch)
		c := &telemetry.Client{
			ID:       cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			Logger:   logger.With("component", "mqtt"),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.ConnectAndPublish(ctx, cfg.MQTT.Broker, ch); err != nil {
				logger.Error("mqtt:stopped", slog.Any("reason", err))
			}
		}()
	}

	if cfg.OPC.Server != "" {
		ch := make(chan matrix.Frame, 8)
		frameSinks = append(frameSinks, ch)
		m := &opcmirror.Mirror{
			Server:     cfg.OPC.Server,
			Channel:    cfg.OPC.Channel,
			Serpentine: cfg.OPC.Serpentine,
			Palette:    palette.MicrobitRed,
			Logger:     logger.With("component", "opc"),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Run(ctx, ch)
		}()
	}

	go app.Broadcast(ctx, events, eventSinks...)
	go app.Broadcast(ctx, frames, frameSinks...)

	view := termview.New(os.Stdout, palette.MicrobitRed, cfg.Color)
	wg.Add(1)
	go func() {
		defer wg.Done()
		drawLoop(ctx, view, integrator, cfg.Color, logger)
	}()

	// Hold each click for two animation ticks so a sample always sees it.
	pressFor := 2 * sched.RTCPeriod(cfg.Prescaler)
	go readKeys(os.Stdin, &buttonA, &buttonB, pressFor, cancel, logger)

	err = a.Run(ctx)
	cancel()
	wg.Wait()
	return err
}

// drawLoop redraws the perceived brightness every viewPeriod. Without
// colour the view scrolls, so only changed frames are printed.
func drawLoop(ctx context.Context, view *termview.View, in *matrix.Integrator, color bool, logger *slog.Logger) {
	ticker := time.NewTicker(viewPeriod)
	defer ticker.Stop()
	var last matrix.Frame
	first := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		f := in.Frame()
		in.Reset()
		if !color && !first && f == last {
			continue
		}
		if !color {
			fmt.Fprintln(os.Stdout)
		}
		if err := view.Draw(f); err != nil {
			logger.Error("view:draw-failed", slog.Any("reason", err))
			return
		}
		last, first = f, false
	}
}

// readKeys clicks the simulated buttons from line input until r is
// exhausted or "q" is entered.
func readKeys(r io.Reader, a, b *button.VirtualPin, pressFor time.Duration, quit func(), logger *slog.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		switch strings.ToLower(strings.TrimSpace(sc.Text())) {
		case "a":
			a.Press(pressFor)
		case "b":
			b.Press(pressFor)
		case "q":
			quit()
			return
		case "":
		default:
			logger.Warn("sim:unknown-key", slog.String("input", sc.Text()))
		}
	}
}
