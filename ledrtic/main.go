//go:build tinygo

// ledrtic is the micro:bit v2 firmware: a greyscale animation on the 5x5 LED
// matrix, driven by two periodic tasks sharing the display. Button B selects
// the next image and button A starts or stops the animation. With an HD44780
// LCD on the edge connector I2C pins, the current state is shown there too.
package main

import (
	"context"
	"errors"
	"log/slog"
	"machine"
	"time"

	"tinygo.org/x/drivers/hd44780i2c"

	"github.com/harveysanders/microbitplayground/ledrtic/anim"
	"github.com/harveysanders/microbitplayground/ledrtic/app"
	"github.com/harveysanders/microbitplayground/ledrtic/button"
	"github.com/harveysanders/microbitplayground/ledrtic/lcd"
	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
	"github.com/harveysanders/microbitplayground/ledrtic/sched"
)

const useLCD = true

// lcdAddrs are the usual PCF8574 backpack addresses.
var lcdAddrs = []uint8{0x27, 0x3F}

func main() {
	logger := slog.New(slog.NewTextHandler(machine.Serial, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg := app.Config{
		Display: matrix.Config{
			Layout: matrix.LayoutV2,
			Rows: matrix.MachinePins(
				machine.LED_ROW_1, machine.LED_ROW_2, machine.LED_ROW_3,
				machine.LED_ROW_4, machine.LED_ROW_5,
			),
			Cols: matrix.MachinePins(
				machine.LED_COL_1, machine.LED_COL_2, machine.LED_COL_3,
				machine.LED_COL_4, machine.LED_COL_5,
			),
			ColActiveLow: true,
		},
		ButtonA:   button.MachineInput(machine.BUTTONA),
		ButtonB:   button.MachineInput(machine.BUTTONB),
		Prescaler: sched.DefaultPrescaler,
		Logger:    logger,
	}

	if useLCD {
		dev, err := configureLCD(machine.I2C0)
		if err != nil {
			logger.Warn("lcd:unavailable", slog.Any("reason", err))
		} else {
			// Small buffers: the LCD only ever needs the latest state.
			events := make(chan anim.Event, 2)
			lcdMessages := make(chan lcd.Message, 2)
			go lcd.NewHandler(&dev, lcdMessages, logger).Run()
			go lcd.Follow(events, lcdMessages)
			lcd.Send(lcdMessages, "Img: "+anim.Heart.String(), "Anim: on")
			cfg.Events = events
		}
	}

	a, err := app.New(cfg)
	if err != nil {
		printErrForever(logger, "app:setup", slog.Any("reason", err))
	}
	// There is no recovery from a hardware fault: report it forever.
	if err := a.Run(context.Background()); err != nil {
		printErrForever(logger, "app:fatal", slog.Any("reason", err))
	}
}

// configureLCD takes an I2C peripheral, configures it on the edge connector
// pins and initializes the HD44780 display on the first address that
// answers.
func configureLCD(i2c *machine.I2C) (hd44780i2c.Device, error) {
	err := i2c.Configure(machine.I2CConfig{
		SDA: machine.SDA_PIN,
		SCL: machine.SCL_PIN,
	})
	if err != nil {
		return hd44780i2c.Device{}, err
	}
	for _, a := range lcdAddrs {
		dev := hd44780i2c.New(i2c, a)
		err = dev.Configure(hd44780i2c.Config{
			Width:  16,
			Height: 2,
		})
		if err == nil {
			return dev, nil
		}
	}
	return hd44780i2c.Device{}, errors.New("LCD not found on addresses: 0x27, 0x3f")
}

// printErrForever prints a string to serial @ 1hz. It blocks forever, so a
// serial monitor attached after the failure still sees it.
func printErrForever(logger *slog.Logger, msg string, args ...any) {
	for {
		logger.Error(msg, args...)
		time.Sleep(time.Second)
	}
}
