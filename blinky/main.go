//go:build tinygo

// blinky shows a full-brightness heart on the micro:bit matrix for a second,
// blanks it for a quarter second and repeats. It multiplexes the matrix from
// a single loop, with no timers or tasks.
package main

import (
	"image/color"
	"machine"
	"time"

	"github.com/harveysanders/microbitplayground/ledrtic/app"
	"github.com/harveysanders/microbitplayground/ledrtic/images"
	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
)

func main() {
	d, err := matrix.New(matrix.Config{
		Rows: matrix.MachinePins(
			machine.LED_ROW_1, machine.LED_ROW_2, machine.LED_ROW_3,
			machine.LED_ROW_4, machine.LED_ROW_5,
		),
		Cols: matrix.MachinePins(
			machine.LED_COL_1, machine.LED_COL_2, machine.LED_COL_3,
			machine.LED_COL_4, machine.LED_COL_5,
		),
		ColActiveLow: true,
	})
	if err == nil {
		err = d.Configure()
	}
	if err != nil {
		for {
			println(err.Error())
			time.Sleep(time.Second)
		}
	}

	step := app.RefreshPeriod(app.DefaultRefreshRate, d.Layout().Rows)
	heart := images.Heart(matrix.MaxBrightness)
	for {
		println("heart on")
		if err := matrix.Draw(d, heart, color.RGBA{R: 255, A: 255}); err != nil {
			println(err.Error())
		}
		if err := d.Hold(d.Frame(), time.Second, step); err != nil {
			println(err.Error())
		}

		println("heart off")
		time.Sleep(250 * time.Millisecond)
	}
}
