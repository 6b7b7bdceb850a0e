// Package app assembles the animation: one display shared by a high-priority
// refresh task and a low-priority animation and input task.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/harveysanders/microbitplayground/ledrtic/anim"
	"github.com/harveysanders/microbitplayground/ledrtic/button"
	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
	"github.com/harveysanders/microbitplayground/ledrtic/sched"
)

// DefaultRefreshRate is how many times per second the whole matrix is
// scanned.
const DefaultRefreshRate = 60

// Config wires the application to its hardware.
type Config struct {
	Display matrix.Config
	ButtonA button.Pin
	ButtonB button.Pin
	// Prescaler divides the 32.768 kHz clock to produce the animation tick.
	// sched.DefaultPrescaler gives 16 Hz.
	Prescaler uint32
	// RefreshRate is the number of full matrix scans per second. Zero means
	// DefaultRefreshRate.
	RefreshRate int
	Logger      *slog.Logger
	Events      chan<- anim.Event
	Frames      chan<- matrix.Frame
	// AfterAdvance, if set, runs inside the display critical section after
	// every multiplexing step.
	AfterAdvance func()
}

// App owns the shared display and both periodic tasks.
type App struct {
	display      *sched.Shared[*matrix.Display]
	anim         *anim.Task
	animTimer    *sched.Timer
	refreshTimer *sched.Timer
	afterAdvance func()
	logger       *slog.Logger
}

// New configures the display pins and builds both tasks. The timers are not
// started until Run.
func New(cfg Config) (*App, error) {
	if cfg.ButtonA == nil || cfg.ButtonB == nil {
		return nil, errors.New("app: both button pins are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rate := cfg.RefreshRate
	if rate <= 0 {
		rate = DefaultRefreshRate
	}

	d, err := matrix.New(cfg.Display)
	if err != nil {
		return nil, err
	}
	if err := d.Configure(); err != nil {
		return nil, err
	}
	animTimer, err := sched.NewRTC(cfg.Prescaler)
	if err != nil {
		return nil, err
	}

	a := &App{
		display:      sched.NewShared(d, sched.PriorityDisplay),
		animTimer:    animTimer,
		refreshTimer: sched.NewTimer(RefreshPeriod(rate, d.Layout().Rows)),
		afterAdvance: cfg.AfterAdvance,
		logger:       logger,
	}
	a.anim = anim.NewTask(anim.Config{
		Timer:   animTimer,
		ButtonA: button.New(cfg.ButtonA),
		ButtonB: button.New(cfg.ButtonB),
		Display: a.display,
		Logger:  logger,
		Events:  cfg.Events,
		Frames:  cfg.Frames,
	})
	return a, nil
}

// RefreshPeriod returns the interval between multiplexing steps needed to scan
// a matrix with the given number of rows rate times per second.
func RefreshPeriod(rate, rows int) time.Duration {
	return time.Second / time.Duration(rate*rows*matrix.MaxBrightness)
}

// Display returns the shared display resource.
func (a *App) Display() *sched.Shared[*matrix.Display] {
	return a.display
}

// Animation returns the animation task.
func (a *App) Animation() *anim.Task {
	return a.anim
}

// Refresh is the display refresh handler: it re-arms the refresh timer and
// advances the multiplexer by one step.
func (a *App) Refresh() error {
	a.refreshTimer.Acknowledge()
	var err error
	a.display.Lock(sched.PriorityDisplay, func(d *matrix.Display) {
		err = d.Advance()
		if err == nil && a.afterAdvance != nil {
			a.afterAdvance()
		}
	})
	return err
}

// Tasks returns the two periodic tasks.
func (a *App) Tasks() []sched.Task {
	return []sched.Task{
		{
			Name:     "display",
			Priority: sched.PriorityDisplay,
			Source:   a.refreshTimer,
			Handler:  a.Refresh,
		},
		{
			Name:     "animation",
			Priority: sched.PriorityAnimation,
			Source:   a.animTimer,
			Handler:  a.anim.Tick,
		},
	}
}

// Run starts both timers and runs the tasks until ctx is cancelled or a task
// fails. On return the timers are stopped and the matrix is switched off.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app:start",
		slog.Duration("animationPeriod", a.animTimer.Period()),
		slog.Duration("refreshPeriod", a.refreshTimer.Period()),
	)
	a.refreshTimer.Enable()
	a.animTimer.Enable()
	defer a.refreshTimer.Disable()
	defer a.animTimer.Disable()

	err := sched.Run(ctx, a.Tasks()...)
	a.display.Lock(sched.PriorityDisplay, func(d *matrix.Display) {
		if offErr := d.Off(); offErr != nil && err == nil {
			err = offErr
		}
	})
	a.logger.Info("app:stopped",
		slog.Uint64("animationOverruns", a.animTimer.Overruns()),
		slog.Uint64("refreshOverruns", a.refreshTimer.Overruns()),
	)
	return err
}
