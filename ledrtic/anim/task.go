package anim

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/harveysanders/microbitplayground/ledrtic/button"
	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
	"github.com/harveysanders/microbitplayground/ledrtic/sched"
)

// Acknowledger clears the pending event of the timer that drives the task.
type Acknowledger interface {
	Acknowledge()
}

// EventKind names a state transition.
type EventKind string

const (
	// EventImage is emitted when button B selects the next image.
	EventImage EventKind = "image"
	// EventAnimate is emitted when button A starts or stops the animation.
	EventAnimate EventKind = "animate"
)

// Event describes a state transition for status displays and telemetry.
type Event struct {
	Kind    EventKind `json:"kind"`
	Image   Variant   `json:"image"`
	Animate bool      `json:"animate"`
	Step    uint8     `json:"step"`
	At      time.Time `json:"at"`
}

// Config wires a Task to its collaborators.
type Config struct {
	Timer   Acknowledger
	ButtonA *button.Button
	ButtonB *button.Button
	Display *sched.Shared[*matrix.Display]
	Logger  *slog.Logger
	// Events, if set, receives state transitions. Sends never block; an event
	// is dropped when the channel is full.
	Events chan<- Event
	// Frames, if set, receives every published frame, with the same drop
	// policy as Events.
	Frames chan<- matrix.Frame
}

// Task is the animation and input handler. Its Tick method runs once per
// animation timer event.
type Task struct {
	timer   Acknowledger
	buttonA *button.Button
	buttonB *button.Button
	display *sched.Shared[*matrix.Display]
	logger  *slog.Logger
	events  chan<- Event
	frames  chan<- matrix.Frame

	state State
}

// NewTask returns a Task in the power-on state.
func NewTask(cfg Config) *Task {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Task{
		timer:   cfg.Timer,
		buttonA: cfg.ButtonA,
		buttonB: cfg.ButtonB,
		display: cfg.Display,
		logger:  logger,
		events:  cfg.Events,
		frames:  cfg.Frames,
		state:   NewState(),
	}
}

// State returns the current animation state. It must not be called
// concurrently with Tick.
func (t *Task) State() State {
	return t.state
}

// Tick acknowledges the timer, handles button edges, renders the frame for
// the current state and publishes it. A button read error is returned and
// should be treated as fatal.
func (t *Task) Tick() error {
	t.timer.Acknowledge()

	next, err := t.buttonB.CheckRisingEdge()
	if err != nil {
		return fmt.Errorf("button B: %w", err)
	}
	if next {
		t.state.NextImage()
		t.logger.Info("anim:showing", slog.String("image", t.state.Variant.String()))
		t.emit(EventImage)
	}

	toggle, err := t.buttonA.CheckRisingEdge()
	if err != nil {
		return fmt.Errorf("button A: %w", err)
	}
	if toggle {
		t.state.ToggleAnimate()
		if t.state.Animate {
			t.logger.Info("anim:start")
		} else {
			t.logger.Info("anim:stop")
		}
		t.emit(EventAnimate)
	}

	frame := Render(t.state)
	t.display.Lock(sched.PriorityAnimation, func(d *matrix.Display) {
		d.Publish(frame)
	})
	if t.frames != nil {
		select {
		case t.frames <- frame:
		default:
		}
	}

	t.state.Advance()
	return nil
}

func (t *Task) emit(kind EventKind) {
	if t.events == nil {
		return
	}
	ev := Event{
		Kind:    kind,
		Image:   t.state.Variant,
		Animate: t.state.Animate,
		Step:    t.state.Step,
		At:      time.Now(),
	}
	select {
	case t.events <- ev:
	default:
		t.logger.Debug("anim:event-dropped", slog.String("kind", string(kind)))
	}
}
