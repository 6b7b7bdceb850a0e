package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/harveysanders/microbitplayground/ledrtic/anim"
	"github.com/harveysanders/microbitplayground/ledrtic/button"
	"github.com/harveysanders/microbitplayground/ledrtic/images"
	"github.com/harveysanders/microbitplayground/ledrtic/matrix"
	"github.com/harveysanders/microbitplayground/ledrtic/sched"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRefreshPeriod(t *testing.T) {
	if got, want := RefreshPeriod(60, 5), time.Second/2100; got != want {
		t.Errorf("RefreshPeriod(60, 5) = %v, want %v", got, want)
	}
	if got, want := RefreshPeriod(100, 3), time.Second/2100; got != want {
		t.Errorf("RefreshPeriod(100, 3) = %v, want %v", got, want)
	}
}

func TestNewRequiresButtons(t *testing.T) {
	cfg, _ := matrix.NewVirtual(matrix.LayoutV2, false, true)
	if _, err := New(Config{Display: cfg, ButtonA: &button.VirtualPin{}}); err == nil {
		t.Fatal("New accepted a missing button B")
	}
}

func TestNewRejectsPrescaler(t *testing.T) {
	cfg, _ := matrix.NewVirtual(matrix.LayoutV2, false, true)
	_, err := New(Config{
		Display:   cfg,
		ButtonA:   &button.VirtualPin{},
		ButtonB:   &button.VirtualPin{},
		Prescaler: sched.MaxPrescaler + 1,
		Logger:    quietLogger(),
	})
	if !errors.Is(err, sched.ErrPrescaler) {
		t.Fatalf("New err = %v, want ErrPrescaler", err)
	}
}

func TestTasksPriorities(t *testing.T) {
	cfg, _ := matrix.NewVirtual(matrix.LayoutV2, false, true)
	a, err := New(Config{
		Display:   cfg,
		ButtonA:   &button.VirtualPin{},
		ButtonB:   &button.VirtualPin{},
		Prescaler: sched.DefaultPrescaler,
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	tasks := a.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("%d tasks, want 2", len(tasks))
	}
	var display, animation sched.Task
	for _, tk := range tasks {
		switch tk.Name {
		case "display":
			display = tk
		case "animation":
			animation = tk
		}
	}
	if display.Priority <= animation.Priority {
		t.Errorf("display priority %d not above animation priority %d", display.Priority, animation.Priority)
	}
	if a.Display().Ceiling() != display.Priority {
		t.Errorf("display ceiling = %d, want %d", a.Display().Ceiling(), display.Priority)
	}
}

func TestRefreshAndAnimationByHand(t *testing.T) {
	cfg, in := matrix.NewVirtual(matrix.LayoutV2, false, true)
	a, err := New(Config{
		Display:      cfg,
		ButtonA:      &button.VirtualPin{},
		ButtonB:      &button.VirtualPin{},
		Prescaler:    sched.DefaultPrescaler,
		Logger:       quietLogger(),
		AfterAdvance: in.Sample,
	})
	if err != nil {
		t.Fatal(err)
	}
	// One animation tick publishes the first heart; the matrix is then scanned
	// many times before the next tick would come.
	if err := a.Animation().Tick(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10*matrix.Height*matrix.MaxBrightness; i++ {
		if err := a.Refresh(); err != nil {
			t.Fatal(err)
		}
	}
	want := images.Heart(matrix.MaxBrightness) // interior 9 is clamped
	if got := in.Frame(); got != want {
		t.Errorf("perceived frame = %v, want %v", got.Pixels(), want.Pixels())
	}
}

func TestRunShowsHeart(t *testing.T) {
	cfg, in := matrix.NewVirtual(matrix.LayoutV2, false, true)
	frames := make(chan matrix.Frame, 64)
	a, err := New(Config{
		Display:      cfg,
		ButtonA:      &button.VirtualPin{},
		ButtonB:      &button.VirtualPin{},
		Prescaler:    sched.DefaultPrescaler,
		Logger:       quietLogger(),
		Frames:       frames,
		AfterAdvance: in.Sample,
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(frames) == 0 {
		t.Fatal("no frames published")
	}
	if in.Samples() == 0 {
		t.Fatal("display never refreshed")
	}
	// Outline pixels are always at full brightness, corners always off. The
	// last scan may be cut short, so allow one level of rounding.
	got := in.Frame()
	if got.At(1, 0) < matrix.MaxBrightness-1 || got.At(2, 4) < matrix.MaxBrightness-1 {
		t.Errorf("heart outline not lit: %v", got.Pixels())
	}
	if got.At(0, 0) != 0 || got.At(4, 4) != 0 {
		t.Errorf("corners lit: %v", got.Pixels())
	}
	// Run switches the matrix off on the way out.
	for y := 0; y < matrix.Height; y++ {
		for x := 0; x < matrix.Width; x++ {
			if in.Lit(x, y) {
				t.Fatalf("LED (%d,%d) still lit after Run", x, y)
			}
		}
	}
}

func TestRunStopsOnButtonFailure(t *testing.T) {
	cfg, _ := matrix.NewVirtual(matrix.LayoutV2, false, true)
	pinA := &button.VirtualPin{}
	stuck := errors.New("stuck")
	pinA.Fail(stuck)
	a, err := New(Config{
		Display:   cfg,
		ButtonA:   pinA,
		ButtonB:   &button.VirtualPin{},
		Prescaler: sched.DefaultPrescaler,
		Logger:    quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Run(ctx); !errors.Is(err, stuck) {
		t.Fatalf("Run = %v, want %v", err, stuck)
	}
}

func TestBroadcast(t *testing.T) {
	in := make(chan anim.Event)
	a := make(chan anim.Event, 1)
	b := make(chan anim.Event) // never ready
	done := make(chan struct{})
	go func() {
		Broadcast(context.Background(), in, a, b)
		close(done)
	}()
	in <- anim.Event{Kind: anim.EventImage, Image: anim.Rust}
	in <- anim.Event{Kind: anim.EventImage, Image: anim.Author}
	close(in)
	<-done

	ev, ok := <-a
	if !ok || ev.Image != anim.Rust {
		t.Errorf("first event = %+v, %v", ev, ok)
	}
	if _, ok := <-a; ok {
		t.Error("subscriber with a full buffer received the second event")
	}
	if _, ok := <-b; ok {
		t.Error("out channel not closed")
	}
}
