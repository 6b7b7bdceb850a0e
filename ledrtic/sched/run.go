package sched

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Source is anything that signals when a task should run.
type Source interface {
	Events() <-chan struct{}
}

// Task binds a handler to an event source at a fixed priority.
type Task struct {
	Name     string
	Priority Priority
	Source   Source
	// Handler runs to completion once per event. A returned error is fatal
	// and stops every task.
	Handler func() error
}

// Run starts tasks, highest priority first, each on its own goroutine, and
// blocks until ctx is cancelled or a handler fails. It returns the first
// handler error, or nil after cancellation.
func Run(ctx context.Context, tasks ...Task) error {
	if len(tasks) == 0 {
		return errors.New("sched: no tasks")
	}
	for _, t := range tasks {
		if t.Source == nil || t.Handler == nil {
			return errors.New("sched: task " + t.Name + " has no source or handler")
		}
	}
	ordered := make([]Task, len(tasks))
	copy(ordered, tasks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errc := make(chan error, len(ordered))
	var wg sync.WaitGroup
	for _, t := range ordered {
		wg.Add(1)
		go func(t Task) {
			defer wg.Done()
			if err := t.loop(ctx); err != nil {
				errc <- err
				cancel()
			}
		}(t)
	}
	wg.Wait()
	close(errc)
	return <-errc
}

func (t Task) loop(ctx context.Context) error {
	events := t.Source.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-events:
			if err := t.Handler(); err != nil {
				return fmt.Errorf("%s: %w", t.Name, err)
			}
		}
	}
}
