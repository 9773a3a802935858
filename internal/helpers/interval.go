package helpers

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/roach88/cable/internal/graph"
)

// Init declares an event that fires true once, as soon as it is wired up.
// Nodes that should run at startup depend on it.
func Init() graph.Event {
	return graph.Event{Wireup: func(e *graph.Emitter) error {
		return e.Fire(true)
	}}
}

// Interval declares an event firing every period with the tick count,
// starting at 1. With triggerOnInit it also fires 0 during wireup.
func Interval(period time.Duration, triggerOnInit bool) graph.Event {
	return graph.Event{
		Default: 0,
		Wireup: func(e *graph.Emitter) error {
			if period <= 0 {
				return fmt.Errorf("interval %s: period must be positive, got %s", e.ID(), period)
			}
			go tick(e.Done(), period, 0, e.Fire)
			if triggerOnInit {
				return e.Fire(0)
			}
			return nil
		},
	}
}

// IntervalFrom declares a scope whose own node ticks at the period held by
// the node ref names, read with Period. Each change of the period
// restarts the ticker; the tick count carries on. With triggerOnInit the
// ticker starts at wireup, otherwise on first demand.
func IntervalFrom(ref string, triggerOnInit bool) graph.Scope {
	params := []string{"ref", "_ticker", "result"}
	scope := graph.Scope{
		"ref":    graph.Alias{Reference: ref},
		"ticker": graph.Data{},
	}
	if triggerOnInit {
		params = append(params, "init")
		scope["init"] = Init()
	}
	scope["main"] = graph.Func{Params: params, Body: restartTicker}
	return scope
}

// ticker is the running goroutine behind an IntervalFrom node.
type ticker struct {
	stop  chan struct{}
	count *atomic.Int64
}

func restartTicker(c *graph.Call) error {
	slot, ok := c.Arg("_ticker").(*graph.Accessor)
	if !ok {
		return fmt.Errorf("interval %s: ticker slot has no accessor", c.Node())
	}
	period, err := Period(c.Value("ref"))
	if err != nil {
		return fmt.Errorf("interval %s: %w", c.Node(), err)
	}
	if period <= 0 {
		return fmt.Errorf("interval %s: period must be positive, got %s", c.Node(), period)
	}

	count := new(atomic.Int64)
	if prev, ok := slot.Get().(*ticker); ok {
		close(prev.stop)
		count = prev.count
	}
	next := &ticker{stop: make(chan struct{}), count: count}

	done := mergeDone(c.Done(), next.stop)
	go tick(done, period, int(count.Load()), func(n any) error {
		count.Store(int64(n.(int)))
		return c.Result(n)
	})
	return slot.Set(next)
}

// tick calls fire with from+1, from+2, ... every period until done closes
// or fire fails.
func tick(done <-chan struct{}, period time.Duration, from int, fire func(any) error) {
	t := time.NewTicker(period)
	defer t.Stop()
	n := from
	for {
		select {
		case <-done:
			return
		case <-t.C:
			n++
			if err := fire(n); err != nil {
				return
			}
		}
	}
}

func mergeDone(a <-chan struct{}, b chan struct{}) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		select {
		case <-a:
		case <-b:
		}
	}()
	return out
}

// Period reads an interval period: a time.Duration, a duration string such
// as "250ms", or a whole number of milliseconds.
func Period(v any) (time.Duration, error) {
	switch p := v.(type) {
	case time.Duration:
		return p, nil
	case string:
		d, err := time.ParseDuration(p)
		if err != nil {
			return 0, fmt.Errorf("period %q: %w", p, err)
		}
		return d, nil
	}
	ms, err := toInt(v)
	if err != nil {
		return 0, fmt.Errorf("period: %w", err)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
