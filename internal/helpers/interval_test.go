package helpers

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cable/internal/engine"
	"github.com/roach88/cable/internal/graph"
)

func startEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New(engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- e.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-errc
	})
	return e
}

// tally counts how often the node it watches changes.
func tally(watched string) graph.Func {
	return graph.Func{Params: []string{watched, "_count"}, Body: func(c *graph.Call) error {
		a := c.Arg("count").(*graph.Accessor)
		n, _ := a.Get().(int)
		return a.Set(n + 1)
	}}
}

func peekInt(e *engine.Engine, name string) int {
	v, err := e.Peek(context.Background(), name)
	if err != nil {
		return -1
	}
	n, _ := v.(int)
	return n
}

func TestInit(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t)

	require.NoError(t, e.Define(ctx, graph.Declarations{
		"init":  Init(),
		"count": graph.Data{Value: 0},
		"boot":  tally("init"),
	}))

	v, err := e.Peek(ctx, "init")
	require.NoError(t, err)
	assert.Equal(t, true, v)
	assert.Equal(t, 1, peekInt(e, "count"), "dependents run once at wireup")
}

func TestInterval(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t)

	require.NoError(t, e.Define(ctx, graph.Declarations{
		"tick":  Interval(20*time.Millisecond, true),
		"count": graph.Data{Value: 0},
		"watch": tally("tick"),
	}))
	assert.Equal(t, 1, peekInt(e, "count"), "triggerOnInit fires during wireup")

	require.Eventually(t, func() bool {
		return peekInt(e, "count") >= 4
	}, 2*time.Second, 5*time.Millisecond)
	assert.Greater(t, peekInt(e, "tick"), 0)
}

func TestInterval_RejectsNonPositivePeriod(t *testing.T) {
	e := startEngine(t)

	err := e.Define(context.Background(), graph.Declarations{"tick": Interval(0, false)})
	assert.Error(t, err)
}

func TestIntervalFrom(t *testing.T) {
	ctx := context.Background()
	e := startEngine(t)

	require.NoError(t, e.Define(ctx, graph.Declarations{
		"period": graph.Data{Value: "5ms"},
		"beat":   IntervalFrom("period", true),
		"count":  graph.Data{Value: 0},
		"watch":  tally("beat"),
	}))

	require.Eventually(t, func() bool {
		return peekInt(e, "beat") >= 2
	}, 2*time.Second, 5*time.Millisecond)

	before := peekInt(e, "beat")
	require.NoError(t, e.Set(ctx, "period", 3))

	require.Eventually(t, func() bool {
		return peekInt(e, "beat") > before+1
	}, 2*time.Second, 5*time.Millisecond, "tick count carries on across restarts")
}
