package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/example/jsbind/builtins"
	"github.com/example/jsbind/interpreter"
	"github.com/example/jsbind/runtime"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	loop := NewLoop(NewContext())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-stopped
	})
	return loop
}

func TestContextFactories(t *testing.T) {
	c := NewContext()

	arr := c.Array([]*runtime.Value{c.Number(1), c.String("two")})
	require.True(t, c.IsArray(arr))
	n, err := c.Length(arr)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	second, err := c.GetPropertyAtIndex(arr, 1)
	require.NoError(t, err)
	assert.Equal(t, "two", second.Str)

	missing, err := c.GetPropertyAtIndex(arr, 5)
	require.NoError(t, err)
	assert.Equal(t, runtime.TypeUndefined, missing.Type)

	date := c.Date(86400000)
	require.True(t, c.IsDate(date))
	got, ok := builtins.DateTime(date)
	require.True(t, ok)
	assert.Equal(t, int64(86400000), got.UnixMilli())

	assert.False(t, c.IsFunction(c.Boolean(true)))
	assert.Equal(t, runtime.TypeNull, c.Null().Type)
}

func TestContextEvalAndCall(t *testing.T) {
	c := NewContext()
	c.SetGlobal("base", c.Number(40))

	fn, err := c.Eval("(function(a) { return base + a; })")
	require.NoError(t, err)
	require.True(t, c.IsFunction(fn))

	res, err := c.CallAsFunction(fn, nil, []*runtime.Value{c.Number(2)})
	require.NoError(t, err)
	assert.Equal(t, 42.0, res.Number)

	_, err = c.CallAsFunction(c.Number(1), nil, nil)
	assert.Error(t, err)
}

func TestContextCallSurfacesThrow(t *testing.T) {
	c := NewContext()
	fn, err := c.Eval("(function() { throw new RangeError('bad'); })")
	require.NoError(t, err)

	_, err = c.CallAsFunction(fn, nil, nil)
	require.Error(t, err)
	thrown, ok := interpreter.ThrownValue(err)
	require.True(t, ok)
	msg, err := c.GetProperty(thrown, "message")
	require.NoError(t, err)
	assert.Equal(t, "bad", msg.Str)
}

func TestEvalPersistentKeepsDeclarations(t *testing.T) {
	c := NewContext()
	_, err := c.EvalPersistent("var counter = 1; function bump() { counter = counter + 1; return counter; }")
	require.NoError(t, err)
	res, err := c.EvalPersistent("bump()")
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Number)

	_, err = c.Eval("counter")
	assert.Error(t, err, "program scopes of Eval are not shared")
}

func TestProtectRevive(t *testing.T) {
	c := NewContext()
	v := c.String("kept")
	p := c.Protect(v)
	assert.Equal(t, 1, c.ProtectedCount())
	assert.NotEqual(t, p.ID(), c.Protect(v).ID())

	got, err := p.Revive()
	require.NoError(t, err)
	assert.Same(t, v, got)
	assert.True(t, p.Revived())
	assert.Equal(t, 1, c.ProtectedCount())

	_, err = p.Revive()
	assert.ErrorIs(t, err, ErrAlreadyRevived)
}

func TestLoopRunsTasksInOrderOnOneGoroutine(t *testing.T) {
	loop := startLoop(t)

	var seen []int
	var g errgroup.Group
	for i := 0; i < 20; i++ {
		i := i
		g.Go(func() error {
			return loop.Do(context.Background(), func(c *Context) error {
				if !loop.OnLoop() {
					return errors.New("task ran off the loop")
				}
				seen = append(seen, i)
				return nil
			})
		})
	}
	require.NoError(t, g.Wait())
	assert.Len(t, seen, 20)
	assert.False(t, loop.OnLoop())
}

func TestLoopSyncIsReentrant(t *testing.T) {
	loop := startLoop(t)

	var order []string
	err := loop.Do(context.Background(), func(c *Context) error {
		order = append(order, "outer")
		return loop.SyncWithJavascript(func(c *Context) {
			order = append(order, "inner")
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestLoopRecoversPanics(t *testing.T) {
	loop := startLoop(t)

	require.NoError(t, loop.Post(func(c *Context) { panic("boom") }))
	err := loop.Do(context.Background(), func(c *Context) error { panic("again") })
	assert.ErrorContains(t, err, "again")

	var ran atomic.Bool
	require.NoError(t, loop.Do(context.Background(), func(c *Context) error {
		ran.Store(true)
		return nil
	}))
	assert.True(t, ran.Load())
}

func TestLoopClosedAfterCancel(t *testing.T) {
	loop := NewLoop(NewContext())
	ctx, cancel := context.WithCancel(context.Background())

	var ran atomic.Bool
	require.NoError(t, loop.Post(func(c *Context) { ran.Store(true) }))

	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()
	require.Eventually(t, ran.Load, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.ErrorIs(t, loop.Post(func(c *Context) {}), ErrLoopClosed)
	assert.ErrorIs(t, loop.Run(context.Background()), ErrLoopClosed)
}

func TestDoHonoursCallerContext(t *testing.T) {
	loop := NewLoop(NewContext())
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := loop.Do(ctx, func(c *Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
