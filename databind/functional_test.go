package databind

import (
	"context"
	"errors"
	"reflect"
	goruntime "runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/example/jsbind/engine"
	"github.com/example/jsbind/host"
)

type Greeter interface {
	Greet(name string) (string, error)
	String() string
}

type GreeterFunc func(name string) (string, error)

func (f GreeterFunc) Greet(name string) (string, error) { return f(name) }

func (f GreeterFunc) String() string { return "greeter" }

type Emitter struct {
	listeners []func(string) int
}

func (e *Emitter) On(fn func(string) int) { e.listeners = append(e.listeners, fn) }

func (e *Emitter) Emit(event string) int {
	total := 0
	for _, fn := range e.listeners {
		total += fn(event)
	}
	return total
}

// bindScript evaluates src on the loop and binds the resulting function to t.
func bindScript[T any](t *testing.T, h *harness, src string) T {
	t.Helper()
	var out T
	require.NoError(t, h.loop.Do(context.Background(), func(c *engine.Context) error {
		fn, err := c.Eval(src)
		if err != nil {
			return err
		}
		v, err := h.db.Bind(fn, reflect.TypeFor[T]())
		if err != nil {
			return err
		}
		out = v.(T)
		return nil
	}))
	return out
}

func TestBindFuncFromOtherGoroutine(t *testing.T) {
	h := newHarness(t)
	double := bindScript[func(int) int](t, h, `(function(n) { return n * 2; })`)

	assert.Equal(t, 42, double(21))
}

func TestBindConcurrentCallers(t *testing.T) {
	h := newHarness(t)
	add := bindScript[func(int, int) int](t, h, `(function(a, b) { return a + b; })`)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j := 0; j < 25; j++ {
				if got := add(i, j); got != i+j {
					return errors.New("wrong sum")
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var protected int
	require.NoError(t, h.loop.Do(context.Background(), func(c *engine.Context) error {
		protected = c.ProtectedCount()
		return nil
	}))
	assert.Equal(t, 1, protected, "one protection per live proxy")
	goruntime.KeepAlive(add)
}

func TestBindInterfaceContract(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.db.Registry().RegisterContract(reflect.TypeFor[Greeter](),
		func(f GreeterFunc) Greeter { return f }))

	g := bindScript[Greeter](t, h, `(function(name) {
		if (name === "") { throw new TypeError("empty name"); }
		return "hello " + name;
	})`)

	got, err := g.Greet("go")
	require.NoError(t, err)
	assert.Equal(t, "hello go", got)
	assert.Equal(t, "greeter", g.String(), "adapter methods run locally")

	_, err = g.Greet("")
	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, "TypeError: empty name", scriptErr.Message)
}

func TestBindThrowWithoutErrorResult(t *testing.T) {
	h := newHarness(t)
	boom := bindScript[func() int](t, h, `(function() { throw new Error("boom"); })`)

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		boom()
	}()
	err, ok := recovered.(error)
	require.True(t, ok, "panics with an error")
	var crossErr *CrossThreadInvocationError
	require.ErrorAs(t, err, &crossErr)
	var scriptErr *ScriptError
	require.ErrorAs(t, err, &scriptErr)
	assert.Equal(t, "Error: boom", scriptErr.Message)

	assert.Equal(t, 3, bindScript[func() int](t, h, `(function() { return 3; })`)())
}

func TestBindAsync(t *testing.T) {
	h := newHarness(t)
	square := bindScript[func(float64) *host.Future](t, h, `(function(n) { return n * n; })`)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := square(9).Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, 81.0, v)

	fail := bindScript[func() *host.Future](t, h, `(function() { throw new RangeError("out"); })`)
	_, err = fail().Await(ctx)
	var crossErr *CrossThreadInvocationError
	require.ErrorAs(t, err, &crossErr)
	assert.Contains(t, err.Error(), "RangeError: out")
}

func TestReentrantHostCallback(t *testing.T) {
	h := newHarness(t)
	emitter := &Emitter{}
	h.expose(t, "emitter", emitter)

	v := h.mustEval(t, `
		emitter.on(function(e) { return e.length; });
		emitter.on(function(e) { return 100; });
		emitter.emit("four");
	`)
	assert.Equal(t, 104.0, v.Number)
	assert.Len(t, emitter.listeners, 2)

	assert.Equal(t, 102, emitter.Emit("xy"), "listeners stay callable from host goroutines")
}

func TestBindRejectsNonFunctions(t *testing.T) {
	db, c := newInline(t)

	_, err := db.Bind(c.Number(1), reflect.TypeFor[func()]())
	assert.Error(t, err)

	fn, err := c.Eval("(function() {})")
	require.NoError(t, err)
	_, err = db.Bind(fn, reflect.TypeFor[Greeter]())
	var convErr *ConversionError
	assert.ErrorAs(t, err, &convErr, "interface not registered as contract")
}

func TestProtectedRefLifecycle(t *testing.T) {
	c := engine.NewContext()
	fn, err := c.Eval("(function() { return 1; })")
	require.NoError(t, err)

	ref := &protectedRef{handle: c.Protect(fn)}
	assert.Equal(t, 1, c.ProtectedCount())

	first := ref.handle.ID()
	live, err := ref.acquire(c)
	require.NoError(t, err)
	assert.Same(t, fn, live)
	assert.Equal(t, 1, c.ProtectedCount())
	assert.NotEqual(t, first, ref.handle.ID(), "re-protected under a new handle")

	require.NoError(t, ref.release())
	assert.Equal(t, 0, c.ProtectedCount())
	require.NoError(t, ref.release())

	_, err = ref.acquire(c)
	assert.ErrorIs(t, err, errReferenceReleased)
}

func TestInlineProviderBind(t *testing.T) {
	db, c := newInline(t)
	fn, err := c.Eval("(function(parts) { return parts.join('+'); })")
	require.NoError(t, err)

	v, err := db.ConvertToHost(fn, reflect.TypeFor[func([]string) string]())
	require.NoError(t, err)
	assert.Equal(t, "a+b", v.(func([]string) string)([]string{"a", "b"}))
}

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) warnings() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.warns...)
}

// bindAndDrop binds a script function, calls it once and lets the proxy
// become unreachable.
func bindAndDrop(t *testing.T, loop *engine.Loop, db *Databind) {
	t.Helper()
	var inc func(int) int
	require.NoError(t, loop.Do(context.Background(), func(c *engine.Context) error {
		fn, err := c.Eval("(function(n) { return n + 1; })")
		if err != nil {
			return err
		}
		v, err := db.Bind(fn, reflect.TypeFor[func(int) int]())
		if err != nil {
			return err
		}
		inc = v.(func(int) int)
		return nil
	}))
	require.Equal(t, 3, inc(2))
	require.Equal(t, 1, protectedCount(t, loop))
	goruntime.KeepAlive(inc)
}

func protectedCount(t *testing.T, loop *engine.Loop) int {
	t.Helper()
	var n int
	require.NoError(t, loop.Do(context.Background(), func(c *engine.Context) error {
		n = c.ProtectedCount()
		return nil
	}))
	return n
}

func TestDroppedProxyReleasesFunction(t *testing.T) {
	h := newHarness(t)
	bindAndDrop(t, h.loop, h.db)

	assert.Eventually(t, func() bool {
		goruntime.GC()
		return protectedCount(t, h.loop) == 0
	}, 5*time.Second, 20*time.Millisecond)
}

func TestDroppedProxyAfterLoopStopsIsLeaked(t *testing.T) {
	logger := &recordingLogger{}
	loop := engine.NewLoop(engine.NewContext())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = loop.Run(ctx)
	}()
	db := New(newTestRegistry(t), loop, func(o *Options) { o.Logger = logger })

	bindAndDrop(t, loop, db)
	cancel()
	<-stopped

	assert.Eventually(t, func() bool {
		goruntime.GC()
		for _, w := range logger.warnings() {
			if w == "script function leaked" {
				return true
			}
		}
		return false
	}, 5*time.Second, 20*time.Millisecond)
}
