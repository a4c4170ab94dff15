package databind

import (
	"context"
	"reflect"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/jsbind/engine"
	"github.com/example/jsbind/host"
	"github.com/example/jsbind/runtime"
)

type Point struct {
	X, Y int
}

func NewPoint(x, y int) *Point { return &Point{X: x, Y: y} }

func (p *Point) Sum() int { return p.X + p.Y }

func (p *Point) Scale(f float64) *Point {
	return &Point{X: int(float64(p.X) * f), Y: int(float64(p.Y) * f)}
}

var pointsCreated = 0

type Base struct {
	ID int
}

func (b *Base) Kind() string { return "base" }

type Derived struct {
	*Base
	Label string
}

type Named interface {
	Name() string
}

type Tagged interface {
	Tag() string
}

type Thing struct{}

func (Thing) Name() string { return "thing" }

func (Thing) Tag() string { return "tag" }

type Printer struct{}

func (p *Printer) DescribeBase(b *Base) string { return "base" }

func (p *Printer) DescribeDerived(d *Derived) string { return "derived:" + d.Label }

func (p *Printer) FormatInt(n int32) string { return "int:" + strconv.Itoa(int(n)) }

func (p *Printer) FormatString(s string) string { return "string:" + s }

func (p *Printer) TakeInt(n int32) string { return "int32" }

func (p *Printer) TakeFloat(f float64) string { return "float64" }

func (p *Printer) PairIntFloat(a int32, b float64) string { return "int32,float64" }

func (p *Printer) PairFloatInt(a float64, b int32) string { return "float64,int32" }

func (p *Printer) ShowNamed(n Named) string { return n.Name() }

func (p *Printer) ShowTagged(t Tagged) string { return t.Tag() }

func (p *Printer) Join(sep string, parts ...string) string {
	out := ""
	for i, s := range parts {
		if i > 0 {
			out += sep
		}
		out += s
	}
	return out
}

func (p *Printer) Nothing() {}

func (p *Printer) Fail() error { return errFailure }

type failure struct{}

func (failure) Error() string { return "printer failed" }

var errFailure error = failure{}

func newTestRegistry(t *testing.T) *host.Registry {
	t.Helper()
	reg := host.NewRegistry()
	reg.MustRegister(reflect.TypeFor[*Point](),
		host.WithName("Point"),
		host.WithConstructor(NewPoint),
		host.WithStatic("origin", func() *Point { return &Point{} }),
		host.WithStaticField("created", &pointsCreated),
	)
	reg.MustRegister(reflect.TypeFor[*Printer](),
		host.WithName("Printer"),
		host.WithAlias("DescribeBase", "describe"),
		host.WithAlias("DescribeDerived", "describe"),
		host.WithAlias("FormatInt", "format"),
		host.WithAlias("FormatString", "format"),
		host.WithAlias("TakeInt", "take"),
		host.WithAlias("TakeFloat", "take"),
		host.WithAlias("PairIntFloat", "pair"),
		host.WithAlias("PairFloatInt", "pair"),
		host.WithAlias("ShowNamed", "show"),
		host.WithAlias("ShowTagged", "show"),
	)
	reg.MustRegister(reflect.TypeFor[*Derived](), host.WithName("Derived"))
	reg.MustRegister(reflect.TypeFor[Thing](), host.WithName("Thing"),
		host.WithInterfaces(reflect.TypeFor[Named](), reflect.TypeFor[Tagged]()))
	return reg
}

// inlineProvider runs tasks on the calling goroutine. It serves tests that
// never cross goroutines.
type inlineProvider struct {
	c *engine.Context
}

func (p inlineProvider) Context() *engine.Context { return p.c }

func (p inlineProvider) SyncWithJavascript(task engine.Task) error {
	task(p.c)
	return nil
}

func newInline(t *testing.T, optFns ...func(o *Options)) (*Databind, *engine.Context) {
	t.Helper()
	c := engine.NewContext()
	return New(newTestRegistry(t), inlineProvider{c}, optFns...), c
}

type harness struct {
	loop *engine.Loop
	db   *Databind
}

// newHarness runs a loop for the duration of the test with the script API
// installed as the global host.
func newHarness(t *testing.T) *harness {
	t.Helper()
	loop := engine.NewLoop(engine.NewContext())
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

	h := &harness{loop: loop, db: New(newTestRegistry(t), loop)}
	require.NoError(t, loop.Do(context.Background(), func(c *engine.Context) error {
		return h.db.InstallAPI(c, "host")
	}))
	return h
}

func (h *harness) eval(t *testing.T, src string) (*runtime.Value, error) {
	t.Helper()
	var out *runtime.Value
	err := h.loop.Do(context.Background(), func(c *engine.Context) error {
		var err error
		out, err = c.Eval(src)
		return err
	})
	return out, err
}

func (h *harness) mustEval(t *testing.T, src string) *runtime.Value {
	t.Helper()
	v, err := h.eval(t, src)
	require.NoError(t, err)
	return v
}

func (h *harness) expose(t *testing.T, name string, v any) {
	t.Helper()
	require.NoError(t, h.loop.Do(context.Background(), func(c *engine.Context) error {
		return h.db.Expose(c, name, v)
	}))
}
