package databind

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/example/jsbind/engine"
	"github.com/example/jsbind/host"
)

func TestPointScenario(t *testing.T) {
	h := newHarness(t)

	v := h.mustEval(t, `
		var Point = host.importClass("Point");
		var p = new Point(3, 4);
		p.sum();
	`)
	assert.Equal(t, 7.0, v.Number)

	v = h.mustEval(t, `
		var Point = host.importClass("Point");
		var p = new Point(3, 4);
		p.x = 10;
		[p.sum(), p.x, p.y];
	`)
	got, err := h.db.ConvertToHost(v, reflect.TypeFor[[]int]())
	require.NoError(t, err)
	assert.Equal(t, []int{13, 10, 4}, got)
}

func TestConstructTwiceFails(t *testing.T) {
	h := newHarness(t)
	pt := NewPoint(1, 2)
	h.expose(t, "p", pt)

	_, err := h.eval(t, `new p(5, 6)`)
	var stateErr *ConstructionStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Contains(t, err.Error(), "already constructed")
	assert.Equal(t, 3, pt.Sum(), "instance untouched")

	v := h.mustEval(t, `p.sum()`)
	assert.Equal(t, 3.0, v.Number)
}

func TestSetProperty(t *testing.T) {
	h := newHarness(t)
	pt := NewPoint(1, 2)
	h.expose(t, "p", pt)

	h.mustEval(t, `p.y = 40.9`)
	assert.Equal(t, 40, pt.Y)

	_, err := h.eval(t, `p.sum = 5`)
	var unsupported *UnsupportedOperationError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "sum", unsupported.Name)
	assert.Equal(t, 41, pt.Sum())

	_, err = h.eval(t, `p.x = "nope"`)
	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, 1, pt.X)

	v := h.mustEval(t, `p.extra = 1; p.extra`)
	assert.Equal(t, 1.0, v.Number, "unknown names fall through to ordinary properties")

	v = h.mustEval(t, `typeof p.missing`)
	assert.Equal(t, "undefined", v.Str)
}

func TestStaticView(t *testing.T) {
	saved := pointsCreated
	defer func() { pointsCreated = saved }()

	h := newHarness(t)
	v := h.mustEval(t, `
		var Point = host.importClass("Point");
		Point.created = 12;
		var o = Point.origin();
		[Point.created, o.sum(), typeof Point.x, typeof Point.sum];
	`)
	got, err := h.db.ConvertToHost(v, host.TypeAny)
	require.NoError(t, err)
	assert.Equal(t, []any{12.0, 0.0, "undefined", "undefined"}, got)
	assert.Equal(t, 12, pointsCreated)

	v = h.mustEval(t, `var Point = host.importClass("Point"); Point.x = 5; Point.sum = 6; [Point.x, Point.sum]`)
	got, err = h.db.ConvertToHost(v, host.TypeAny)
	require.NoError(t, err)
	assert.Equal(t, []any{5.0, 6.0}, got, "instance members are ordinary properties on the class view")

	v = h.mustEval(t, `var P = host.importClass("Point"); var p = new P(1, 1); p.origin().sum()`)
	assert.Equal(t, 0.0, v.Number, "statics are reachable from instances")
}

func TestMethodResults(t *testing.T) {
	h := newHarness(t)
	h.expose(t, "printer", &Printer{})

	v := h.mustEval(t, `printer.nothing()`)
	assert.Equal(t, "undefined", v.Type.String())

	v = h.mustEval(t, `printer.join("-", ["a", "b", "c"])`)
	assert.Equal(t, "a-b-c", v.Str)

	v = h.mustEval(t, `
		var msg;
		try { printer.fail(); } catch (e) { msg = e.message; }
		msg;
	`)
	assert.Contains(t, v.Str, "printer failed")

	_, err := h.eval(t, `printer.fail()`)
	var invErr *host.InvocationError
	require.ErrorAs(t, err, &invErr)
	assert.True(t, errors.Is(err, errFailure))

	v = h.mustEval(t, `var Point = host.importClass("Point"); var q = new Point(2, 3); q.scale(2).sum()`)
	assert.Equal(t, 10.0, v.Number)
}

func TestSignatureAPI(t *testing.T) {
	h := newHarness(t)
	h.expose(t, "printer", &Printer{})

	v := h.mustEval(t, `printer.take(5)`)
	assert.Equal(t, "int32", v.Str)

	v = h.mustEval(t, `printer.take.signature(host.types.float64)(5)`)
	assert.Equal(t, "float64", v.Str)

	v = h.mustEval(t, `var f = printer.format.signature(host.types.int32); f(7)`)
	assert.Equal(t, "int:7", v.Str)

	v = h.mustEval(t, `typeof printer.take.other`)
	assert.Equal(t, "undefined", v.Str)

	_, err := h.eval(t, `printer.take.signature(host.types.bool)(true)`)
	assert.ErrorIs(t, err, ErrExplicitNotUnique)

	_, err = h.eval(t, `var Thing = host.importClass("Thing"); printer.show(new Thing())`)
	assert.ErrorIs(t, err, ErrAmbiguousOverload)

	v = h.mustEval(t, `printer.show.signature(host.types.any)`)
	assert.Equal(t, "object", v.Type.String())
}

func TestProjectionCache(t *testing.T) {
	db, _ := newInline(t)
	derivedT, baseT := reflect.TypeFor[*Derived](), reflect.TypeFor[*Base]()

	first, err := db.Projection(derivedT)
	require.NoError(t, err)
	second, err := db.Projection(derivedT)
	require.NoError(t, err)
	assert.Same(t, first, second)

	require.True(t, db.Cache().Contains(baseT))
	parent, err := db.Projection(baseT)
	require.NoError(t, err)
	assert.Same(t, parent, first.Parent)
	assert.Same(t, parent.Class(), first.Class().Parent())
	assert.Equal(t, 2, db.Cache().Len())

	cls, err := db.ToJavascript(derivedT)
	require.NoError(t, err)
	assert.Same(t, first.Class(), cls)
}

func TestProjectionCacheConcurrent(t *testing.T) {
	db, _ := newInline(t)
	pointT := reflect.TypeFor[*Point]()

	results := make([]*ClassProjection, 16)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			p, err := db.Projection(pointT)
			results[i] = p
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, p := range results {
		assert.Same(t, results[0], p)
	}
	assert.Equal(t, 1, db.Cache().Len())
}

func TestProjectionMembers(t *testing.T) {
	db, _ := newInline(t)
	p, err := db.Projection(reflect.TypeFor[*Derived]())
	require.NoError(t, err)

	_, ok := p.Field("label")
	assert.True(t, ok)
	_, ok = p.Field("iD")
	assert.True(t, ok, "promoted from the exported superclass")
	assert.Len(t, p.Methods("kind"), 1)

	thing, err := db.Projection(reflect.TypeFor[Thing]())
	require.NoError(t, err)
	assert.Len(t, thing.Methods("name"), 1, "interface methods merge without duplicates")
	assert.Len(t, thing.Methods("tag"), 1)
}

type caption struct{}

func (caption) Title() string { return "caption" }

type Widget struct {
	caption
}

func (w *Widget) Title() string { return "widget" }

func TestRedeclaredMethodIsProjected(t *testing.T) {
	h := newHarness(t)
	p, err := h.db.Projection(reflect.TypeFor[*Widget]())
	require.NoError(t, err)
	assert.Len(t, p.Methods("title"), 1)

	h.expose(t, "w", &Widget{})
	v := h.mustEval(t, `typeof w.title === "function" ? w.title() : "missing"`)
	assert.Equal(t, "widget", v.Str)
}

func TestExposeClass(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.loop.Do(context.Background(), func(c *engine.Context) error {
		return h.db.ExposeClass(c, "", reflect.TypeFor[*Point]())
	}))
	v := h.mustEval(t, `var q = new Point(1, 2); q.sum()`)
	assert.Equal(t, 3.0, v.Number)

	v = h.mustEval(t, `host.classes().length`)
	assert.Equal(t, 4.0, v.Number)

	_, err := h.eval(t, `host.importClass("Nope")`)
	assert.Error(t, err)
}
