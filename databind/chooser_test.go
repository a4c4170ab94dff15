package databind

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsbind/engine"
	"github.com/example/jsbind/host"
	"github.com/example/jsbind/runtime"
)

func printerGroup(t *testing.T, db *Databind, name string) []*host.Callable {
	t.Helper()
	p, err := db.Projection(reflect.TypeFor[*Printer]())
	require.NoError(t, err)
	group := p.Methods(name)
	require.NotEmpty(t, group, name)
	return group
}

func hostValue(t *testing.T, db *Databind, c *engine.Context, v any) *runtime.Value {
	t.Helper()
	js, err := db.Converter().ToJavascript(c, v, nil)
	require.NoError(t, err)
	return js
}

func TestChooseMostSpecific(t *testing.T) {
	db, c := newInline(t)
	chooser := NewMethodChooser(db.Converter())

	derived := hostValue(t, db, c, &Derived{Base: &Base{}, Label: "x"})
	group := printerGroup(t, db, "describe")
	data, err := chooser.Choose(group, []*runtime.Value{derived})
	require.NoError(t, err)
	assert.Equal(t, "DescribeDerived", data.Target().GoName)

	base := hostValue(t, db, c, &Base{})
	data, err = chooser.Choose(group, []*runtime.Value{base})
	require.NoError(t, err)
	assert.Equal(t, "DescribeBase", data.Target().GoName)

	take := printerGroup(t, db, "take")
	data, err = chooser.Choose(take, []*runtime.Value{c.Number(5)})
	require.NoError(t, err)
	assert.Equal(t, "TakeInt", data.Target().GoName, "int32 widens to float64")
}

func TestChoosePrefersLosslessNumbers(t *testing.T) {
	db, c := newInline(t)
	chooser := NewMethodChooser(db.Converter())
	take := printerGroup(t, db, "take")

	data, err := chooser.Choose(take, []*runtime.Value{c.Number(3.5)})
	require.NoError(t, err)
	assert.Equal(t, "TakeFloat", data.Target().GoName)
	args, err := data.ConstructArguments()
	require.NoError(t, err)
	assert.Equal(t, 3.5, args[0].Float())

	data, err = chooser.Choose(take, []*runtime.Value{c.Number(3)})
	require.NoError(t, err)
	assert.Equal(t, "TakeInt", data.Target().GoName)

	// A lone integral candidate still accepts a fraction and truncates it.
	var formatInt []*host.Callable
	for _, m := range printerGroup(t, db, "format") {
		if m.GoName == "FormatInt" {
			formatInt = append(formatInt, m)
		}
	}
	require.Len(t, formatInt, 1)
	data, err = chooser.Choose(formatInt, []*runtime.Value{c.Number(2.7)})
	require.NoError(t, err)
	args, err = data.ConstructArguments()
	require.NoError(t, err)
	assert.Equal(t, int64(2), args[0].Int())
}

func TestChooseCrossedParametersAreAmbiguous(t *testing.T) {
	db, c := newInline(t)
	chooser := NewMethodChooser(db.Converter())
	pair := printerGroup(t, db, "pair")
	require.Len(t, pair, 2)

	_, err := chooser.Choose(pair, []*runtime.Value{c.Number(1), c.Number(2)})
	assert.ErrorIs(t, err, ErrAmbiguousOverload)
	var resErr *OverloadResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Len(t, resErr.Matches, 2)

	data, err := chooser.Choose(pair, []*runtime.Value{c.Number(1), c.Number(2.5)})
	require.NoError(t, err, "the fraction rules out the int32 second parameter")
	assert.Equal(t, "PairIntFloat", data.Target().GoName)
}

func TestChooseDeterministic(t *testing.T) {
	db, c := newInline(t)
	chooser := NewMethodChooser(db.Converter())
	group := printerGroup(t, db, "format")

	args := []*runtime.Value{c.String("a")}
	first, err := chooser.Choose(group, args)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := chooser.Choose(group, args)
		require.NoError(t, err)
		assert.Same(t, first.Target(), again.Target())
	}
	assert.Equal(t, "FormatString", first.Target().GoName)
}

func TestChooseFailures(t *testing.T) {
	db, c := newInline(t)
	chooser := NewMethodChooser(db.Converter())

	_, err := chooser.Choose(printerGroup(t, db, "show"), []*runtime.Value{hostValue(t, db, c, Thing{})})
	var resErr *OverloadResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, Ambiguous, resErr.Kind)
	assert.Len(t, resErr.Matches, 2)
	assert.True(t, errors.Is(err, ErrAmbiguousOverload))

	_, err = chooser.Choose(printerGroup(t, db, "format"), []*runtime.Value{c.Boolean(true)})
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, NoMatch, resErr.Kind)
	assert.Equal(t, 2, resErr.Candidates)
	assert.Equal(t, []string{"bool"}, resErr.Arguments)
	assert.ErrorIs(t, err, ErrNoMatchingOverload)

	_, err = chooser.Choose(printerGroup(t, db, "format"), nil)
	assert.ErrorIs(t, err, ErrNoMatchingOverload, "arity")
}

func TestChooseExplicit(t *testing.T) {
	db, c := newInline(t)
	chooser := NewMethodChooser(db.Converter())
	group := printerGroup(t, db, "take")
	int32T := reflect.TypeFor[int32]()

	data, err := chooser.ChooseExplicit(group, []reflect.Type{host.TypeFloat64}, []*runtime.Value{c.Number(5)})
	require.NoError(t, err)
	assert.Equal(t, "TakeFloat", data.Target().GoName)

	args, err := data.ConstructArguments()
	require.NoError(t, err)
	require.Len(t, args, 1)
	assert.Equal(t, 5.0, args[0].Float())

	_, err = chooser.ChooseExplicit(group, []reflect.Type{host.TypeString}, []*runtime.Value{c.Number(5)})
	assert.ErrorIs(t, err, ErrExplicitNotUnique)

	_, err = chooser.ChooseExplicit(group, []reflect.Type{int32T}, []*runtime.Value{c.String("x")})
	var convErr *ConversionError
	assert.ErrorAs(t, err, &convErr)
}

func TestCustomChooser(t *testing.T) {
	var calls int
	db, c := newInline(t, func(o *Options) {
		o.NewMethodChooser = func(conv *Converter) MethodChooser {
			return countingChooser{MethodChooser: NewMethodChooser(conv), calls: &calls}
		}
	})
	_, err := db.chooser.Choose(printerGroup(t, db, "format"), []*runtime.Value{c.Number(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

type countingChooser struct {
	MethodChooser
	calls *int
}

func (c countingChooser) Choose(candidates []*host.Callable, args []*runtime.Value) (*CallData, error) {
	*c.calls++
	return c.MethodChooser.Choose(candidates, args)
}
