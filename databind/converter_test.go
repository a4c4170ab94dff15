package databind

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/jsbind/host"
	"github.com/example/jsbind/runtime"
)

func TestPrimitiveRoundTrip(t *testing.T) {
	db, c := newInline(t)
	conv := db.Converter()

	i32, s := int32(-7), "wrapped"
	values := []any{
		int8(-5), int16(300), int32(1 << 30), int64(1 << 52), int(42),
		uint8(200), uint16(65535), uint32(1 << 31), uint64(1 << 40),
		float32(1.5), 2.25, true, false, "text", host.Char('x'),
		&i32, &s,
	}
	for _, v := range values {
		js, err := conv.ToJavascript(c, v, nil)
		require.NoError(t, err, "%T", v)
		back, err := conv.FromJavascript(js, reflect.TypeOf(v))
		require.NoError(t, err, "%T", v)
		if reflect.TypeOf(v).Kind() == reflect.Pointer {
			assert.Equal(t, reflect.ValueOf(v).Elem().Interface(), back.Elem().Interface(), "%T", v)
		} else {
			assert.Equal(t, v, back.Interface(), "%T", v)
		}
		again, err := conv.ToJavascript(c, back.Interface(), nil)
		require.NoError(t, err)
		assert.Equal(t, js.Type, again.Type)
		assert.Equal(t, js.ToString(), again.ToString())
	}
}

func TestArrayRoundTrip(t *testing.T) {
	db, c := newInline(t)
	conv := db.Converter()

	for n := 0; n <= 5; n++ {
		in := make([]int, n)
		for i := range in {
			in[i] = i * i
		}
		js, err := conv.ToJavascript(c, in, nil)
		require.NoError(t, err)
		require.True(t, c.IsArray(js))
		got, err := db.ConvertToHost(js, reflect.TypeFor[[]int]())
		require.NoError(t, err)
		if diff := cmp.Diff(in, got); diff != "" {
			t.Fatalf("length %d (-want +got):\n%s", n, diff)
		}
	}

	js, err := conv.ToJavascript(c, [3]string{"a", "b", "c"}, nil)
	require.NoError(t, err)
	fixed, err := db.ConvertToHost(js, reflect.TypeFor[[3]string]())
	require.NoError(t, err)
	assert.Equal(t, [3]string{"a", "b", "c"}, fixed)

	_, err = db.ConvertToHost(js, reflect.TypeFor[[2]string]())
	var convErr *ConversionError
	assert.ErrorAs(t, err, &convErr)

	nested, err := conv.ToJavascript(c, [][]string{{"x"}, {}}, nil)
	require.NoError(t, err)
	got, err := db.ConvertToHost(nested, host.TypeAny)
	require.NoError(t, err)
	assert.Equal(t, []any{[]any{"x"}, []any{}}, got)
}

func TestNumericNarrowing(t *testing.T) {
	db, c := newInline(t)
	cases := []struct {
		in   float64
		to   reflect.Type
		want any
	}{
		{1e20, reflect.TypeFor[int32](), int32(math.MaxInt32)},
		{-1e20, reflect.TypeFor[int64](), int64(math.MinInt64)},
		{300, reflect.TypeFor[int8](), int8(44)},
		{math.NaN(), reflect.TypeFor[int](), 0},
		{-3.9, reflect.TypeFor[int16](), int16(-3)},
		{65, host.TypeChar, host.Char('A')},
		{2.5, host.TypeAny, 2.5},
	}
	for _, tc := range cases {
		got, err := db.ConvertToHost(c.Number(tc.in), tc.to)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "%v to %s", tc.in, tc.to)
	}
}

func TestFromJavascriptErrors(t *testing.T) {
	db, c := newInline(t)
	var convErr *ConversionError

	_, err := db.ConvertToHost(c.Null(), reflect.TypeFor[int]())
	require.ErrorAs(t, err, &convErr)
	assert.Contains(t, err.Error(), "TypeError: Can not convert null")

	_, err = db.ConvertToHost(c.String("x"), reflect.TypeFor[bool]())
	assert.ErrorAs(t, err, &convErr)

	plain, err := c.Eval("({a: 1})")
	require.NoError(t, err)
	_, err = db.ConvertToHost(plain, reflect.TypeFor[*Point]())
	require.ErrorAs(t, err, &convErr)
	assert.Contains(t, convErr.From, "not constructed by the host")

	got, err := db.ConvertToHost(plain, host.TypeAny)
	require.NoError(t, err)
	assert.Same(t, plain, got)

	nilPtr, err := db.ConvertToHost(c.Undefined(), reflect.TypeFor[*int32]())
	require.NoError(t, err)
	assert.Nil(t, nilPtr)
}

func TestStringsAndDates(t *testing.T) {
	db, c := newInline(t)

	units, err := db.ConvertToHost(c.String("h€"), host.TypeCharArray)
	require.NoError(t, err)
	assert.Equal(t, []host.Char{'h', 0x20ac}, units)

	when := time.UnixMilli(1700000000123)
	js, err := db.Converter().ToJavascript(c, when, nil)
	require.NoError(t, err)
	require.True(t, c.IsDate(js))
	back, err := db.ConvertToHost(js, host.TypeTime)
	require.NoError(t, err)
	assert.True(t, when.Equal(back.(time.Time)))

	_, err = db.ConvertToHost(js, host.TypeString)
	assert.Error(t, err)
}

func TestHostObjectConversion(t *testing.T) {
	db, c := newInline(t)
	conv := db.Converter()

	d := &Derived{Base: &Base{ID: 7}, Label: "d"}
	js, err := conv.ToJavascript(c, d, nil)
	require.NoError(t, err)

	same, err := db.ConvertToHost(js, reflect.TypeFor[*Derived]())
	require.NoError(t, err)
	assert.Same(t, d, same)

	up, err := db.ConvertToHost(js, reflect.TypeFor[*Base]())
	require.NoError(t, err)
	assert.Same(t, d.Base, up)

	_, err = db.ConvertToHost(js, reflect.TypeFor[*Point]())
	assert.Error(t, err)

	view, err := conv.ToJavascript(c, reflect.TypeFor[*Point](), nil)
	require.NoError(t, err)
	typ, err := db.ConvertToHost(view, host.TypeType)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[*Point](), typ)

	_, err = db.ConvertToHost(view, reflect.TypeFor[*Point]())
	assert.Error(t, err, "class view is not an instance")

	for _, m := range []Marker{Null, Undefined} {
		v, err := conv.ToJavascript(c, m, nil)
		require.NoError(t, err)
		assert.Equal(t, m == Null, v.Type == runtime.TypeNull)
	}
}

func TestDetermineType(t *testing.T) {
	db, c := newInline(t)
	conv := db.Converter()

	assert.Nil(t, conv.DetermineType(c.Null()))
	assert.Equal(t, host.TypeFloat64, conv.DetermineType(c.Number(1)))
	assert.Equal(t, host.TypeString, conv.DetermineType(c.String("")))
	assert.Equal(t, host.TypeTime, conv.DetermineType(c.Date(0)))

	d, err := conv.ToJavascript(c, &Derived{Base: &Base{}}, nil)
	require.NoError(t, err)
	b, err := conv.ToJavascript(c, &Base{}, nil)
	require.NoError(t, err)
	assert.Equal(t, reflect.TypeFor[*Derived](), conv.DetermineType(d))
	assert.Equal(t, reflect.TypeFor[[]*Base](), conv.DetermineType(c.Array([]*runtime.Value{d, b})))
	assert.Equal(t, reflect.TypeFor[[]any](), conv.DetermineType(c.Array([]*runtime.Value{d, c.Number(1)})))
	assert.Equal(t, reflect.TypeFor[[]any](), conv.DetermineType(c.Array(nil)))
}

func TestFunctionalConversionSwitch(t *testing.T) {
	db, c := newInline(t, func(o *Options) { o.FunctionalConversion = false })
	assert.False(t, db.SupportsFunctionalConversion())

	fn, err := c.Eval("(function() { return 1; })")
	require.NoError(t, err)
	_, err = db.ConvertToHost(fn, reflect.TypeFor[func() int]())
	assert.Error(t, err)

	raw, err := db.ConvertToHost(fn, reflect.TypeFor[*runtime.Value]())
	require.NoError(t, err)
	assert.Same(t, fn, raw)
}
