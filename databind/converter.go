package databind

import (
	"math"
	"reflect"
	"strconv"
	"time"
	"unicode/utf16"

	"github.com/example/jsbind/engine"
	"github.com/example/jsbind/host"
	"github.com/example/jsbind/runtime"
)

// Marker values convert to the script null and undefined.
type Marker int

const (
	Null Marker = iota + 1
	Undefined
)

var (
	typeRuntimeValue  = reflect.TypeFor[*runtime.Value]()
	typeRuntimeObject = reflect.TypeFor[*runtime.Object]()
	typeRuntimeClass  = reflect.TypeFor[*runtime.Class]()
)

// Converter translates values between Go and the scripting engine.
type Converter struct {
	db         *Databind
	registry   *host.Registry
	functional bool
}

// ToJavascript converts v to a script value. declared is the static type v
// was obtained as; it is only consulted when v is nil.
func (c *Converter) ToJavascript(ctx *engine.Context, v any, declared reflect.Type) (*runtime.Value, error) {
	switch m := v.(type) {
	case nil:
		return ctx.Null(), nil
	case Marker:
		if m == Undefined {
			return ctx.Undefined(), nil
		}
		return ctx.Null(), nil
	case *runtime.Value:
		if m == nil {
			return ctx.Null(), nil
		}
		return m, nil
	case *runtime.Object:
		if m == nil {
			return ctx.Null(), nil
		}
		return runtime.NewObject(m), nil
	case reflect.Type:
		return c.db.ClassView(ctx, m)
	case *runtime.Class:
		return ctx.Object(m, &InstanceBinding{Class: typeRuntimeClass}), nil
	case time.Time:
		return ctx.Date(float64(m.UnixMilli())), nil
	}
	return c.toJavascript(ctx, reflect.ValueOf(v))
}

func (c *Converter) toJavascript(ctx *engine.Context, rv reflect.Value) (*runtime.Value, error) {
	if !rv.IsValid() {
		return ctx.Null(), nil
	}
	if host.IsNillable(rv.Type()) && rv.IsNil() {
		return ctx.Null(), nil
	}
	if rv.Kind() == reflect.Interface {
		return c.ToJavascript(ctx, rv.Elem().Interface(), rv.Type())
	}
	if rv.Kind() == reflect.Pointer && isPrimitiveKind(rv.Type().Elem().Kind()) {
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Bool:
		return ctx.Boolean(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ctx.Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ctx.Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return ctx.Number(rv.Float()), nil
	case reflect.String:
		return ctx.String(rv.String()), nil
	case reflect.Slice, reflect.Array:
		elems := make([]*runtime.Value, rv.Len())
		for i := range elems {
			ev, err := c.ToJavascript(ctx, valueInterface(rv.Index(i)), rv.Type().Elem())
			if err != nil {
				return nil, err
			}
			elems[i] = ev
		}
		return ctx.Array(elems), nil
	}
	if rv.Type() == host.TypeTime {
		return ctx.Date(float64(rv.Interface().(time.Time).UnixMilli())), nil
	}

	p, err := c.db.Projection(rv.Type())
	if err != nil {
		return nil, err
	}
	return ctx.Object(p.class, &InstanceBinding{Instance: rv, Class: rv.Type()}), nil
}

// valueInterface returns the Go value held by rv, or nil for values that
// cannot be interfaced.
func valueInterface(rv reflect.Value) any {
	if !rv.IsValid() || !rv.CanInterface() {
		return nil
	}
	return rv.Interface()
}

// FromJavascript converts v to a Go value of type target. A nil target
// accepts anything.
func (c *Converter) FromJavascript(v *runtime.Value, target reflect.Type) (reflect.Value, error) {
	return c.fromJavascript(v, target, false)
}

// check reports whether v converts to target without creating function
// proxies.
func (c *Converter) check(v *runtime.Value, target reflect.Type) error {
	_, err := c.fromJavascript(v, target, true)
	return err
}

func (c *Converter) fromJavascript(v *runtime.Value, target reflect.Type, dry bool) (reflect.Value, error) {
	if target == nil {
		target = host.TypeAny
	}
	if v == nil {
		v = runtime.Undefined
	}
	switch target {
	case typeRuntimeValue:
		return reflect.ValueOf(v), nil
	case typeRuntimeObject:
		if v.Type != runtime.TypeObject || v.Object == nil {
			return reflect.Value{}, conversionError("a non-object script value", target, "")
		}
		return reflect.ValueOf(v.Object), nil
	}

	switch v.Type {
	case runtime.TypeNull, runtime.TypeUndefined:
		if !host.IsNillable(target) {
			return reflect.Value{}, conversionError(kindName(v), target, "")
		}
		return reflect.Zero(target), nil
	}

	if target.Kind() == reflect.Pointer && isPrimitiveKind(target.Elem().Kind()) {
		elem, err := c.fromJavascript(v, target.Elem(), dry)
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	switch v.Type {
	case runtime.TypeBoolean:
		if target.Kind() == reflect.Bool {
			return reflect.ValueOf(v.Bool).Convert(target), nil
		}
		if accepts(target, host.TypeBool) {
			return asType(reflect.ValueOf(v.Bool), target), nil
		}
		return reflect.Value{}, conversionError("script boolean", target, "")
	case runtime.TypeNumber:
		return numberTo(v.Number, target)
	case runtime.TypeString:
		return stringTo(v.Str, target)
	case runtime.TypeObject:
		if v.Object == nil {
			break
		}
		return c.objectTo(v, target, dry)
	}
	if target == host.TypeAny {
		return reflect.ValueOf(v), nil
	}
	return reflect.Value{}, conversionError("script "+kindName(v), target, "")
}

func (c *Converter) objectTo(v *runtime.Value, target reflect.Type, dry bool) (reflect.Value, error) {
	obj := v.Object
	switch obj.OType {
	case runtime.ObjTypeDate:
		if !accepts(target, host.TypeTime) {
			return reflect.Value{}, conversionError("script date", target, "")
		}
		t, err := dateTime(obj)
		if err != nil {
			return reflect.Value{}, err
		}
		return asType(reflect.ValueOf(t), target), nil
	case runtime.ObjTypeArray:
		return c.arrayTo(obj, target, dry)
	}

	if obj.Callable != nil && c.functional {
		if contract, ok := c.registry.Contract(target); ok {
			if dry {
				return reflect.Zero(target), nil
			}
			return c.db.bind(v, contract)
		}
	}

	b := bindingOf(obj)
	if b == nil {
		if target == host.TypeAny {
			return reflect.ValueOf(v), nil
		}
		return reflect.Value{}, conversionError("a script object not constructed by the host", target, "")
	}
	if b.Static() {
		if target != host.TypeType && target != host.TypeAny {
			return reflect.Value{}, conversionError("the class "+typeString(b.Class), target, "")
		}
		return asType(reflect.ValueOf(b.Class), target), nil
	}
	inst := b.Instance
	if !c.registry.IsSubtype(inst.Type(), target) {
		return reflect.Value{}, conversionError("a "+typeString(inst.Type()), target, "")
	}
	up, ok := c.registry.Upcast(inst, target)
	if !ok {
		return reflect.Value{}, conversionError("a "+typeString(inst.Type()), target, "embedded superclass is nil")
	}
	return asType(up, target), nil
}

func (c *Converter) arrayTo(obj *runtime.Object, target reflect.Type, dry bool) (reflect.Value, error) {
	elemType := host.TypeAny
	switch {
	case target == host.TypeAny:
	case target.Kind() == reflect.Slice:
		elemType = target.Elem()
	case target.Kind() == reflect.Array:
		elemType = target.Elem()
		if target.Len() != len(obj.ArrayData) {
			return reflect.Value{}, conversionError("a script array of length "+strconv.Itoa(len(obj.ArrayData)), target, "length mismatch")
		}
	default:
		return reflect.Value{}, conversionError("a script array", target, "")
	}

	var out reflect.Value
	if target.Kind() == reflect.Array {
		out = reflect.New(target).Elem()
	} else {
		out = reflect.MakeSlice(reflect.SliceOf(elemType), len(obj.ArrayData), len(obj.ArrayData))
	}
	for i, ev := range obj.ArrayData {
		conv, err := c.fromJavascript(ev, elemType, dry)
		if err != nil {
			return reflect.Value{}, err
		}
		if conv.IsValid() {
			out.Index(i).Set(conv)
		}
	}
	if target == host.TypeAny {
		return asType(out, target), nil
	}
	return out.Convert(target), nil
}

func dateTime(obj *runtime.Object) (time.Time, error) {
	getTime, err := obj.GetProperty("getTime")
	if err != nil {
		return time.Time{}, err
	}
	if getTime == nil || getTime.Type != runtime.TypeObject || getTime.Object == nil || getTime.Object.Callable == nil {
		return time.Time{}, conversionError("script date", host.TypeTime, "getTime is not a function")
	}
	ms, err := getTime.Object.Callable(runtime.NewObject(obj), nil)
	if err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(ms.Number) {
		return time.Time{}, conversionError("an invalid script date", host.TypeTime, "")
	}
	return time.UnixMilli(int64(ms.Number)), nil
}

func numberTo(n float64, target reflect.Type) (reflect.Value, error) {
	switch target.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return reflect.ValueOf(saturate(n, math.MinInt32, math.MaxInt32)).Convert(target), nil
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return reflect.ValueOf(saturate(n, math.MinInt64, math.MaxInt64)).Convert(target), nil
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(n).Convert(target), nil
	}
	if accepts(target, host.TypeFloat64) {
		return asType(reflect.ValueOf(n), target), nil
	}
	return reflect.Value{}, conversionError("script number", target, "")
}

// saturate truncates n toward zero and clamps it to [lo, hi]. NaN maps to 0.
func saturate(n float64, lo, hi int64) int64 {
	switch {
	case math.IsNaN(n):
		return 0
	case n <= float64(lo):
		return lo
	case n >= float64(hi):
		return hi
	}
	return int64(n)
}

func stringTo(s string, target reflect.Type) (reflect.Value, error) {
	if target.Kind() == reflect.String {
		return reflect.ValueOf(s).Convert(target), nil
	}
	if target.Kind() == reflect.Slice && target.Elem().Kind() == reflect.Uint16 {
		units := utf16.Encode([]rune(s))
		out := reflect.MakeSlice(target, len(units), len(units))
		for i, u := range units {
			out.Index(i).SetUint(uint64(u))
		}
		return out, nil
	}
	if accepts(target, host.TypeString) {
		return asType(reflect.ValueOf(s), target), nil
	}
	return reflect.Value{}, conversionError("script string", target, "")
}

// accepts reports whether target is an interface that values of t satisfy.
func accepts(target, t reflect.Type) bool {
	if target == t {
		return true
	}
	return target.Kind() == reflect.Interface && t.Implements(target)
}

// asType returns v as a value of type target, boxing it when target is an
// interface.
func asType(v reflect.Value, target reflect.Type) reflect.Value {
	if v.Type() == target {
		return v
	}
	out := reflect.New(target).Elem()
	out.Set(v)
	return out
}

func isPrimitiveKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// DetermineType infers the Go type a script value naturally converts to. It
// returns nil for null and undefined.
func (c *Converter) DetermineType(v *runtime.Value) reflect.Type {
	if v == nil {
		return nil
	}
	switch v.Type {
	case runtime.TypeNull, runtime.TypeUndefined:
		return nil
	case runtime.TypeBoolean:
		return host.TypeBool
	case runtime.TypeNumber:
		return host.TypeFloat64
	case runtime.TypeString:
		return host.TypeString
	case runtime.TypeObject:
		if v.Object == nil {
			return nil
		}
		switch v.Object.OType {
		case runtime.ObjTypeDate:
			return host.TypeTime
		case runtime.ObjTypeArray:
			return reflect.SliceOf(c.commonAncestor(v.Object.ArrayData))
		}
		b := bindingOf(v.Object)
		if b == nil {
			return host.TypeAny
		}
		if b.Static() {
			return b.Class
		}
		return b.Instance.Type()
	}
	return host.TypeAny
}

// commonAncestor finds the nearest type every element's inferred type is a
// subtype of, walking the ancestors of the first element's type.
func (c *Converter) commonAncestor(values []*runtime.Value) reflect.Type {
	if len(values) == 0 {
		return host.TypeAny
	}
	types := make([]reflect.Type, len(values))
	for i, v := range values {
		t := c.DetermineType(v)
		if t == nil {
			t = host.TypeAny
		}
		types[i] = t
	}
outer:
	for _, candidate := range c.registry.Ancestors(types[0]) {
		for _, t := range types[1:] {
			if !c.registry.IsSubtype(t, candidate) {
				continue outer
			}
		}
		return candidate
	}
	return host.TypeAny
}

func kindName(v *runtime.Value) string {
	if v == nil {
		return "undefined"
	}
	if v.Type == runtime.TypeNull {
		return "null"
	}
	return v.Type.String()
}
