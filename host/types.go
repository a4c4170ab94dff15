// Package host describes Go types for the scripting engine: constructors,
// methods and fields reachable by reflection or declared explicitly through
// registration options, plus the functional contracts script functions may
// implement.
package host

import (
	"reflect"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Char is the host character type: one UTF-16 code unit.
type Char uint16

// Common host types.
var (
	TypeAny       = reflect.TypeFor[any]()
	TypeBool      = reflect.TypeFor[bool]()
	TypeFloat64   = reflect.TypeFor[float64]()
	TypeString    = reflect.TypeFor[string]()
	TypeChar      = reflect.TypeFor[Char]()
	TypeCharArray = reflect.TypeFor[[]Char]()
	TypeTime      = reflect.TypeFor[time.Time]()
	TypeType      = reflect.TypeFor[reflect.Type]()
	TypeError     = reflect.TypeFor[error]()
	TypeFuture    = reflect.TypeFor[*Future]()
)

// Primitives maps the script-visible names of the primitive host types.
var Primitives = map[string]reflect.Type{
	"int8":    reflect.TypeFor[int8](),
	"int16":   reflect.TypeFor[int16](),
	"int32":   reflect.TypeFor[int32](),
	"int64":   reflect.TypeFor[int64](),
	"int":     reflect.TypeFor[int](),
	"uint8":   reflect.TypeFor[uint8](),
	"uint16":  reflect.TypeFor[uint16](),
	"uint32":  reflect.TypeFor[uint32](),
	"uint64":  reflect.TypeFor[uint64](),
	"float32": reflect.TypeFor[float32](),
	"float64": TypeFloat64,
	"bool":    TypeBool,
	"string":  TypeString,
	"char":    TypeChar,
	"any":     TypeAny,
}

// NameMapper maps a Go member name to its script name.
type NameMapper func(goName string) string

// DefaultNameMapper lower-cases the first rune and maps String to toString.
func DefaultNameMapper(goName string) string {
	if goName == "String" {
		return "toString"
	}
	r, size := utf8.DecodeRuneInString(goName)
	if r == utf8.RuneError {
		return goName
	}
	return string(unicode.ToLower(r)) + goName[size:]
}

// TypeName returns the registry name of t: the package-qualified name of the
// type with pointers stripped, e.g. "hostlib.Point" for *hostlib.Point.
func TypeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer && t.Name() == "" {
		t = t.Elem()
	}
	if t == TypeAny {
		return "any"
	}
	return t.String()
}

// IsExportedType reports whether t can be named outside its package. Unnamed
// and predeclared types are exported.
func IsExportedType(t reflect.Type) bool {
	for t.Name() == "" && (t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array) {
		t = t.Elem()
	}
	if t.Name() == "" || t.PkgPath() == "" {
		return true
	}
	r, _ := utf8.DecodeRuneInString(t.Name())
	return unicode.IsUpper(r)
}

// IsNillable reports whether the zero value of t is nil.
func IsNillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

// StructOf returns the struct type behind t, following one pointer.
func StructOf(t reflect.Type) (reflect.Type, bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, false
	}
	return t, true
}

func signatureString(name string, params []reflect.Type, ret reflect.Type) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	if ret != nil {
		b.WriteByte(' ')
		b.WriteString(ret.String())
	}
	return b.String()
}
