// Package engine exposes the interpreter as an embeddable scripting engine:
// a Context with value factories, property access, calls and reference
// protection, and a Loop that serializes all work on one goroutine.
package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/jsbind/builtins"
	"github.com/example/jsbind/interpreter"
	"github.com/example/jsbind/runtime"
)

// ErrAlreadyRevived is returned when a protected value is revived twice.
var ErrAlreadyRevived = errors.New("engine: protected value already revived")

// Context wraps one interpreter with its builtins installed. A Context is not
// safe for concurrent use; drive it from a Loop.
type Context struct {
	interp *interpreter.Interpreter

	mu        sync.Mutex
	protected map[uuid.UUID]*runtime.Value
}

// NewContext creates an interpreter, registers the builtins and returns the
// context wrapping it.
func NewContext() *Context {
	interp := interpreter.New()
	builtins.RegisterAll(interp.GlobalEnv(), nil)
	return &Context{
		interp:    interp,
		protected: make(map[uuid.UUID]*runtime.Value),
	}
}

// Interpreter returns the underlying interpreter.
func (c *Context) Interpreter() *interpreter.Interpreter { return c.interp }

// Null returns the null value.
func (c *Context) Null() *runtime.Value { return runtime.Null }

// Undefined returns the undefined value.
func (c *Context) Undefined() *runtime.Value { return runtime.Undefined }

// Boolean returns a boolean value.
func (c *Context) Boolean(b bool) *runtime.Value { return runtime.NewBool(b) }

// Number returns a number value.
func (c *Context) Number(f float64) *runtime.Value { return runtime.NewNumber(f) }

// String returns a string value.
func (c *Context) String(s string) *runtime.Value { return runtime.NewString(s) }

// Array returns an array holding elems.
func (c *Context) Array(elems []*runtime.Value) *runtime.Value {
	if elems == nil {
		elems = []*runtime.Value{}
	}
	return runtime.NewObject(runtime.NewArrayObject(runtime.DefaultArrayPrototype, elems))
}

// Date returns a Date for the given milliseconds since the Unix epoch.
func (c *Context) Date(ms float64) *runtime.Value {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return builtins.NewDate(time.Time{})
	}
	return builtins.NewDate(time.UnixMilli(int64(ms)))
}

// Object returns an object of class carrying private data.
func (c *Context) Object(class *runtime.Class, private interface{}) *runtime.Value {
	return runtime.NewObject(runtime.NewClassObject(class, private))
}

// PlainObject returns an empty ordinary object.
func (c *Context) PlainObject() *runtime.Value {
	return runtime.NewObject(runtime.NewOrdinaryObject(runtime.DefaultObjectPrototype))
}

// Function returns a native function object named name.
func (c *Context) Function(name string, fn runtime.CallableFunc) *runtime.Value {
	obj := runtime.NewFunctionObject(runtime.DefaultFunctionPrototype, fn)
	obj.DefineProperty("name", &runtime.Property{Value: runtime.NewString(name), Configurable: true})
	return runtime.NewObject(obj)
}

// IsDate reports whether v is a Date object.
func (c *Context) IsDate(v *runtime.Value) bool {
	return isObject(v) && v.Object.OType == runtime.ObjTypeDate
}

// IsArray reports whether v is an array.
func (c *Context) IsArray(v *runtime.Value) bool {
	return isObject(v) && v.Object.OType == runtime.ObjTypeArray
}

// IsFunction reports whether v can be called.
func (c *Context) IsFunction(v *runtime.Value) bool {
	return isObject(v) && v.Object.Callable != nil
}

func isObject(v *runtime.Value) bool {
	return v != nil && v.Type == runtime.TypeObject && v.Object != nil
}

// GetProperty reads a named property of an object value.
func (c *Context) GetProperty(obj *runtime.Value, name string) (*runtime.Value, error) {
	if !isObject(obj) {
		return nil, fmt.Errorf("TypeError: Cannot read properties of %s (reading '%s')", obj.ToString(), name)
	}
	if obj.Object.OType == runtime.ObjTypeArray && name == "length" {
		return runtime.NewNumber(float64(len(obj.Object.ArrayData))), nil
	}
	val, err := obj.Object.GetProperty(name)
	if err != nil {
		return nil, err
	}
	if val == nil {
		return runtime.Undefined, nil
	}
	return val, nil
}

// GetPropertyAtIndex reads an indexed property of an object value.
func (c *Context) GetPropertyAtIndex(obj *runtime.Value, index int) (*runtime.Value, error) {
	if isObject(obj) && obj.Object.OType == runtime.ObjTypeArray {
		if index >= 0 && index < len(obj.Object.ArrayData) {
			if v := obj.Object.ArrayData[index]; v != nil {
				return v, nil
			}
		}
		return runtime.Undefined, nil
	}
	return c.GetProperty(obj, strconv.Itoa(index))
}

// Length returns the length property of an array-like value.
func (c *Context) Length(obj *runtime.Value) (int, error) {
	l, err := c.GetProperty(obj, "length")
	if err != nil {
		return 0, err
	}
	n := l.ToNumber()
	if math.IsNaN(n) || n < 0 {
		return 0, nil
	}
	return int(n), nil
}

// CallAsFunction calls fn with the given receiver. A nil receiver is undefined.
// Exceptions thrown by script code are returned as errors; use
// interpreter.ThrownValue to recover the thrown value.
func (c *Context) CallAsFunction(fn *runtime.Value, this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if !c.IsFunction(fn) {
		return nil, fmt.Errorf("TypeError: %s is not a function", fn.ToString())
	}
	if this == nil {
		this = runtime.Undefined
	}
	result, err := fn.Object.Callable(this, args)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return runtime.Undefined, nil
	}
	return result, nil
}

// Eval evaluates source in a fresh program scope.
func (c *Context) Eval(source string) (*runtime.Value, error) {
	return c.interp.Eval(source)
}

// EvalPersistent evaluates source in the context's session scope.
func (c *Context) EvalPersistent(source string) (*runtime.Value, error) {
	return c.interp.EvalPersistent(source)
}

// SetGlobal declares name in the global scope.
func (c *Context) SetGlobal(name string, v *runtime.Value) {
	c.interp.GlobalEnv().Declare(name, "var", v)
}

// Global reads name from the global scope.
func (c *Context) Global(name string) (*runtime.Value, error) {
	return c.interp.GlobalEnv().Get(name)
}

// Protect keeps v alive outside of its normal scope until the returned handle
// is revived.
func (c *Context) Protect(v *runtime.Value) *Protected {
	p := &Protected{id: uuid.New(), ctx: c, value: v}
	c.mu.Lock()
	c.protected[p.id] = v
	c.mu.Unlock()
	return p
}

// ProtectedCount returns the number of values currently protected.
func (c *Context) ProtectedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.protected)
}

// Protected is a handle to a value held by Context.Protect. It must be
// revived exactly once.
type Protected struct {
	id    uuid.UUID
	ctx   *Context
	value *runtime.Value

	mu      sync.Mutex
	revived bool
}

// ID identifies the protection.
func (p *Protected) ID() uuid.UUID { return p.id }

// Revive releases the protection and returns the live value.
func (p *Protected) Revive() (*runtime.Value, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.revived {
		return nil, ErrAlreadyRevived
	}
	p.revived = true
	p.ctx.mu.Lock()
	delete(p.ctx.protected, p.id)
	p.ctx.mu.Unlock()
	return p.value, nil
}

// Revived reports whether Revive has been called.
func (p *Protected) Revived() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.revived
}
