package host

import (
	"fmt"
	"reflect"
)

// CallableKind distinguishes the members a Callable can describe.
type CallableKind int

const (
	KindMethod CallableKind = iota
	KindStatic
	KindConstructor
)

// Callable describes one invocable member: a method, a static function or a
// constructor.
type Callable struct {
	Name         string
	GoName       string
	Kind         CallableKind
	Declaring    reflect.Type
	Params       []reflect.Type
	Variadic     bool
	Return       reflect.Type // nil when the member returns nothing
	ReturnsError bool
	Public       bool

	fn reflect.Value // statics and constructors
}

// Static reports whether the callable needs no receiver.
func (c *Callable) Static() bool { return c.Kind != KindMethod }

// Signature renders the callable for messages and de-duplication.
func (c *Callable) Signature() string {
	return signatureString(c.Name, c.Params, c.Return)
}

func (c *Callable) String() string {
	return TypeName(c.Declaring) + "." + c.Signature()
}

// Invoke calls the member. recv is ignored for static callables. A returned
// error or a panic in the callee is reported as *InvocationError; a receiver
// that cannot be used as *AccessError.
func (c *Callable) Invoke(recv reflect.Value, args []reflect.Value) (result reflect.Value, err error) {
	fn := c.fn
	if c.Kind == KindMethod {
		if fn, err = c.bind(recv); err != nil {
			return reflect.Value{}, err
		}
	}
	defer func() {
		if r := recover(); r != nil {
			result, err = reflect.Value{}, &InvocationError{Member: c.String(), Cause: &PanicError{Value: r}}
		}
	}()

	var outs []reflect.Value
	if c.Variadic {
		outs = fn.CallSlice(args)
	} else {
		outs = fn.Call(args)
	}
	if c.ReturnsError {
		if errVal := outs[len(outs)-1]; !errVal.IsNil() {
			return reflect.Value{}, &InvocationError{Member: c.String(), Cause: errVal.Interface().(error)}
		}
		outs = outs[:len(outs)-1]
	}
	if len(outs) == 0 {
		return reflect.Value{}, nil
	}
	return outs[0], nil
}

func (c *Callable) bind(recv reflect.Value) (reflect.Value, error) {
	if !recv.IsValid() || (IsNillable(recv.Type()) && recv.IsNil()) {
		return reflect.Value{}, &AccessError{Member: c.String(), Reason: "nil receiver"}
	}
	m := recv.MethodByName(c.GoName)
	if !m.IsValid() && recv.CanAddr() {
		m = recv.Addr().MethodByName(c.GoName)
	}
	if !m.IsValid() {
		return reflect.Value{}, &AccessError{Member: c.String(), Reason: fmt.Sprintf("%s has no method %s", recv.Type(), c.GoName)}
	}
	return m, nil
}

// Field describes an instance field of a struct or a static variable.
type Field struct {
	Name      string
	GoName    string
	Type      reflect.Type
	Declaring reflect.Type
	Static    bool
	Public    bool

	ptr reflect.Value // statics
}

func (f *Field) String() string {
	return TypeName(f.Declaring) + "." + f.Name
}

// Get reads the field from recv, or the static variable.
func (f *Field) Get(recv reflect.Value) (reflect.Value, error) {
	if f.Static {
		return f.ptr.Elem(), nil
	}
	v, err := f.locate(recv)
	if err != nil {
		return reflect.Value{}, err
	}
	return v, nil
}

// Set writes v, which must be assignable to the field type.
func (f *Field) Set(recv reflect.Value, v reflect.Value) error {
	target := f.ptr
	if f.Static {
		target = f.ptr.Elem()
	} else {
		var err error
		if target, err = f.locate(recv); err != nil {
			return err
		}
	}
	if !target.CanSet() {
		return &AccessError{Member: f.String(), Reason: "field is not settable"}
	}
	if !v.IsValid() {
		v = reflect.Zero(f.Type)
	}
	target.Set(v)
	return nil
}

func (f *Field) locate(recv reflect.Value) (reflect.Value, error) {
	for recv.IsValid() && (recv.Kind() == reflect.Pointer || recv.Kind() == reflect.Interface) {
		if recv.IsNil() {
			return reflect.Value{}, &AccessError{Member: f.String(), Reason: "nil receiver"}
		}
		recv = recv.Elem()
	}
	if !recv.IsValid() || recv.Kind() != reflect.Struct {
		return reflect.Value{}, &AccessError{Member: f.String(), Reason: "receiver is not a struct"}
	}
	sf, ok := recv.Type().FieldByName(f.GoName)
	if !ok {
		return reflect.Value{}, &AccessError{Member: f.String(), Reason: fmt.Sprintf("%s has no field %s", recv.Type(), f.GoName)}
	}
	v, err := recv.FieldByIndexErr(sf.Index)
	if err != nil {
		return reflect.Value{}, &AccessError{Member: f.String(), Reason: err.Error()}
	}
	return v, nil
}

// Class describes a host type: its constructors, methods, fields, declared
// interfaces and superclass.
type Class struct {
	Type         reflect.Type
	Name         string
	Public       bool
	Constructors []*Callable
	Methods      []*Callable
	Fields       []*Field
	Interfaces   []reflect.Type
	Super        reflect.Type // nil for the universal root
}

// IsInterface reports whether the class describes a Go interface.
func (c *Class) IsInterface() bool { return c.Type.Kind() == reflect.Interface }

func (c *Class) String() string { return c.Name }

// Option customizes how a type is described.
type Option func(o *classOptions)

type classOptions struct {
	name         string
	constructors []any
	statics      []namedValue
	staticFields []namedValue
	aliases      map[string]string
	interfaces   []reflect.Type
}

type namedValue struct {
	name  string
	value any
}

// WithName sets the script name of the class.
func WithName(name string) Option {
	return func(o *classOptions) { o.name = name }
}

// WithConstructor adds a constructor. fn must return the class type,
// optionally followed by an error. Several constructors form an overload set.
func WithConstructor(fn any) Option {
	return func(o *classOptions) { o.constructors = append(o.constructors, fn) }
}

// WithStatic adds a static function reachable without an instance.
func WithStatic(name string, fn any) Option {
	return func(o *classOptions) { o.statics = append(o.statics, namedValue{name, fn}) }
}

// WithStaticField exposes the variable ptr points to as a static field.
func WithStaticField(name string, ptr any) Option {
	return func(o *classOptions) { o.staticFields = append(o.staticFields, namedValue{name, ptr}) }
}

// WithAlias gives the Go method goName the script name scriptName. Aliasing
// several methods to one name makes them an overload set.
func WithAlias(goName, scriptName string) Option {
	return func(o *classOptions) {
		if o.aliases == nil {
			o.aliases = make(map[string]string)
		}
		o.aliases[goName] = scriptName
	}
}

// WithInterfaces declares interfaces the class implements.
func WithInterfaces(types ...reflect.Type) Option {
	return func(o *classOptions) { o.interfaces = append(o.interfaces, types...) }
}
