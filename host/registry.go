package host

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"sync"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	NameMapper NameMapper
}

// Registry holds class descriptors keyed by type and by script name. Types
// that were never registered are described on demand by reflection.
type Registry struct {
	opts RegistryOptions

	mu        sync.RWMutex
	classes   map[reflect.Type]*Class
	names     map[string]reflect.Type
	contracts map[reflect.Type]*Contract
}

// NewRegistry creates an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{NameMapper: DefaultNameMapper}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{
		opts:      opts,
		classes:   make(map[reflect.Type]*Class),
		names:     make(map[string]reflect.Type),
		contracts: make(map[reflect.Type]*Contract),
	}
}

// Register describes t with opts and makes it reachable by name.
func (r *Registry) Register(t reflect.Type, opts ...Option) (*Class, error) {
	var o classOptions
	for _, fn := range opts {
		fn(&o)
	}
	class, err := r.describe(t, &o)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.names[class.Name]; ok && prev != t {
		return nil, fmt.Errorf("host: name %q already registered for %s", class.Name, prev)
	}
	r.classes[t] = class
	r.names[class.Name] = t
	return class, nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(t reflect.Type, opts ...Option) *Class {
	class, err := r.Register(t, opts...)
	if err != nil {
		panic(err)
	}
	return class
}

// Class returns the descriptor of t, describing it by reflection when it was
// not registered.
func (r *Registry) Class(t reflect.Type) *Class {
	r.mu.RLock()
	class, ok := r.classes[t]
	r.mu.RUnlock()
	if ok {
		return class
	}
	// Descriptions without options cannot fail.
	described, _ := r.describe(t, &classOptions{})
	r.mu.Lock()
	defer r.mu.Unlock()
	if class, ok := r.classes[t]; ok {
		return class
	}
	r.classes[t] = described
	return described
}

// Lookup finds a registered class by script name.
func (r *Registry) Lookup(name string) (*Class, bool) {
	r.mu.RLock()
	t, ok := r.names[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return r.Class(t), true
}

// Names lists the registered class names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Superclass returns the superclass of t: the pointer form of its first
// embedded struct. nil stands for the universal root.
func (r *Registry) Superclass(t reflect.Type) reflect.Type {
	return r.Class(t).Super
}

// IsSubtype reports whether a value of type sub may be used where super is
// expected: Go assignability, or super found on the superclass chain of sub.
func (r *Registry) IsSubtype(sub, super reflect.Type) bool {
	if super == TypeAny {
		return true
	}
	for t := sub; t != nil; t = r.Superclass(t) {
		if t == super || t.AssignableTo(super) {
			return true
		}
	}
	return false
}

// Upcast converts v to target, following embedded superclasses when plain
// assignability does not apply.
func (r *Registry) Upcast(v reflect.Value, target reflect.Type) (reflect.Value, bool) {
	for v.IsValid() {
		if v.Type().AssignableTo(target) {
			return v, true
		}
		next, ok := embeddedSuper(v)
		if !ok {
			return reflect.Value{}, false
		}
		v = next
	}
	return reflect.Value{}, false
}

func embeddedSuper(v reflect.Value) (reflect.Value, bool) {
	st, ok := StructOf(v.Type())
	if !ok {
		return reflect.Value{}, false
	}
	idx, ok := superField(st)
	if !ok {
		return reflect.Value{}, false
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	f := v.Field(idx)
	if f.Kind() == reflect.Pointer {
		if f.IsNil() {
			return reflect.Value{}, false
		}
		return f, true
	}
	if !f.CanAddr() {
		return reflect.Value{}, false
	}
	return f.Addr(), true
}

// Ancestors lists t, its superclasses, the interfaces they declare in
// breadth-first order and finally the universal root.
func (r *Registry) Ancestors(t reflect.Type) []reflect.Type {
	var out []reflect.Type
	seen := make(map[reflect.Type]bool)
	var queue []reflect.Type
	for c := t; c != nil; c = r.Superclass(c) {
		if seen[c] {
			break
		}
		seen[c] = true
		out = append(out, c)
		queue = append(queue, r.Class(c).Interfaces...)
	}
	for len(queue) > 0 {
		iface := queue[0]
		queue = queue[1:]
		if seen[iface] {
			continue
		}
		seen[iface] = true
		out = append(out, iface)
		queue = append(queue, r.Class(iface).Interfaces...)
	}
	if !seen[TypeAny] {
		out = append(out, TypeAny)
	}
	return out
}

// superField returns the index of the field acting as superclass: the first
// embedded struct or pointer to struct.
func superField(st reflect.Type) (int, bool) {
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.Anonymous {
			continue
		}
		if _, ok := StructOf(f.Type); ok {
			return i, true
		}
	}
	return 0, false
}

func (r *Registry) describe(t reflect.Type, o *classOptions) (*Class, error) {
	class := &Class{
		Type:       t,
		Name:       TypeName(t),
		Public:     IsExportedType(t),
		Interfaces: o.interfaces,
	}
	if o.name != "" {
		class.Name = o.name
	}
	for _, iface := range o.interfaces {
		if iface.Kind() != reflect.Interface {
			return nil, fmt.Errorf("host: %s: %s is not an interface", class.Name, iface)
		}
		if t.Kind() != reflect.Interface && !t.Implements(iface) {
			return nil, fmt.Errorf("host: %s does not implement %s", t, iface)
		}
	}
	if st, ok := StructOf(t); ok {
		if idx, ok := superField(st); ok {
			super := st.Field(idx).Type
			if super.Kind() != reflect.Pointer {
				super = reflect.PointerTo(super)
			}
			if super != t && super != reflect.PointerTo(t) {
				class.Super = super
			}
		}
		class.Fields = r.describeFields(st)
	}
	class.Methods = r.describeMethods(t, o.aliases)

	for _, fn := range o.constructors {
		ctor, err := r.describeFunc(t, "new", fn, KindConstructor)
		if err != nil {
			return nil, fmt.Errorf("host: %s constructor: %w", class.Name, err)
		}
		if ctor.Return == nil || !ctor.Return.AssignableTo(t) {
			return nil, fmt.Errorf("host: %s constructor must return %s", class.Name, t)
		}
		class.Constructors = append(class.Constructors, ctor)
	}
	if len(o.constructors) == 0 {
		if ctor, ok := zeroConstructor(t); ok {
			class.Constructors = append(class.Constructors, ctor)
		}
	}
	for _, s := range o.statics {
		fn, err := r.describeFunc(t, s.name, s.value, KindStatic)
		if err != nil {
			return nil, fmt.Errorf("host: %s.%s: %w", class.Name, s.name, err)
		}
		class.Methods = append(class.Methods, fn)
	}
	for _, s := range o.staticFields {
		ptr := reflect.ValueOf(s.value)
		if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
			return nil, fmt.Errorf("host: %s.%s: static field needs a non-nil pointer", class.Name, s.name)
		}
		class.Fields = append(class.Fields, &Field{
			Name:      s.name,
			GoName:    s.name,
			Type:      ptr.Type().Elem(),
			Declaring: t,
			Static:    true,
			Public:    class.Public,
			ptr:       ptr,
		})
	}
	return class, nil
}

func zeroConstructor(t reflect.Type) (*Callable, bool) {
	st, ok := StructOf(t)
	if !ok {
		return nil, false
	}
	isPtr := t.Kind() == reflect.Pointer
	fnType := reflect.FuncOf(nil, []reflect.Type{t}, false)
	fn := reflect.MakeFunc(fnType, func([]reflect.Value) []reflect.Value {
		v := reflect.New(st)
		if !isPtr {
			v = v.Elem()
		}
		return []reflect.Value{v}
	})
	return &Callable{
		Name:      "new",
		GoName:    "new",
		Kind:      KindConstructor,
		Declaring: t,
		Return:    t,
		Public:    IsExportedType(t),
		fn:        fn,
	}, true
}

func (r *Registry) describeFunc(declaring reflect.Type, name string, fn any, kind CallableKind) (*Callable, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%T is not a function", fn)
	}
	c := &Callable{
		Name:      name,
		GoName:    name,
		Kind:      kind,
		Declaring: declaring,
		Public:    IsExportedType(declaring),
		fn:        v,
	}
	if !fillSignature(c, v.Type(), 0) {
		return nil, fmt.Errorf("unsupported signature %s", v.Type())
	}
	return c, nil
}

// fillSignature copies parameters and results of ft, skipping the first skip
// parameters. Results must be (), (T), (error) or (T, error).
func fillSignature(c *Callable, ft reflect.Type, skip int) bool {
	for i := skip; i < ft.NumIn(); i++ {
		c.Params = append(c.Params, ft.In(i))
	}
	c.Variadic = ft.IsVariadic()
	switch ft.NumOut() {
	case 0:
	case 1:
		if ft.Out(0) == TypeError {
			c.ReturnsError = true
		} else {
			c.Return = ft.Out(0)
		}
	case 2:
		if ft.Out(1) != TypeError {
			return false
		}
		c.Return = ft.Out(0)
		c.ReturnsError = true
	default:
		return false
	}
	return true
}

func (r *Registry) describeMethods(t reflect.Type, aliases map[string]string) []*Callable {
	var methods []*Callable
	skip := 1
	if t.Kind() == reflect.Interface {
		skip = 0
	}
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		if !m.IsExported() {
			continue
		}
		name := r.opts.NameMapper(m.Name)
		if alias, ok := aliases[m.Name]; ok {
			name = alias
		}
		declaring := declaringType(t, m.Name)
		c := &Callable{
			Name:      name,
			GoName:    m.Name,
			Kind:      KindMethod,
			Declaring: declaring,
			Public:    IsExportedType(declaring),
		}
		if !fillSignature(c, m.Type, skip) {
			continue
		}
		methods = append(methods, c)
	}
	return methods
}

// declaringType attributes a method of t to the embedded type it is promoted
// from, or to t itself. A method t redeclares over an embedded one belongs
// to t.
func declaringType(t reflect.Type, method string) reflect.Type {
	st, ok := StructOf(t)
	if !ok || declaresMethod(t, method) {
		return t
	}
	for i := 0; i < st.NumField(); i++ {
		f := st.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if _, has := ft.MethodByName(method); has {
			return declaringType(ft, method)
		}
		if ft.Kind() != reflect.Pointer && ft.Kind() != reflect.Interface {
			if _, has := reflect.PointerTo(ft).MethodByName(method); has {
				return declaringType(reflect.PointerTo(ft), method)
			}
		}
	}
	return t
}

// declaresMethod reports whether method is written on t or its element type.
// Promoted methods only exist as compiler generated wrappers.
func declaresMethod(t reflect.Type, method string) bool {
	candidates := []reflect.Type{t}
	if t.Kind() == reflect.Pointer {
		candidates = append(candidates, t.Elem())
	}
	for _, c := range candidates {
		if c.Kind() == reflect.Interface {
			continue
		}
		m, ok := c.MethodByName(method)
		if !ok || !m.Func.IsValid() {
			continue
		}
		fn := runtime.FuncForPC(m.Func.Pointer())
		if fn == nil {
			continue
		}
		if file, _ := fn.FileLine(fn.Entry()); file != "<autogenerated>" {
			return true
		}
	}
	return false
}

func (r *Registry) describeFields(st reflect.Type) []*Field {
	var fields []*Field
	for _, sf := range reflect.VisibleFields(st) {
		if sf.Anonymous || !sf.IsExported() {
			continue
		}
		name := r.opts.NameMapper(sf.Name)
		if tag, ok := sf.Tag.Lookup("js"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		declaring := declaringStruct(st, sf.Index)
		fields = append(fields, &Field{
			Name:      name,
			GoName:    sf.Name,
			Type:      sf.Type,
			Declaring: declaring,
			Public:    IsExportedType(declaring),
		})
	}
	return fields
}

// declaringStruct returns the struct type that directly declares the field
// reached by index.
func declaringStruct(st reflect.Type, index []int) reflect.Type {
	for _, i := range index[:len(index)-1] {
		next, ok := StructOf(st.Field(i).Type)
		if !ok {
			break
		}
		st = next
	}
	return st
}
