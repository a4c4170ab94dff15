package databind

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/example/jsbind/host"
	"github.com/example/jsbind/runtime"
)

// ClassProjection is the script class generated for one host type. It holds
// the publicly reachable members of the type and its declared interfaces,
// grouped by script name.
type ClassProjection struct {
	Type   reflect.Type
	Host   *host.Class
	Parent *ClassProjection

	constructors []*host.Callable
	methods      map[string][]*host.Callable
	fields       map[string]*host.Field

	handlers sync.Map // method name -> *MethodHandler
	class    *runtime.Class
	db       *Databind
}

// Class returns the engine class.
func (p *ClassProjection) Class() *runtime.Class { return p.class }

// Constructors returns the constructor overload set.
func (p *ClassProjection) Constructors() []*host.Callable { return p.constructors }

// Methods returns the overload group registered under name.
func (p *ClassProjection) Methods(name string) []*host.Callable { return p.methods[name] }

// Field returns the field registered under name.
func (p *ClassProjection) Field(name string) (*host.Field, bool) {
	f, ok := p.fields[name]
	return f, ok
}

func (p *ClassProjection) String() string { return p.Host.Name }

// ProjectionCache holds one projection per host type. Concurrent requests
// for the same type share a single build.
type ProjectionCache struct {
	build   func(t reflect.Type) (*ClassProjection, error)
	entries sync.Map // reflect.Type -> *ClassProjection
	group   singleflight.Group
	size    atomic.Int64
}

func newProjectionCache(build func(t reflect.Type) (*ClassProjection, error)) *ProjectionCache {
	return &ProjectionCache{build: build}
}

// Projection returns the cached projection of t, building it on first use.
func (c *ProjectionCache) Projection(t reflect.Type) (*ClassProjection, error) {
	if p, ok := c.entries.Load(t); ok {
		return p.(*ClassProjection), nil
	}
	v, err, _ := c.group.Do(cacheKey(t), func() (any, error) {
		if p, ok := c.entries.Load(t); ok {
			return p, nil
		}
		p, err := c.build(t)
		if err != nil {
			return nil, err
		}
		c.entries.Store(t, p)
		c.size.Add(1)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ClassProjection), nil
}

// Contains reports whether t has been projected.
func (c *ProjectionCache) Contains(t reflect.Type) bool {
	_, ok := c.entries.Load(t)
	return ok
}

// Len returns the number of cached projections.
func (c *ProjectionCache) Len() int { return int(c.size.Load()) }

// cacheKey distinguishes types sharing a printed name across packages.
func cacheKey(t reflect.Type) string {
	return fmt.Sprintf("%s@%x", t, reflect.ValueOf(t).Pointer())
}

// buildProjection projects t. The superclass is resolved through the cache
// first so every type is projected once.
func (db *Databind) buildProjection(t reflect.Type) (*ClassProjection, error) {
	class := db.registry.Class(t)
	p := &ClassProjection{
		Type:    t,
		Host:    class,
		methods: make(map[string][]*host.Callable),
		fields:  make(map[string]*host.Field),
		db:      db,
	}

	def := runtime.ClassDefinition{
		Name:              class.Name,
		Attributes:        runtime.ClassAttributeNoAutomaticPrototype,
		HasProperty:       p.hasProperty,
		GetProperty:       p.getProperty,
		SetProperty:       p.setProperty,
		CallAsConstructor: p.construct,
	}
	if class.Super != nil && !db.inheritsFrom(class.Super, t) {
		parent, err := db.cache.Projection(class.Super)
		if err != nil {
			return nil, fmt.Errorf("project %s: parent: %w", class.Name, err)
		}
		p.Parent = parent
		def.Parent = parent.class
	}

	for _, ctor := range class.Constructors {
		if ctor.Public {
			p.constructors = append(p.constructors, ctor)
		}
	}
	p.addMembers(class)

	queue := append([]reflect.Type(nil), class.Interfaces...)
	seen := make(map[reflect.Type]bool)
	for len(queue) > 0 {
		iface := queue[0]
		queue = queue[1:]
		if seen[iface] {
			continue
		}
		seen[iface] = true
		ic := db.registry.Class(iface)
		queue = append(queue, ic.Interfaces...)
		p.addMembers(ic)
	}

	p.class = runtime.NewClass(def)
	db.logger.Debug("projected class",
		"class", class.Name,
		"constructors", len(p.constructors),
		"methods", len(p.methods),
		"fields", len(p.fields),
		"parent", p.Parent != nil)
	return p, nil
}

// inheritsFrom reports whether t appears on the superclass chain starting at
// super, which would make the chain cyclic.
func (db *Databind) inheritsFrom(super, t reflect.Type) bool {
	seen := make(map[reflect.Type]bool)
	for s := super; s != nil && !seen[s]; s = db.registry.Superclass(s) {
		if s == t {
			return true
		}
		seen[s] = true
	}
	return false
}

// addMembers merges the public members of class into the projection. Methods
// already present with an identical signature are skipped.
func (p *ClassProjection) addMembers(class *host.Class) {
	for _, m := range class.Methods {
		if !m.Public || isEnumValueOf(m) {
			continue
		}
		group := p.methods[m.Name]
		if containsSignature(group, m) {
			continue
		}
		p.methods[m.Name] = append(group, m)
	}
	for _, f := range class.Fields {
		if !f.Public {
			continue
		}
		if _, ok := p.fields[f.Name]; !ok {
			p.fields[f.Name] = f
		}
	}
}

// isEnumValueOf matches valueOf declared on an integer-kinded type, which
// would shadow the engine's own valueOf.
func isEnumValueOf(m *host.Callable) bool {
	if m.Name != "valueOf" {
		return false
	}
	t := m.Declaring
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func containsSignature(group []*host.Callable, m *host.Callable) bool {
	for _, g := range group {
		if g.Static() == m.Static() && sameTypes(g.Params, m.Params) {
			return true
		}
	}
	return false
}

func (p *ClassProjection) binding(obj *runtime.Object) *InstanceBinding {
	if b := bindingOf(obj); b != nil {
		return b
	}
	return &InstanceBinding{Class: p.Type}
}

func (p *ClassProjection) construct(ctor *runtime.Object, args []*runtime.Value) (_ *runtime.Object, err error) {
	defer recoverCallback(p.Host.Name+" constructor", &err)

	if b := bindingOf(ctor); b != nil && !b.Static() {
		return nil, &ConstructionStateError{Class: p.Host.Name}
	}
	data, err := p.db.chooser.Choose(p.constructors, args)
	if err != nil {
		return nil, err
	}
	params, err := data.ConstructArguments()
	if err != nil {
		return nil, err
	}
	instance, err := data.Target().Invoke(reflect.Value{}, params)
	if err != nil {
		return nil, err
	}
	if !instance.IsValid() || (host.IsNillable(instance.Type()) && instance.IsNil()) {
		return nil, &host.InvocationError{Member: data.Target().String(), Cause: errNilInstance}
	}
	return runtime.NewClassObject(p.class, &InstanceBinding{Instance: instance, Class: p.Type}), nil
}

func (p *ClassProjection) hasProperty(obj *runtime.Object, name string) bool {
	hasInstance := !p.binding(obj).Static()
	if f, ok := p.fields[name]; ok && (f.Static || hasInstance) {
		return true
	}
	group := p.methods[name]
	if len(group) == 0 {
		return false
	}
	if hasInstance {
		return true
	}
	for _, m := range group {
		if m.Static() {
			return true
		}
	}
	return false
}

func (p *ClassProjection) getProperty(obj *runtime.Object, name string) (_ *runtime.Value, err error) {
	defer recoverCallback(p.Host.Name+"."+name, &err)

	b := p.binding(obj)
	ctx := p.db.provider.Context()
	if f, ok := p.fields[name]; ok {
		if !f.Static && b.Static() {
			return nil, nil
		}
		v, err := f.Get(b.Instance)
		if err != nil {
			return nil, err
		}
		return p.db.converter.ToJavascript(ctx, valueInterface(v), f.Type)
	}
	if _, ok := p.methods[name]; !ok {
		return nil, nil
	}
	h := p.handler(name)
	return ctx.Object(h.class, &methodBinding{instance: b.Instance}), nil
}

func (p *ClassProjection) setProperty(obj *runtime.Object, name string, val *runtime.Value) (_ bool, err error) {
	defer recoverCallback(p.Host.Name+"."+name, &err)

	if !p.hasProperty(obj, name) {
		return false, nil
	}
	if f, ok := p.fields[name]; ok && (f.Static || !p.binding(obj).Static()) {
		v, err := p.db.converter.FromJavascript(val, f.Type)
		if err != nil {
			return false, err
		}
		if err := f.Set(p.binding(obj).Instance, v); err != nil {
			return false, err
		}
		return true, nil
	}
	if _, ok := p.methods[name]; ok {
		return false, &UnsupportedOperationError{Class: p.Host.Name, Name: name}
	}
	return false, nil
}

// handler returns the method handler of the named overload group, creating it
// on first access.
func (p *ClassProjection) handler(name string) *MethodHandler {
	if h, ok := p.handlers.Load(name); ok {
		return h.(*MethodHandler)
	}
	h, _ := p.handlers.LoadOrStore(name, newMethodHandler(p.db, p.Host.Name+"."+name, p.methods[name]))
	return h.(*MethodHandler)
}

// recoverCallback turns a panic escaping an engine callback into an error so
// the script sees an exception instead of the process crashing.
func recoverCallback(member string, err *error) {
	if r := recover(); r != nil {
		*err = &host.InvocationError{Member: member, Cause: &host.PanicError{Value: r}}
	}
}
