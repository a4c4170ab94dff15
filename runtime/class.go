package runtime

import (
	goruntime "runtime"
	"sync"
)

// ClassAttributes are creation flags for a ClassDefinition.
type ClassAttributes int

const (
	// ClassAttributeNone gives the class a prototype object shared by its
	// instances and chained to the parent class prototype.
	ClassAttributeNone ClassAttributes = 0
	// ClassAttributeNoAutomaticPrototype keeps objects of the class from
	// receiving a dedicated prototype object; they inherit Object.prototype.
	ClassAttributeNoAutomaticPrototype ClassAttributes = 1 << 1
)

// HasPropertyFunc reports whether the class handles the named property.
type HasPropertyFunc func(obj *Object, name string) bool

// GetPropertyFunc returns the named property. A nil value without error means
// the property is not handled and lookup continues upward.
type GetPropertyFunc func(obj *Object, name string) (*Value, error)

// SetPropertyFunc assigns the named property and reports whether it was handled.
type SetPropertyFunc func(obj *Object, name string, val *Value) (bool, error)

// CallAsFunctionFunc is invoked when an object of the class is called.
type CallAsFunctionFunc func(fn *Object, this *Value, args []*Value) (*Value, error)

// CallAsConstructorFunc is invoked when an object of the class is used with new.
type CallAsConstructorFunc func(ctor *Object, args []*Value) (*Object, error)

// FinalizeFunc receives the private data of a collected object.
type FinalizeFunc func(private interface{})

// ClassDefinition describes the callbacks of a host-defined class.
type ClassDefinition struct {
	Name       string
	Attributes ClassAttributes
	Parent     *Class

	HasProperty       HasPropertyFunc
	GetProperty       GetPropertyFunc
	SetProperty       SetPropertyFunc
	CallAsFunction    CallAsFunctionFunc
	CallAsConstructor CallAsConstructorFunc
	Finalize          FinalizeFunc
}

// Class is an immutable, baked ClassDefinition.
type Class struct {
	def ClassDefinition

	protoOnce sync.Once
	proto     *Object
}

// NewClass bakes a definition. The definition is copied; later changes to it
// do not affect the class.
func NewClass(def ClassDefinition) *Class {
	return &Class{def: def}
}

// Name returns the class name.
func (c *Class) Name() string { return c.def.Name }

// Parent returns the parent class, or nil.
func (c *Class) Parent() *Class { return c.def.Parent }

// Attributes returns the creation attributes.
func (c *Class) Attributes() ClassAttributes { return c.def.Attributes }

// Prototype returns the prototype given to objects of the class. Classes
// created with ClassAttributeNoAutomaticPrototype use Object.prototype.
func (c *Class) Prototype() *Object {
	if c.def.Attributes&ClassAttributeNoAutomaticPrototype != 0 {
		return DefaultObjectPrototype
	}
	c.protoOnce.Do(func() {
		parent := DefaultObjectPrototype
		if c.def.Parent != nil {
			parent = c.def.Parent.Prototype()
		}
		c.proto = NewOrdinaryObject(parent)
	})
	return c.proto
}

// NewClassObject creates an object of the given class carrying private data.
func NewClassObject(class *Class, private interface{}) *Object {
	obj := &Object{
		OType:      ObjTypeOrdinary,
		Properties: make(map[string]*Property),
		Prototype:  DefaultObjectPrototype,
		class:      class,
		private:    private,
	}
	if class == nil {
		return obj
	}
	obj.Prototype = class.Prototype()
	if call := class.callAsFunction(); call != nil {
		obj.OType = ObjTypeFunction
		obj.Callable = func(this *Value, args []*Value) (*Value, error) {
			return call(obj, this, args)
		}
	}
	if construct := class.callAsConstructor(); construct != nil {
		obj.Constructor = func(this *Value, args []*Value) (*Value, error) {
			created, err := construct(obj, args)
			if err != nil {
				return nil, err
			}
			return NewObject(created), nil
		}
	}
	if fin := class.finalizer(); fin != nil && private != nil {
		goruntime.AddCleanup(obj, func(p interface{}) { fin(p) }, private)
	}
	return obj
}

// Class returns the host class of the object, or nil for ordinary objects.
func (o *Object) Class() *Class { return o.class }

// Private returns the private data attached by NewClassObject.
func (o *Object) Private() interface{} { return o.private }

func (c *Class) getProperty(obj *Object, name string) (*Value, error) {
	for cls := c; cls != nil; cls = cls.def.Parent {
		if cls.def.HasProperty != nil && !cls.def.HasProperty(obj, name) {
			continue
		}
		if cls.def.GetProperty == nil {
			continue
		}
		val, err := cls.def.GetProperty(obj, name)
		if err != nil || val != nil {
			return val, err
		}
	}
	return nil, nil
}

func (c *Class) setProperty(obj *Object, name string, val *Value) (bool, error) {
	for cls := c; cls != nil; cls = cls.def.Parent {
		if cls.def.SetProperty == nil {
			continue
		}
		handled, err := cls.def.SetProperty(obj, name, val)
		if err != nil || handled {
			return handled, err
		}
	}
	return false, nil
}

func (c *Class) hasProperty(obj *Object, name string) bool {
	for cls := c; cls != nil; cls = cls.def.Parent {
		if cls.def.HasProperty != nil {
			if cls.def.HasProperty(obj, name) {
				return true
			}
			continue
		}
		if cls.def.GetProperty != nil {
			if val, err := cls.def.GetProperty(obj, name); err == nil && val != nil {
				return true
			}
		}
	}
	return false
}

func (c *Class) callAsFunction() CallAsFunctionFunc {
	for cls := c; cls != nil; cls = cls.def.Parent {
		if cls.def.CallAsFunction != nil {
			return cls.def.CallAsFunction
		}
	}
	return nil
}

func (c *Class) callAsConstructor() CallAsConstructorFunc {
	for cls := c; cls != nil; cls = cls.def.Parent {
		if cls.def.CallAsConstructor != nil {
			return cls.def.CallAsConstructor
		}
	}
	return nil
}

func (c *Class) finalizer() FinalizeFunc {
	for cls := c; cls != nil; cls = cls.def.Parent {
		if cls.def.Finalize != nil {
			return cls.def.Finalize
		}
	}
	return nil
}
