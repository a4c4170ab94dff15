// Package databind projects Go values and types into the scripting engine and
// converts script values back into Go values. Projected types expose their
// constructors, methods and fields to scripts; script functions can implement
// Go function types and single-method interfaces.
package databind

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/example/jsbind/engine"
	"github.com/example/jsbind/host"
	"github.com/example/jsbind/logging"
	"github.com/example/jsbind/runtime"
)

// ContextProvider grants access to the engine context and its loop.
// engine.Loop is the standard implementation.
type ContextProvider interface {
	Context() *engine.Context
	// SyncWithJavascript runs task on the engine goroutine, inline when the
	// caller already is on it.
	SyncWithJavascript(task engine.Task) error
}

// Options configures a Databind.
type Options struct {
	Logger logging.Logger
	// FunctionalConversion lets script functions convert to functional
	// contracts. Enabled by default.
	FunctionalConversion bool
	// NewMethodChooser builds the overload resolver. Defaults to
	// NewMethodChooser.
	NewMethodChooser func(conv *Converter) MethodChooser
}

// Databind binds one engine context to a host registry.
type Databind struct {
	registry *host.Registry
	provider ContextProvider
	logger   logging.Logger

	converter *Converter
	chooser   MethodChooser
	cache     *ProjectionCache
}

// New creates a Databind for provider's context using the types described by
// registry.
func New(registry *host.Registry, provider ContextProvider, optFns ...func(o *Options)) *Databind {
	opts := Options{
		Logger:               logging.NoOpLogger{},
		FunctionalConversion: true,
		NewMethodChooser:     NewMethodChooser,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	db := &Databind{
		registry: registry,
		provider: provider,
		logger:   logging.Component(opts.Logger, "databind"),
	}
	db.converter = &Converter{db: db, registry: registry, functional: opts.FunctionalConversion}
	db.chooser = opts.NewMethodChooser(db.converter)
	db.cache = newProjectionCache(db.buildProjection)
	return db
}

// Registry returns the host registry.
func (db *Databind) Registry() *host.Registry { return db.registry }

// Converter returns the value converter.
func (db *Databind) Converter() *Converter { return db.converter }

// Cache returns the projection cache.
func (db *Databind) Cache() *ProjectionCache { return db.cache }

// SupportsFunctionalConversion reports whether script functions convert to
// functional contracts.
func (db *Databind) SupportsFunctionalConversion() bool { return db.converter.functional }

// Projection returns the projection of t, building it and its ancestors on
// first use.
func (db *Databind) Projection(t reflect.Type) (*ClassProjection, error) {
	return db.cache.Projection(t)
}

// ToJavascript returns the engine class projecting t.
func (db *Databind) ToJavascript(t reflect.Type) (*runtime.Class, error) {
	p, err := db.cache.Projection(t)
	if err != nil {
		return nil, err
	}
	return p.class, nil
}

// ClassView returns an object giving scripts access to the constructors and
// static members of t.
func (db *Databind) ClassView(ctx *engine.Context, t reflect.Type) (*runtime.Value, error) {
	p, err := db.cache.Projection(t)
	if err != nil {
		return nil, err
	}
	return ctx.Object(p.class, &InstanceBinding{Class: t}), nil
}

// Expose converts v and declares it as the global name.
func (db *Databind) Expose(ctx *engine.Context, name string, v any) error {
	val, err := db.converter.ToJavascript(ctx, v, nil)
	if err != nil {
		return fmt.Errorf("expose %s: %w", name, err)
	}
	ctx.SetGlobal(name, val)
	return nil
}

// ExposeClass declares the class view of t as a global. An empty name uses
// the unqualified registry name of t.
func (db *Databind) ExposeClass(ctx *engine.Context, name string, t reflect.Type) error {
	if name == "" {
		name = db.registry.Class(t).Name
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
	}
	view, err := db.ClassView(ctx, t)
	if err != nil {
		return fmt.Errorf("expose class %s: %w", name, err)
	}
	ctx.SetGlobal(name, view)
	return nil
}

// ConvertToHost converts a script value to a Go value of type t.
func (db *Databind) ConvertToHost(v *runtime.Value, t reflect.Type) (any, error) {
	rv, err := db.converter.FromJavascript(v, t)
	if err != nil {
		return nil, err
	}
	if !rv.IsValid() {
		return nil, nil
	}
	return rv.Interface(), nil
}

// InstanceBinding is the private data of a projected object: the wrapped
// instance and its host type. An invalid Instance denotes a class view that
// only reaches constructors and static members.
type InstanceBinding struct {
	Instance reflect.Value
	Class    reflect.Type
}

// Static reports whether the binding is a class view.
func (b *InstanceBinding) Static() bool { return !b.Instance.IsValid() }

func bindingOf(obj *runtime.Object) *InstanceBinding {
	if obj == nil {
		return nil
	}
	b, _ := obj.Private().(*InstanceBinding)
	return b
}
