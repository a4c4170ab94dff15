package databind

import (
	"reflect"

	"github.com/example/jsbind/host"
	"github.com/example/jsbind/runtime"
)

// MethodHandler projects one overload group as a callable script object.
// Objects of its class carry a methodBinding: the receiver and, for views
// created through the signature API, the explicit parameter types.
type MethodHandler struct {
	Name  string
	Group []*host.Callable

	db    *Databind
	class *runtime.Class
	api   *runtime.Class
}

type methodBinding struct {
	instance reflect.Value
	params   []reflect.Type // nil resolves implicitly
}

func newMethodHandler(db *Databind, name string, group []*host.Callable) *MethodHandler {
	h := &MethodHandler{Name: name, Group: group, db: db}
	h.class = runtime.NewClass(runtime.ClassDefinition{
		Name:           name,
		Attributes:     runtime.ClassAttributeNoAutomaticPrototype,
		CallAsFunction: h.call,
		GetProperty:    h.getProperty,
	})
	h.api = runtime.NewClass(runtime.ClassDefinition{
		Name:           name + ".signature",
		Attributes:     runtime.ClassAttributeNoAutomaticPrototype,
		CallAsFunction: h.signature,
	})
	return h
}

// Class returns the engine class of the handler.
func (h *MethodHandler) Class() *runtime.Class { return h.class }

func (h *MethodHandler) candidates(b *methodBinding) []*host.Callable {
	if b.instance.IsValid() {
		return h.Group
	}
	var statics []*host.Callable
	for _, m := range h.Group {
		if m.Static() {
			statics = append(statics, m)
		}
	}
	return statics
}

func (h *MethodHandler) call(fn *runtime.Object, _ *runtime.Value, args []*runtime.Value) (_ *runtime.Value, err error) {
	defer recoverCallback(h.Name, &err)

	b, ok := fn.Private().(*methodBinding)
	if !ok {
		b = &methodBinding{}
	}
	var data *CallData
	if b.params == nil {
		data, err = h.db.chooser.Choose(h.candidates(b), args)
	} else {
		data, err = h.db.chooser.ChooseExplicit(h.candidates(b), b.params, args)
	}
	if err != nil {
		return nil, err
	}
	return h.db.invoke(data, b.instance)
}

func (h *MethodHandler) getProperty(obj *runtime.Object, name string) (*runtime.Value, error) {
	ctx := h.db.provider.Context()
	if name != "signature" {
		return ctx.Undefined(), nil
	}
	b, _ := obj.Private().(*methodBinding)
	if b == nil {
		b = &methodBinding{}
	}
	return ctx.Object(h.api, &methodBinding{instance: b.instance}), nil
}

// signature binds the explicit parameter types given as class views and
// returns the handler view resolving against them.
func (h *MethodHandler) signature(fn *runtime.Object, _ *runtime.Value, args []*runtime.Value) (_ *runtime.Value, err error) {
	defer recoverCallback(h.Name+".signature", &err)

	b, _ := fn.Private().(*methodBinding)
	if b == nil {
		b = &methodBinding{}
	}
	params := make([]reflect.Type, len(args))
	for i, arg := range args {
		v, err := h.db.converter.FromJavascript(arg, host.TypeType)
		if err != nil {
			return nil, err
		}
		t, _ := v.Interface().(reflect.Type)
		if t == nil {
			return nil, conversionError(kindName(arg), host.TypeType, "parameter type is null")
		}
		params[i] = t
	}
	return h.db.provider.Context().Object(h.class, &methodBinding{instance: b.instance, params: params}), nil
}

// invoke converts the arguments of data, calls its target on recv and
// converts the result by its dynamic type.
func (db *Databind) invoke(data *CallData, recv reflect.Value) (*runtime.Value, error) {
	params, err := data.ConstructArguments()
	if err != nil {
		return nil, err
	}
	target := data.Target()
	out, err := target.Invoke(recv, params)
	if err != nil {
		return nil, err
	}
	ctx := db.provider.Context()
	if target.Return == nil {
		return ctx.Undefined(), nil
	}
	return db.converter.ToJavascript(ctx, valueInterface(out), target.Return)
}
