package builtins

import (
	"github.com/example/jsbind/runtime"
)

func newFuncObject(name string, length int, fn runtime.CallableFunc) *runtime.Object {
	obj := &runtime.Object{
		OType:      runtime.ObjTypeFunction,
		Properties: make(map[string]*runtime.Property),
		Callable:   fn,
		Prototype:  FunctionPrototype, // may be nil during early init, fixed by SetFunctionPrototype
	}
	obj.DefineProperty("name", &runtime.Property{
		Value:        runtime.NewString(name),
		Writable:     false,
		Enumerable:   false,
		Configurable: true,
	})
	obj.DefineProperty("length", &runtime.Property{
		Value:        runtime.NewNumber(float64(length)),
		Writable:     false,
		Enumerable:   false,
		Configurable: true,
	})
	return obj
}

// setFuncPrototypeRecursive walks an object's own properties and sets Prototype
// on any function objects that have nil Prototype. Called after FunctionPrototype is created.
func setFuncPrototypeRecursive(obj *runtime.Object) {
	if obj == nil {
		return
	}
	if obj.OType == runtime.ObjTypeFunction && obj.Prototype == nil {
		obj.Prototype = FunctionPrototype
	}
	for _, p := range obj.Properties {
		if p.Value != nil && p.Value.Type == runtime.TypeObject && p.Value.Object != nil {
			inner := p.Value.Object
			if inner.OType == runtime.ObjTypeFunction && inner.Prototype == nil {
				inner.Prototype = FunctionPrototype
			}
		}
	}
}

func setMethod(obj *runtime.Object, name string, length int, fn runtime.CallableFunc) {
	funcObj := newFuncObject(name, length, fn)
	obj.DefineProperty(name, &runtime.Property{
		Value:        runtime.NewObject(funcObj),
		Writable:     true,
		Enumerable:   false,
		Configurable: true,
	})
}

func setDataProp(obj *runtime.Object, name string, val *runtime.Value, writable, enumerable, configurable bool) {
	obj.DefineProperty(name, &runtime.Property{
		Value:        val,
		Writable:     writable,
		Enumerable:   enumerable,
		Configurable: configurable,
	})
}

func toObject(v *runtime.Value) *runtime.Object {
	if v != nil && v.Type == runtime.TypeObject && v.Object != nil {
		return v.Object
	}
	return nil
}

func argAt(args []*runtime.Value, i int) *runtime.Value {
	if i < len(args) {
		return args[i]
	}
	return runtime.Undefined
}

func toNumber(v *runtime.Value) float64 {
	n, _ := toNumberErr(v)
	return n
}

// toNumberErr implements the JS ToNumber abstract operation with error propagation.
// It calls valueOf()/toString() on objects and throws TypeError for Symbols.
func toNumberErr(v *runtime.Value) (float64, error) {
	if v == nil {
		return 0, nil
	}
	switch v.Type {
	case runtime.TypeUndefined:
		return math_NaN(), nil
	case runtime.TypeNull:
		return 0, nil
	case runtime.TypeBoolean:
		if v.Bool {
			return 1, nil
		}
		return 0, nil
	case runtime.TypeNumber:
		return v.Number, nil
	case runtime.TypeString:
		return parseStringToNumber(v.Str), nil
	case runtime.TypeObject:
		if v.Object != nil {
			// Try valueOf first
			valueOf := v.Object.Get("valueOf")
			if valueOf != nil && valueOf.Type == runtime.TypeObject && valueOf.Object != nil && valueOf.Object.Callable != nil {
				result, err := valueOf.Object.Callable(v, nil)
				if err != nil {
					return 0, err
				}
				if result != nil && result.Type != runtime.TypeObject {
					return toNumberErr(result)
				}
			}
			// Try toString
			toStr := v.Object.Get("toString")
			if toStr != nil && toStr.Type == runtime.TypeObject && toStr.Object != nil && toStr.Object.Callable != nil {
				result, err := toStr.Object.Callable(v, nil)
				if err != nil {
					return 0, err
				}
				if result != nil && result.Type != runtime.TypeObject {
					return toNumberErr(result)
				}
			}
		}
		return math_NaN(), nil
	}
	return math_NaN(), nil
}

func getCallable(v *runtime.Value) runtime.CallableFunc {
	if v != nil && v.Type == runtime.TypeObject && v.Object != nil && v.Object.Callable != nil {
		return v.Object.Callable
	}
	return nil
}
