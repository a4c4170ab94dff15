package builtins

import (
	"fmt"
	"sort"

	"github.com/example/jsbind/runtime"
)

var ObjectPrototype *runtime.Object

func createObjectConstructor() (*runtime.Object, *runtime.Object) {
	proto := runtime.NewOrdinaryObject(nil)
	ObjectPrototype = proto

	// Object.prototype methods
	setMethod(proto, "hasOwnProperty", 1, objectProtoHasOwnProperty)
	setMethod(proto, "toString", 0, objectProtoToString)
	setMethod(proto, "valueOf", 0, objectProtoValueOf)
	setMethod(proto, "isPrototypeOf", 1, objectProtoIsPrototypeOf)

	// Object constructor
	ctor := newFuncObject("Object", 1, objectConstructorCall)
	ctor.Constructor = objectConstructorCall
	ctor.Prototype = proto

	setMethod(ctor, "keys", 1, objectKeys)
	setMethod(ctor, "values", 1, objectValues)
	setMethod(ctor, "entries", 1, objectEntries)
	setMethod(ctor, "assign", 2, objectAssign)
	setMethod(ctor, "create", 1, objectCreate)
	setMethod(ctor, "getOwnPropertyNames", 1, objectGetOwnPropertyNames)
	setMethod(ctor, "getPrototypeOf", 1, objectGetPrototypeOf)
	setMethod(ctor, "freeze", 1, objectFreeze)
	setMethod(ctor, "seal", 1, objectSeal)
	setMethod(ctor, "isFrozen", 1, objectIsFrozen)
	setMethod(ctor, "isSealed", 1, objectIsSealed)
	setMethod(ctor, "is", 2, objectIs)

	setDataProp(ctor, "prototype", runtime.NewObject(proto), false, false, false)
	setDataProp(proto, "constructor", runtime.NewObject(ctor), true, false, true)

	return ctor, proto
}

func objectConstructorCall(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arg := argAt(args, 0)
	if arg.Type == runtime.TypeUndefined || arg.Type == runtime.TypeNull {
		return runtime.NewObject(runtime.NewOrdinaryObject(ObjectPrototype)), nil
	}
	if arg.Type == runtime.TypeObject {
		return arg, nil
	}
	return runtime.NewObject(runtime.NewOrdinaryObject(ObjectPrototype)), nil
}

func objectProtoHasOwnProperty(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj := toObject(this)
	if obj == nil {
		return runtime.False, nil
	}
	name := argAt(args, 0).ToString()
	return runtime.NewBool(obj.HasOwnProperty(name)), nil
}

func objectProtoToString(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if this == nil || this.Type == runtime.TypeUndefined {
		return runtime.NewString("[object Undefined]"), nil
	}
	if this.Type == runtime.TypeNull {
		return runtime.NewString("[object Null]"), nil
	}
	tag := "Object"
	if this.Type == runtime.TypeObject && this.Object != nil {
		switch this.Object.OType {
		case runtime.ObjTypeArray:
			tag = "Array"
		case runtime.ObjTypeFunction:
			tag = "Function"
		case runtime.ObjTypeRegExp:
			tag = "RegExp"
		case runtime.ObjTypeError:
			tag = "Error"
		case runtime.ObjTypeMap:
			tag = "Map"
		case runtime.ObjTypeSet:
			tag = "Set"
		}
		if ts := this.Object.Get("@@toStringTag"); ts != runtime.Undefined {
			tag = ts.ToString()
		}
	}
	return runtime.NewString("[object " + tag + "]"), nil
}

func objectProtoValueOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	if this == nil {
		return runtime.Undefined, nil
	}
	return this, nil
}

func objectProtoIsPrototypeOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj := toObject(this)
	if obj == nil {
		return runtime.False, nil
	}
	target := toObject(argAt(args, 0))
	if target == nil {
		return runtime.False, nil
	}
	p := target.Prototype
	for p != nil {
		if p == obj {
			return runtime.True, nil
		}
		p = p.Prototype
	}
	return runtime.False, nil
}

func objectKeys(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj := toObject(argAt(args, 0))
	if obj == nil {
		return runtime.Undefined, fmt.Errorf("TypeError: Object.keys called on non-object")
	}
	keys := getEnumerableOwnKeys(obj)
	return createStringArray(keys), nil
}

func objectValues(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj := toObject(argAt(args, 0))
	if obj == nil {
		return runtime.Undefined, fmt.Errorf("TypeError: Object.values called on non-object")
	}
	keys := getEnumerableOwnKeys(obj)
	vals := make([]*runtime.Value, len(keys))
	for i, k := range keys {
		vals[i] = obj.Get(k)
	}
	return createValueArray(vals), nil
}

func objectEntries(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj := toObject(argAt(args, 0))
	if obj == nil {
		return runtime.Undefined, fmt.Errorf("TypeError: Object.entries called on non-object")
	}
	keys := getEnumerableOwnKeys(obj)
	entries := make([]*runtime.Value, len(keys))
	for i, k := range keys {
		pair := createValueArray([]*runtime.Value{runtime.NewString(k), obj.Get(k)})
		entries[i] = pair
	}
	return createValueArray(entries), nil
}

func objectAssign(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	target := toObject(argAt(args, 0))
	if target == nil {
		return runtime.Undefined, fmt.Errorf("TypeError: Object.assign called on non-object")
	}
	for i := 1; i < len(args); i++ {
		src := toObject(args[i])
		if src == nil {
			continue
		}
		for k, p := range src.Properties {
			if p.Enumerable {
				target.Set(k, p.Value)
			}
		}
	}
	return runtime.NewObject(target), nil
}

func objectCreate(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	arg := argAt(args, 0)
	var proto *runtime.Object
	if arg.Type == runtime.TypeObject && arg.Object != nil {
		proto = arg.Object
	} else if arg.Type != runtime.TypeNull {
		return runtime.Undefined, fmt.Errorf("TypeError: Object prototype may only be an Object or null")
	}
	return runtime.NewObject(runtime.NewOrdinaryObject(proto)), nil
}

func objectGetOwnPropertyNames(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj := toObject(argAt(args, 0))
	if obj == nil {
		return runtime.Undefined, fmt.Errorf("TypeError: Object.getOwnPropertyNames called on non-object")
	}
	keys := getAllOwnKeys(obj)
	return createStringArray(keys), nil
}

func objectGetPrototypeOf(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj := toObject(argAt(args, 0))
	if obj == nil {
		return runtime.Null, nil
	}
	if obj.Prototype == nil {
		return runtime.Null, nil
	}
	return runtime.NewObject(obj.Prototype), nil
}

func objectFreeze(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj := toObject(argAt(args, 0))
	if obj == nil {
		return argAt(args, 0), nil
	}
	for _, p := range obj.Properties {
		p.Configurable = false
		if !p.IsAccessor {
			p.Writable = false
		}
	}
	if obj.Internal == nil {
		obj.Internal = make(map[string]interface{})
	}
	obj.Internal["frozen"] = true
	obj.Internal["sealed"] = true
	return args[0], nil
}

func objectSeal(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj := toObject(argAt(args, 0))
	if obj == nil {
		return argAt(args, 0), nil
	}
	for _, p := range obj.Properties {
		p.Configurable = false
	}
	if obj.Internal == nil {
		obj.Internal = make(map[string]interface{})
	}
	obj.Internal["sealed"] = true
	return args[0], nil
}

func objectIsFrozen(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj := toObject(argAt(args, 0))
	if obj == nil {
		return runtime.True, nil
	}
	if obj.Internal != nil {
		if v, ok := obj.Internal["frozen"]; ok && v.(bool) {
			return runtime.True, nil
		}
	}
	return runtime.False, nil
}

func objectIsSealed(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	obj := toObject(argAt(args, 0))
	if obj == nil {
		return runtime.True, nil
	}
	if obj.Internal != nil {
		if v, ok := obj.Internal["sealed"]; ok && v.(bool) {
			return runtime.True, nil
		}
	}
	return runtime.False, nil
}

func objectIs(this *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
	a := argAt(args, 0)
	b := argAt(args, 1)
	return runtime.NewBool(sameValue(a, b)), nil
}

func sameValue(a, b *runtime.Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case runtime.TypeUndefined, runtime.TypeNull:
		return true
	case runtime.TypeNumber:
		if isNaN(a.Number) && isNaN(b.Number) {
			return true
		}
		if a.Number == 0 && b.Number == 0 {
			return (1/a.Number > 0) == (1/b.Number > 0)
		}
		return a.Number == b.Number
	case runtime.TypeString:
		return a.Str == b.Str
	case runtime.TypeBoolean:
		return a.Bool == b.Bool
	case runtime.TypeObject:
		return a.Object == b.Object
	}
	return false
}

// helpers

func getEnumerableOwnKeys(obj *runtime.Object) []string {
	keys := make([]string, 0, len(obj.Properties))
	for k, p := range obj.Properties {
		if p.Enumerable {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func getAllOwnKeys(obj *runtime.Object) []string {
	keys := make([]string, 0, len(obj.Properties))
	for k := range obj.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func createStringArray(strs []string) *runtime.Value {
	arr := &runtime.Object{
		OType:      runtime.ObjTypeArray,
		Properties: make(map[string]*runtime.Property),
		ArrayData:  make([]*runtime.Value, len(strs)),
	}
	for i, s := range strs {
		arr.ArrayData[i] = runtime.NewString(s)
	}
	arr.Set("length", runtime.NewNumber(float64(len(strs))))
	return runtime.NewObject(arr)
}

func createValueArray(vals []*runtime.Value) *runtime.Value {
	arr := &runtime.Object{
		OType:      runtime.ObjTypeArray,
		Properties: make(map[string]*runtime.Property),
		ArrayData:  vals,
	}
	arr.Set("length", runtime.NewNumber(float64(len(vals))))
	return runtime.NewObject(arr)
}
