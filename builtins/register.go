package builtins

import (
	"github.com/example/jsbind/runtime"
)

// RegisterAll declares the builtins an embedding needs in env: Object,
// Function, the error types, console and Date.
func RegisterAll(env *runtime.Environment, globalObj *runtime.Object) {
	// 1. Object (foundational - other prototypes derive from it)
	objectCtor, objProto := createObjectConstructor()
	env.Declare("Object", "var", runtime.NewObject(objectCtor))

	// 2. Function
	functionCtor, _ := createFunctionConstructor(objProto)
	env.Declare("Function", "var", runtime.NewObject(functionCtor))

	// Now that FunctionPrototype exists, set the global defaults so all future
	// function objects (including user-created ones) inherit call/apply/bind,
	// and ordinary objects inherit from Object.prototype.
	runtime.DefaultFunctionPrototype = FunctionPrototype
	runtime.DefaultObjectPrototype = objProto

	// Fix up Object ctor/proto methods that were created before FunctionPrototype existed
	setFuncPrototypeRecursive(objectCtor)
	setFuncPrototypeRecursive(objProto)
	// Also fix the Function ctor itself
	setFuncPrototypeRecursive(functionCtor)

	// Arrays inherit Object.prototype; their methods are resolved by the
	// interpreter.
	runtime.DefaultArrayPrototype = objProto

	// 3. Error types
	errorCtor := createErrorConstructor(objProto)
	env.Declare("Error", "var", runtime.NewObject(errorCtor))

	typeErrorCtor := createErrorSubtype("TypeError", objProto, ErrorPrototype)
	env.Declare("TypeError", "var", runtime.NewObject(typeErrorCtor))

	refErrorCtor := createErrorSubtype("ReferenceError", objProto, ErrorPrototype)
	env.Declare("ReferenceError", "var", runtime.NewObject(refErrorCtor))

	syntaxErrorCtor := createErrorSubtype("SyntaxError", objProto, ErrorPrototype)
	env.Declare("SyntaxError", "var", runtime.NewObject(syntaxErrorCtor))

	rangeErrorCtor := createErrorSubtype("RangeError", objProto, ErrorPrototype)
	env.Declare("RangeError", "var", runtime.NewObject(rangeErrorCtor))

	uriErrorCtor := createErrorSubtype("URIError", objProto, ErrorPrototype)
	env.Declare("URIError", "var", runtime.NewObject(uriErrorCtor))

	evalErrorCtor := createErrorSubtype("EvalError", objProto, ErrorPrototype)
	env.Declare("EvalError", "var", runtime.NewObject(evalErrorCtor))

	// 4. Console
	consoleObj := createConsoleObject(objProto)
	env.Declare("console", "var", runtime.NewObject(consoleObj))

	// 5. Date
	dateCtor, _ := createDateConstructor(objProto)
	env.Declare("Date", "var", runtime.NewObject(dateCtor))

	env.Declare("undefined", "var", runtime.Undefined)
	env.Declare("NaN", "var", runtime.NaN)
	env.Declare("Infinity", "var", runtime.PosInf)

	// 6. Set up global object properties if provided
	if globalObj != nil {
		globalObj.Prototype = objProto
	}
}
