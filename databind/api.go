package databind

import (
	"errors"
	"fmt"
	"sort"

	"github.com/example/jsbind/engine"
	"github.com/example/jsbind/host"
	"github.com/example/jsbind/runtime"
)

var errImportClassName = errors.New("TypeError: importClass expects a class name")

// InstallAPI declares the global name as the script API object:
//
//	name.importClass("Point")   class view of a registered class
//	name.types.int32            class view of a primitive, for signature()
//	name.classes()              registered class names
func (db *Databind) InstallAPI(ctx *engine.Context, name string) error {
	api := ctx.PlainObject()

	types := ctx.PlainObject()
	primitives := make([]string, 0, len(host.Primitives))
	for n := range host.Primitives {
		primitives = append(primitives, n)
	}
	sort.Strings(primitives)
	for _, n := range primitives {
		view, err := db.ClassView(ctx, host.Primitives[n])
		if err != nil {
			return fmt.Errorf("install %s: type %s: %w", name, n, err)
		}
		types.Object.Set(n, view)
	}
	api.Object.Set("types", types)

	api.Object.Set("importClass", ctx.Function("importClass", func(_ *runtime.Value, args []*runtime.Value) (*runtime.Value, error) {
		if len(args) == 0 || args[0].Type != runtime.TypeString {
			return nil, errImportClassName
		}
		class, ok := db.registry.Lookup(args[0].Str)
		if !ok {
			return nil, fmt.Errorf("ReferenceError: class %s is not registered", args[0].Str)
		}
		return db.ClassView(ctx, class.Type)
	}))

	api.Object.Set("classes", ctx.Function("classes", func(*runtime.Value, []*runtime.Value) (*runtime.Value, error) {
		names := db.registry.Names()
		elems := make([]*runtime.Value, len(names))
		for i, n := range names {
			elems[i] = ctx.String(n)
		}
		return ctx.Array(elems), nil
	}))

	ctx.SetGlobal(name, api)
	db.logger.Debug("installed script API", "name", name, "classes", len(db.registry.Names()))
	return nil
}
