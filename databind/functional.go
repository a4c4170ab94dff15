package databind

import (
	"errors"
	"fmt"
	"reflect"
	goruntime "runtime"
	"sync"

	"github.com/example/jsbind/engine"
	"github.com/example/jsbind/host"
	"github.com/example/jsbind/runtime"
)

var errReferenceReleased = errors.New("script function reference already released")

// Bind returns a Go value of type t implemented by the script function fn.
// t must be a func type or an interface registered as a contract.
func (db *Databind) Bind(fn *runtime.Value, t reflect.Type) (any, error) {
	if fn == nil || fn.Type != runtime.TypeObject || fn.Object == nil || fn.Object.Callable == nil {
		return nil, conversionError("a non-callable script value", t, "")
	}
	contract, ok := db.registry.Contract(t)
	if !ok {
		return nil, conversionError("script function", t, "not a functional contract")
	}
	v, err := db.bind(fn, contract)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

type refState int

const (
	refProtected refState = iota
	refReleased
)

// protectedRef owns the protection of one script function. Transitions
// happen under mu; re-protecting is only legal from refReleased.
type protectedRef struct {
	mu     sync.Mutex
	state  refState
	handle *engine.Protected
}

// acquire revives the function and protects it again before handing it out,
// so the reference survives a release triggered by the call itself.
func (r *protectedRef) acquire(c *engine.Context) (*runtime.Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != refProtected {
		return nil, errReferenceReleased
	}
	live, err := r.handle.Revive()
	if err != nil {
		return nil, err
	}
	r.state = refReleased
	r.handle = c.Protect(live)
	r.state = refProtected
	return live, nil
}

// release revives the function for the last time. Releasing twice is a no-op.
func (r *protectedRef) release() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == refReleased {
		return nil
	}
	r.state = refReleased
	_, err := r.handle.Revive()
	return err
}

// functionProxy backs the Go func produced for a script function.
type functionProxy struct {
	db       *Databind
	contract *host.Contract
	ref      *protectedRef
}

func (db *Databind) bind(fn *runtime.Value, contract *host.Contract) (reflect.Value, error) {
	ref := &protectedRef{handle: db.provider.Context().Protect(fn)}
	p := &functionProxy{db: db, contract: contract, ref: ref}
	impl := reflect.MakeFunc(contract.Signature, p.invoke)

	id := ref.handle.ID()
	goruntime.AddCleanup(p, func(r *protectedRef) {
		err := db.provider.SyncWithJavascript(func(*engine.Context) {
			if err := r.release(); err != nil {
				db.logger.Warn("releasing script function failed", "ref", id, "error", err)
				return
			}
			db.logger.Debug("released script function", "ref", id)
		})
		if err != nil {
			db.logger.Warn("script function leaked", "ref", id, "error", err)
		}
	}, ref)

	db.logger.Debug("created function proxy", "contract", contract.Type.String(), "ref", id)
	return contract.Implement(impl), nil
}

type outcome struct {
	value reflect.Value
	err   error
	panic any
}

func (p *functionProxy) invoke(in []reflect.Value) []reflect.Value {
	if p.contract.Async() {
		return p.invokeAsync(in)
	}
	done := make(chan outcome, 1)
	err := p.db.provider.SyncWithJavascript(func(c *engine.Context) {
		var o outcome
		defer func() {
			if r := recover(); r != nil {
				o = outcome{panic: r}
			}
			done <- o
		}()
		o.value, o.err = p.call(c, in, p.contract.Result())
	})
	var o outcome
	if err != nil {
		o.err = err
	} else {
		o = <-done
	}

	if o.panic != nil {
		panic(o.panic)
	}
	if o.err != nil && !p.contract.ReturnsError() {
		panic(&CrossThreadInvocationError{Cause: o.err})
	}
	return p.results(o.value, o.err)
}

func (p *functionProxy) invokeAsync(in []reflect.Value) []reflect.Value {
	future := host.NewFuture()
	err := p.db.provider.SyncWithJavascript(func(c *engine.Context) {
		defer func() {
			if r := recover(); r != nil {
				future.Complete(nil, &CrossThreadInvocationError{Cause: &host.PanicError{Value: r}})
			}
		}()
		v, err := p.call(c, in, host.TypeAny)
		if err != nil {
			future.Complete(nil, &CrossThreadInvocationError{Cause: err})
			return
		}
		future.Complete(valueInterface(v), nil)
	})
	if err != nil {
		future.Complete(nil, &CrossThreadInvocationError{Cause: err})
	}
	return p.results(reflect.ValueOf(future), nil)
}

// call runs on the loop: it converts the arguments, calls the script
// function and converts its result to result, which is nil for none.
func (p *functionProxy) call(c *engine.Context, in []reflect.Value, result reflect.Type) (reflect.Value, error) {
	fn, err := p.ref.acquire(c)
	if err != nil {
		return reflect.Value{}, err
	}
	sig := p.contract.Signature
	args := make([]*runtime.Value, len(in))
	for i, a := range in {
		if args[i], err = p.db.converter.ToJavascript(c, valueInterface(a), sig.In(i)); err != nil {
			return reflect.Value{}, fmt.Errorf("argument %d: %w", i, err)
		}
	}
	ret, err := c.CallAsFunction(fn, nil, args)
	if err != nil {
		return reflect.Value{}, newScriptError(err)
	}
	if result == nil {
		return reflect.Value{}, nil
	}
	return p.db.converter.FromJavascript(ret, result)
}

// results builds the return values of the contract signature.
func (p *functionProxy) results(v reflect.Value, err error) []reflect.Value {
	sig := p.contract.Signature
	out := make([]reflect.Value, sig.NumOut())
	for i := range out {
		t := sig.Out(i)
		switch {
		case t == host.TypeError && i == len(out)-1:
			ev := reflect.New(host.TypeError).Elem()
			if err != nil {
				ev.Set(reflect.ValueOf(err))
			}
			out[i] = ev
		case err == nil && v.IsValid():
			out[i] = asType(v, t)
		default:
			out[i] = reflect.Zero(t)
		}
	}
	return out
}
