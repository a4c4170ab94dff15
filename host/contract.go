package host

import (
	"fmt"
	"reflect"
)

// Contract is a functional contract: a type with exactly one method that
// script functions may implement. Func types are contracts by themselves; an
// interface becomes one through RegisterContract.
type Contract struct {
	Type      reflect.Type
	Signature reflect.Type // func type of the single method

	adapt reflect.Value // func(Signature) Type, invalid for func types
}

// Implement turns fn, a value of the contract signature, into a value of the
// contract type.
func (c *Contract) Implement(fn reflect.Value) reflect.Value {
	if !c.adapt.IsValid() {
		return fn
	}
	out := c.adapt.Call([]reflect.Value{fn})[0]
	if out.Type() != c.Type {
		conv := reflect.New(c.Type).Elem()
		conv.Set(out)
		return conv
	}
	return out
}

// ReturnsError reports whether the contract method has a trailing error result.
func (c *Contract) ReturnsError() bool {
	n := c.Signature.NumOut()
	return n > 0 && c.Signature.Out(n-1) == TypeError
}

// Async reports whether the contract method returns a *Future.
func (c *Contract) Async() bool {
	return c.Signature.NumOut() > 0 && c.Signature.Out(0) == TypeFuture
}

// Result returns the declared result type, or nil when the method returns
// nothing but possibly an error.
func (c *Contract) Result() reflect.Type {
	if c.Signature.NumOut() == 0 || c.Signature.Out(0) == TypeError {
		return nil
	}
	return c.Signature.Out(0)
}

// RegisterContract makes the interface iface a functional contract. adapt
// must be a func taking a func type and returning iface, typically the
// conversion to a HandlerFunc style adapter type:
//
//	reg.RegisterContract(reflect.TypeFor[Listener](), func(f ListenerFunc) Listener { return f })
//
// Methods of iface other than the one the adapter forwards run on the adapter.
func (r *Registry) RegisterContract(iface reflect.Type, adapt any) error {
	if iface.Kind() != reflect.Interface {
		return fmt.Errorf("host: contract %s is not an interface", iface)
	}
	av := reflect.ValueOf(adapt)
	at := av.Type()
	if at.Kind() != reflect.Func || at.NumIn() != 1 || at.NumOut() != 1 || at.In(0).Kind() != reflect.Func {
		return fmt.Errorf("host: contract adapter for %s must be func(F) %s, got %s", iface, iface, at)
	}
	if !at.Out(0).AssignableTo(iface) {
		return fmt.Errorf("host: contract adapter returns %s, not %s", at.Out(0), iface)
	}
	if err := checkContractSignature(at.In(0)); err != nil {
		return fmt.Errorf("host: contract %s: %w", iface, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contracts[iface] = &Contract{Type: iface, Signature: at.In(0), adapt: av}
	return nil
}

// Contract returns the functional contract for t. Func types with a
// supported result shape are contracts without registration.
func (r *Registry) Contract(t reflect.Type) (*Contract, bool) {
	if t.Kind() == reflect.Func {
		if checkContractSignature(t) != nil {
			return nil, false
		}
		return &Contract{Type: t, Signature: t}, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.contracts[t]
	return c, ok
}

func checkContractSignature(ft reflect.Type) error {
	switch ft.NumOut() {
	case 0, 1:
		return nil
	case 2:
		if ft.Out(1) == TypeError && ft.Out(0) != TypeFuture {
			return nil
		}
	}
	return fmt.Errorf("unsupported results in %s", ft)
}
