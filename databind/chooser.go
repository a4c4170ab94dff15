package databind

import (
	"math"
	"reflect"

	"github.com/example/jsbind/host"
	"github.com/example/jsbind/runtime"
)

// MethodChooser selects the callable an invocation targets.
type MethodChooser interface {
	// Choose resolves against the runtime arguments alone.
	Choose(candidates []*host.Callable, args []*runtime.Value) (*CallData, error)
	// ChooseExplicit selects the candidate whose parameter types equal types.
	ChooseExplicit(candidates []*host.Callable, types []reflect.Type, args []*runtime.Value) (*CallData, error)
}

// CallData is a resolved invocation: the target and the script arguments
// already validated against its parameter types.
type CallData struct {
	target *host.Callable
	args   []*runtime.Value
	conv   *Converter
}

// NewCallData pairs target with args. Custom choosers use it to report their
// selection.
func NewCallData(conv *Converter, target *host.Callable, args []*runtime.Value) *CallData {
	return &CallData{target: target, args: args, conv: conv}
}

// Target returns the chosen callable.
func (d *CallData) Target() *host.Callable { return d.target }

// ConstructArguments converts the script arguments to the parameter types of
// the target.
func (d *CallData) ConstructArguments() ([]reflect.Value, error) {
	out := make([]reflect.Value, len(d.target.Params))
	for i, param := range d.target.Params {
		v, err := d.conv.FromJavascript(d.args[i], param)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type methodChooser struct {
	conv *Converter
}

// NewMethodChooser returns the default chooser. A candidate is viable when the
// arity matches and every argument converts to its parameter type. A
// fractional number rules out integral parameters while another candidate
// takes it whole. Among several viable candidates the one at least as
// specific as all others in every parameter wins, otherwise the call is
// ambiguous.
func NewMethodChooser(conv *Converter) MethodChooser {
	return &methodChooser{conv: conv}
}

func (m *methodChooser) Choose(candidates []*host.Callable, args []*runtime.Value) (*CallData, error) {
	var viable []*host.Callable
	for _, c := range candidates {
		if m.viable(c, args) {
			viable = append(viable, c)
		}
	}
	if len(viable) > 1 {
		var exact []*host.Callable
		for _, c := range viable {
			if !truncates(c, args) {
				exact = append(exact, c)
			}
		}
		if len(exact) > 0 {
			viable = exact
		}
	}
	switch len(viable) {
	case 0:
		return nil, &OverloadResolutionError{
			Kind:       NoMatch,
			Name:       groupName(candidates),
			Candidates: len(candidates),
			Arguments:  m.argumentTypes(args),
		}
	case 1:
		return NewCallData(m.conv, viable[0], args), nil
	}

	var winners []*host.Callable
	for _, c := range viable {
		if m.dominates(c, viable) {
			winners = append(winners, c)
		}
	}
	if len(winners) == 1 {
		return NewCallData(m.conv, winners[0], args), nil
	}
	matches := make([]string, len(viable))
	for i, c := range viable {
		matches[i] = c.Signature()
	}
	return nil, &OverloadResolutionError{
		Kind:       Ambiguous,
		Name:       groupName(candidates),
		Candidates: len(candidates),
		Arguments:  m.argumentTypes(args),
		Matches:    matches,
	}
}

func (m *methodChooser) ChooseExplicit(candidates []*host.Callable, types []reflect.Type, args []*runtime.Value) (*CallData, error) {
	var matches []*host.Callable
	for _, c := range candidates {
		if sameTypes(c.Params, types) {
			matches = append(matches, c)
		}
	}
	if len(matches) != 1 {
		sigs := make([]string, len(matches))
		for i, c := range matches {
			sigs[i] = c.Signature()
		}
		names := make([]string, len(types))
		for i, t := range types {
			names[i] = typeString(t)
		}
		return nil, &OverloadResolutionError{
			Kind:       ExplicitNotUnique,
			Name:       groupName(candidates),
			Candidates: len(candidates),
			Arguments:  names,
			Matches:    sigs,
		}
	}
	target := matches[0]
	if len(args) != len(target.Params) {
		return nil, &OverloadResolutionError{
			Kind:       NoMatch,
			Name:       groupName(candidates),
			Candidates: 1,
			Arguments:  m.argumentTypes(args),
		}
	}
	for i, param := range target.Params {
		if err := m.conv.check(args[i], param); err != nil {
			return nil, err
		}
	}
	return NewCallData(m.conv, target, args), nil
}

func (m *methodChooser) viable(c *host.Callable, args []*runtime.Value) bool {
	if len(c.Params) != len(args) {
		return false
	}
	for i, param := range c.Params {
		if m.conv.check(args[i], param) != nil {
			return false
		}
	}
	return true
}

// truncates reports whether calling c would drop the fraction of a number
// argument. Such candidates only win when nothing else is viable.
func truncates(c *host.Callable, args []*runtime.Value) bool {
	for i, param := range c.Params {
		a := args[i]
		if a == nil || a.Type != runtime.TypeNumber || a.Number == math.Trunc(a.Number) {
			continue
		}
		if param.Kind() == reflect.Pointer {
			param = param.Elem()
		}
		if isIntegralKind(param.Kind()) {
			return true
		}
	}
	return false
}

func isIntegralKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

// dominates reports whether c is at least as specific as every other viable
// candidate in every parameter position.
func (m *methodChooser) dominates(c *host.Callable, viable []*host.Callable) bool {
	for _, other := range viable {
		if other == c {
			continue
		}
		for i := range c.Params {
			if !m.atLeastAsSpecific(c.Params[i], other.Params[i]) {
				return false
			}
		}
		if sameTypes(c.Params, other.Params) {
			return false
		}
	}
	return true
}

func (m *methodChooser) atLeastAsSpecific(a, b reflect.Type) bool {
	if a == b || m.conv.registry.IsSubtype(a, b) {
		return true
	}
	if a.Kind() == reflect.Pointer && b.Kind() == reflect.Pointer &&
		isPrimitiveKind(a.Elem().Kind()) && isPrimitiveKind(b.Elem().Kind()) {
		a, b = a.Elem(), b.Elem()
	}
	return widens(a.Kind(), b.Kind())
}

// widening lists the kinds each numeric kind converts to without loss of
// magnitude.
var widening = map[reflect.Kind][]reflect.Kind{
	reflect.Int8:    {reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int, reflect.Float32, reflect.Float64},
	reflect.Uint8:   {reflect.Int16, reflect.Uint16, reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Int, reflect.Uint64, reflect.Uint, reflect.Float32, reflect.Float64},
	reflect.Int16:   {reflect.Int32, reflect.Int64, reflect.Int, reflect.Float32, reflect.Float64},
	reflect.Uint16:  {reflect.Int32, reflect.Uint32, reflect.Int64, reflect.Int, reflect.Uint64, reflect.Uint, reflect.Float32, reflect.Float64},
	reflect.Int32:   {reflect.Int64, reflect.Int, reflect.Float32, reflect.Float64},
	reflect.Uint32:  {reflect.Int64, reflect.Int, reflect.Uint64, reflect.Uint, reflect.Float32, reflect.Float64},
	reflect.Int64:   {reflect.Int, reflect.Float32, reflect.Float64},
	reflect.Int:     {reflect.Int64, reflect.Float32, reflect.Float64},
	reflect.Uint64:  {reflect.Uint, reflect.Float32, reflect.Float64},
	reflect.Uint:    {reflect.Uint64, reflect.Float32, reflect.Float64},
	reflect.Float32: {reflect.Float64},
}

func widens(from, to reflect.Kind) bool {
	for _, k := range widening[from] {
		if k == to {
			return true
		}
	}
	return false
}

func sameTypes(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (m *methodChooser) argumentTypes(args []*runtime.Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if t := m.conv.DetermineType(a); t != nil {
			out[i] = t.String()
		} else {
			out[i] = kindName(a)
		}
	}
	return out
}

func groupName(candidates []*host.Callable) string {
	if len(candidates) == 0 {
		return "<empty>"
	}
	return host.TypeName(candidates[0].Declaring) + "." + candidates[0].Name
}
