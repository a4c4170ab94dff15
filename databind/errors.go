package databind

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/example/jsbind/interpreter"
	"github.com/example/jsbind/runtime"
)

// ConversionError reports that a value has no conversion path to the
// requested type.
type ConversionError struct {
	From   string
	To     string
	Reason string
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("TypeError: Can not convert %s to %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func conversionError(from string, to reflect.Type, reason string) *ConversionError {
	return &ConversionError{From: from, To: typeString(to), Reason: reason}
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// OverloadErrorKind classifies overload resolution failures.
type OverloadErrorKind int

const (
	NoMatch OverloadErrorKind = iota + 1
	Ambiguous
	ExplicitNotUnique
)

// Sentinels matched by OverloadResolutionError through errors.Is.
var (
	ErrNoMatchingOverload   = errors.New("no matching overload")
	ErrAmbiguousOverload    = errors.New("ambiguous overload")
	ErrExplicitNotUnique    = errors.New("explicit signature not unique")
	errUnknownOverloadError = errors.New("overload resolution failed")
	errNilInstance          = errors.New("constructor returned nil")
)

// OverloadResolutionError reports that no single candidate could be chosen.
type OverloadResolutionError struct {
	Kind       OverloadErrorKind
	Name       string
	Candidates int
	Arguments  []string // inferred argument types, or the explicit types
	Matches    []string // competing signatures for Ambiguous and ExplicitNotUnique
}

func (e *OverloadResolutionError) Error() string {
	args := strings.Join(e.Arguments, ", ")
	switch e.Kind {
	case NoMatch:
		return fmt.Sprintf("TypeError: No overload of %s among %d candidates accepts (%s)", e.Name, e.Candidates, args)
	case Ambiguous:
		return fmt.Sprintf("TypeError: Ambiguous call of %s with (%s): %s", e.Name, args, strings.Join(e.Matches, " | "))
	case ExplicitNotUnique:
		return fmt.Sprintf("TypeError: Signature (%s) of %s matches %d of %d candidates", args, e.Name, len(e.Matches), e.Candidates)
	}
	return "TypeError: " + errUnknownOverloadError.Error()
}

// Is matches the kind sentinels.
func (e *OverloadResolutionError) Is(target error) bool {
	switch target {
	case ErrNoMatchingOverload:
		return e.Kind == NoMatch
	case ErrAmbiguousOverload:
		return e.Kind == Ambiguous
	case ErrExplicitNotUnique:
		return e.Kind == ExplicitNotUnique
	}
	return false
}

// ConstructionStateError reports a constructor call on an object that
// already wraps an instance.
type ConstructionStateError struct {
	Class string
}

func (e *ConstructionStateError) Error() string {
	return fmt.Sprintf("TypeError: Can't call constructor on an already constructed %s object", e.Class)
}

// UnsupportedOperationError reports an assignment to a method name.
type UnsupportedOperationError struct {
	Class string
	Name  string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("TypeError: Can not set method %s of %s", e.Name, e.Class)
}

// CrossThreadInvocationError wraps a failure of a script function invoked
// through a functional contract that has no error result of its own.
type CrossThreadInvocationError struct {
	Cause error
}

func (e *CrossThreadInvocationError) Error() string {
	return fmt.Sprintf("exception thrown while invoking script function: %v", e.Cause)
}

func (e *CrossThreadInvocationError) Unwrap() error { return e.Cause }

// ScriptError is an exception thrown by script code, as seen by host code.
type ScriptError struct {
	Value   *runtime.Value
	Message string
	err     error
}

func newScriptError(err error) error {
	value, ok := interpreter.ThrownValue(err)
	if !ok {
		return err
	}
	return &ScriptError{Value: value, Message: describeThrown(value), err: err}
}

func (e *ScriptError) Error() string { return e.Message }

// Unwrap exposes the engine error, which in turn unwraps to the host error a
// thrown Error was created from.
func (e *ScriptError) Unwrap() error { return e.err }

func describeThrown(v *runtime.Value) string {
	if v == nil {
		return "undefined"
	}
	if v.Type == runtime.TypeObject && v.Object != nil && v.Object.OType == runtime.ObjTypeError {
		name := v.Object.Get("name").ToString()
		msg := v.Object.Get("message").ToString()
		if msg == "" {
			return name
		}
		return name + ": " + msg
	}
	return v.ToString()
}
