package host

import "fmt"

// InvocationError reports a failure raised by the host code being called: a
// returned error or a panic. The original cause is preserved.
type InvocationError struct {
	Member string
	Cause  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Member, e.Cause)
}

func (e *InvocationError) Unwrap() error { return e.Cause }

// AccessError reports that a member could not be reached: a nil receiver, a
// receiver lacking the member or a field that cannot be written.
type AccessError struct {
	Member string
	Reason string
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("TypeError: cannot access %s: %s", e.Member, e.Reason)
}

// PanicError carries a value recovered from a panicking host call.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
