package router

import "fmt"

// HandlerFailure wraps an error or panic raised by a routed handler.
// The router logs it and never lets it escape Dispatch.
type HandlerFailure struct {
	Handler string
	Err     error
	// Stack is set when the failure is a recovered panic.
	Stack string
}

func (f *HandlerFailure) Error() string {
	return fmt.Sprintf("router: handler %s: %v", f.Handler, f.Err)
}

func (f *HandlerFailure) Unwrap() error { return f.Err }

// Code reports the classification used in logs.
func (f *HandlerFailure) Code() string {
	if f.Stack != "" {
		return "PANIC"
	}
	return deriveErrorCode(f.Err)
}
