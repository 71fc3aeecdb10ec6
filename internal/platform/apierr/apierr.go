// Package apierr carries an HTTP status and a stable machine-readable code
// alongside an error, so services can decide the response shape without the
// handlers inspecting error strings.
package apierr

import "fmt"

// Error is returned by service methods for failures a client can act on,
// such as the graph being unconfigured or a missing request field. Code is
// what API consumers switch on; Err holds the underlying cause.
type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error; err may be nil when the code says enough.
func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}
