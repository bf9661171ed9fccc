package models

// Error types returned by services. Handlers map them to HTTP status codes
// with errors.As, so they may be wrapped freely.

type ErrorNotFound struct {
	Message string
}

func (e ErrorNotFound) Error() string { return e.Message }

type ErrorUnauthorized struct {
	Message string
}

func (e ErrorUnauthorized) Error() string { return e.Message }

type ErrorForbidden struct {
	Message string
}

func (e ErrorForbidden) Error() string { return e.Message }

type ErrorConflict struct {
	Message string
}

func (e ErrorConflict) Error() string { return e.Message }

// ErrorInvalidStateTransition is returned when deciding on something that
// has already been decided.
type ErrorInvalidStateTransition struct {
	Message string
}

func (e ErrorInvalidStateTransition) Error() string { return e.Message }

type ErrorInvalidState struct {
	Message string
}

func (e ErrorInvalidState) Error() string { return e.Message }

type ErrorValidation struct {
	Message string
}

func (e ErrorValidation) Error() string { return e.Message }

// ErrorStorageFailure wraps a file I/O error.
type ErrorStorageFailure struct {
	Op  string
	Err error
}

func (e ErrorStorageFailure) Error() string {
	return "storage " + e.Op + ": " + e.Err.Error()
}

func (e ErrorStorageFailure) Unwrap() error { return e.Err }

type ErrorInternalServer struct {
	Message string
}

func (e ErrorInternalServer) Error() string { return e.Message }
