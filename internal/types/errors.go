package types

import "errors"

// Sentinel errors shared by repositories, services and handlers.
// Repos wrap these with fmt.Errorf("...: %w", Err...) so callers can
// branch with errors.Is while keeping the original context.
var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrConflict           = errors.New("resource already exists or conflicts")
	ErrBadRequest         = errors.New("invalid request input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInternal           = errors.New("internal error")
)
