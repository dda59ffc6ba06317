package session

import "errors"

// Sentinel errors returned by the store and by external session actions.
// The HTTP layer maps ErrDuplicateAction and ErrStateConflict to 409.
var (
	ErrNotFound        = errors.New("session: not found")
	ErrDuplicateAction = errors.New("session: action already applied")
	ErrStateConflict   = errors.New("session: action not allowed in current state")
)
