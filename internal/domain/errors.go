package domain

import "errors"

// Lookup failures. Handlers map this family to 404 / {error} replies.
var (
	ErrSourceNotFound    = errors.New("source not found")
	ErrNoData            = errors.New("no data available for source")
	ErrDieNotFound       = errors.New("die not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrStatblockNotFound = errors.New("statblock not found")
)

// Request failures.
var (
	ErrBonusIndexOutOfRange = errors.New("bonus index out of range")
	ErrWrongDocumentKind    = errors.New("source holds a different kind of document")
	ErrInvalidMessage       = errors.New("invalid message format")
	ErrInvalidRequest       = errors.New("invalid request")
)

// IsNotFound reports whether err belongs to the not-found family.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSourceNotFound) ||
		errors.Is(err, ErrNoData) ||
		errors.Is(err, ErrDieNotFound) ||
		errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrStatblockNotFound) ||
		errors.Is(err, ErrWrongDocumentKind)
}
