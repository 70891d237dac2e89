package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so the service layer can translate them into domain errors.
//
//   - ErrNotFound: no record matches the identifier or filter
//   - ErrInvalidID: identifier is not well-formed for the backing store
//   - ErrUnavailable: backing service could not be reached
//
// For missing request fields use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidID   = errors.New("invalid id")
	ErrUnavailable = errors.New("unavailable")
)
