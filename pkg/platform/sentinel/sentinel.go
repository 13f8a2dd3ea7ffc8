package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Entity stores return these
// (optionally wrapped) and the repository service translates them into
// coded domain errors.
//
//   - ErrNotFound: no entity with the requested identity is stored
//   - ErrUnavailable: the backing store cannot serve requests (e.g. missing table)
//
// Validation failures use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
