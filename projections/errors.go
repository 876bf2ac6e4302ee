package projections

import "errors"

var (
	// ErrMalformedEvent marks an event document that cannot be projected.
	// Nothing is written for such an event.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrKeyCollision is returned when two field ids map to the same
	// sanitized key
	ErrKeyCollision = errors.New("field ids collide after sanitization")
)
