package attr

import (
	"errors"
	"fmt"
)

// Lookup errors. None of them is fatal: attribute kinds are a growing
// protocol surface, so callers are expected to match them with [errors.Is]
// and carry on.
var (
	// ErrUnknownAttrKind is returned when a Kind outside the attribute table
	// is passed to a lookup or store operation.
	ErrUnknownAttrKind = errors.New("unknown attribute kind")

	// ErrUnknownAttrName is returned by [NameToKind] for a well-formed name
	// that the attribute table does not contain.
	ErrUnknownAttrName = errors.New("unknown attribute name")

	// ErrInvalidAttrName is returned by [NameToKind] when the name is
	// malformed (empty or containing whitespace/control characters).
	ErrInvalidAttrName = errors.New("invalid attribute name")

	// ErrAttrNotFound is returned on read when the attribute was never
	// fetched, was removed, or is known to be absent.
	ErrAttrNotFound = errors.New("attribute not found")

	// ErrAttrStale is returned on read after the attribute was invalidated
	// and before a fresh value was set. It matches [ErrAttrNotFound].
	ErrAttrStale = fmt.Errorf("%w: value is stale", ErrAttrNotFound)
)
