package contact

import "errors"

var (
	// ErrMalformedSnapshot is returned by [Unserialize] when the data is not
	// a contact snapshot.
	ErrMalformedSnapshot = errors.New("malformed contact snapshot")

	// ErrUnsupportedSnapshot is returned by [Unserialize] for snapshots
	// written with an unknown format version.
	ErrUnsupportedSnapshot = errors.New("unsupported contact snapshot version")

	// ErrTemporaryRecord is returned by [User.Serialize] for records flagged
	// as temporary.
	ErrTemporaryRecord = errors.New("temporary contact is not cached")
)
