package reminder

import "errors"

var (
	// ErrUnknownDetail is returned by [Merge] when the detail mask is empty
	// or carries bits this layout does not define.
	ErrUnknownDetail = errors.New("unknown reminder detail")

	// ErrBufferTooShort is returned by [Field] when the buffer ends before
	// the requested field. Older buffers legitimately lack newer fields, so
	// callers should treat it as "not present".
	ErrBufferTooShort = errors.New("reminder buffer too short for field")

	// ErrFieldNotSet is returned by [Field] when the buffer is long enough
	// but the field was never written.
	ErrFieldNotSet = errors.New("reminder field not set")
)
