// Package reminder encodes the password-reminder history of an account.
//
// The history is persisted as the value of the PwdReminder attribute. It is
// a compact byte buffer: a presence byte followed by fixed-width fields in
// index order.
//
//	offset size field
//	0      1    presence mask, bit i set when field i was written
//	1      8    0 LastSuccess  big-endian unix seconds
//	9      8    1 LastSkipped  big-endian unix seconds
//	17     1    2 MKExported   0x01 when set
//	18     1    3 DontShow     0x01 when set
//	19     8    4 LastLogin    big-endian unix seconds
//
// Missing trailing bytes mean the field is absent, never zero, so buffers
// written by older clients read cleanly. All functions are pure; callers
// must serialize the read-merge-write sequence on a given buffer.
package reminder
