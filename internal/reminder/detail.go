package reminder

import (
	"fmt"
	"math/bits"
	"strings"
)

// Detail selects one or more fields of the reminder buffer. The values are
// bit flags and may be combined.
type Detail uint8

const (
	LastSuccess Detail = 0x01
	LastSkipped Detail = 0x02
	MKExported  Detail = 0x04
	DontShow    Detail = 0x08
	LastLogin   Detail = 0x10

	allDetails = LastSuccess | LastSkipped | MKExported | DontShow | LastLogin
)

// NumFields is the number of fields this version of the layout knows.
const NumFields = 5

// field describes where one Detail lives in the buffer. Offsets account for
// the leading presence byte.
type field struct {
	detail Detail
	offset int
	size   int
	flag   bool
}

const presenceSize = 1

var layout = [NumFields]field{
	{detail: LastSuccess, offset: 1, size: 8},
	{detail: LastSkipped, offset: 9, size: 8},
	{detail: MKExported, offset: 17, size: 1, flag: true},
	{detail: DontShow, offset: 18, size: 1, flag: true},
	{detail: LastLogin, offset: 19, size: 8},
}

func (f field) end() int { return f.offset + f.size }

// Index returns the field index of a single-bit Detail, or -1.
func (d Detail) Index() int {
	if d == 0 || d&^allDetails != 0 || bits.OnesCount8(uint8(d)) != 1 {
		return -1
	}
	return bits.TrailingZeros8(uint8(d))
}

// IsFlag reports whether d is a single flag field (as opposed to a
// timestamp).
func (d Detail) IsFlag() bool {
	i := d.Index()
	return i >= 0 && layout[i].flag
}

// DetailAt returns the Detail stored at field index i.
func DetailAt(i int) (Detail, bool) {
	if i < 0 || i >= NumFields {
		return 0, false
	}
	return layout[i].detail, true
}

func (d Detail) String() string {
	switch d {
	case LastSuccess:
		return "last-success"
	case LastSkipped:
		return "last-skipped"
	case MKExported:
		return "mk-exported"
	case DontShow:
		return "dont-show"
	case LastLogin:
		return "last-login"
	}
	return "detail-set"
}

// ParseDetail is the inverse of [Detail.String]. Several names separated by
// commas combine into one mask.
func ParseDetail(s string) (Detail, error) {
	var d Detail
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		found := false
		for _, f := range layout {
			if f.detail.String() == name {
				d |= f.detail
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %q", ErrUnknownDetail, name)
		}
	}
	return d, nil
}
