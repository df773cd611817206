// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package reminder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"
)

// Timestamp is a stored unix time that may be absent.
type Timestamp struct {
	Unix    int64
	Present bool
}

// Time converts ts to a time.Time; absent timestamps map to the zero Time.
func (ts Timestamp) Time() time.Time {
	if !ts.Present {
		return time.Time{}
	}
	return time.Unix(ts.Unix, 0)
}

// State is the decoded form of a reminder buffer.
type State struct {
	LastSuccess Timestamp
	LastSkipped Timestamp
	LastLogin   Timestamp
	MKExported  bool
	DontShow    bool
}

// Merge records details into buf and returns the new buffer. Timestamp
// fields are replaced with now; flag fields are set. buf is not modified.
// The second result reports whether the buffer changed, which makes
// re-merging an identical event observable as a no-op.
//
// The buffer only grows: bytes past the known layout are carried over.
func Merge(buf []byte, details Detail, now time.Time) ([]byte, bool, error) {
	if details == 0 || details&^allDetails != 0 {
		return nil, false, fmt.Errorf("%w: %#x", ErrUnknownDetail, uint8(details))
	}

	need := presenceSize
	for _, f := range layout {
		if details&f.detail != 0 && f.end() > need {
			need = f.end()
		}
	}

	out := make([]byte, max(len(buf), need))
	copy(out, buf)

	for _, f := range layout {
		if details&f.detail == 0 {
			continue
		}
		if f.flag {
			out[f.offset] = 1
		} else {
			binary.BigEndian.PutUint64(out[f.offset:f.end()], uint64(now.Unix()))
		}
		out[0] |= byte(f.detail)
	}

	return out, !bytes.Equal(out, buf), nil
}

// Field reads one field. Flags read as 1 when set. It fails with
// [ErrBufferTooShort] when buf ends before the field and with
// [ErrFieldNotSet] when the field was never written.
func Field(buf []byte, d Detail) (int64, error) {
	i := d.Index()
	if i < 0 {
		return 0, fmt.Errorf("%w: %#x", ErrUnknownDetail, uint8(d))
	}

	f := layout[i]
	if len(buf) < f.end() {
		return 0, ErrBufferTooShort
	}
	if buf[0]&byte(f.detail) == 0 {
		return 0, ErrFieldNotSet
	}

	if f.flag {
		if buf[f.offset] != 0 {
			return 1, nil
		}
		return 0, nil
	}
	return int64(binary.BigEndian.Uint64(buf[f.offset:f.end()])), nil
}

// Read is the lenient form of [Field]: any failure reads as "not present".
func Read(buf []byte, d Detail) (int64, bool) {
	v, err := Field(buf, d)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ReadIndex reads the field at index i.
func ReadIndex(buf []byte, i int) (int64, bool) {
	d, ok := DetailAt(i)
	if !ok {
		return 0, false
	}
	return Read(buf, d)
}

// Decode reads every known field of buf.
func Decode(buf []byte) State {
	var st State
	st.LastSuccess = timestamp(buf, LastSuccess)
	st.LastSkipped = timestamp(buf, LastSkipped)
	st.LastLogin = timestamp(buf, LastLogin)

	v, ok := Read(buf, MKExported)
	st.MKExported = ok && v != 0
	v, ok = Read(buf, DontShow)
	st.DontShow = ok && v != 0

	return st
}

// Encode builds the shortest buffer that decodes to st.
func Encode(st State) []byte {
	var out []byte

	put := func(d Detail, write func(b []byte)) {
		f := layout[d.Index()]
		if len(out) < f.end() {
			grown := make([]byte, f.end())
			copy(grown, out)
			out = grown
		}
		write(out[f.offset:f.end()])
		out[0] |= byte(d)
	}
	stamp := func(d Detail, ts Timestamp) {
		if !ts.Present {
			return
		}
		put(d, func(b []byte) { binary.BigEndian.PutUint64(b, uint64(ts.Unix)) })
	}
	flag := func(d Detail, set bool) {
		if !set {
			return
		}
		put(d, func(b []byte) { b[0] = 1 })
	}

	stamp(LastSuccess, st.LastSuccess)
	stamp(LastSkipped, st.LastSkipped)
	flag(MKExported, st.MKExported)
	flag(DontShow, st.DontShow)
	stamp(LastLogin, st.LastLogin)

	if out == nil {
		return []byte{}
	}
	return out
}

func timestamp(buf []byte, d Detail) Timestamp {
	v, ok := Read(buf, d)
	return Timestamp{Unix: v, Present: ok}
}
