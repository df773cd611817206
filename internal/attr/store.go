// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package attr

// Source tells [Store.Set] where a value comes from.
type Source int

const (
	// SourceLocal is a value produced on this device. Set leaves the
	// pending flag untouched; the caller decides with [Store.MarkChanged].
	SourceLocal Source = iota
	// SourceRemote is the server's copy. Set clears the pending flag of the
	// kind because the local state now matches the remote one.
	SourceRemote
)

type entry struct {
	value   []byte
	version string
	valid   bool
}

// Entry is an exported copy of one cached attribute, used to move the
// store across a persistence boundary.
type Entry struct {
	Kind    Kind
	Value   []byte
	Version string
	Valid   bool
}

// Store is the attribute cache of one contact. It is not safe for
// concurrent use; the owning record serializes access.
type Store struct {
	entries map[Kind]*entry
	changed map[ChangeKey]struct{}
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		entries: make(map[Kind]*entry),
		changed: make(map[ChangeKey]struct{}),
	}
}

// Set overwrites the value and version of k and marks it valid. A nil value
// records that the attribute is known to be absent; an empty version means
// no version token.
func (s *Store) Set(k Kind, value []byte, version string, src Source) error {
	if !k.Valid() {
		return ErrUnknownAttrKind
	}

	s.entries[k] = &entry{
		value:   clone(value),
		version: version,
		valid:   true,
	}

	if src == SourceRemote {
		delete(s.changed, KeyFor(k))
	}
	return nil
}

// Get returns a copy of the current value of k. It fails with
// [ErrAttrNotFound] if the attribute was never fetched or is known absent,
// and with [ErrAttrStale] if it was invalidated.
func (s *Store) Get(k Kind) ([]byte, error) {
	if !k.Valid() {
		return nil, ErrUnknownAttrKind
	}

	e, ok := s.entries[k]
	if !ok {
		return nil, ErrAttrNotFound
	}
	if !e.valid {
		return nil, ErrAttrStale
	}
	if e.value == nil {
		return nil, ErrAttrNotFound
	}
	return clone(e.value), nil
}

// Peek returns the stored bytes of k regardless of validity.
func (s *Store) Peek(k Kind) ([]byte, bool) {
	e, ok := s.entries[k]
	if !ok || e.value == nil {
		return nil, false
	}
	return clone(e.value), true
}

// Version returns the version token of k. Invalidated entries keep their
// last known version so the caller can ask the remote side for newer data.
func (s *Store) Version(k Kind) (string, error) {
	if !k.Valid() {
		return "", ErrUnknownAttrKind
	}

	e, ok := s.entries[k]
	if !ok || e.version == "" {
		return "", ErrAttrNotFound
	}
	return e.version, nil
}

// Invalidate marks k stale. The bytes stay readable through [Store.Peek].
// Invalidating an attribute that was never fetched is a no-op.
func (s *Store) Invalidate(k Kind) error {
	if !k.Valid() {
		return ErrUnknownAttrKind
	}

	if e, ok := s.entries[k]; ok {
		e.valid = false
	}
	return nil
}

// IsValid reports whether k holds a fresh value or a fresh tombstone.
func (s *Store) IsValid(k Kind) bool {
	e, ok := s.entries[k]
	return ok && e.valid
}

// Has reports whether k has an entry. Tombstones and stale entries count.
func (s *Store) Has(k Kind) bool {
	_, ok := s.entries[k]
	return ok
}

// Remove deletes the value and version of k. Removing an absent attribute
// is a no-op.
func (s *Store) Remove(k Kind) error {
	if !k.Valid() {
		return ErrUnknownAttrKind
	}

	delete(s.entries, k)
	return nil
}

// Entries returns copies of all cached attributes ordered by kind.
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, k := range allKinds {
		e, ok := s.entries[k]
		if !ok {
			continue
		}
		out = append(out, Entry{
			Kind:    k,
			Value:   clone(e.value),
			Version: e.version,
			Valid:   e.valid,
		})
	}
	return out
}

// Restore replaces the store contents with entries and pending keys.
// Entries with an unknown kind are skipped and reported back.
func (s *Store) Restore(entries []Entry, changed []ChangeKey) (skipped []Kind) {
	clear(s.entries)
	clear(s.changed)

	for _, e := range entries {
		if !e.Kind.Valid() {
			skipped = append(skipped, e.Kind)
			continue
		}
		s.entries[e.Kind] = &entry{
			value:   clone(e.Value),
			version: e.Version,
			valid:   e.Valid,
		}
	}
	for _, key := range changed {
		s.changed[key] = struct{}{}
	}
	return skipped
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
