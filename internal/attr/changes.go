package attr

import "sort"

// ChangeKey names one entry of the pending-change set. Attribute kinds map
// to their API name; a few record-level facts have keys of their own.
type ChangeKey string

const (
	// FactVisibility marks a local change of the contact's visibility or
	// contact time.
	FactVisibility ChangeKey = "visibility"
	// FactPubKey marks the arrival of the contact's public key.
	FactPubKey ChangeKey = "pubkey"
)

// KeyFor returns the change key tracking k. Birth month and birth year are
// tracked together with the birthday. Unknown kinds yield "".
func KeyFor(k Kind) ChangeKey {
	switch k {
	case BirthMonth, BirthYear:
		k = Birthday
	}

	d, ok := descriptors[k]
	if !ok {
		return ""
	}
	return ChangeKey(d.name)
}

// MarkChanged flags k as modified locally and pending synchronization. It
// reports whether the flag went from unset to set, so callers can count
// pending changes once.
func (s *Store) MarkChanged(k Kind) (bool, error) {
	key := KeyFor(k)
	if key == "" {
		return false, ErrUnknownAttrKind
	}
	return s.MarkFact(key), nil
}

// MarkFact flags an arbitrary change key. It reports whether the key was
// newly added.
func (s *Store) MarkFact(key ChangeKey) bool {
	if _, ok := s.changed[key]; ok {
		return false
	}
	s.changed[key] = struct{}{}
	return true
}

// IsChanged reports whether key is pending.
func (s *Store) IsChanged(key ChangeKey) bool {
	_, ok := s.changed[key]
	return ok
}

// Changed returns the pending keys in lexical order.
func (s *Store) Changed() []ChangeKey {
	keys := make([]ChangeKey, 0, len(s.changed))
	for k := range s.changed {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// PendingCount returns the number of pending keys.
func (s *Store) PendingCount() int {
	return len(s.changed)
}

// ClearChanged acknowledges keys after a successful sync. With no
// arguments every pending key is cleared.
func (s *Store) ClearChanged(keys ...ChangeKey) {
	if len(keys) == 0 {
		clear(s.changed)
		return
	}
	for _, k := range keys {
		delete(s.changed, k)
	}
}
