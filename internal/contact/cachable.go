package contact

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/MKhiriev/go-contact-attrs/internal/attr"
)

const snapshotVersion = 1

type snapshot struct {
	Version         int              `json:"v"`
	Handle          string           `json:"handle"`
	UID             string           `json:"uid"`
	Email           string           `json:"email,omitempty"`
	Visibility      Visibility       `json:"visibility"`
	ContactTime     int64            `json:"ctime,omitempty"`
	Tag             int              `json:"tag,omitempty"`
	PubKeyRequested bool             `json:"pubk_requested,omitempty"`
	Attrs           []snapshotAttr   `json:"attrs,omitempty"`
	Changed         []attr.ChangeKey `json:"changed,omitempty"`
}

// snapshotAttr is keyed by API name rather than Kind so that persisted
// records survive renumbering of the enum.
type snapshotAttr struct {
	Name    string `json:"name"`
	Value   []byte `json:"value"`
	Version string `json:"version,omitempty"`
	Valid   bool   `json:"valid"`
}

// Serialize encodes the record for the local cache. Temporary records are
// refused with [ErrTemporaryRecord].
func (u *User) Serialize() ([]byte, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.temporary {
		return nil, ErrTemporaryRecord
	}

	s := snapshot{
		Version:         snapshotVersion,
		Handle:          u.handle,
		UID:             u.uid,
		Email:           u.email,
		Visibility:      u.visibility,
		Tag:             u.tag,
		PubKeyRequested: u.pubKeyRequested,
		Changed:         u.attrs.Changed(),
	}
	if !u.ctime.IsZero() {
		s.ContactTime = u.ctime.Unix()
	}

	for _, e := range u.attrs.Entries() {
		name, err := attr.Name(e.Kind)
		if err != nil {
			return nil, err
		}
		s.Attrs = append(s.Attrs, snapshotAttr{
			Name:    name,
			Value:   e.Value,
			Version: e.Version,
			Valid:   e.Valid,
		})
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode contact %s: %w", u.handle, err)
	}
	return data, nil
}

// Unserialize rebuilds a record written by [User.Serialize]. Attributes
// whose names this build does not know are dropped and their names
// returned, so the caller can log them.
func Unserialize(data []byte) (*User, []string, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}
	if s.Version != snapshotVersion {
		return nil, nil, fmt.Errorf("%w: %d", ErrUnsupportedSnapshot, s.Version)
	}
	if s.Handle == "" {
		return nil, nil, fmt.Errorf("%w: empty handle", ErrMalformedSnapshot)
	}

	var (
		entries []attr.Entry
		dropped []string
	)
	for _, a := range s.Attrs {
		k, err := attr.NameToKind(a.Name)
		if err != nil {
			dropped = append(dropped, a.Name)
			continue
		}
		entries = append(entries, attr.Entry{
			Kind:    k,
			Value:   a.Value,
			Version: a.Version,
			Valid:   a.Valid,
		})
	}

	u := &User{
		handle:          s.Handle,
		uid:             s.UID,
		email:           s.Email,
		visibility:      s.Visibility,
		tag:             s.Tag,
		pubKeyRequested: s.PubKeyRequested,
		attrs:           attr.NewStore(),
	}
	if s.ContactTime != 0 {
		u.ctime = time.Unix(s.ContactTime, 0)
	}
	u.attrs.Restore(entries, s.Changed)

	return u, dropped, nil
}
