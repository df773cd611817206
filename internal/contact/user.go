// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package contact

import (
	"sync"
	"time"

	"github.com/MKhiriev/go-contact-attrs/internal/attr"
	"github.com/MKhiriev/go-contact-attrs/internal/reminder"
)

// Visibility is the relationship state of a contact.
type Visibility int

const (
	VisibilityUnknown  Visibility = -1
	VisibilityHidden   Visibility = 0
	VisibilityVisible  Visibility = 1
	VisibilityInactive Visibility = 2
	VisibilityBlocked  Visibility = 3
)

func (v Visibility) String() string {
	switch v {
	case VisibilityHidden:
		return "hidden"
	case VisibilityVisible:
		return "visible"
	case VisibilityInactive:
		return "inactive"
	case VisibilityBlocked:
		return "blocked"
	}
	return "unknown"
}

// tagMultiple is stored when two different sources touched the record
// before the tag was reset.
const tagMultiple = -1

// User is one contact record. It owns an attribute cache and serializes
// every access to it with a record-level mutex.
type User struct {
	mu sync.Mutex

	handle     string
	uid        string
	email      string
	visibility Visibility
	ctime      time.Time

	pubKeyRequested bool
	temporary       bool
	tag             int

	attrs *attr.Store
}

// New creates an empty record. The API identifier defaults to the e-mail
// address and falls back to the handle.
func New(handle, email string) *User {
	uid := email
	if uid == "" {
		uid = handle
	}

	return &User{
		handle:     handle,
		uid:        uid,
		email:      email,
		visibility: VisibilityUnknown,
		attrs:      attr.NewStore(),
	}
}

func (u *User) Handle() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.handle
}

// UID is the identifier used in API requests (e-mail or handle).
func (u *User) UID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.uid
}

func (u *User) Email() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.email
}

func (u *User) Visibility() Visibility {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.visibility
}

// ContactTime is when the contact relationship was established.
func (u *User) ContactTime() time.Time {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.ctime
}

// SetVisibility records the relationship state and establishment time. It
// marks [attr.FactVisibility] pending and returns true if anything changed.
func (u *User) SetVisibility(v Visibility, ctime time.Time) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.visibility == v && u.ctime.Equal(ctime) {
		return false
	}
	u.visibility = v
	u.ctime = ctime
	u.attrs.MarkFact(attr.FactVisibility)
	return true
}

// SetTag records the source tag of the current change. A second, different
// tag before [User.ResetTag] collapses to -1.
func (u *User) SetTag(tag int) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.tag != 0 && u.tag != tag {
		u.tag = tagMultiple
		return
	}
	u.tag = tag
}

func (u *User) Tag() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.tag
}

func (u *User) ResetTag() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.tag = 0
}

func (u *User) PubKeyRequested() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.pubKeyRequested
}

func (u *User) SetPubKeyRequested(requested bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pubKeyRequested = requested
}

// PubKeyArrived clears the outstanding request and marks
// [attr.FactPubKey] pending.
func (u *User) PubKeyArrived() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.pubKeyRequested = false
	u.attrs.MarkFact(attr.FactPubKey)
}

// Temporary records are never persisted.
func (u *User) Temporary() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.temporary
}

func (u *User) SetTemporary(temporary bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.temporary = temporary
}

func (u *User) SetAttribute(k attr.Kind, value []byte, version string, src attr.Source) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attrs.Set(k, value, version, src)
}

func (u *User) Attribute(k attr.Kind) ([]byte, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attrs.Get(k)
}

func (u *User) AttributeVersion(k attr.Kind) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attrs.Version(k)
}

func (u *User) InvalidateAttribute(k attr.Kind) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attrs.Invalidate(k)
}

func (u *User) IsAttributeValid(k attr.Kind) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attrs.IsValid(k)
}

func (u *User) HasAttribute(k attr.Kind) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attrs.Has(k)
}

func (u *User) RemoveAttribute(k attr.Kind) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attrs.Remove(k)
}

func (u *User) MarkChanged(k attr.Kind) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attrs.MarkChanged(k)
}

func (u *User) Changed() []attr.ChangeKey {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attrs.Changed()
}

func (u *User) PendingCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attrs.PendingCount()
}

func (u *User) ClearChanged(keys ...attr.ChangeKey) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.attrs.ClearChanged(keys...)
}

// AttributeEntries lists every cached attribute, stale and tombstoned
// ones included, ordered by kind.
func (u *User) AttributeEntries() []attr.Entry {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.attrs.Entries()
}

// RecordReminder folds a password-reminder event into the PwdReminder
// attribute as one read-merge-write under the record lock. The attribute
// is marked changed when the buffer actually changed.
func (u *User) RecordReminder(d reminder.Detail, now time.Time) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	// merging onto an invalidated buffer would overwrite the newer remote copy
	if u.attrs.Has(attr.PwdReminder) && !u.attrs.IsValid(attr.PwdReminder) {
		return false, attr.ErrAttrStale
	}

	cur, _ := u.attrs.Peek(attr.PwdReminder)
	next, changed, err := reminder.Merge(cur, d, now)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	version, _ := u.attrs.Version(attr.PwdReminder)
	if err = u.attrs.Set(attr.PwdReminder, next, version, attr.SourceLocal); err != nil {
		return false, err
	}
	if _, err = u.attrs.MarkChanged(attr.PwdReminder); err != nil {
		return false, err
	}
	return true, nil
}

// ReminderState decodes the stored reminder buffer, stale or not.
func (u *User) ReminderState() reminder.State {
	u.mu.Lock()
	defer u.mu.Unlock()

	buf, _ := u.attrs.Peek(attr.PwdReminder)
	return reminder.Decode(buf)
}

// ReminderBuffer returns the raw reminder buffer, stale or not.
func (u *User) ReminderBuffer() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()

	buf, _ := u.attrs.Peek(attr.PwdReminder)
	return buf
}
