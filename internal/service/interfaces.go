package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-contact-attrs/internal/attr"
	"github.com/MKhiriev/go-contact-attrs/internal/contact"
	"github.com/MKhiriev/go-contact-attrs/internal/reminder"
)

// ContactService owns the load-modify-persist cycle of cached contacts.
// Writes to the same handle are serialized.
type ContactService interface {
	// Contact loads the cached record. Missing records yield store.ErrContactNotFound.
	Contact(ctx context.Context, handle string) (*contact.User, error)
	// Upsert persists u as is. Temporary records are skipped.
	Upsert(ctx context.Context, u *contact.User) error
	// Forget drops the cached record.
	Forget(ctx context.Context, handle string) error

	// ApplyRemote stores a server-delivered attribute value under its wire
	// name and clears its pending flag. A nil value records a deletion.
	ApplyRemote(ctx context.Context, handle, name string, value []byte, version string) error
	// InvalidateRemote marks the named attributes stale. Unknown names are skipped.
	InvalidateRemote(ctx context.Context, handle string, names ...string) error
	// EditLocal stores a locally edited value and marks it pending. It
	// reports whether the attribute became newly pending.
	EditLocal(ctx context.Context, handle string, k attr.Kind, value []byte) (bool, error)
	// Remove evicts one attribute from the cache.
	Remove(ctx context.Context, handle string, k attr.Kind) error
	// Attribute returns the cached value and version of k.
	Attribute(ctx context.Context, handle string, k attr.Kind) ([]byte, string, error)

	// RecordReminder folds a password-reminder event into the record.
	RecordReminder(ctx context.Context, handle string, d reminder.Detail, now time.Time) (bool, error)
	// ShouldShowReminder applies the configured reminder thresholds.
	ShouldShowReminder(ctx context.Context, handle string, accountCreated, now time.Time, onLogout bool) (bool, error)

	// Pending lists records with unsynced local changes.
	Pending(ctx context.Context) ([]PendingContact, error)
	// Acknowledge clears the given pending keys, or all of them when none are given.
	Acknowledge(ctx context.Context, handle string, keys ...attr.ChangeKey) error
	// Flush hands every pending record to p and acknowledges what it accepted.
	Flush(ctx context.Context, p Publisher) (FlushResult, error)
}

// Publisher delivers pending local changes to the remote side.
type Publisher interface {
	Publish(ctx context.Context, pc PendingContact) error
}

// FlushJob periodically flushes pending changes.
type FlushJob interface {
	Start(ctx context.Context, p Publisher, interval time.Duration)
	Stop()
}

// PendingContact is one record with unsynced local changes.
type PendingContact struct {
	Handle string
	Keys   []attr.ChangeKey
	// Attributes holds the cached entries covered by Keys.
	Attributes []attr.Entry
}

// FlushResult summarises one [ContactService.Flush] pass.
type FlushResult struct {
	Published int
	Failed    int
}
