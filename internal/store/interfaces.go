package store

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

import (
	"context"

	"github.com/MKhiriev/go-contact-attrs/models"
)

// ContactRepository persists serialized contact records keyed by handle.
type ContactRepository interface {
	// Save inserts or replaces the record for rec.Handle.
	Save(ctx context.Context, rec models.ContactRecord) error
	// Get returns [ErrContactNotFound] when no record exists.
	Get(ctx context.Context, handle string) (models.ContactRecord, error)
	// Delete is idempotent.
	Delete(ctx context.Context, handle string) error
	// ListPending returns records with a non-zero pending count, ordered by handle.
	ListPending(ctx context.Context) ([]models.ContactRecord, error)
}
