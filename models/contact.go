package models

import "time"

// ContactRecord is the persisted form of one cached contact.
type ContactRecord struct {
	// Handle is the user handle the record is keyed by.
	Handle string `json:"handle"`

	// Data is the serialized contact (see contact.User.Serialize). The
	// store treats it as opaque bytes.
	Data []byte `json:"data"`

	// Pending is the number of locally changed keys awaiting sync. Records
	// with Pending > 0 are returned by the pending listing.
	Pending int `json:"pending"`

	// UpdatedAt is when the record was last written, second precision.
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table
// associated with the ContactRecord model.
func (c ContactRecord) TableName() string {
	return "contacts"
}
