// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-contact-attrs/models"
)

var contactColumns = []string{"handle", "data", "pending", "updated_at"}

const upsertContactSuffix = `ON CONFLICT (handle) DO UPDATE SET
		data = excluded.data,
		pending = excluded.pending,
		updated_at = excluded.updated_at`

// buildSaveContactQuery renders an upsert of rec. updated_at is stored as
// unix seconds so both dialects share one column type.
func buildSaveContactQuery(d Dialect, rec models.ContactRecord) (string, []any, error) {
	return statementBuilder(d).
		Insert(rec.TableName()).
		Columns(contactColumns...).
		Values(rec.Handle, rec.Data, rec.Pending, rec.UpdatedAt.Unix()).
		Suffix(upsertContactSuffix).
		ToSql()
}

func buildGetContactQuery(d Dialect, handle string) (string, []any, error) {
	return statementBuilder(d).
		Select(contactColumns...).
		From(models.ContactRecord{}.TableName()).
		Where(sq.Eq{"handle": handle}).
		ToSql()
}

func buildDeleteContactQuery(d Dialect, handle string) (string, []any, error) {
	return statementBuilder(d).
		Delete(models.ContactRecord{}.TableName()).
		Where(sq.Eq{"handle": handle}).
		ToSql()
}

func buildListPendingQuery(d Dialect) (string, []any, error) {
	return statementBuilder(d).
		Select(contactColumns...).
		From(models.ContactRecord{}.TableName()).
		Where(sq.Gt{"pending": 0}).
		OrderBy("handle").
		ToSql()
}
