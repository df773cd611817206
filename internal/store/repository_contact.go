package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-contact-attrs/internal/logger"
	"github.com/MKhiriev/go-contact-attrs/models"
)

// contactRepository is the SQL implementation of [ContactRepository]. It
// works against both SQLite and PostgreSQL; the dialect only changes the
// placeholder format and the error classifier.
type contactRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewContactRepository constructs a [ContactRepository] backed by db.
func NewContactRepository(db *DB, logger *logger.Logger) ContactRepository {
	logger.Debug().Msg("creating contact repository")
	return &contactRepository{
		db:     db,
		logger: logger,
	}
}

func (r *contactRepository) Save(ctx context.Context, rec models.ContactRecord) error {
	log := logger.FromContext(ctx)

	if rec.Handle == "" {
		return ErrEmptyHandle
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	query, args, err := buildSaveContactQuery(r.db.dialect, rec)
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.Save").Msg("error building query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.Save").Str("handle", rec.Handle).Msg("error saving contact")
		return r.wrap(ErrExecutingStatement, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.Save").Msg("error reading affected rows")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if affected == 0 {
		log.Error().Str("func", "*contactRepository.Save").Str("handle", rec.Handle).Msg("no rows affected")
		return ErrContactNotSaved
	}

	return nil
}

func (r *contactRepository) Get(ctx context.Context, handle string) (models.ContactRecord, error) {
	log := logger.FromContext(ctx)

	if handle == "" {
		return models.ContactRecord{}, ErrEmptyHandle
	}

	query, args, err := buildGetContactQuery(r.db.dialect, handle)
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.Get").Msg("error building query")
		return models.ContactRecord{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rec, err := scanContact(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.ContactRecord{}, ErrContactNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.Get").Str("handle", handle).Msg("error scanning contact")
		return models.ContactRecord{}, r.wrap(ErrScanningRow, err)
	}

	return rec, nil
}

func (r *contactRepository) Delete(ctx context.Context, handle string) error {
	log := logger.FromContext(ctx)

	if handle == "" {
		return ErrEmptyHandle
	}

	query, args, err := buildDeleteContactQuery(r.db.dialect, handle)
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.Delete").Msg("error building query")
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		log.Err(err).Str("func", "*contactRepository.Delete").Str("handle", handle).Msg("error deleting contact")
		return r.wrap(ErrExecutingStatement, err)
	}

	return nil
}

func (r *contactRepository) ListPending(ctx context.Context) ([]models.ContactRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListPendingQuery(r.db.dialect)
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.ListPending").Msg("error building query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*contactRepository.ListPending").Msg("error querying pending contacts")
		return nil, r.wrap(ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.ContactRecord
	for rows.Next() {
		rec, err := scanContact(rows)
		if err != nil {
			log.Err(err).Str("func", "*contactRepository.ListPending").Msg("error scanning contact")
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		log.Err(err).Str("func", "*contactRepository.ListPending").Msg("error iterating rows")
		return nil, r.wrap(ErrScanningRows, err)
	}

	return records, nil
}

// wrap attaches op to err and adds [ErrTransient] when the dialect's
// classifier says the failure is retryable.
func (r *contactRepository) wrap(op, err error) error {
	if r.db.errorClassificator != nil && r.db.errorClassificator.Classify(err) == Retryable {
		return fmt.Errorf("%w: %w: %w", ErrTransient, op, err)
	}
	return fmt.Errorf("%w: %w", op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContact(row rowScanner) (models.ContactRecord, error) {
	var (
		rec     models.ContactRecord
		updated int64
	)
	if err := row.Scan(&rec.Handle, &rec.Data, &rec.Pending, &updated); err != nil {
		return models.ContactRecord{}, err
	}
	rec.UpdatedAt = time.Unix(updated, 0)
	return rec, nil
}
