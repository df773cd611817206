package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-contact-attrs/internal/config"
	"github.com/MKhiriev/go-contact-attrs/internal/logger"
)

type Storages struct {
	ContactRepository ContactRepository

	db *DB
}

// NewStorages opens the database named by cfg.DSN, applies migrations and
// wires the repositories. The driver is chosen by [DialectFromDSN].
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	var (
		db  *DB
		err error
	)

	switch DialectFromDSN(cfg.DB.DSN) {
	case DialectPostgres:
		db, err = NewConnectPostgres(ctx, cfg.DB, log)
	default:
		db, err = NewConnectSQLite(ctx, cfg.DB, log)
	}
	if err != nil {
		return nil, err
	}

	if err = db.Migrate(); err != nil {
		log.Err(err).Str("func", "NewStorages").Msg("error applying migrations")
		db.Close()
		return nil, fmt.Errorf("error applying migrations: %w", err)
	}

	return &Storages{
		ContactRepository: NewContactRepository(db, log),
		db:                db,
	}, nil
}

func (s *Storages) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
