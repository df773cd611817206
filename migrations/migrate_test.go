// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package migrations

import (
	"errors"
	"io/fs"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMigrate_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	_ = mock // no expectations: goose's first query fails

	err = Migrate(db, DialectSQLite, nil)
	if err == nil {
		t.Fatal("expected error from Migrate, got nil")
	}

	if !strings.Contains(err.Error(), "migration error") {
		t.Errorf("expected wrapped migration error, got: %v", err)
	}
}

func TestMigrate_NilDB(t *testing.T) {
	err := Migrate(nil, DialectSQLite, nil)
	if err == nil {
		t.Fatal("expected error when db is nil, got nil")
	}

	if !strings.Contains(err.Error(), "db is nil") {
		t.Errorf("expected 'db is nil' error, got: %v", err)
	}
}

func TestMigrate_UnsupportedDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	err = Migrate(db, "mysql", nil)
	if !errors.Is(err, ErrUnsupportedDialect) {
		t.Fatalf("expected ErrUnsupportedDialect, got: %v", err)
	}
}

func TestEmbeddedMigrations_BothDialects(t *testing.T) {
	for _, dir := range []string{"sqlite", "postgres"} {
		files, err := fs.Glob(embedMigrations, dir+"/*.sql")
		if err != nil {
			t.Fatalf("glob %s: %v", dir, err)
		}
		if len(files) == 0 {
			t.Fatalf("no migrations embedded for %s", dir)
		}

		data, err := fs.ReadFile(embedMigrations, files[0])
		if err != nil {
			t.Fatalf("read %s: %v", files[0], err)
		}
		if !strings.Contains(string(data), "-- +goose Up") {
			t.Errorf("%s lacks a goose Up section", files[0])
		}
		if !strings.Contains(string(data), "CREATE TABLE IF NOT EXISTS contacts") {
			t.Errorf("%s does not create the contacts table", files[0])
		}
	}
}
