package repo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tbourn/go-polygraph-backend/internal/domain"
)

func TestOpenSQLite_And_AutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polygraph.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// All three tables usable after migration.
	ctx := context.Background()
	if _, err := CreateClaim(ctx, db, &domain.Claim{Text: "x", TextHash: "h"}); err != nil {
		t.Fatalf("claims table: %v", err)
	}
	if _, err := CreateSource(ctx, db, &domain.Source{Domain: "d.example"}); err != nil {
		t.Fatalf("sources table: %v", err)
	}
	if _, err := CreateSnapshot(ctx, db, "c", domain.VerificationResult{}, time.Time{}); err != nil {
		t.Fatalf("snapshots table: %v", err)
	}
}

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	if _, err := OpenSQLite(filepath.Join(t.TempDir(), "nope", "deep", "polygraph.db")); err == nil {
		t.Fatalf("expected error for missing parent directory")
	}
}
