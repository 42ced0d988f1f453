package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/contactmerge/backend/internal/domain"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "contacts.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_Contract(t *testing.T) {
	testRepositoryContract(t, func(t *testing.T) domain.ContactRepository {
		return newTestSQLiteStore(t)
	})
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	record := domain.NewContactRecord("c1", map[string]string{
		domain.FieldFullName: "Ann Lee",
		"linkedin":           "ann-lee",
	})
	if err := first.Save(ctx, record); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Value("linkedin") != "ann-lee" || got.Value(domain.FieldFullName) != "Ann Lee" {
		t.Errorf("Get() = %+v, want %+v", got, record)
	}
}

func TestSQLiteStore_DeleteNothing(t *testing.T) {
	s := newTestSQLiteStore(t)

	if err := s.Delete(context.Background()); err != nil {
		t.Errorf("Delete() with no ids error = %v, want nil", err)
	}
}
