package store

import (
	"context"
	"errors"
	"testing"

	"github.com/contactmerge/backend/internal/domain"
)

// testRepositoryContract runs the behavior every ContactRepository must share
func testRepositoryContract(t *testing.T, newRepo func(t *testing.T) domain.ContactRepository) {
	ctx := context.Background()

	ann := domain.NewContactRecord("c1", map[string]string{domain.FieldFullName: "Ann Lee", domain.FieldEmail: "ann@acme.io"})
	bob := domain.NewContactRecord("c2", map[string]string{domain.FieldFullName: "Bob Stone", "telegram": "@bob"})
	cat := domain.NewContactRecord("c3", map[string]string{domain.FieldCompany: "Acme"})

	t.Run("empty list is not nil", func(t *testing.T) {
		repo := newRepo(t)

		records, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if records == nil || len(records) != 0 {
			t.Errorf("List() = %v, want empty non-nil slice", records)
		}
	})

	t.Run("save and get", func(t *testing.T) {
		repo := newRepo(t)

		if err := repo.Save(ctx, bob); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, err := repo.Get(ctx, "c2")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if got.Value("telegram") != "@bob" || got.Value(domain.FieldFullName) != "Bob Stone" {
			t.Errorf("Get() = %+v, want %+v", got, bob)
		}
	})

	t.Run("get unknown id", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.Get(ctx, "missing")
		if !errors.Is(err, domain.ErrContactNotFound) {
			t.Errorf("Get() error = %v, want ErrContactNotFound", err)
		}
	})

	t.Run("save requires id", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.Save(ctx, domain.NewContactRecord("  ", map[string]string{domain.FieldEmail: "x@y.z"}))
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("Save() error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("list keeps insertion order across updates", func(t *testing.T) {
		repo := newRepo(t)

		for _, r := range []domain.ContactRecord{ann, bob, cat} {
			if err := repo.Save(ctx, r); err != nil {
				t.Fatalf("Save(%s) error = %v", r.ID, err)
			}
		}

		updated := ann.Clone()
		updated.Fields[domain.FieldPhone] = "555 0100"
		if err := repo.Save(ctx, updated); err != nil {
			t.Fatalf("Save(updated) error = %v", err)
		}

		records, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("List() len = %d, want 3", len(records))
		}
		for i, want := range []string{"c1", "c2", "c3"} {
			if records[i].ID != want {
				t.Errorf("records[%d].ID = %s, want %s", i, records[i].ID, want)
			}
		}
		if records[0].Value(domain.FieldPhone) != "555 0100" {
			t.Errorf("updated phone = %q, want 555 0100", records[0].Value(domain.FieldPhone))
		}
	})

	t.Run("delete removes ids and ignores unknown ones", func(t *testing.T) {
		repo := newRepo(t)

		for _, r := range []domain.ContactRecord{ann, bob, cat} {
			if err := repo.Save(ctx, r); err != nil {
				t.Fatalf("Save(%s) error = %v", r.ID, err)
			}
		}

		if err := repo.Delete(ctx, "c1", "missing", "c3"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		records, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 1 || records[0].ID != "c2" {
			t.Errorf("List() after delete = %v, want [c2]", records)
		}
		if _, err := repo.Get(ctx, "c1"); !errors.Is(err, domain.ErrContactNotFound) {
			t.Errorf("Get(c1) error = %v, want ErrContactNotFound", err)
		}
	})

	t.Run("returned records are copies", func(t *testing.T) {
		repo := newRepo(t)

		if err := repo.Save(ctx, ann); err != nil {
			t.Fatalf("Save() error = %v", err)
		}

		got, _ := repo.Get(ctx, "c1")
		got.Fields[domain.FieldEmail] = "changed@x.io"

		again, _ := repo.Get(ctx, "c1")
		if again.Value(domain.FieldEmail) != "ann@acme.io" {
			t.Errorf("stored email = %q, want ann@acme.io", again.Value(domain.FieldEmail))
		}
	})
}
