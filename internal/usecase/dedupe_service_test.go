package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/contactmerge/backend/internal/domain"
)

// mockContactRepository is an in-memory domain.ContactRepository with injectable failures
type mockContactRepository struct {
	data      map[string]domain.ContactRecord
	order     []string
	listError error
	saveError error
	deleted   []string
}

func newMockContactRepository(records ...domain.ContactRecord) *mockContactRepository {
	m := &mockContactRepository{data: make(map[string]domain.ContactRecord)}
	for _, r := range records {
		m.data[r.ID] = r
		m.order = append(m.order, r.ID)
	}
	return m
}

func (m *mockContactRepository) List(ctx context.Context) ([]domain.ContactRecord, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	out := []domain.ContactRecord{}
	for _, id := range m.order {
		if r, ok := m.data[id]; ok {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (m *mockContactRepository) Get(ctx context.Context, id string) (domain.ContactRecord, error) {
	r, ok := m.data[id]
	if !ok {
		return domain.ContactRecord{}, fmt.Errorf("%w: %q", domain.ErrContactNotFound, id)
	}
	return r.Clone(), nil
}

func (m *mockContactRepository) Save(ctx context.Context, record domain.ContactRecord) error {
	if m.saveError != nil {
		return m.saveError
	}
	if _, ok := m.data[record.ID]; !ok {
		m.order = append(m.order, record.ID)
	}
	m.data[record.ID] = record.Clone()
	return nil
}

func (m *mockContactRepository) Delete(ctx context.Context, ids ...string) error {
	for _, id := range ids {
		delete(m.data, id)
		m.deleted = append(m.deleted, id)
	}
	return nil
}

func newTestDedupeService(t *testing.T, repo domain.ContactRepository) *DedupeService {
	t.Helper()
	s, err := NewDedupeService(repo, DedupeServiceConfig{Threshold: 0.8})
	if err != nil {
		t.Fatalf("NewDedupeService() error = %v", err)
	}
	return s
}

func TestNewDedupeService(t *testing.T) {
	t.Run("rejects invalid threshold", func(t *testing.T) {
		_, err := NewDedupeService(newMockContactRepository(), DedupeServiceConfig{Threshold: 2})
		if !errors.Is(err, domain.ErrInvalidThreshold) {
			t.Errorf("NewDedupeService() error = %v, want ErrInvalidThreshold", err)
		}
	})

	t.Run("rejects invalid weights", func(t *testing.T) {
		_, err := NewDedupeService(newMockContactRepository(), DedupeServiceConfig{
			Threshold: 0.5,
			Weights:   Weights{Email: -1},
		})
		if !errors.Is(err, domain.ErrInvalidWeights) {
			t.Errorf("NewDedupeService() error = %v, want ErrInvalidWeights", err)
		}
	})

	t.Run("exposes configured threshold", func(t *testing.T) {
		s := newTestDedupeService(t, newMockContactRepository())
		if s.Threshold() != 0.8 {
			t.Errorf("Threshold() = %v, want 0.8", s.Threshold())
		}
	})
}

func TestDedupeService_ImportContacts(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes and assigns ids", func(t *testing.T) {
		repo := newMockContactRepository()
		s := newTestDedupeService(t, repo)

		saved, err := s.ImportContacts(ctx, []domain.ContactRecord{
			{ID: " c1 ", Fields: map[string]string{"email": " a@x.io ", "company": ""}},
			{Fields: map[string]string{"full_name": "No Id"}},
		})
		if err != nil {
			t.Fatalf("ImportContacts() error = %v", err)
		}

		if saved[0].ID != "c1" || saved[0].Fields["email"] != "a@x.io" || saved[0].Has("company") {
			t.Errorf("saved[0] = %+v, want normalized c1", saved[0])
		}
		if saved[1].ID == "" {
			t.Errorf("saved[1].ID is empty, want generated id")
		}
		if len(repo.data) != 2 {
			t.Errorf("repository size = %d, want 2", len(repo.data))
		}
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		s := newTestDedupeService(t, newMockContactRepository())

		_, err := s.ImportContacts(ctx, nil)
		if !errors.Is(err, domain.ErrInvalidRequest) {
			t.Errorf("ImportContacts() error = %v, want ErrInvalidRequest", err)
		}
	})

	t.Run("propagates save errors", func(t *testing.T) {
		repo := newMockContactRepository()
		repo.saveError = domain.ErrBackendFailure
		s := newTestDedupeService(t, repo)

		_, err := s.ImportContacts(ctx, []domain.ContactRecord{record("c1", nil)})
		if !errors.Is(err, domain.ErrBackendFailure) {
			t.Errorf("ImportContacts() error = %v, want ErrBackendFailure", err)
		}
	})
}

func TestDedupeService_FindDuplicates(t *testing.T) {
	ctx := context.Background()

	t.Run("uses configured threshold when none given", func(t *testing.T) {
		s := newTestDedupeService(t, newMockContactRepository(clusterFixtures()...))

		groups, err := s.FindDuplicates(ctx, nil)
		if err != nil {
			t.Fatalf("FindDuplicates() error = %v", err)
		}
		if len(groups) != 2 {
			t.Errorf("len(groups) = %d, want 2", len(groups))
		}
	})

	t.Run("explicit threshold overrides", func(t *testing.T) {
		s := newTestDedupeService(t, newMockContactRepository(clusterFixtures()...))

		threshold := 0.95
		groups, err := s.FindDuplicates(ctx, &threshold)
		if err != nil {
			t.Fatalf("FindDuplicates() error = %v", err)
		}
		if len(groups) != 1 || groups[0].Anchor().ID != "R" {
			t.Errorf("groups = %v, want only [R S]", groupIDs(groups))
		}
	})

	t.Run("rejects invalid threshold", func(t *testing.T) {
		s := newTestDedupeService(t, newMockContactRepository(clusterFixtures()...))

		threshold := -1.0
		_, err := s.FindDuplicates(ctx, &threshold)
		if !errors.Is(err, domain.ErrInvalidThreshold) {
			t.Errorf("FindDuplicates() error = %v, want ErrInvalidThreshold", err)
		}
	})

	t.Run("propagates list errors", func(t *testing.T) {
		repo := newMockContactRepository()
		repo.listError = domain.ErrBackendFailure
		s := newTestDedupeService(t, repo)

		_, err := s.FindDuplicates(ctx, nil)
		if !errors.Is(err, domain.ErrBackendFailure) {
			t.Errorf("FindDuplicates() error = %v, want ErrBackendFailure", err)
		}
	})
}

func TestDedupeService_Merge(t *testing.T) {
	ctx := context.Background()

	fixtures := func() []domain.ContactRecord {
		return []domain.ContactRecord{
			record("m", map[string]string{"company": "Acme", "email": "a@x.io"}),
			record("s1", map[string]string{"company": "Acme Corp", "phone": "555 0100"}),
			record("s2", map[string]string{"company": "Acme Corp", "position": "CTO"}),
		}
	}

	t.Run("preview does not persist", func(t *testing.T) {
		repo := newMockContactRepository(fixtures()...)
		s := newTestDedupeService(t, repo)

		preview, err := s.PreviewMerge(ctx, &domain.MergeRequest{MasterID: "m", SecondaryIDs: []string{"s1", "s2"}})
		if err != nil {
			t.Fatalf("PreviewMerge() error = %v", err)
		}

		want := domain.MergeSummary{Adds: 2, Conflicts: 1, Losses: 1}
		if preview.Summary != want {
			t.Errorf("Summary = %+v, want %+v", preview.Summary, want)
		}
		if preview.Result.Value("company") != "Acme" || preview.Result.Value("phone") != "555 0100" {
			t.Errorf("Result = %v, want master company and adopted phone", preview.Result.Fields)
		}
		if len(repo.data) != 3 || len(repo.deleted) != 0 {
			t.Errorf("repository changed by preview")
		}
	})

	t.Run("preview with nothing to change returns empty changes", func(t *testing.T) {
		repo := newMockContactRepository(
			record("m", map[string]string{"email": "a@x.io"}),
			record("s", map[string]string{"email": "a@x.io"}),
		)
		s := newTestDedupeService(t, repo)

		preview, err := s.PreviewMerge(ctx, &domain.MergeRequest{MasterID: "m", SecondaryIDs: []string{"s"}})
		if err != nil {
			t.Fatalf("PreviewMerge() error = %v", err)
		}
		if preview.Changes == nil || len(preview.Changes) != 0 {
			t.Errorf("Changes = %v, want empty non-nil", preview.Changes)
		}
	})

	t.Run("apply saves master and deletes secondaries", func(t *testing.T) {
		repo := newMockContactRepository(fixtures()...)
		s := newTestDedupeService(t, repo)

		merged, err := s.ApplyMerge(ctx, &domain.MergeRequest{
			MasterID:     "m",
			SecondaryIDs: []string{"s1", "s2"},
			Resolutions:  domain.Resolutions{"company": "s1"},
		})
		if err != nil {
			t.Fatalf("ApplyMerge() error = %v", err)
		}

		if merged.Value("company") != "Acme Corp" || merged.Value("position") != "CTO" {
			t.Errorf("merged = %v, want company Acme Corp and position CTO", merged.Fields)
		}
		if stored := repo.data["m"]; stored.Value("company") != "Acme Corp" {
			t.Errorf("stored master company = %q, want Acme Corp", stored.Value("company"))
		}
		if len(repo.data) != 1 {
			t.Errorf("repository size = %d, want 1", len(repo.data))
		}
	})

	errorCases := []struct {
		name    string
		request *domain.MergeRequest
		wantErr error
	}{
		{"nil request", nil, domain.ErrInvalidRequest},
		{"blank master", &domain.MergeRequest{MasterID: " ", SecondaryIDs: []string{"s1"}}, domain.ErrInvalidRequest},
		{"no secondaries", &domain.MergeRequest{MasterID: "m"}, domain.ErrNoSecondaries},
		{"self merge", &domain.MergeRequest{MasterID: "m", SecondaryIDs: []string{"m"}}, domain.ErrSelfMerge},
		{"unknown secondary", &domain.MergeRequest{MasterID: "m", SecondaryIDs: []string{"nope"}}, domain.ErrContactNotFound},
		{"invalid resolution", &domain.MergeRequest{
			MasterID:     "m",
			SecondaryIDs: []string{"s1"},
			Resolutions:  domain.Resolutions{"position": "s1"},
		}, domain.ErrInvalidResolution},
	}

	for _, tc := range errorCases {
		t.Run("apply fails on "+tc.name, func(t *testing.T) {
			repo := newMockContactRepository(fixtures()...)
			s := newTestDedupeService(t, repo)

			_, err := s.ApplyMerge(ctx, tc.request)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ApplyMerge() error = %v, want %v", err, tc.wantErr)
			}
			if len(repo.data) != 3 || len(repo.deleted) != 0 {
				t.Errorf("repository changed by failed merge")
			}
		})
	}
}

func TestDedupeService_Score(t *testing.T) {
	s := newTestDedupeService(t, newMockContactRepository())

	got := s.Score(
		domain.ContactRecord{ID: "a", Fields: map[string]string{"email": " a@x.com "}},
		domain.ContactRecord{ID: "b", Fields: map[string]string{"email": "A@X.COM"}},
	)
	if got.Score != 1.0 {
		t.Errorf("Score() = %v, want 1.0", got.Score)
	}
}
