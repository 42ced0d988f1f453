package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/contactmerge/backend/internal/domain"
	"github.com/contactmerge/backend/internal/logger"
)

// DedupeServiceConfig holds configuration for the dedupe service
type DedupeServiceConfig struct {
	Threshold          float64
	Weights            Weights
	Workers            int
	EnableDebugLogging bool
}

// DedupeService connects the engine to a contact repository: it fetches snapshots,
// runs grouping and reconciliation, and persists applied merges.
type DedupeService struct {
	repo       domain.ContactRepository
	scorer     *Scorer
	grouper    *Grouper
	reconciler *Reconciler
	threshold  float64
}

// NewDedupeService creates a dedupe service with dependencies
func NewDedupeService(repo domain.ContactRepository, config DedupeServiceConfig) (*DedupeService, error) {
	if err := ValidateThreshold(config.Threshold); err != nil {
		return nil, err
	}

	scorer, err := NewScorer(ScorerConfig{
		Weights:            config.Weights,
		EnableDebugLogging: config.EnableDebugLogging,
	})
	if err != nil {
		return nil, err
	}

	return &DedupeService{
		repo:   repo,
		scorer: scorer,
		grouper: NewGrouper(scorer, GrouperConfig{
			Workers:            config.Workers,
			EnableDebugLogging: config.EnableDebugLogging,
		}),
		reconciler: NewReconciler(),
		threshold:  config.Threshold,
	}, nil
}

// Threshold returns the default grouping threshold
func (s *DedupeService) Threshold() float64 {
	return s.threshold
}

// ListContacts returns the current snapshot
func (s *DedupeService) ListContacts(ctx context.Context) ([]domain.ContactRecord, error) {
	return s.repo.List(ctx)
}

// ImportContacts normalizes and upserts records; records without an id get a new UUID
func (s *DedupeService) ImportContacts(ctx context.Context, records []domain.ContactRecord) ([]domain.ContactRecord, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no contacts to import", domain.ErrInvalidRequest)
	}

	saved := make([]domain.ContactRecord, 0, len(records))
	for _, r := range records {
		record := r.Normalized()
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if err := s.repo.Save(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to save contact %q: %w", record.ID, err)
		}
		saved = append(saved, record)
	}

	logger.Info("[Import] contacts saved", "count", len(saved))
	return saved, nil
}

// Score compares two records directly
func (s *DedupeService) Score(a, b domain.ContactRecord) domain.SimilarityResult {
	return s.scorer.Score(a.Normalized(), b.Normalized())
}

// FindDuplicates re-scans the full snapshot. A nil threshold uses the configured default.
func (s *DedupeService) FindDuplicates(ctx context.Context, threshold *float64) ([]domain.DuplicateGroup, error) {
	t := s.threshold
	if threshold != nil {
		t = *threshold
	}
	if err := ValidateThreshold(t); err != nil {
		return nil, err
	}

	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	groups, err := s.grouper.FindGroups(ctx, records, t)
	if err != nil {
		return nil, err
	}

	logger.Info("[Dedupe] duplicate search finished", "records", len(records), "groups", len(groups), "threshold", t)
	return groups, nil
}

// PreviewMerge computes the change set and the default merge result without persisting
func (s *DedupeService) PreviewMerge(ctx context.Context, request *domain.MergeRequest) (*domain.MergePreview, error) {
	master, secondaries, err := s.loadMerge(ctx, request)
	if err != nil {
		return nil, err
	}

	changes := s.reconciler.Preview(master, secondaries, request.Fields)
	result, err := s.reconciler.Apply(master, secondaries, request.Resolutions)
	if err != nil {
		return nil, err
	}

	if changes == nil {
		changes = []domain.MergeChange{}
	}

	return &domain.MergePreview{
		Master:  master,
		Changes: changes,
		Summary: s.reconciler.Summarize(changes),
		Result:  result,
	}, nil
}

// ApplyMerge computes the merged master, saves it and deletes the secondaries
func (s *DedupeService) ApplyMerge(ctx context.Context, request *domain.MergeRequest) (domain.ContactRecord, error) {
	master, secondaries, err := s.loadMerge(ctx, request)
	if err != nil {
		return domain.ContactRecord{}, err
	}

	merged, err := s.reconciler.Apply(master, secondaries, request.Resolutions)
	if err != nil {
		return domain.ContactRecord{}, err
	}

	if err := s.repo.Save(ctx, merged); err != nil {
		return domain.ContactRecord{}, fmt.Errorf("failed to save merged contact %q: %w", merged.ID, err)
	}
	if err := s.repo.Delete(ctx, request.SecondaryIDs...); err != nil {
		return domain.ContactRecord{}, fmt.Errorf("failed to delete merged secondaries: %w", err)
	}

	logger.Info("[Merge] contacts merged", "master", merged.ID, "secondaries", len(secondaries))
	return merged, nil
}

// loadMerge validates a merge request and fetches its records
func (s *DedupeService) loadMerge(
	ctx context.Context,
	request *domain.MergeRequest,
) (domain.ContactRecord, []domain.ContactRecord, error) {
	if request == nil || strings.TrimSpace(request.MasterID) == "" {
		return domain.ContactRecord{}, nil, fmt.Errorf("%w: master id is required", domain.ErrInvalidRequest)
	}
	if err := ValidateMerge(request.MasterID, request.SecondaryIDs); err != nil {
		return domain.ContactRecord{}, nil, err
	}

	master, err := s.get(ctx, request.MasterID)
	if err != nil {
		return domain.ContactRecord{}, nil, err
	}

	secondaries := make([]domain.ContactRecord, 0, len(request.SecondaryIDs))
	for _, id := range request.SecondaryIDs {
		sec, err := s.get(ctx, id)
		if err != nil {
			return domain.ContactRecord{}, nil, err
		}
		secondaries = append(secondaries, sec)
	}

	return master, secondaries, nil
}

func (s *DedupeService) get(ctx context.Context, id string) (domain.ContactRecord, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrContactNotFound) {
			return domain.ContactRecord{}, err
		}
		return domain.ContactRecord{}, fmt.Errorf("failed to load contact %q: %w", id, err)
	}
	return record, nil
}
