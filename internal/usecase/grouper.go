package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/contactmerge/backend/internal/domain"
	"github.com/contactmerge/backend/internal/logger"
)

// minParallelCandidates is the inner-scan size below which fan-out costs more than it saves
const minParallelCandidates = 256

// groupNamespace seeds deterministic group ids
var groupNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("contactmerge/duplicate-group"))

// GrouperConfig holds configuration for the grouper
type GrouperConfig struct {
	Workers            int // <= 1 scans sequentially
	EnableDebugLogging bool
}

// Grouper partitions a record snapshot into disjoint duplicate groups
type Grouper struct {
	scorer             *Scorer
	workers            int
	enableDebugLogging bool
}

// NewGrouper creates a grouper that scores pairs with scorer
func NewGrouper(scorer *Scorer, config GrouperConfig) *Grouper {
	return &Grouper{
		scorer:             scorer,
		workers:            config.Workers,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// FindGroups scans records in input order. Each unprocessed record anchors a group
// and absorbs every later unprocessed record scoring >= threshold against it.
// Records that absorb nothing are not reported. Groups are returned by decreasing
// GroupScore, ties kept in anchor order.
func (g *Grouper) FindGroups(
	ctx context.Context,
	records []domain.ContactRecord,
	threshold float64,
) ([]domain.DuplicateGroup, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	if err := checkUniqueIDs(records); err != nil {
		return nil, err
	}

	groups := []domain.DuplicateGroup{}
	if len(records) == 0 {
		return groups, nil
	}

	start := time.Now()
	processed := make([]bool, len(records))

	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if processed[i] {
			continue
		}

		candidates := make([]int, 0, len(records)-i-1)
		for j := i + 1; j < len(records); j++ {
			if !processed[j] {
				candidates = append(candidates, j)
			}
		}

		results, err := g.scoreCandidates(ctx, records, i, candidates)
		if err != nil {
			return nil, err
		}

		members := []domain.GroupMember{{Record: records[i], Score: 1.0}}
		for k, j := range candidates {
			if results[k].Score >= threshold {
				members = append(members, domain.GroupMember{
					Record:  records[j],
					Score:   results[k].Score,
					Reasons: results[k].Reasons,
				})
				processed[j] = true
			}
		}

		if len(members) > 1 {
			processed[i] = true
			groups = append(groups, newGroup(members))
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].GroupScore > groups[b].GroupScore
	})

	if g.enableDebugLogging {
		logger.Debug("[Group] grouping finished",
			"records", len(records), "groups", len(groups), "threshold", threshold, "elapsed", time.Since(start))
	}

	return groups, nil
}

// scoreCandidates scores the anchor against each candidate. Results are aligned
// with candidates, so the outcome does not depend on the worker count.
func (g *Grouper) scoreCandidates(
	ctx context.Context,
	records []domain.ContactRecord,
	anchor int,
	candidates []int,
) ([]domain.SimilarityResult, error) {
	results := make([]domain.SimilarityResult, len(candidates))

	if g.workers <= 1 || len(candidates) < minParallelCandidates {
		for k, j := range candidates {
			results[k] = g.scorer.Score(records[anchor], records[j])
		}
		return results, nil
	}

	chunk := (len(candidates) + g.workers - 1) / g.workers
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.workers)

	for lo := 0; lo < len(candidates); lo += chunk {
		hi := min(lo+chunk, len(candidates))
		eg.Go(func() error {
			for k := lo; k < hi; k++ {
				if err := egCtx.Err(); err != nil {
					return err
				}
				results[k] = g.scorer.Score(records[anchor], records[candidates[k]])
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// newGroup builds a group; GroupScore is the mean of the non-anchor member scores
func newGroup(members []domain.GroupMember) domain.DuplicateGroup {
	var sum float64
	for _, m := range members[1:] {
		sum += m.Score
	}

	group := domain.DuplicateGroup{
		Members:    members,
		GroupScore: sum / float64(len(members)-1),
	}
	group.ID = uuid.NewSHA1(groupNamespace, []byte(strings.Join(group.MemberIDs(), "\x00"))).String()
	return group
}

// ValidateThreshold rejects thresholds outside [0,1]; they are never clamped
func ValidateThreshold(threshold float64) error {
	if math.IsNaN(threshold) || threshold < 0 || threshold > 1 {
		return fmt.Errorf("%w: got %v", domain.ErrInvalidThreshold, threshold)
	}
	return nil
}

func checkUniqueIDs(records []domain.ContactRecord) error {
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if seen[r.ID] {
			return fmt.Errorf("%w: %q", domain.ErrDuplicateID, r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}
