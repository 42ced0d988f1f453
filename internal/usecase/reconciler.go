package usecase

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/contactmerge/backend/internal/domain"
)

// Reconciler computes how a master record changes when absorbing secondary records.
// It never mutates its inputs and never persists anything.
type Reconciler struct{}

// NewReconciler creates a reconciler
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// changeKey identifies identical changes coming from different secondaries
type changeKey struct {
	changeType     domain.ChangeType
	masterValue    string
	secondaryValue string
}

// Preview classifies every (field, secondary) pair as add, conflict or loss.
// Equal or both-absent pairs produce nothing. Identical changes from several
// secondaries collapse into one change listing all of them. With no fields
// given, every field present on any record is reconciled.
func (r *Reconciler) Preview(
	master domain.ContactRecord,
	secondaries []domain.ContactRecord,
	fields []domain.FieldSpec,
) []domain.MergeChange {
	if len(secondaries) == 0 {
		return nil
	}
	if len(fields) == 0 {
		fields = DefaultFieldSpecs(master, secondaries)
	}

	var changes []domain.MergeChange
	seenField := make(map[string]bool, len(fields))

	for _, spec := range fields {
		name := strings.TrimSpace(spec.Name)
		if name == "" || seenField[name] {
			continue
		}
		seenField[name] = true

		masterValue := master.Value(name)
		index := make(map[changeKey]int)

		for _, sec := range secondaries {
			changeType, ok := classify(masterValue, sec.Value(name))
			if !ok {
				continue
			}

			key := changeKey{changeType: changeType, masterValue: masterValue, secondaryValue: sec.Value(name)}
			if i, exists := index[key]; exists {
				if !slices.Contains(changes[i].SecondaryIDs, sec.ID) {
					changes[i].SecondaryIDs = append(changes[i].SecondaryIDs, sec.ID)
				}
				continue
			}

			index[key] = len(changes)
			changes = append(changes, domain.MergeChange{
				Field:          name,
				Label:          spec.Label,
				Type:           changeType,
				MasterValue:    masterValue,
				SecondaryValue: key.secondaryValue,
				SecondaryIDs:   []string{sec.ID},
			})
		}
	}

	return changes
}

// classify returns the change type for one field pair; ok is false for no-ops
func classify(masterValue, secondaryValue string) (domain.ChangeType, bool) {
	switch {
	case masterValue == "" && secondaryValue == "":
		return "", false
	case masterValue == "":
		return domain.ChangeAdd, true
	case secondaryValue == "":
		return domain.ChangeLoss, true
	case masterValue != secondaryValue:
		return domain.ChangeConflict, true
	default:
		return "", false
	}
}

// Apply returns the merged master. By default the master keeps every value it has
// and adopts absent fields from the first secondary that has them. Resolutions
// override a field with the value of a named record.
func (r *Reconciler) Apply(
	master domain.ContactRecord,
	secondaries []domain.ContactRecord,
	resolutions domain.Resolutions,
) (domain.ContactRecord, error) {
	if err := ValidateMerge(master.ID, secondaryIDs(secondaries)); err != nil {
		return domain.ContactRecord{}, err
	}

	merged := master.Normalized()

	for _, sec := range secondaries {
		for _, name := range sec.FieldNames() {
			if !merged.Has(name) {
				merged.Fields[name] = sec.Value(name)
			}
		}
	}

	fields := make([]string, 0, len(resolutions))
	for field := range resolutions {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	for _, field := range fields {
		winner := resolutions[field]
		if strings.TrimSpace(field) == "" {
			return domain.ContactRecord{}, fmt.Errorf("%w: empty field name", domain.ErrInvalidResolution)
		}

		if winner == master.ID {
			if master.Has(field) {
				merged.Fields[field] = master.Value(field)
			} else {
				delete(merged.Fields, field)
			}
			continue
		}

		sec, ok := findRecord(secondaries, winner)
		if !ok {
			return domain.ContactRecord{}, fmt.Errorf("%w: field %q names unknown record %q",
				domain.ErrInvalidResolution, field, winner)
		}
		if !sec.Has(field) {
			return domain.ContactRecord{}, fmt.Errorf("%w: record %q has no value for field %q",
				domain.ErrInvalidResolution, winner, field)
		}
		merged.Fields[field] = sec.Value(field)
	}

	return merged, nil
}

// Summarize counts changes by type
func (r *Reconciler) Summarize(changes []domain.MergeChange) domain.MergeSummary {
	var summary domain.MergeSummary
	for _, c := range changes {
		switch c.Type {
		case domain.ChangeAdd:
			summary.Adds++
		case domain.ChangeConflict:
			summary.Conflicts++
		case domain.ChangeLoss:
			summary.Losses++
		}
	}
	return summary
}

// ValidateMerge checks that a merge names at least one secondary and is not a self-merge
func ValidateMerge(masterID string, secondaryIDs []string) error {
	if len(secondaryIDs) == 0 {
		return domain.ErrNoSecondaries
	}
	for _, id := range secondaryIDs {
		if id == masterID {
			return fmt.Errorf("%w: %q", domain.ErrSelfMerge, masterID)
		}
	}
	return nil
}

// DefaultFieldSpecs lists every field present on any record: well-known fields in
// display order, then extra fields sorted by name.
func DefaultFieldSpecs(master domain.ContactRecord, secondaries []domain.ContactRecord) []domain.FieldSpec {
	present := make(map[string]bool)
	for _, name := range master.FieldNames() {
		present[name] = true
	}
	for _, sec := range secondaries {
		for _, name := range sec.FieldNames() {
			present[name] = true
		}
	}

	var specs []domain.FieldSpec
	for _, name := range domain.KnownFields {
		if present[name] {
			specs = append(specs, domain.FieldSpec{Name: name})
		}
	}

	var extra []string
	for name := range present {
		if !domain.IsKnownField(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		specs = append(specs, domain.FieldSpec{Name: name})
	}

	return specs
}

func secondaryIDs(records []domain.ContactRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.ID
	}
	return ids
}

func findRecord(records []domain.ContactRecord, id string) (domain.ContactRecord, bool) {
	for _, r := range records {
		if r.ID == id {
			return r, true
		}
	}
	return domain.ContactRecord{}, false
}
