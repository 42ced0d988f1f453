package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/contactmerge/backend/internal/domain"
	"github.com/contactmerge/backend/internal/logger"
)

// minSignalContribution is the weighted contribution a field must exceed to be reported as a reason
const minSignalContribution = 0.0

// Weights is the per-signal weight table. Only signals comparable on both records
// count toward the denominator.
type Weights struct {
	Email   float64
	Phone   float64
	Name    float64
	Company float64
}

// DefaultWeights returns the standard weight table
func DefaultWeights() Weights {
	return Weights{
		Email:   0.4,
		Phone:   0.3,
		Name:    0.2,
		Company: 0.1,
	}
}

// Validate rejects negative, non-finite or all-zero weight tables
func (w Weights) Validate() error {
	values := map[string]float64{"email": w.Email, "phone": w.Phone, "name": w.Name, "company": w.Company}
	var total float64
	for _, name := range []string{"email", "phone", "name", "company"} {
		v := values[name]
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s weight is %v", domain.ErrInvalidWeights, name, v)
		}
		total += v
	}
	if total == 0 {
		return fmt.Errorf("%w: all weights are zero", domain.ErrInvalidWeights)
	}
	return nil
}

// ScorerConfig holds configuration for the scorer
type ScorerConfig struct {
	Weights            Weights
	EnableDebugLogging bool
}

// Scorer computes normalized similarity between two contact records.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	signals            []signal
	enableDebugLogging bool
}

// signal is one weighted comparison. compare returns ok=false when the
// field is missing on either side.
type signal struct {
	reason  domain.Reason
	weight  float64
	compare func(a, b domain.ContactRecord) (similarity float64, ok bool)
}

// NewScorer creates a scorer. A zero Weights value selects DefaultWeights.
func NewScorer(config ScorerConfig) (*Scorer, error) {
	weights := config.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	return &Scorer{
		signals: []signal{
			{reason: domain.ReasonIdenticalEmail, weight: weights.Email, compare: compareEmail},
			{reason: domain.ReasonIdenticalPhone, weight: weights.Phone, compare: comparePhones},
			{reason: domain.ReasonSimilarName, weight: weights.Name, compare: compareNames},
			{reason: domain.ReasonSameCompany, weight: weights.Company, compare: compareCompanies},
		},
		enableDebugLogging: config.EnableDebugLogging,
	}, nil
}

// Score compares two records. Fields missing on either side are excluded from
// both numerator and denominator; with nothing comparable the score is 0.
func (s *Scorer) Score(a, b domain.ContactRecord) domain.SimilarityResult {
	var weighted, total float64
	var reasons []domain.Reason

	for _, sig := range s.signals {
		if sig.weight == 0 {
			continue
		}
		sim, ok := sig.compare(a, b)
		if !ok {
			continue
		}
		contribution := sig.weight * sim
		weighted += contribution
		total += sig.weight
		if contribution > minSignalContribution {
			reasons = append(reasons, sig.reason)
		}
	}

	if total == 0 {
		return domain.SimilarityResult{Score: 0}
	}

	score := math.Max(0, math.Min(1, weighted/total))

	if s.enableDebugLogging {
		logger.Debug("[Score] pair scored", "a", a.ID, "b", b.ID, "score", score, "reasons", reasons)
	}

	return domain.SimilarityResult{Score: score, Reasons: reasons}
}

func compareEmail(a, b domain.ContactRecord) (float64, bool) {
	ea, eb := a.Value(domain.FieldEmail), b.Value(domain.FieldEmail)
	if ea == "" || eb == "" {
		return 0, false
	}
	if strings.EqualFold(ea, eb) {
		return 1, true
	}
	return 0, true
}

// comparePhones matches when any phone of a and any phone of b share digits by substring
func comparePhones(a, b domain.ContactRecord) (float64, bool) {
	pa := normalizedPhones(a)
	pb := normalizedPhones(b)
	if len(pa) == 0 || len(pb) == 0 {
		return 0, false
	}
	for _, x := range pa {
		for _, y := range pb {
			if phonesMatch(x, y) {
				return 1, true
			}
		}
	}
	return 0, true
}

func compareNames(a, b domain.ContactRecord) (float64, bool) {
	return compareText(a.DisplayName(), b.DisplayName())
}

func compareCompanies(a, b domain.ContactRecord) (float64, bool) {
	return compareText(a.Value(domain.FieldCompany), b.Value(domain.FieldCompany))
}

func compareText(x, y string) (float64, bool) {
	if strings.TrimSpace(x) == "" || strings.TrimSpace(y) == "" {
		return 0, false
	}
	return stringSimilarity(x, y), true
}

// normalizedPhones returns the digit-only forms of a record's phones, skipping empty ones
func normalizedPhones(r domain.ContactRecord) []string {
	var out []string
	for _, p := range r.Phones() {
		if digits := normalizePhone(p); digits != "" {
			out = append(out, digits)
		}
	}
	return out
}

// normalizePhone strips every non-digit character
func normalizePhone(phone string) string {
	var b strings.Builder
	b.Grow(len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// phonesMatch reports whether either normalized number contains the other
func phonesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// stringSimilarity compares two strings case-insensitively after trimming.
// When one contains the other the score is len(shorter)/len(longer);
// otherwise it is 1 - editDistance/max(len). Lengths are in runes.
func stringSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0
	}

	la := len([]rune(a))
	lb := len([]rune(b))
	shorter, longer := la, lb
	if shorter > longer {
		shorter, longer = longer, shorter
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return float64(shorter) / float64(longer)
	}

	return 1 - float64(levenshteinDistance(a, b))/float64(longer)
}

// levenshteinDistance calculates the edit distance between two strings
func levenshteinDistance(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	m := len(r1)
	n := len(r2)

	if m == 0 {
		return n
	}
	if n == 0 {
		return m
	}

	// Two rows instead of the full matrix
	prev := make([]int, n+1)
	curr := make([]int, n+1)

	for j := 0; j <= n; j++ {
		prev[j] = j
	}

	for i := 1; i <= m; i++ {
		curr[0] = i
		for j := 1; j <= n; j++ {
			cost := 0
			if r1[i-1] != r2[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[n]
}
