package domain

// Reason tags a signal that contributed to a similarity score
type Reason string

const (
	ReasonIdenticalEmail Reason = "identical-email"
	ReasonIdenticalPhone Reason = "identical-phone"
	ReasonSimilarName    Reason = "similar-name"
	ReasonSameCompany    Reason = "same-company"
)

// SimilarityResult is the outcome of comparing two contact records
type SimilarityResult struct {
	Score   float64  `json:"score"`             // 0-1
	Reasons []Reason `json:"reasons,omitempty"` // Ordered by weight table
}

// GroupMember is one record in a duplicate group with its score against the anchor
type GroupMember struct {
	Record  ContactRecord `json:"record"`
	Score   float64       `json:"score"`
	Reasons []Reason      `json:"reasons,omitempty"`
}

// DuplicateGroup is a set of records that likely describe the same contact.
// Members[0] is the anchor with score 1.0.
type DuplicateGroup struct {
	ID         string        `json:"id"`
	Members    []GroupMember `json:"members"`
	GroupScore float64       `json:"groupScore"`
}

// Anchor returns the record the group was built around
func (g DuplicateGroup) Anchor() ContactRecord {
	if len(g.Members) == 0 {
		return ContactRecord{}
	}
	return g.Members[0].Record
}

// MemberIDs returns member ids in group order
func (g DuplicateGroup) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.Record.ID
	}
	return ids
}
