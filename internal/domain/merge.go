package domain

// ChangeType classifies a field-level observation during reconciliation
type ChangeType string

const (
	// ChangeAdd: master lacks the field, the secondary has it
	ChangeAdd ChangeType = "add"
	// ChangeConflict: both have the field with different values
	ChangeConflict ChangeType = "conflict"
	// ChangeLoss: master has the field, the secondary does not
	ChangeLoss ChangeType = "loss"
)

// FieldSpec names a field to reconcile and how to present it
type FieldSpec struct {
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
}

// MergeChange is one field-level change when absorbing secondaries into a master
type MergeChange struct {
	Field          string     `json:"field"`
	Label          string     `json:"label,omitempty"`
	Type           ChangeType `json:"type"`
	MasterValue    string     `json:"masterValue,omitempty"`
	SecondaryValue string     `json:"secondaryValue,omitempty"`
	SecondaryIDs   []string   `json:"secondaryIds"` // Secondaries producing this exact change
}

// Resolutions maps a field name to the id of the record whose value wins it.
// The master id keeps the master value; a secondary id takes that secondary's value.
type Resolutions map[string]string

// MergeSummary counts preview changes by type
type MergeSummary struct {
	Adds      int `json:"adds"`
	Conflicts int `json:"conflicts"`
	Losses    int `json:"losses"`
}

// MergeRequest identifies the records taking part in a merge
type MergeRequest struct {
	MasterID     string      `json:"masterId" binding:"required"`
	SecondaryIDs []string    `json:"secondaryIds" binding:"required"`
	Fields       []FieldSpec `json:"fields,omitempty"`
	Resolutions  Resolutions `json:"resolutions,omitempty"`
}

// MergePreview is the operator-facing preview of a merge
type MergePreview struct {
	Master  ContactRecord `json:"master"`
	Changes []MergeChange `json:"changes"`
	Summary MergeSummary  `json:"summary"`
	Result  ContactRecord `json:"result"` // Merged record under the default policy
}
