package domain

import (
	"sort"
	"strings"
)

// Well-known contact field names
const (
	FieldFullName    = "full_name"
	FieldFirstName   = "first_name"
	FieldLastName    = "last_name"
	FieldMiddleName  = "middle_name"
	FieldCompany     = "company"
	FieldPosition    = "position"
	FieldDepartment  = "department"
	FieldEmail       = "email"
	FieldPhone       = "phone"
	FieldPhoneMobile = "phone_mobile"
	FieldPhoneWork   = "phone_work"
	FieldAddress     = "address"
	FieldWebsite     = "website"
	FieldComment     = "comment"
)

// KnownFields lists the well-known fields in display order
var KnownFields = []string{
	FieldFullName,
	FieldFirstName,
	FieldLastName,
	FieldMiddleName,
	FieldCompany,
	FieldPosition,
	FieldDepartment,
	FieldEmail,
	FieldPhone,
	FieldPhoneMobile,
	FieldPhoneWork,
	FieldAddress,
	FieldWebsite,
	FieldComment,
}

// PhoneFields are the fields that feed the phone signal
var PhoneFields = []string{FieldPhone, FieldPhoneMobile, FieldPhoneWork}

var knownFieldSet = func() map[string]bool {
	set := make(map[string]bool, len(KnownFields))
	for _, f := range KnownFields {
		set[f] = true
	}
	return set
}()

// IsKnownField reports whether name is one of the well-known contact fields
func IsKnownField(name string) bool {
	return knownFieldSet[name]
}

// ContactRecord is an immutable snapshot of one contact used for comparison.
// A field that is missing, empty or whitespace-only is absent.
type ContactRecord struct {
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// NewContactRecord builds a record with trimmed values; blank values are dropped.
func NewContactRecord(id string, fields map[string]string) ContactRecord {
	clean := make(map[string]string, len(fields))
	for name, value := range fields {
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		clean[name] = value
	}
	return ContactRecord{ID: strings.TrimSpace(id), Fields: clean}
}

// Normalized returns a copy of r with values trimmed and blank values dropped
func (r ContactRecord) Normalized() ContactRecord {
	return NewContactRecord(r.ID, r.Fields)
}

// Value returns the trimmed value of a field, or "" when absent
func (r ContactRecord) Value(field string) string {
	if r.Fields == nil {
		return ""
	}
	return strings.TrimSpace(r.Fields[field])
}

// Has reports whether the field is present
func (r ContactRecord) Has(field string) bool {
	return r.Value(field) != ""
}

// FieldNames returns the present fields: well-known fields first in display order,
// then extra fields sorted by name.
func (r ContactRecord) FieldNames() []string {
	var names []string
	for _, f := range KnownFields {
		if r.Has(f) {
			names = append(names, f)
		}
	}

	var extra []string
	for name := range r.Fields {
		if !IsKnownField(name) && r.Has(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	return append(names, extra...)
}

// DisplayName is the full name, or first/middle/last joined when the full name is absent
func (r ContactRecord) DisplayName() string {
	if name := r.Value(FieldFullName); name != "" {
		return name
	}

	var parts []string
	for _, f := range []string{FieldFirstName, FieldMiddleName, FieldLastName} {
		if v := r.Value(f); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Phones returns the present phone values in field order
func (r ContactRecord) Phones() []string {
	var phones []string
	for _, f := range PhoneFields {
		if v := r.Value(f); v != "" {
			phones = append(phones, v)
		}
	}
	return phones
}

// Clone returns a deep copy of the record
func (r ContactRecord) Clone() ContactRecord {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return ContactRecord{ID: r.ID, Fields: fields}
}
