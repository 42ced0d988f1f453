package contactsapi

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/contactmerge/backend/internal/domain"
)

// extraFieldsKey holds backend-defined custom fields as a nested object
const extraFieldsKey = "extra_fields"

// MapToContactRecord converts a backend contact payload to a ContactRecord.
// Well-known fields are top-level keys; custom fields live under "extra_fields".
// Blank and null values become absent fields.
func MapToContactRecord(payload map[string]any) (domain.ContactRecord, error) {
	id, ok := scalarString(payload["id"])
	if !ok || id == "" {
		return domain.ContactRecord{}, fmt.Errorf("%w: contact payload without id", domain.ErrBackendFailure)
	}

	fields := make(map[string]string)
	for key, raw := range payload {
		if key == "id" || key == extraFieldsKey {
			continue
		}
		if !domain.IsKnownField(key) {
			continue
		}
		if v, ok := scalarString(raw); ok {
			fields[key] = v
		}
	}

	if extra, ok := payload[extraFieldsKey].(map[string]any); ok {
		for key, raw := range extra {
			if domain.IsKnownField(key) {
				continue
			}
			if v, ok := scalarString(raw); ok {
				fields[key] = v
			}
		}
	}

	return domain.NewContactRecord(id, fields), nil
}

// MapFromContactRecord converts a ContactRecord to the backend payload shape
func MapFromContactRecord(record domain.ContactRecord) map[string]any {
	payload := map[string]any{"id": record.ID}
	extra := map[string]any{}

	names := make([]string, 0, len(record.Fields))
	for name := range record.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := record.Value(name)
		if value == "" {
			continue
		}
		if domain.IsKnownField(name) {
			payload[name] = value
		} else {
			extra[name] = value
		}
	}

	if len(extra) > 0 {
		payload[extraFieldsKey] = extra
	}
	return payload
}

// scalarString renders JSON scalars as strings; objects, arrays and null are rejected
func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}
