package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldError reports a request field that could not be decoded or failed
// validation.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Invalid value for %s", e.Field)
}

var errInvalidID = errors.New("invalid id")

// ID is a record reference sent by clients. It accepts a JSON number, a
// numeric string, an empty string or null; the last two mean "no reference".
type ID uint64

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	raw := string(data)
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
		if raw == "" {
			*id = 0
			return nil
		}
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return errInvalidID
	}
	*id = ID(v)
	return nil
}

// Ptr returns nil for the zero ID.
func (id ID) Ptr() *uint64 {
	if id == 0 {
		return nil
	}
	v := uint64(id)
	return &v
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp. Blank input
// yields nil.
func ParseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	for _, layout := range []string{time.DateOnly, time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid date")
}

// Patch is a partial update body. Keys that are absent leave the field
// untouched; an explicit null clears it where that makes sense.
type Patch map[string]json.RawMessage

func (p Patch) has(key string) (json.RawMessage, bool) {
	raw, ok := p[key]
	return raw, ok
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// String returns the field when it is present and not null.
func (p Patch) String(key string) (*string, error) {
	raw, ok := p.has(key)
	if !ok || isNull(raw) {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &FieldError{Field: key}
	}
	return &s, nil
}

// Date returns the new date, or clear=true when the field is null or blank.
func (p Patch) Date(key string) (value *time.Time, clear bool, err error) {
	raw, ok := p.has(key)
	if !ok {
		return nil, false, nil
	}
	if isNull(raw) {
		return nil, true, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false, &FieldError{Field: key}
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, false, &FieldError{Field: key}
	}
	return t, t == nil, nil
}

// ID returns the new reference, or clear=true when the field is null or blank.
func (p Patch) ID(key string) (value *uint64, clear bool, err error) {
	raw, ok := p.has(key)
	if !ok {
		return nil, false, nil
	}

	var id ID
	if err := json.Unmarshal(raw, &id); err != nil {
		return nil, false, &FieldError{Field: key}
	}
	return id.Ptr(), id == 0, nil
}

// IDs returns the new reference list when the field is present.
func (p Patch) IDs(key string) (*[]uint64, error) {
	raw, ok := p.has(key)
	if !ok {
		return nil, nil
	}
	if isNull(raw) {
		empty := []uint64{}
		return &empty, nil
	}

	var ids []ID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, &FieldError{Field: key}
	}

	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			return nil, &FieldError{Field: key}
		}
		out = append(out, uint64(id))
	}
	return &out, nil
}
