package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"

	dErrors "thingapi/pkg/domain-errors"
)

// ErrNotScalar is returned when a field holds an object or array, which
// cannot be stored as a string.
var ErrNotScalar = errors.New("value is not a string, number or boolean")

// CreateRequest is the body of POST /api/thing. Fields stay raw so a missing
// or null field can be told apart from a present one of any JSON type.
type CreateRequest struct {
	Group json.RawMessage `json:"group"`
	Thing json.RawMessage `json:"thing"`
}

// NewCreateRequest builds a request from two strings.
func NewCreateRequest(group, thing string) *CreateRequest {
	g, _ := json.Marshal(group)
	t, _ := json.Marshal(thing)
	return &CreateRequest{Group: g, Thing: t}
}

// Validate enforces presence of both fields. Absent and null are missing;
// any other value, including an empty string, is present.
func (r *CreateRequest) Validate() error {
	if r == nil || isAbsent(r.Group) || isAbsent(r.Thing) {
		return dErrors.New(dErrors.CodeValidation, "group and thing are required")
	}
	return nil
}

// Values returns both fields as strings. Numbers and booleans are converted
// to their text form; objects and arrays fail with ErrNotScalar.
func (r *CreateRequest) Values() (group, thing string, err error) {
	if group, err = scalarString(r.Group); err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodePersistence, "group cannot be stored")
	}
	if thing, err = scalarString(r.Thing); err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodePersistence, "thing cannot be stored")
	}
	return group, thing, nil
}

// UpdateRequest is the body of PUT /api/{id}.
type UpdateRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func isAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func scalarString(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return formatNumber(val), nil
	default:
		return "", ErrNotScalar
	}
}

// formatNumber renders a number the way a JavaScript String() call does for
// the common range: no trailing zeros, exponent form from 1e21 up.
func formatNumber(f float64) string {
	if math.Abs(f) >= 1e21 {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
