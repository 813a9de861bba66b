package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

var patchAPI = sonic.Config{UseNumber: true}.Froze()

// DecodePatch coerces a JSON request body into a Patch. Only the body shape
// and the field types are checked: text fields accept strings, numbers and
// booleans, salary accepts numbers and numeric strings. Unknown keys are
// dropped and any "id" in the body is ignored.
func DecodePatch(data []byte) (Patch, error) {
	var raw map[string]any
	if err := patchAPI.Unmarshal(data, &raw); err != nil || raw == nil {
		return Patch{}, &ValidationError{Reason: "request body must be a JSON object"}
	}

	var p Patch
	var err error
	if p.Name, err = coerceText("name", raw); err != nil {
		return Patch{}, err
	}
	if p.Email, err = coerceText("email", raw); err != nil {
		return Patch{}, err
	}
	if p.Position, err = coerceText("position", raw); err != nil {
		return Patch{}, err
	}
	if v, ok := raw["salary"]; ok {
		p.SalarySet = true
		if p.Salary, err = coerceNumber("salary", v); err != nil {
			return Patch{}, err
		}
	}
	return p, nil
}

func coerceText(field string, raw map[string]any) (*string, error) {
	v, ok := raw[field]
	if !ok {
		return nil, nil
	}
	var s string
	switch t := v.(type) {
	case nil:
	case string:
		s = t
	case json.Number:
		s = t.String()
	case bool:
		s = strconv.FormatBool(t)
	default:
		return nil, &ValidationError{Field: field, Reason: "cast to string failed"}
	}
	return &s, nil
}

func coerceNumber(field string, v any) (*float64, error) {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil, nil
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return nil, &ValidationError{Field: field, Reason: "cast to number failed for value " + strconv.Quote(t.String())}
		}
		f = n
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &ValidationError{Field: field, Reason: "cast to number failed for value " + strconv.Quote(t)}
		}
		f = n
	default:
		return nil, &ValidationError{Field: field, Reason: "cast to number failed"}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &ValidationError{Field: field, Reason: "cast to number failed: value is not finite"}
	}
	return &f, nil
}
