package meals

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// rawEntry mirrors a stored record before validation. Older clients wrote ids
// and nutrients as numbers or strings, so both are accepted.
type rawEntry struct {
	ID        json.RawMessage `json:"id"`
	Name      *string         `json:"name"`
	Calories  json.RawMessage `json:"calories"`
	Protein   json.RawMessage `json:"protein"`
	Carbs     json.RawMessage `json:"carbs"`
	Fats      json.RawMessage `json:"fats"`
	Quantity  json.RawMessage `json:"quantity"`
	Source    string          `json:"source"`
	FoodID    string          `json:"foodId"`
	Timestamp json.RawMessage `json:"timestamp"`
}

// Decode parses a stored meal log and drops malformed records: missing name,
// negative or non-numeric nutrients, or a missing or unparseable timestamp.
// A document that is not a JSON array yields no entries.
func Decode(data []byte) []Entry {
	raws, err := splitArray(data)
	if err != nil {
		return nil
	}
	out := make([]Entry, 0, len(raws))
	for _, raw := range raws {
		if e, ok := decodeEntry(raw); ok {
			out = append(out, e)
		}
	}
	return out
}

func splitArray(data []byte) ([]json.RawMessage, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

func decodeEntry(raw json.RawMessage) (Entry, bool) {
	var r rawEntry
	if err := json.Unmarshal(raw, &r); err != nil {
		return Entry{}, false
	}
	if r.Name == nil || strings.TrimSpace(*r.Name) == "" {
		return Entry{}, false
	}
	ts, ok := parseTimestamp(r.Timestamp)
	if !ok {
		return Entry{}, false
	}

	e := Entry{
		ID:        scalarString(r.ID),
		Name:      *r.Name,
		Quantity:  scalarString(r.Quantity),
		Source:    r.Source,
		FoodID:    r.FoodID,
		Timestamp: ts,
	}
	for _, f := range []struct {
		raw json.RawMessage
		dst *float64
	}{
		{r.Calories, &e.Calories},
		{r.Protein, &e.Protein},
		{r.Carbs, &e.Carbs},
		{r.Fats, &e.Fats},
	} {
		v, ok := parseNutrient(f.raw)
		if !ok {
			return Entry{}, false
		}
		*f.dst = v
	}
	return e, true
}

// parseNutrient accepts a JSON number or numeric string. Absent or null means 0.
func parseNutrient(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, true
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(str)
		if s == "" {
			return 0, true
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

// parseTimestamp accepts RFC 3339 strings or epoch milliseconds.
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return time.Time{}, false
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return time.Time{}, false
		}
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(str)); err == nil {
			return t.UTC(), true
		}
		s = strings.TrimSpace(str)
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func scalarString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return s
}
