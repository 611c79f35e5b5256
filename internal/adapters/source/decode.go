package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/okian/userboard/internal/domain/model"
)

// Wire field names, shared by the JSON and YAML payloads.
const (
	fieldID      = "id"
	fieldRating  = "totalAverageWeightRatings"
	fieldRents   = "numberOfRents"
	fieldRecency = "recentlyActive"
)

// rowIssue describes one value that could not be used. The row is still
// returned with that field zeroed, or dropped when field is empty.
type rowIssue struct {
	Row   int
	Field string
	Value string
}

func (i rowIssue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("row %d dropped: %s", i.Row, i.Value)
	}
	return fmt.Sprintf("row %d field %s: unusable value %s", i.Row, i.Field, i.Value)
}

// decodeJSON accepts either a bare array of users or a {"users": [...]}
// envelope. Only a payload that is not a list of rows is an error; a bad
// row or field is reported as an issue.
func decodeJSON(data []byte) ([]model.UserRecord, []rowIssue, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	var rows []any
	switch trimmed[0] {
	case '[':
		if err := unmarshalNumbers(trimmed, &rows); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	case '{':
		var env struct {
			Users *[]any `json:"users"`
		}
		if err := unmarshalNumbers(trimmed, &env); err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		if env.Users == nil {
			return nil, nil, fmt.Errorf("%w: object payload has no users field", ErrDecode)
		}
		rows = *env.Users
	default:
		return nil, nil, fmt.Errorf("%w: payload is neither an array nor an object", ErrDecode)
	}

	users, issues := recordsFromRows(rows)
	return users, issues, nil
}

// unmarshalNumbers decodes numbers as json.Number so integers keep their
// exact text.
func unmarshalNumbers(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

// recordsFromRows converts generic rows into records. Rows that are not
// objects are dropped; unusable fields are zeroed.
func recordsFromRows(rows []any) ([]model.UserRecord, []rowIssue) {
	out := make([]model.UserRecord, 0, len(rows))
	var issues []rowIssue
	for i, row := range rows {
		fields, ok := row.(map[string]any)
		if !ok {
			issues = append(issues, rowIssue{Row: i, Value: fmt.Sprintf("not an object: %v", row)})
			continue
		}

		var rec model.UserRecord
		bad := func(field string) {
			issues = append(issues, rowIssue{Row: i, Field: field, Value: fmt.Sprintf("%v", fields[field])})
		}

		if id, ok := scalarText(fields[fieldID]); ok {
			rec.ID = id
		} else {
			bad(fieldID)
		}
		if rating, ok := number(fields[fieldRating]); ok {
			rec.TotalAverageWeightRatings = rating
		} else {
			bad(fieldRating)
		}
		if rents, ok := integer(fields[fieldRents]); ok {
			rec.NumberOfRents = rents
		} else {
			bad(fieldRents)
		}
		// Scoring decides whether the text parses as an epoch.
		if ts, ok := scalarText(fields[fieldRecency]); ok {
			rec.RecentlyActive = ts
		} else {
			bad(fieldRecency)
		}
		out = append(out, rec)
	}
	return out, issues
}

// scalarText returns a string as is, and the literal text of a number.
// A missing or null value is the empty string.
func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	default:
		return "", false
	}
}

// number reads a finite float from a number or numeric string. A missing or
// null value is 0.
func number(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, true
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = n
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case float64:
		f = x
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// integer reads an int from an integral number such as 3 or 3.0.
func integer(v any) (int, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := strconv.ParseInt(n.String(), 10, 0); err == nil {
			return int(i), true
		}
	}
	f, ok := number(v)
	if !ok || f != math.Trunc(f) || f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}
