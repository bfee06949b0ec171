package task

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// Record is one task as returned by the task-list endpoint. Field types are
// lenient: a bad value decodes to "absent" instead of failing the document.
type Record struct {
	ID       FlexString `json:"id"`
	ParentID FlexString `json:"parent_id,omitempty"`
	Name     FlexString `json:"name"`
	Status   FlexString `json:"status"`
	Progress FlexNumber `json:"progress,omitempty"`

	PlannedStartDate FlexDate `json:"planned_start_date,omitempty"`
	PlannedEndDate   FlexDate `json:"planned_end_date,omitempty"`
	ActualStartDate  FlexDate `json:"actual_start_date,omitempty"`
	ActualEndDate    FlexDate `json:"actual_end_date,omitempty"`

	ExpensesValues        FlexNumber `json:"expenses_values,omitempty"`
	ActualExpensesValues  FlexNumber `json:"actual_expenses_values,omitempty"`
	PlannedExpensesValues FlexNumber `json:"planned_expenses_values,omitempty"`

	Children FlexRecords `json:"children,omitempty"`
}

// DecodeRecords parses a task-list document: a JSON array of task records.
func DecodeRecords(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding tasks: %w", err)
	}
	return records, nil
}

// FlexString accepts a JSON string or number. Anything else is empty.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler and never fails.
func (s *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		*s = ""
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			*s = ""
			return nil
		}
		*s = FlexString(v)
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*s = FlexString(data)
	default:
		*s = ""
	}
	return nil
}

// FlexNumber accepts a JSON number, a numeric string, or an array of those
// (summed). A null or unparsable value leaves it unset.
type FlexNumber struct {
	Value float64
	Valid bool
}

// Ptr returns the value as a pointer, nil when unset.
func (n FlexNumber) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// MarshalJSON writes the number or null.
func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler and never fails.
func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	*n = parseFlexNumber(bytes.TrimSpace(data))
	return nil
}

func parseFlexNumber(data []byte) FlexNumber {
	if len(data) == 0 {
		return FlexNumber{}
	}
	switch data[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return FlexNumber{}
		}
		var sum float64
		for _, e := range elems {
			// non-numeric elements count as zero
			if v := parseFlexNumber(bytes.TrimSpace(e)); v.Valid {
				sum += v.Value
			}
		}
		return FlexNumber{Value: sum, Valid: true}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return FlexNumber{}
		}
		return numberFromString(s)
	default:
		return numberFromString(string(data))
	}
}

func numberFromString(s string) FlexNumber {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return FlexNumber{}
	}
	return FlexNumber{Value: v, Valid: true}
}

// FlexDate accepts a date or timestamp string. Null, empty and unparsable
// values leave it unset.
type FlexDate struct {
	Time  time.Time
	Valid bool
}

// Ptr returns the calendar day as a pointer, nil when unset.
func (d FlexDate) Ptr() *time.Time {
	if !d.Valid {
		return nil
	}
	return datePtr(d.Time)
}

// MarshalJSON writes the date as YYYY-MM-DD or null.
func (d FlexDate) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(d.Time.Format(DateLayout))), nil
}

// UnmarshalJSON implements json.Unmarshaler and never fails.
func (d *FlexDate) UnmarshalJSON(data []byte) error {
	*d = FlexDate{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if t, ok := ParseDate(s); ok {
		*d = FlexDate{Time: t, Valid: true}
	}
	return nil
}

// FlexRecords accepts a JSON array of task records. Any other value, and any
// element that is not an object, is dropped so the task becomes a leaf.
type FlexRecords []Record

// UnmarshalJSON implements json.Unmarshaler and never fails.
func (r *FlexRecords) UnmarshalJSON(data []byte) error {
	*r = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil
	}
	out := make(FlexRecords, 0, len(elems))
	for _, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) == 0 || e[0] != '{' {
			continue
		}
		var rec Record
		if err := json.Unmarshal(e, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	if len(out) > 0 {
		*r = out
	}
	return nil
}
