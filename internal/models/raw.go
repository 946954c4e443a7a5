package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type RawKind uint8

const (
	RawAbsent RawKind = iota
	RawText
	RawNumber
)

// RawValue is a survey answer as the collection flow stored it: either free
// text (e.g. a grade like "Very Good"), a number, or nothing at all.
type RawValue struct {
	Kind   RawKind
	Text   string
	Number float64
}

func TextValue(s string) RawValue {
	return RawValue{Kind: RawText, Text: s}
}

func NumberValue(f float64) RawValue {
	return RawValue{Kind: RawNumber, Number: f}
}

func (v RawValue) Present() bool {
	return v.Kind != RawAbsent
}

// ParseRawValue converts a stored TEXT column. NULL and blank strings are
// absent, finite numbers are numeric and everything else stays text.
func ParseRawValue(s *string) RawValue {
	if s == nil {
		return RawValue{}
	}
	return parseRaw(*s)
}

func parseRaw(s string) RawValue {
	s = strings.TrimSpace(s)
	if s == "" {
		return RawValue{}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return NumberValue(f)
	}
	return TextValue(s)
}

// DBValue is the inverse of ParseRawValue.
func (v RawValue) DBValue() *string {
	switch v.Kind {
	case RawText:
		s := v.Text
		return &s
	case RawNumber:
		s := strconv.FormatFloat(v.Number, 'f', -1, 64)
		return &s
	default:
		return nil
	}
}

func (v RawValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case RawText:
		return json.Marshal(v.Text)
	case RawNumber:
		return json.Marshal(v.Number)
	default:
		return []byte("null"), nil
	}
}

func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = RawValue{}
		return nil
	}
	var decoded any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		return err
	}
	switch t := decoded.(type) {
	case string:
		*v = parseRaw(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return err
		}
		*v = NumberValue(f)
	case bool:
		*v = TextValue(strconv.FormatBool(t))
	default:
		return fmt.Errorf("unsupported raw value %s", string(data))
	}
	return nil
}
