package ast

import (
	"strconv"
	"strings"
)

// DataKind is the literal type of a DATA value.
type DataKind int

const (
	DataInteger DataKind = iota
	DataReal
	DataString
)

// DataValue is one literal from a DATA statement. Text is the item as
// written (without quotes) and is what READ stores into a string target.
type DataValue struct {
	Kind   DataKind
	Int    int32
	Real   float64
	Text   string
	Quoted bool
}

func (dv DataValue) String() string {
	if dv.Quoted {
		return `"` + strings.ReplaceAll(dv.Text, `"`, `""`) + `"`
	}
	return dv.Text
}

// DataItem is a DATA value tagged with the line it came from.
type DataItem struct {
	Line  int
	Value DataValue
}

// ParseDataValue classifies one comma-separated DATA field.
func ParseDataValue(field string) DataValue {
	trimmed := strings.TrimSpace(field)
	if len(trimmed) >= 2 && trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		inner := trimmed[1 : len(trimmed)-1]
		return DataValue{Kind: DataString, Text: strings.ReplaceAll(inner, `""`, `"`), Quoted: true}
	}
	if !looksNumeric(trimmed) {
		return DataValue{Kind: DataString, Text: trimmed}
	}
	if n, err := strconv.ParseInt(trimmed, 10, 32); err == nil {
		return DataValue{Kind: DataInteger, Int: int32(n), Text: trimmed}
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return DataValue{Kind: DataReal, Real: f, Text: trimmed}
	}
	return DataValue{Kind: DataString, Text: trimmed}
}

func looksNumeric(s string) bool {
	if s == "" {
		return false
	}
	switch c := s[0]; {
	case c >= '0' && c <= '9', c == '.', c == '+', c == '-':
		return true
	}
	return false
}

// SplitData splits the raw text of a DATA statement on commas outside
// quotes.
func SplitData(raw string) []DataValue {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var (
		values  []DataValue
		start   int
		inQuote bool
	)
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '"':
			inQuote = !inQuote
		case ',':
			if !inQuote {
				values = append(values, ParseDataValue(raw[start:i]))
				start = i + 1
			}
		}
	}
	return append(values, ParseDataValue(raw[start:]))
}
