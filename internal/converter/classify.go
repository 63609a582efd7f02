package converter

import (
	"regexp"
	"strconv"

	"github.com/ginjaninja78/csv2ods/internal/ods"
)

// CellKind tags a CellValue.
type CellKind int

const (
	KindText CellKind = iota
	KindNumeric
)

func (k CellKind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "text"
}

// CellValue is the typed value of one field. Number is set for KindNumeric;
// Text always holds the field as read.
type CellValue struct {
	Kind   CellKind
	Number float64
	Text   string
}

var (
	floatPattern   = regexp.MustCompile(`^[-+]?[0-9]+\.[0-9]+$`)
	integerPattern = regexp.MustCompile(`^[1-9][0-9]*$`)
)

// Classify decides whether a field is a number. Only two shapes count: a
// decimal with digits on both sides of the point, and an integer without a
// leading zero. "0", "007", "1e5", ".5" and "3." are text.
func Classify(field string) CellValue {
	value := CellValue{Kind: KindText, Text: field}

	if !floatPattern.MatchString(field) && !integerPattern.MatchString(field) {
		return value
	}

	// A match can still overflow float64; such fields stay text.
	n, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return value
	}

	value.Kind = KindNumeric
	value.Number = n
	return value
}

// IsNumeric reports whether the value classified as a number.
func (v CellValue) IsNumeric() bool {
	return v.Kind == KindNumeric
}

// ValueType returns the office:value-type for the value.
func (v CellValue) ValueType() ods.ValueType {
	if v.IsNumeric() {
		return ods.ValueFloat
	}
	return ods.ValueString
}
