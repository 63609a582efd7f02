package converter

import (
	"testing"

	"github.com/ginjaninja78/csv2ods/internal/ods"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		field  string
		kind   CellKind
		number float64
	}{
		{"3.14", KindNumeric, 3.14},
		{"-0.5", KindNumeric, -0.5},
		{"+2.50", KindNumeric, 2.5},
		{"0.0", KindNumeric, 0},
		{"007.5", KindNumeric, 7.5},
		{"3", KindNumeric, 3},
		{"42", KindNumeric, 42},
		{"1000000", KindNumeric, 1000000},

		{"0", KindText, 0},
		{"007", KindText, 0},
		{"-3", KindText, 0},
		{"+5", KindText, 0},
		{"abc", KindText, 0},
		{"", KindText, 0},
		{"3.", KindText, 0},
		{".5", KindText, 0},
		{"1e5", KindText, 0},
		{"1,5", KindText, 0},
		{" 42", KindText, 0},
		{"42 ", KindText, 0},
		{"4.2.1", KindText, 0},
		{"NaN", KindText, 0},
		{"١٢", KindText, 0},
	}

	for _, tt := range tests {
		got := Classify(tt.field)

		if got.Kind != tt.kind {
			t.Fatalf("Classify(%q).Kind = %v, want %v", tt.field, got.Kind, tt.kind)
		}
		if got.Number != tt.number {
			t.Fatalf("Classify(%q).Number = %v, want %v", tt.field, got.Number, tt.number)
		}
		if got.Text != tt.field {
			t.Fatalf("Classify(%q).Text = %q, want the field unchanged", tt.field, got.Text)
		}
	}
}

func TestClassifyOverflow(t *testing.T) {
	huge := "1"
	for i := 0; i < 400; i++ {
		huge += "0"
	}

	if got := Classify(huge); got.IsNumeric() {
		t.Fatalf("Classify(1e400) = %+v, want text", got)
	}
}

func TestValueType(t *testing.T) {
	if got := Classify("42").ValueType(); got != ods.ValueFloat {
		t.Fatalf("ValueType(42) = %q, want float", got)
	}
	if got := Classify("0").ValueType(); got != ods.ValueString {
		t.Fatalf("ValueType(0) = %q, want string", got)
	}
}
