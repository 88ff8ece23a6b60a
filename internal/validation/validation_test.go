package validation

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name     string
		itemName string
		qty      int
		price    string
		fields   []string
	}{
		{"valid", "Bolt", 5, "1.25", nil},
		{"blank name", "  ", 5, "1", []string{"name"}},
		{"negative quantity", "Bolt", -1, "1", []string{"quantity"}},
		{"negative price", "Bolt", 0, "-0.01", []string{"price"}},
		{"too expensive", "Bolt", 0, "1000000.01", []string{"price"}},
		{"reserved export", "export", 1, "1", []string{"name"}},
		{"reserved import", "import", 1, "1", []string{"name"}},
		{"reserved is exact", "Export", 1, "1", nil},
		{"everything wrong", "", -3, "-1", []string{"name", "quantity", "price"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := &ValidationErrors{}
			ValidateItem(ve, tt.itemName, tt.qty, decimal.RequireFromString(tt.price))
			if len(ve.Errors) != len(tt.fields) {
				t.Fatalf("got errors %v, want fields %v", ve.Errors, tt.fields)
			}
			for i, f := range tt.fields {
				if ve.Errors[i].Field != f {
					t.Errorf("error %d field = %s, want %s", i, ve.Errors[i].Field, f)
				}
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	ve := &ValidationErrors{}
	ve.Add("name", "is required")
	ve.Add("price", "must be non-negative")
	if got := ve.Error(); got != "name: is required; price: must be non-negative" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidateDate(t *testing.T) {
	ve := &ValidationErrors{}
	d := ValidateDate(ve, "start", "2024-02-29")
	if ve.HasErrors() || d.Day() != 29 {
		t.Errorf("valid date rejected: %v %v", d, ve.Errors)
	}
	ValidateDate(ve, "end", "02/03/2024")
	ValidateDate(ve, "other", "")
	if len(ve.Errors) != 2 || !strings.Contains(ve.Errors[0].Message, "YYYY-MM-DD") {
		t.Errorf("unexpected errors: %v", ve.Errors)
	}
}
