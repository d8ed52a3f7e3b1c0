package field

import (
	"strings"
	"testing"
)

func TestNew_Valid(t *testing.T) {
	tests := []struct {
		name  string
		ft    Type
		boost float64
	}{
		{"name", Text, 10},
		{"price", Numeric, 0},
		{"manufacturer.name", Keyword, 2},
		{"release_date", Date, 0},
		{"active", Boolean, 0},
		{strings.Repeat("x", 128), Keyword, 0},
	}

	for _, tt := range tests {
		f, err := New(tt.name, tt.ft, tt.boost, false)
		if err != nil {
			t.Errorf("New(%q, %q) unexpected error: %v", tt.name, tt.ft, err)
			continue
		}
		if f.Name() != tt.name {
			t.Errorf("Name() = %q, want %q", f.Name(), tt.name)
		}
		if f.FieldType() != tt.ft {
			t.Errorf("FieldType() = %q, want %q", f.FieldType(), tt.ft)
		}
		if f.Searchable() != (tt.boost > 0) {
			t.Errorf("Searchable() = %v for boost %g", f.Searchable(), tt.boost)
		}
	}
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		ft      Type
		boost   float64
		wantErr string
	}{
		{"empty", "", Keyword, 0, "required"},
		{"too long", strings.Repeat("x", 129), Keyword, 0, "too long"},
		{"reserved id", "id", Keyword, 0, "reserved"},
		{"bad path", "name..first", Keyword, 0, "dotted path"},
		{"leading digit", "1name", Keyword, 0, "dotted path"},
		{"quote", "na'me", Keyword, 0, "dotted path"},
		{"bad type", "name", "geo", 0, "invalid field type"},
		{"negative boost", "name", Text, -1, ">= 0"},
		{"searchable numeric", "price", Numeric, 2, "cannot be searchable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.field, tt.ft, tt.boost, false)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestReconstruct(t *testing.T) {
	f := Reconstruct("x", Keyword, 1, true)
	if f.Name() != "x" || f.FieldType() != Keyword || f.Boost() != 1 || !f.Required() {
		t.Errorf("unexpected field: %+v", f)
	}
}

func TestAggregatable(t *testing.T) {
	if Reconstruct("a", Text, 1, false).Aggregatable() {
		t.Error("text field should not be aggregatable")
	}
	for _, ft := range []Type{Keyword, Numeric, Date, Boolean} {
		if !Reconstruct("a", ft, 0, false).Aggregatable() {
			t.Errorf("%s field should be aggregatable", ft)
		}
	}
}
