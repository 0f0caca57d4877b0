package export

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input       string
		expected    Format
		expectError bool
	}{
		{"json", FormatJSON, false},
		{"CSV", FormatCSV, false},
		{".xlsx", FormatXLSX, false},
		{" csv ", FormatCSV, false},
		{"xls", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.expectError {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormat(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name        string
		input       []string
		expected    []Format
		expectError bool
	}{
		{
			name:     "single",
			input:    []string{"csv"},
			expected: []Format{FormatCSV},
		},
		{
			name:     "comma separated with duplicates",
			input:    []string{"csv,json", "csv"},
			expected: []Format{FormatCSV, FormatJSON},
		},
		{
			name:     "all",
			input:    []string{"all"},
			expected: []Format{FormatJSON, FormatCSV, FormatXLSX},
		},
		{
			name:        "empty",
			input:       []string{" , "},
			expectError: true,
		},
		{
			name:        "unknown",
			input:       []string{"csv,pdf"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormats(tt.input)
			if tt.expectError {
				if err == nil {
					t.Errorf("ParseFormats(%v) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFormats(%v) unexpected error: %v", tt.input, err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("ParseFormats(%v) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("ParseFormats(%v)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestFormat_Extension(t *testing.T) {
	if got := FormatXLSX.Extension(); got != ".xlsx" {
		t.Errorf("Extension() = %q, want .xlsx", got)
	}
}
