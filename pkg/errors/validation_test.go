package errors

import (
	"testing"
)

func TestValidateVesselName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "aorta", false},
		{"valid with underscore", "aortic_root", false},
		{"valid with suffix", "heart_1", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"space", "left ventricle", true},
		{"tab", "left\tventricle", true},
		{"newline", "foo\nbar", true},
		{"control char", "foo\x01bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVesselName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateVesselName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateModuleKey(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		typ     string
		wantErr bool
	}{
		{"valid", "modules.cellml", "heart", false},
		{"empty file", "", "heart", true},
		{"empty type", "modules.cellml", "", true},
		{"separator in file", "a::b", "heart", true},
		{"separator in type", "modules.cellml", "x::y", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModuleKey(tt.file, tt.typ)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateModuleKey(%q, %q) error = %v, wantErr %v", tt.file, tt.typ, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidCatalog) {
				t.Errorf("ValidateModuleKey error code = %v, want %v", GetCode(err), ErrCodeInvalidCatalog)
			}
		})
	}
}
