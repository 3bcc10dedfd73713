package barcode

import (
	"strings"
	"testing"
)

func TestValidateBarcodeValue(t *testing.T) {
	cases := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"typical asset code", "MACH-0042", false},
		{"minimum length", "A001", false},
		{"maximum length", strings.Repeat("X", 32), false},
		{"too short", "A01", true},
		{"too long", strings.Repeat("X", 33), true},
		{"empty", "", true},
		{"control character", "MACH\x0042", true},
		{"non-ascii", "MACH\xC3\xA942", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBarcodeValue(tc.value)
			if (err != nil) != tc.wantErr {
				t.Errorf("ValidateBarcodeValue(%q) error = %v, wantErr %v", tc.value, err, tc.wantErr)
			}
		})
	}
}
