package barcode

import "errors"

const (
	// MinValueLength and MaxValueLength bound accepted barcode payloads.
	// Machine asset labels are short codes; anything outside this range is
	// a misread or a foreign label.
	MinValueLength = 4
	MaxValueLength = 32
)

// ValidateBarcodeValue checks a decoded payload before it is used for a
// machine lookup.
func ValidateBarcodeValue(value string) error {
	if len(value) < MinValueLength {
		return errors.New("barcode value too short")
	}
	if len(value) > MaxValueLength {
		return errors.New("barcode value too long")
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		if c < 0x20 || c > 0x7E {
			return errors.New("barcode value contains non-printable characters")
		}
	}
	return nil
}
