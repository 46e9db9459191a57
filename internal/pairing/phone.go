package pairing

import (
	"strings"

	"github.com/google/uuid"
)

// MinPhoneDigits is the shortest accepted number, country code included.
const MinPhoneDigits = 11

// NormalizePhone strips everything but digits from raw and checks what is
// left is long enough to carry a country code.
func NormalizePhone(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) < MinPhoneDigits {
		return "", &ValidationError{Field: "number", Message: "Invalid phone number"}
	}
	return digits, nil
}

// NewSessionID returns a random identifier that is also a safe directory name.
func NewSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
