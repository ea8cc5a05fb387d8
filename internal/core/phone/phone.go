package phone

import (
	"strings"

	"github.com/frahmantamala/tasktracker/internal"
)

const (
	minDigits = 7
	maxDigits = 15
)

var separators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "", "/", "")

// Normalize converts a user supplied phone number into E.164 form.
// "00" international prefixes become "+", and national numbers (leading 0 or
// no prefix at all) get defaultCountryCode, e.g. "+49".
func Normalize(raw, defaultCountryCode string) (string, error) {
	s := separators.Replace(strings.TrimSpace(raw))
	if s == "" {
		return "", invalid("phone is required")
	}

	switch {
	case strings.HasPrefix(s, "+"):
	case strings.HasPrefix(s, "00"):
		s = "+" + s[2:]
	case strings.HasPrefix(s, "0"):
		s = defaultCountryCode + s[1:]
	default:
		s = defaultCountryCode + s
	}

	digits := s[1:]
	if len(digits) < minDigits || len(digits) > maxDigits {
		return "", invalid("phone must have between 7 and 15 digits")
	}
	if digits[0] == '0' {
		return "", invalid("phone country code cannot start with 0")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", invalid("phone may only contain digits")
		}
	}

	return s, nil
}

func invalid(message string) error {
	return internal.NewValidationFieldError("phone", message, internal.ErrCodeInvalidPhone)
}
