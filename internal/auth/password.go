package auth

import (
	"unicode"
	"unicode/utf16"

	"github.com/desertthunder/ytlists/internal/shared"
)

// minPasswordLength counts UTF-16 code units, so characters outside the BMP count twice.
const minPasswordLength = 6

// ValidatePassword applies the registration policy. Rules are checked in order
// (length, letter, digit, special) and the first failure is returned as an
// [shared.ErrInvalidInput] request error.
func ValidatePassword(pw string) error {
	if len(utf16.Encode([]rune(pw))) < minPasswordLength {
		return shared.NewRequestError(shared.ErrInvalidInput, "Password must be at least 6 characters.")
	}

	var letter, digit, special bool
	for _, r := range pw {
		switch {
		case isASCIILetter(r):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}

	switch {
	case !letter:
		return shared.NewRequestError(shared.ErrInvalidInput, "Password must contain at least one letter.")
	case !digit:
		return shared.NewRequestError(shared.ErrInvalidInput, "Password must contain at least one digit.")
	case !special:
		return shared.NewRequestError(shared.ErrInvalidInput, "Password must contain at least one special character.")
	}
	return nil
}

func isASCIILetter(r rune) bool {
	return r < unicode.MaxASCII && unicode.IsLetter(r)
}
