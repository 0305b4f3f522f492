package utils

import (
	"fmt"
	"strings"

	"github.com/copper-mobile/app-api/internal/models"
	"github.com/nyaruka/phonenumbers"
)

// PhoneRules describes which numbers may request a verification code
type PhoneRules struct {
	Prefixes  []string
	MinDigits int
}

// ParsedPhone is a phone number split at its recognized country prefix
type ParsedPhone struct {
	Prefix   string
	National string
}

// Validate checks that phone starts with a recognized prefix followed by at
// least MinDigits digits. The longest matching prefix wins. Errors wrap
// models.ErrInvalidInput.
func (r PhoneRules) Validate(phone string) (*ParsedPhone, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", models.ErrInvalidInput)
	}

	prefix := r.matchPrefix(phone)
	if prefix == "" {
		return nil, fmt.Errorf("%w: unrecognized country prefix", models.ErrInvalidInput)
	}

	national := phone[len(prefix):]
	for _, ch := range national {
		if ch < '0' || ch > '9' {
			return nil, fmt.Errorf("%w: phone must contain only digits after the prefix", models.ErrInvalidInput)
		}
	}
	if len(national) < r.MinDigits {
		return nil, fmt.Errorf("%w: phone must have at least %d digits after the prefix", models.ErrInvalidInput, r.MinDigits)
	}

	return &ParsedPhone{Prefix: prefix, National: national}, nil
}

func (r PhoneRules) matchPrefix(phone string) string {
	best := ""
	for _, p := range r.Prefixes {
		if strings.HasPrefix(phone, p) && len(p) > len(best) {
			best = p
		}
	}
	return best
}

// PhoneRegion returns the ISO 3166-1 region for a number, or "" when
// libphonenumber cannot place it.
func PhoneRegion(phone string) string {
	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return ""
	}
	return phonenumbers.GetRegionCodeForNumber(num)
}

// FormatE164 returns the E.164 form of a number and whether libphonenumber
// considers it valid.
func FormatE164(phone string) (string, bool) {
	num, err := phonenumbers.Parse(phone, "")
	if err != nil {
		return "", false
	}
	return phonenumbers.Format(num, phonenumbers.E164), phonenumbers.IsValidNumber(num)
}
