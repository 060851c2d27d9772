// Package validation implements the request-level card checks performed
// before a card operation reaches the card service: brand, length, expiry,
// blacklist, and Luhn.
package validation

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// blacklistedCards rejects well-known dummy and test card numbers.
var blacklistedCards = map[string]struct{}{
	"4111111111111111": {},
	"5500000000000004": {},
}

var (
	expiryPattern = regexp.MustCompile(`^(0[1-9]|1[012])/\d{2}$`)
	// MasterCard 2-series range introduced in 2017.
	masterCardNewRange = regexp.MustCompile(`^2(2[2-9]|[3-6][0-9]|7[01]|720)`)
)

// Card validates a card number and expiry date for storage. It returns a
// descriptive error safe to show to the caller, or nil when the card is
// acceptable. Whitespace in the number is ignored; every check sees the
// stripped digits. Checks run in a fixed order and stop at the first
// failure.
func Card(cardNumber, expiryDate string) error {
	cardNumber = strings.ReplaceAll(cardNumber, " ", "")
	if cardNumber == "" {
		return errors.New("Card Number is required")
	}
	if strings.TrimSpace(expiryDate) == "" {
		return errors.New("Expiry Date is required")
	}
	if !IsVisaOrMasterCard(cardNumber) {
		return errors.New("Invalid credit card, Only Visa and Mastercard are supported")
	}
	if !IsValidCardLength(cardNumber) {
		return errors.New("Invalid card number length for Visa and MasterCard")
	}
	if err := CheckExpiry(expiryDate); err != nil {
		return err
	}
	if IsBlacklisted(cardNumber) {
		return errors.New("Card is blacklisted")
	}
	if !PassesLuhn(cardNumber) {
		return errors.New("Invalid card number (Luhn check failed)")
	}
	return nil
}

// IsVisaOrMasterCard reports whether the number carries a Visa or
// MasterCard prefix (including the 2-series MasterCard range).
func IsVisaOrMasterCard(cardNumber string) bool {
	if strings.HasPrefix(cardNumber, "4") {
		return true
	}
	for _, p := range []string{"51", "52", "53", "54", "55"} {
		if strings.HasPrefix(cardNumber, p) {
			return true
		}
	}
	return masterCardNewRange.MatchString(cardNumber)
}

// IsValidCardLength checks the number length against its brand:
// Visa allows 13, 16, or 19 digits; MasterCard requires 16.
func IsValidCardLength(cardNumber string) bool {
	if strings.HasPrefix(cardNumber, "4") {
		n := len(cardNumber)
		return n == 13 || n == 16 || n == 19
	}
	return len(cardNumber) == 16
}

// CheckExpiry validates that expiryDate is in MM/YY format and that the
// card has not expired.
func CheckExpiry(expiryDate string) error {
	if !expiryPattern.MatchString(expiryDate) {
		return errors.New("Expiry Date is in a wrong format, please provide the details in MM/YY format")
	}
	month, _ := strconv.Atoi(expiryDate[:2])
	year, _ := strconv.Atoi(expiryDate[3:])
	// Two-digit years are always 20yy; the card is valid through the last
	// moment of its expiry month.
	expiresAt := time.Date(2000+year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !time.Now().Before(expiresAt) {
		return errors.New("Card is expired")
	}
	return nil
}

// IsBlacklisted reports whether the number is a known dummy/test card.
func IsBlacklisted(cardNumber string) bool {
	_, ok := blacklistedCards[cardNumber]
	return ok
}

// PassesLuhn reports whether the number satisfies the Luhn checksum.
// The input must contain digits only.
func PassesLuhn(cardNumber string) bool {
	sum := 0
	alternate := false
	for i := len(cardNumber) - 1; i >= 0; i-- {
		c := cardNumber[i]
		if c < '0' || c > '9' {
			return false
		}
		n := int(c - '0')
		if alternate {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		alternate = !alternate
	}
	return sum%10 == 0
}
