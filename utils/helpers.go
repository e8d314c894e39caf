package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var timePattern = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)
var pinPattern = regexp.MustCompile(`^[0-9]{6}$`)

// DayNames maps weekday integers (0=Sunday..6=Saturday) to English names.
var DayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// GeneratePin generates a random 6-digit group pin
func GeneratePin() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// IsValidPin checks that a pin is a 6-digit string
func IsValidPin(pin string) bool {
	return pinPattern.MatchString(pin)
}

// IsValidTime checks that a time string is in HH:MM format
func IsValidTime(timeStr string) bool {
	return timePattern.MatchString(timeStr)
}

// IsValidWeekday checks that a weekday integer is in 0..6
func IsValidWeekday(day int) bool {
	return day >= 0 && day <= 6
}

// IsValidPaymentType checks if a payment type is valid
func IsValidPaymentType(paymentType string) bool {
	return paymentType == "monthly" || paymentType == "daily"
}

// IsValidCurrency checks if a currency code is supported
func IsValidCurrency(currency string) bool {
	validCurrencies := []string{"TRY", "RUB", "AZN", "USD"}
	for _, validCurrency := range validCurrencies {
		if currency == validCurrency {
			return true
		}
	}
	return false
}

// IsValidPaymentMethod checks if a ledger payment method is valid
func IsValidPaymentMethod(method string) bool {
	validMethods := []string{"cash", "bank_transfer", "credit_card", "other"}
	for _, validMethod := range validMethods {
		if method == validMethod {
			return true
		}
	}
	return false
}

// UniqueWeekdays deduplicates and validates a weekday list, preserving only
// values in 0..6. Order of the result is ascending.
func UniqueWeekdays(days []int) []int {
	seen := [7]bool{}
	for _, day := range days {
		if IsValidWeekday(day) {
			seen[day] = true
		}
	}
	result := make([]int, 0, 7)
	for day := 0; day < 7; day++ {
		if seen[day] {
			result = append(result, day)
		}
	}
	return result
}

// SanitizeString removes dangerous characters from string
func SanitizeString(input string) string {
	// Remove null bytes and control characters
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	return input
}
