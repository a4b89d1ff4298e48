// ============================================================================
// SAFE LOGGING - masks personal and financial data in production logs
// ============================================================================

package utils

import (
	"fmt"
	"log"
	"os"
	"regexp"
)

// IsProduction controls masking. In production, emails, message IDs and
// amounts never reach the logs in clear.
var IsProduction = os.Getenv("GIN_MODE") == "release" ||
	os.Getenv("ENVIRONMENT") == "production"

var (
	emailRegex     = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	messageIDRegex = regexp.MustCompile(`<[^>]+@[^>]+>`)
	amountRegex    = regexp.MustCompile(`(?:Rs\.|INR|₹)\s*\d+(?:[.,]\d{1,2})?`)
)

// MaskString masks mailbox addresses, RFC message IDs and currency amounts.
func MaskString(input string) string {
	if !IsProduction {
		return input
	}

	result := messageIDRegex.ReplaceAllString(input, "<***>")
	result = emailRegex.ReplaceAllString(result, "***@***.***")
	result = amountRegex.ReplaceAllString(result, "₹***")
	return result
}

// MaskEmail masks a single address.
func MaskEmail(email string) string {
	if !IsProduction {
		return email
	}
	return "***@***.***"
}

// SafeLog logs a message with sensitive data masked.
func SafeLog(format string, args ...interface{}) {
	log.Print(MaskString(fmt.Sprintf(format, args...)))
}
