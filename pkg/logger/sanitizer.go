package logger

import (
	"regexp"
	"strings"
)

var (
	tokenPattern  = regexp.MustCompile(`(?i)(token|jwt|bearer)[\s:=]+[^\s]+`)
	secretPattern = regexp.MustCompile(`(?i)(secret|private[_-]?key|access[_-]?key)[\s:=]+[^\s]+`)
	emailPattern  = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern  = regexp.MustCompile(`\+[1-9][0-9]{6,14}`)
)

const (
	redactedPlaceholder = "[REDACTED]"
	maskChar            = "*"
	phoneVisibleDigits  = 3
)

// SanitizeLogMessage removes credentials and user contact data from free-form text.
func SanitizeLogMessage(message string) string {
	message = tokenPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = secretPattern.ReplaceAllString(message, "${1}="+redactedPlaceholder)
	message = emailPattern.ReplaceAllStringFunc(message, MaskEmail)
	message = phonePattern.ReplaceAllStringFunc(message, MaskPhone)
	return message
}

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return redactedPlaceholder
	}
	local := email[:at]
	return local[:1] + strings.Repeat(maskChar, len(local)-1) + email[at:]
}

// MaskPhone keeps the last digits of an E.164 number.
func MaskPhone(phone string) string {
	if len(phone) <= phoneVisibleDigits {
		return redactedPlaceholder
	}
	return strings.Repeat(maskChar, len(phone)-phoneVisibleDigits) + phone[len(phone)-phoneVisibleDigits:]
}
