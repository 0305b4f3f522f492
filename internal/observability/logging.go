package observability

import (
	"strings"

	"github.com/copper-mobile/app-api/internal/logging"
)

// Logger returns the global safe logger instance
func Logger() *logging.SafeLogger {
	return logging.Logger
}

// MaskPhone keeps the country prefix and the last four digits of a phone
// number, e.g. "+5215512345678" becomes "+52*******5678".
func MaskPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}

	keepHead := 0
	if strings.HasPrefix(phone, "+") {
		keepHead = 3
	}
	if keepHead+4 >= len(phone) {
		keepHead = 0
	}

	tail := phone[len(phone)-4:]
	return phone[:keepHead] + strings.Repeat("*", len(phone)-keepHead-4) + tail
}

// MaskSensitiveData masks sensitive values in a map before logging it
func MaskSensitiveData(data map[string]interface{}) map[string]interface{} {
	masked := make(map[string]interface{}, len(data))
	for k, v := range data {
		switch k {
		case "password", "code", "token", "text":
			masked[k] = "********"
		case "phone", "to":
			if s, ok := v.(string); ok {
				masked[k] = MaskPhone(s)
				continue
			}
			masked[k] = "********"
		default:
			masked[k] = v
		}
	}
	return masked
}
