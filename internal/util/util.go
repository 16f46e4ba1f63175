package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

func NowISO() string {
	return time.Now().Format(time.RFC3339)
}

func NormalizeBool(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "yes", "true", "1", "y", "on":
		return true
	default:
		return false
	}
}

// YesNo renders a boolean the way it is stored in the sheet.
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// SanitizeTimestamp makes an ISO timestamp usable inside a filename.
func SanitizeTimestamp(ts string) string {
	r := strings.NewReplacer(":", "-", ".", "-", "+", "-", " ", "_")
	return r.Replace(ts)
}

func HMACSHA256Hex(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
