package blob

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"hackfinity-intake/internal/util"
)

// Store persists payment-screenshot images and returns a URL anyone
// with the link can view.
type Store interface {
	Name() string
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// DecodeDataURI strips an optional "data:<mime>;base64," prefix and
// decodes the remainder.
func DecodeDataURI(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "base64,"); strings.HasPrefix(s, "data:") && i >= 0 {
		s = s[i+len("base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return data, nil
}

// Filename builds the canonical screenshot name:
// Payment_<first>_<last>_<sanitized-ISO-timestamp>.jpg
func Filename(firstName, lastName, isoTimestamp string) string {
	first := strings.ReplaceAll(strings.TrimSpace(firstName), " ", "_")
	last := strings.ReplaceAll(strings.TrimSpace(lastName), " ", "_")
	return fmt.Sprintf("Payment_%s_%s_%s.jpg", first, last, util.SanitizeTimestamp(isoTimestamp))
}
