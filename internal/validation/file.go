package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// allowedMimeTypes lists the content types documents may carry. The type is
// also baked into the pre-signed upload URL, so a client cannot register one
// type and upload another.
var allowedMimeTypes = map[string]struct{}{
	"application/pdf":    {},
	"image/png":          {},
	"image/jpeg":         {},
	"image/webp":         {},
	"text/plain":         {},
	"text/csv":           {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
}

var slugRegex = regexp.MustCompile(`^[a-z0-9-]{2,32}$`)

var reservedSlugs = map[string]struct{}{
	"api":       {},
	"auth":      {},
	"admin":     {},
	"documents": {},
	"entities":  {},
	"users":     {},
	"companies": {},
	"metrics":   {},
	"health":    {},
	"login":     {},
	"logout":    {},
}

// ValidateUpload checks a file registration before any storage work happens.
func ValidateUpload(name, mimeType string, sizeBytes, maxBytes int64) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("file name is required")
	}
	if sizeBytes <= 0 {
		return fmt.Errorf("file cannot be empty")
	}
	if sizeBytes > maxBytes {
		return fmt.Errorf("file exceeds the maximum allowed size of %d bytes", maxBytes)
	}
	if _, ok := allowedMimeTypes[strings.ToLower(mimeType)]; !ok {
		return fmt.Errorf("mime type %q is not allowed", mimeType)
	}
	return nil
}

// ValidateEntityTypeSlug validates entity type slug format and reserved names.
func ValidateEntityTypeSlug(slug string) error {
	if !slugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 2-32 characters and contain only lowercase letters, numbers, and hyphens")
	}

	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}

	if _, exists := reservedSlugs[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}

	return nil
}
