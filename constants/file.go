package constants

import "strings"

// AllowedExtensions holds the file extensions accepted for affidavit uploads.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

const (
	PageImageMIME = "image/png"

	// MaxUploadMB caps the multipart body accepted by POST /extract.
	MaxUploadMB = 32
)

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without the dot) is accepted.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
