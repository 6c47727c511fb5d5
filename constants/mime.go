package constants

import "strings"

// AllowedImageMIMETypes holds the image formats accepted for a scan request.
var AllowedImageMIMETypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/heic": {},
}

// NormalizeMIME lowercases and strips parameters from a MIME type.
func NormalizeMIME(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.ToLower(strings.TrimSpace(mt))
}
