package storage

import "strings"

const (
	ProviderGCS        = "gcs"
	ProviderCloudinary = "cloudinary"
)

var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// IsAllowedImageType reports whether contentType is one of the image formats the uploaders accept.
func IsAllowedImageType(contentType string) bool {
	_, ok := imageExtensions[normalizeContentType(contentType)]
	return ok
}

func extensionFor(contentType string) string {
	if ext, ok := imageExtensions[normalizeContentType(contentType)]; ok {
		return ext
	}
	return ".bin"
}

func normalizeContentType(contentType string) string {
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
