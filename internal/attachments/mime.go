package attachments

import (
	"path"
	"strings"
)

// Fixed extension to MIME table for attachment content. Anything outside the
// table falls back to a generic binary type.
var extensionMIME = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".svg":  "image/svg+xml",
	".heic": "image/heic",
}

const defaultMIME = "application/octet-stream"

// defaultImageMIME is the final fallback for remote fetches whose
// content-type and extension both fail to identify the image.
const defaultImageMIME = "image/png"

// mimeFromExtension guesses a MIME type from a location's file extension.
func mimeFromExtension(location string) (string, bool) {
	ext := strings.ToLower(path.Ext(location))
	mime, ok := extensionMIME[ext]
	return mime, ok
}

// isImageMIME reports whether a content-type header value names an image.
func isImageMIME(contentType string) bool {
	return strings.HasPrefix(strings.TrimSpace(strings.ToLower(contentType)), "image/")
}
