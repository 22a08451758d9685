package storage

import "strings"

// ExtensionFor derives a file extension from a MIME type using a fixed
// precedence table. Client-supplied filenames are never trusted for
// this.
func ExtensionFor(mimeType string) string {
	if mimeType == "" {
		return "webm"
	}

	m := strings.ToLower(mimeType)

	switch {
	case strings.Contains(m, "mp4"):
		return "mp4"
	case strings.Contains(m, "jpeg"), strings.Contains(m, "jpg"):
		return "jpg"
	case strings.Contains(m, "png"):
		return "png"
	case strings.Contains(m, "webm"):
		return "webm"
	case strings.Contains(m, "matroska"), strings.Contains(m, "mkv"):
		return "mkv"
	case strings.HasPrefix(m, "image/"):
		return "jpg"
	case strings.HasPrefix(m, "video/"):
		return "webm"
	default:
		return "webm"
	}
}
