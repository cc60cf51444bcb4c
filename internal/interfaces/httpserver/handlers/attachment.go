package handlers

import (
	"mime"
	"path/filepath"
)

// attachmentDisposition builds a Content-Disposition value with the
// filename escaped, since names come from user input. An unusable name
// falls back to the base of the stored key.
func attachmentDisposition(name, fallbackKey string) string {
	if name == "" {
		name = filepath.Base(fallbackKey)
	}
	if name == "" || name == "." || name == "/" {
		name = "download"
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
