package filesystem

import (
	"mime"
	"path/filepath"
	"strings"
)

// ResolvePath converts a file:// URI to a local path. Bare paths pass
// through unchanged.
func ResolvePath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		return strings.TrimPrefix(uri, "file://")
	}
	return uri
}

// scanTypes covers scan formats that the platform MIME table may not know.
var scanTypes = map[string]string{
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
}

// DetectMIMEType returns the content type for a file name, without
// parameters. Unknown extensions yield application/octet-stream.
func DetectMIMEType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := scanTypes[ext]; ok {
		return t
	}
	if ext == "" {
		return "application/octet-stream"
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return "application/octet-stream"
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

// isHidden reports whether any element of path starts with a dot.
// "." and ".." are not hidden.
func isHidden(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == filepath.Separator }) {
		if part != "." && part != ".." && strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
