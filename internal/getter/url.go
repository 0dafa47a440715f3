package getter

import (
	"os"
	"path"
	"strings"
)

// IsLocal reports whether src names an existing regular file rather than a
// go-getter URL such as https://..., git::... or s3::....
func IsLocal(src string) bool {
	if isURL(src) {
		return false
	}

	info, err := os.Stat(src)

	return err == nil && info.Mode().IsRegular()
}

// isURL reports whether src carries a scheme or a forced getter.
func isURL(src string) bool {
	return strings.Contains(src, "::") || strings.Contains(src, "://")
}

// FileName returns the file name a source will be stored under, ignoring
// forced getters, query strings and go-getter subdirectory markers.
//
//	FileName("git::https://github.com/acme/ci//templates/report.tmpl?ref=v1")
//	→ "report.tmpl"
func FileName(src string) string {
	if _, rest, ok := strings.Cut(src, "::"); ok {
		src = rest
	}

	if i := strings.IndexByte(src, '?'); i >= 0 {
		src = src[:i]
	}

	name := path.Base(strings.TrimRight(src, "/"))
	if name == "." || name == "/" || name == "" {
		return "template.tmpl"
	}

	return name
}
