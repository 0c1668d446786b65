package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri")
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// SecureFilename returns a version of name that is safe to use on any file system:
// ASCII only, no path separators, words joined with "_", no leading dots.
// The result may be empty.
func SecureFilename(name string) string {
	name = RemoveDiacritics(name)
	name = strings.NewReplacer("/", " ", "\\", " ").Replace(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// Extension returns the lowercased extension of name, without the dot
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// HasExtension checks name's extension against a list of lowercased extensions (without dots)
func HasExtension(name string, allowed []string) bool {
	if !strings.Contains(name, ".") {
		return false
	}
	ext := Extension(name)
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
