package catalog

import (
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.Und)

// DeriveTitle turns a file or directory name into a display title:
// extension and track-number prefix stripped, separators spaced, words
// title-cased.
func DeriveTitle(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	_, rest := splitNumberPrefix(base)
	rest = strings.NewReplacer("_", " ", "-", " ").Replace(rest)
	rest = strings.Join(strings.Fields(rest), " ")
	if rest == "" {
		return base
	}
	return titleCaser.String(rest)
}

// splitNumberPrefix detects leading track numbers like "01 ", "01_", "1.",
// or "03 - " and returns the number plus the remainder.
func splitNumberPrefix(name string) (int, string) {
	trimmed := strings.TrimSpace(name)
	digits := 0
	for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits > 3 {
		return 0, trimmed
	}
	number, err := strconv.Atoi(trimmed[:digits])
	if err != nil {
		return 0, trimmed
	}
	rest := trimmed[digits:]
	separators := 0
	for separators < len(rest) {
		switch rest[separators] {
		case ' ', '_', '-', '.':
			separators++
		default:
			goto done
		}
	}
done:
	if separators == 0 {
		// Bare digits glued to a word ("01intro") are not a track prefix.
		return 0, trimmed
	}
	remainder := rest[separators:]
	if remainder == "" {
		return number, trimmed
	}
	return number, remainder
}

// Slugify builds a path-safe lowercase identifier from a display name.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}
