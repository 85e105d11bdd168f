// Package filename converts arbitrary note titles into filesystem-safe base
// names and classifies image names as auto-generated or meaningful.
package filename

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// illegalChars removes characters that are invalid in file names on common
// filesystems.
var illegalChars = strings.NewReplacer(
	`\`, "", "/", "", ":", "", "*", "", "?", "", `"`, "", "<", "", ">", "", "|", "",
)

// Sanitize converts name into a filesystem-safe base name. It is pure and
// total: any input yields a string without error, and an empty result is a
// signal callers must check before using it as a file name.
//
// Non-aggressive mode strips illegal characters, collapses whitespace runs to
// a single space, and trims the ends, preserving case and non-ASCII letters.
// Aggressive mode additionally strips diacritics, drops everything that is
// not an ASCII letter, digit, space, underscore, or hyphen, joins words with
// single underscores, and lowercases the result.
func Sanitize(name string, aggressive bool) string {
	s := illegalChars.Replace(name)

	if !aggressive {
		return strings.Join(strings.Fields(s), " ")
	}

	s = stripDiacritics(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	s = strings.Join(strings.Fields(b.String()), "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")
	return strings.ToLower(s)
}

// stripDiacritics decomposes s and drops combining marks, so "café" becomes
// "cafe". On transform failure the input is returned unchanged.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// genericNameRules flag base names that look auto-generated: paste/screenshot
// defaults, digit-suffixed generic stems, clipboard dumps, and bare numeric
// timestamps. Order matters only for readability; any match wins.
var genericNameRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^pasted[ _-]?image`),
	regexp.MustCompile(`(?i)^screen[ _-]?shot`),
	regexp.MustCompile(`(?i)^(?:image|img|photo|picture|pic)[ _-]?\d+$`),
	regexp.MustCompile(`(?i)^clipboard(?:[ _-]?\d+)?$`),
	regexp.MustCompile(`^\d{8,}$`),
}

// IsGeneric reports whether base (a file name without extension) matches a
// known auto-generated naming pattern. The flag gates default selection in
// bulk operations; it never blocks an explicit rename.
func IsGeneric(base string) bool {
	base = strings.TrimSpace(base)
	for _, re := range genericNameRules {
		if re.MatchString(base) {
			return true
		}
	}
	return false
}

// timestampTokens maps Moment-style pattern tokens to Go layout fragments.
// Longer tokens are listed before their prefixes so "YYYY" wins over "YY".
var timestampTokens = strings.NewReplacer(
	"YYYY", "2006",
	"YY", "06",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

// DefaultTimestampPattern is used when no pattern is configured.
const DefaultTimestampPattern = "YYYYMMDDHHmmss"

// FormatTimestamp renders t according to a Moment-style token pattern
// (YYYY, YY, MM, DD, HH, mm, ss). Unknown characters pass through verbatim.
func FormatTimestamp(pattern string, t time.Time) string {
	if pattern == "" {
		pattern = DefaultTimestampPattern
	}
	return t.Format(timestampTokens.Replace(pattern))
}
