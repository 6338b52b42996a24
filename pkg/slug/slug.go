// Package slug derives stable, URL-safe identifiers from product names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLen caps generated identifiers. Longer results are cut at a hyphen
// boundary where possible.
const MaxLen = 64

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Letters that do not decompose into a base letter plus a combining mark.
var foldReplacer = strings.NewReplacer(
	"ı", "i", "ß", "ss", "æ", "ae", "ø", "o", "ł", "l", "đ", "d", "þ", "th",
)

// Generate joins parts with hyphens and reduces the result to lowercase ASCII
// letters, digits and single hyphens:
//
//	Generate("Güneş Gözlüğü", "XL") == "gunes-gozlugu-xl"
//
// It returns "" when nothing alphanumeric remains.
func Generate(parts ...string) string {
	s := strings.ToLower(strings.Join(parts, " "))
	s = foldReplacer.Replace(s)

	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err == nil {
		s = folded
	}

	s = strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
	if len(s) > MaxLen {
		s = s[:MaxLen]
		if i := strings.LastIndexByte(s, '-'); i > MaxLen/2 {
			s = s[:i]
		}
		s = strings.TrimRight(s, "-")
	}
	return s
}
