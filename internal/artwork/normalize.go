package artwork

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// dumpTagRegex matches No-Intro/GoodTools style tags: "(USA)", "(Rev 1)", "[!]", "[b1]".
var dumpTagRegex = regexp.MustCompile(`\s*[\(\[][^\)\]]*[\)\]]`)

var romanNumeralRegex = regexp.MustCompile(`(?i) (ii|iii|iv|v|vi|vii|viii|ix)\b`)

var romanToArabic = map[string]string{
	"II": "2", "III": "3", "IV": "4", "V": "5",
	"VI": "6", "VII": "7", "VIII": "8", "IX": "9",
}

// NormalizeRomanNumerals converts Roman numerals II-IX to Arabic numbers.
// Standalone "I" and "X" and numerals at the start of the string are left alone.
func NormalizeRomanNumerals(s string) string {
	return romanNumeralRegex.ReplaceAllStringFunc(s, func(match string) string {
		roman := strings.TrimSpace(match)
		if arabic, ok := romanToArabic[strings.ToUpper(roman)]; ok {
			return " " + arabic
		}
		return match
	})
}

// CleanTitle normalizes a game title for matching.
// Strips dump tags, accents, punctuation and leading articles.
func CleanTitle(title string) string {
	s := dumpTagRegex.ReplaceAllString(title, "")
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "_", " ")

	s = NormalizeRomanNumerals(s)
	s = removeAccents(s)

	s = strings.ReplaceAll(s, "&", " and ")
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "'", "")
	s = strings.ReplaceAll(s, ".", " ")

	// "Legend of Zelda, The: A Link to the Past"
	s = strings.ReplaceAll(s, ", the", "")

	parts := strings.Split(s, ":")
	for i, part := range parts {
		parts[i] = stripLeadingArticle(strings.TrimSpace(part))
	}
	s = strings.Join(parts, " ")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// DisplayName derives a human-readable name from a payload filename.
// The extension is dropped, underscores become spaces and the result is NFC.
func DisplayName(filename string) string {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return base
	}
	return norm.NFC.String(name)
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

func stripLeadingArticle(s string) string {
	for _, art := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(s, art) {
			return strings.TrimPrefix(s, art)
		}
	}
	return s
}
