// Package normalize cleans up free text typed by people in chat replies
// and admin requests before it is validated or stored.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Email trims whitespace and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Text trims the string and collapses internal runs of whitespace
// (including newlines) to single spaces.
func Text(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Title collapses whitespace and capitalizes each word, lowercasing the rest
// of the word ("jANE  doe" -> "Jane Doe").
func Title(s string) string {
	return cases.Title(language.Und).String(strings.ToLower(Text(s)))
}

// Upper collapses whitespace and uppercases the string.
func Upper(s string) string {
	return strings.ToUpper(Text(s))
}

// Length returns the number of characters (runes) in s.
func Length(s string) int {
	return len([]rune(s))
}

// DigitCount returns the number of decimal digit characters in s.
func DigitCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// Words lowercases s and splits it into words, dropping punctuation
// except apostrophes and slashes ("N/A", "don't").
func Words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' || r == '/' || r == '’')
	})
}
