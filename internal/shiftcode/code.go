// Package shiftcode validates and locates SHiFT codes: five groups of five
// alphanumeric characters joined by hyphens, e.g. ABCDE-12345-FGHIJ-67890-KLMNO.
package shiftcode

import (
	"regexp"
	"strings"
)

// Length is the length of a normalized code
const Length = 5*5 + 4

var (
	codeRegex  = regexp.MustCompile(`^[A-Z0-9]{5}(?:-[A-Z0-9]{5}){4}$`)
	tokenRegex = regexp.MustCompile(`[A-Za-z0-9-]+`)
)

// Token is a candidate found in a piece of text
type Token struct {
	Value  string
	Offset int // byte offset of Value in the scanned text
}

// Normalize trims surrounding whitespace and upper-cases the token
func Normalize(token string) string {
	return strings.ToUpper(strings.TrimSpace(token))
}

// IsValid reports whether the normalized token is exactly one code
func IsValid(token string) bool {
	normalized := Normalize(token)
	return len(normalized) == Length && codeRegex.MatchString(normalized)
}

// Tokens splits text into runs of alphanumerics and hyphens.
// A code glued to other characters of that class stays part of a longer run.
func Tokens(text string) []Token {
	indexes := tokenRegex.FindAllStringIndex(text, -1)
	tokens := make([]Token, 0, len(indexes))
	for _, idx := range indexes {
		tokens = append(tokens, Token{Value: text[idx[0]:idx[1]], Offset: idx[0]})
	}
	return tokens
}

// Scan returns the valid codes in text, normalized, in order of appearance
func Scan(text string) []Token {
	var codes []Token
	for _, token := range Tokens(text) {
		if IsValid(token.Value) {
			codes = append(codes, Token{Value: Normalize(token.Value), Offset: token.Offset})
		}
	}
	return codes
}
