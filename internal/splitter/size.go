package splitter

import (
	"strings"
	"unicode/utf8"
)

// CharCount is the size measure used for every chunk bound: characters,
// not bytes or tokens.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

// EstimateTokens gives a rough token count (~1.33 tokens per word). It is
// reported alongside chunks and never used for sizing.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
