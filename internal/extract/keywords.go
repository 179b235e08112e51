package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultKeywordTemplate asks for a comma separated keyword list. The
// {context_str} and {keyword_range} placeholders are substituted per chunk.
const DefaultKeywordTemplate = "{context_str}. Give {keyword_range} unique keywords for this\ndocument. Format as comma separated. Keywords: "

// BuildKeywordPrompt fills template with the chunk text and the requested
// keyword count. minCount <= 0 or minCount >= maxCount asks for exactly
// maxCount keywords.
func BuildKeywordPrompt(template, text string, minCount, maxCount int) string {
	if strings.TrimSpace(template) == "" {
		template = DefaultKeywordTemplate
	}
	kwRange := fmt.Sprintf("%d", maxCount)
	if minCount > 0 && minCount < maxCount {
		kwRange = fmt.Sprintf("%d to %d", minCount, maxCount)
	}
	return strings.NewReplacer(
		"{context_str}", text,
		"{keyword_range}", kwRange,
	).Replace(template)
}

var (
	keywordSplitRe  = regexp.MustCompile(`[,;\n，、；]+`)
	keywordBulletRe = regexp.MustCompile(`^(?:[-*•]+|\d+[.)])\s*`)
	keywordLabelRe  = regexp.MustCompile(`(?i)^\s*keywords?\s*:\s*`)
)

var injectionPattern = regexp.MustCompile(
	`(?i)(ignore\s+(previous|all|above)|system\s*prompt|you\s+are\s+now|` +
		`act\s+as\s+|pretend\s+|forget\s+(everything|all)|override|` +
		`new\s+instructions)`,
)

// maxKeywordLen rejects runaway items such as a whole sentence echoed back.
const maxKeywordLen = 64

// ParseKeywords splits a model reply into at most maxCount distinct keywords.
// A blank reply yields an empty, non-nil list. maxCount <= 0 means no cap.
func ParseKeywords(reply string, maxCount int) []string {
	keywords := []string{}
	seen := make(map[string]bool)

	reply = keywordLabelRe.ReplaceAllString(strings.TrimSpace(reply), "")
	for _, item := range keywordSplitRe.Split(reply, -1) {
		kw := keywordBulletRe.ReplaceAllString(strings.TrimSpace(item), "")
		kw = strings.Trim(kw, "\"'`“”‘’. ")
		kw = strings.Join(strings.Fields(kw), " ")
		if kw == "" || len([]rune(kw)) > maxKeywordLen || injectionPattern.MatchString(kw) {
			continue
		}
		key := strings.ToLower(kw)
		if seen[key] {
			continue
		}
		seen[key] = true
		keywords = append(keywords, kw)
		if maxCount > 0 && len(keywords) == maxCount {
			break
		}
	}
	return keywords
}
