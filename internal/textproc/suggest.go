package textproc

import (
	"strings"
	"unicode/utf8"
)

// Suggestion codes, rendered by the localization catalog.
const (
	SuggestMoreDetail   = "suggest_more_detail"
	SuggestPunctuation  = "suggest_punctuation"
	SuggestBeSpecific   = "suggest_be_specific"
	SuggestFewerExclaim = "suggest_fewer_exclamations"
)

var vagueWords = []string{"что-то", "как-то", "где-то", "когда-то", "кто-то"}

// Suggest returns advisory hints for improving a description. It never
// changes the text.
func Suggest(text string) []string {
	var out []string
	if utf8.RuneCountInString(strings.TrimSpace(text)) < 20 {
		out = append(out, SuggestMoreDetail)
	}
	if !strings.ContainsAny(text, ".!?") {
		out = append(out, SuggestPunctuation)
	}
	lower := strings.ToLower(text)
	for _, w := range vagueWords {
		if strings.Contains(lower, w) {
			out = append(out, SuggestBeSpecific)
			break
		}
	}
	if strings.Count(text, "!") > 3 {
		out = append(out, SuggestFewerExclaim)
	}
	return out
}
