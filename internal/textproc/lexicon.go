package textproc

import (
	"regexp"
	"strings"
)

// RedactionToken replaces every profanity match.
const RedactionToken = "[удалено]"

// profanityStems match a whole word that starts with the stem, so inflected
// forms are caught as the stem plus its trailing word continuation.
var profanityStems = []string{
	"бля", "сука", "сучк", "сучар", "сукин", "сцук", "пизд", "пезд",
	"хуй", "хуе", "хуё", "хуя", "ебат", "ебал", "ебан", "ёбан", "ебну", "ебуч", "уеб", "уёб", "долбоеб",
	"говн", "дерьм", "срат", "засран", "пидор", "пидар", "мудак", "мудил",
	"сволоч", "тварь", "твари", "падла", "падлу",
	"бл4дь", "с4ка", "п1зд", "х4й", "еб4ть",
}

// profanityWords only match as complete words. They are short or are prefixes
// of ordinary words, so no continuation is allowed.
var profanityWords = []string{
	"блд", "пздц", "пзд", "ебн", "ебл", "ебет", "ебут", "гвн", "дрм", "срет",
	"пдр", "мдк", "кзл", "свл", "твр", "пдл", "урд", "хер", "хрен", "гад",
	"урод", "козел", "козёл", "сук", "педик",
}

// obfuscatedSpellings contain masking symbols and are matched literally.
var obfuscatedSpellings = []string{
	"б***ь", "с***а", "п***а", "х***", "е***ь",
	"бл*дь", "с*ка", "п*зда", "х*й", "еб*ть",
	"бл@дь", "с@ка", "п@зда", "х@й", "еб@ть",
	"b***", "bl***", "s***", "p***", "x***", "h***", "e***",
}

// maskedPatterns catch a target letter, one to three masking symbols and
// another target letter.
var maskedPatterns = []string{
	`[бb][*@#$%^&!]{1,3}[яa]`,
	`[сs][*@#$%^&!]{1,3}[кk]`,
	`[пp][*@#$%^&!]{1,3}[зz]`,
	`[хh][*@#$%^&!]{1,3}[йy]`,
	`[еe][*@#$%^&!]{1,3}[аa]`,
}

// aggressiveWords are counted by the toxicity score.
var aggressiveWords = []string{
	"убью", "убить", "убийство", "убийца",
	"ненавижу", "ненависть", "ненавистный",
	"идиот", "дурак", "дура", "кретин",
	"тупой", "тупая", "тупость",
	"долбоеб", "придурок", "дебил", "имбецил", "олигофрен",
	"психопат", "маньяк", "уродина", "уродливый",
	"мразь", "мерзавец", "подонок", "негодяй",
	"скотина", "скот", "животное", "зверь",
}

type softening struct {
	word        string
	stem        bool
	replacement string
}

// softenings are checked in order; the first match wins.
var softenings = []softening{
	{"убью", false, "очень недоволен"},
	{"убить", false, "крайне недоволен"},
	{"убийство", false, "крайне негативное поведение"},
	{"ненавижу", false, "недоволен"},
	{"ненависть", false, "недовольство"},
	{"идиот", true, "некомпетентный человек"},
	{"дурак", true, "некомпетентный человек"},
	{"кретин", true, "некомпетентный человек"},
	{"тупой", true, "некомпетентный"},
	{"тупая", false, "некомпетентная"},
	{"тупость", false, "некомпетентность"},
	{"придурок", true, "некомпетентный человек"},
	{"дебил", true, "некомпетентный человек"},
	{"имбецил", true, "некомпетентный человек"},
	{"олигофрен", true, "некомпетентный человек"},
	{"психопат", true, "неадекватный человек"},
	{"маньяк", true, "неадекватный человек"},
	{"уродина", false, "неприятный человек"},
	{"уродливый", false, "неприятный"},
	{"мразь", false, "неприятный человек"},
	{"мерзавец", true, "неприятный человек"},
	{"подонок", true, "неприятный человек"},
	{"негодяй", true, "неприятный человек"},
	{"скотина", false, "неприятный человек"},
	{"скот", false, "неприятный человек"},
	{"животное", false, "неприятный человек"},
	{"зверь", false, "неприятный человек"},
}

const wordClass = `[\p{L}\p{N}_]`

var (
	wordRe = regexp.MustCompile(wordClass + `+`)

	// maskedRe consumes one preceding non-word rune (or the start of text) as
	// the left boundary and the trailing continuation as the right one.
	maskedRe = regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}_])(?:` + maskedAlternation() + `)` + wordClass + `*`)

	// flaggedTerms is every lexicon entry, lower-cased and deduplicated, for
	// substring scoring.
	flaggedTerms = dedupe(profanityStems, profanityWords, obfuscatedSpellings)
)

func maskedAlternation() string {
	parts := make([]string, 0, len(obfuscatedSpellings)+len(maskedPatterns))
	for _, s := range obfuscatedSpellings {
		parts = append(parts, regexp.QuoteMeta(s))
	}
	parts = append(parts, maskedPatterns...)
	return strings.Join(parts, "|")
}

func dedupe(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, w := range list {
			w = strings.ToLower(w)
			if !seen[w] {
				seen[w] = true
				out = append(out, w)
			}
		}
	}
	return out
}

// isProfane reports whether a single word token is in the lexicon.
func isProfane(word string) bool {
	lw := strings.ToLower(word)
	for _, w := range profanityWords {
		if lw == w {
			return true
		}
	}
	for _, s := range profanityStems {
		if strings.HasPrefix(lw, s) {
			return true
		}
	}
	return false
}

// softened returns the neutral replacement for an aggressive word token.
func softened(word string) (string, bool) {
	lw := strings.ToLower(word)
	for _, s := range softenings {
		if lw == s.word || (s.stem && strings.HasPrefix(lw, s.word)) {
			return s.replacement, true
		}
	}
	return "", false
}
