// Package textproc cleans, normalizes and scores free-text complaint content.
//
// Sanitize composes four stages: profanity removal, aggression softening,
// normalization and a length clamp. Every stage is idempotent and so is the
// composition, which lets moderators re-run it on already cleaned text.
package textproc

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Ellipsis terminates clamped text.
const Ellipsis = "..."

// Stage is one step of the pipeline.
type Stage struct {
	Name  string
	Apply func(string) string
}

// Stages returns the text stages in order. The clamp depends on a caller
// supplied maximum and is applied separately by Sanitize.
func Stages() []Stage {
	return []Stage{
		{Name: "profanity", Apply: RemoveProfanity},
		{Name: "aggression", Apply: SoftenAggression},
		{Name: "normalize", Apply: Normalize},
	}
}

// Diagnostics describes what Sanitize did to a text.
type Diagnostics struct {
	Before         Toxicity
	After          Toxicity
	OriginalLength int
	CleanedLength  int
	ChangedBy      []string
	Suggestions    []string
}

// Result is the output of Sanitize.
type Result struct {
	Text        string
	Diagnostics Diagnostics
}

// maxPasses bounds the fixed-point loop. Removing whitespace before
// punctuation can join runs like "! !" that the softening stage only
// collapses on the next pass.
const maxPasses = 4

// Sanitize runs the full pipeline with the given maximum length in characters.
func Sanitize(text string, max int) Result {
	diag := Diagnostics{
		Before:         Score(text),
		OriginalLength: utf8.RuneCountInString(text),
		Suggestions:    Suggest(text),
	}

	out := text
	for pass := 0; pass < maxPasses; pass++ {
		next := out
		for _, st := range Stages() {
			applied := st.Apply(next)
			if applied != next && pass == 0 {
				diag.ChangedBy = append(diag.ChangedBy, st.Name)
			}
			next = applied
		}
		if next == out {
			break
		}
		out = next
	}

	clamped := Clamp(out, max)
	if clamped != out {
		diag.ChangedBy = append(diag.ChangedBy, "clamp")
	}

	diag.After = Score(clamped)
	diag.CleanedLength = utf8.RuneCountInString(clamped)
	return Result{Text: clamped, Diagnostics: diag}
}

// RemoveProfanity replaces flagged words, their inflections and masked
// spellings with RedactionToken.
func RemoveProfanity(text string) string {
	out := maskedRe.ReplaceAllString(text, "${1}"+RedactionToken)
	return wordRe.ReplaceAllStringFunc(out, func(w string) string {
		if isProfane(w) {
			return RedactionToken
		}
		return w
	})
}

var (
	exclamationRun = regexp.MustCompile(`!{2,}`)
	letterRun      = regexp.MustCompile(`\p{L}+`)
)

// SoftenAggression swaps aggressive words for neutral phrases, collapses
// repeated exclamation marks and re-cases shouting.
func SoftenAggression(text string) string {
	out := wordRe.ReplaceAllStringFunc(text, func(w string) string {
		if repl, ok := softened(w); ok {
			return repl
		}
		return w
	})
	out = exclamationRun.ReplaceAllString(out, "!")
	return letterRun.ReplaceAllStringFunc(out, func(w string) string {
		if !isShouting(w) {
			return w
		}
		r, size := utf8.DecodeRuneInString(w)
		return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	})
}

// isShouting reports whether w is a letter run longer than three characters
// with every letter upper-case. Shorter runs are treated as acronyms.
func isShouting(w string) bool {
	if utf8.RuneCountInString(w) <= 3 {
		return false
	}
	for _, r := range w {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

const punctuation = ",.!?;:"

var (
	spaceRun         = regexp.MustCompile(`[\s\p{Z}]+`)
	spaceBeforePunct = regexp.MustCompile(`[\s\p{Z}]+([,.!?;:])`)
	dotRun           = regexp.MustCompile(`\.{2,}`)
	questionRun      = regexp.MustCompile(`\?{2,}`)
	commaRun         = regexp.MustCompile(`,{2,}`)
)

// Normalize fixes whitespace and punctuation.
func Normalize(text string) string {
	out := spaceRun.ReplaceAllString(text, " ")
	out = spaceBeforePunct.ReplaceAllString(out, "$1")
	out = dotRun.ReplaceAllString(out, Ellipsis)
	out = questionRun.ReplaceAllString(out, "?")
	out = commaRun.ReplaceAllString(out, ",")
	out = spaceAfterPunct(out)
	return strings.TrimSpace(out)
}

// spaceAfterPunct puts exactly one space after every run of punctuation that
// is followed by text. Separators inside numbers (12.05, 7,5, 10:30) and
// punctuation followed by a closing bracket or quote are left alone.
func spaceAfterPunct(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text) + 8)

	for i := 0; i < len(runes); {
		if !strings.ContainsRune(punctuation, runes[i]) {
			b.WriteRune(runes[i])
			i++
			continue
		}
		start := i
		for i < len(runes) && strings.ContainsRune(punctuation, runes[i]) {
			i++
		}
		b.WriteString(string(runes[start:i]))
		if i == len(runes) {
			break
		}
		next := runes[i]
		switch {
		case unicode.IsSpace(next) || unicode.Is(unicode.Z, next):
		case strings.ContainsRune(")]}»\"'”’", next):
		case i-start == 1 && start > 0 && unicode.IsDigit(runes[start-1]) && unicode.IsDigit(next) &&
			strings.ContainsRune(".,:", runes[start]):
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Clamp truncates text longer than max characters to exactly max characters
// ending with Ellipsis. The kept part is cut back to the last complete word
// and padded with hyphens so that normalization cannot fold the tail into the
// ellipsis and no partial word is left behind.
func Clamp(text string, max int) string {
	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	if max <= len(Ellipsis) {
		return Ellipsis[:max]
	}

	n := max - len(Ellipsis)
	end := n
	if isWordRune(runes[n-1]) && isWordRune(runes[n]) {
		// cut landed inside a word
		for end > 0 && isWordRune(runes[end-1]) {
			end--
		}
	}
	for end > 0 && !isWordRune(runes[end-1]) {
		end--
	}

	var b strings.Builder
	b.WriteString(string(runes[:end]))
	b.WriteString(strings.Repeat("-", n-end))
	b.WriteString(Ellipsis)
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}
