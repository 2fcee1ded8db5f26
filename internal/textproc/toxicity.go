package textproc

import (
	"fmt"
	"strings"
)

// Toxicity is a heuristic score in [0,1].
type Toxicity struct {
	IsToxic bool
	Score   float64
	Issues  []string
}

// Score weighs lexicon hits found anywhere in the text. Weights are kept in
// tenths so that the 0.5 threshold is compared exactly.
func Score(text string) Toxicity {
	lower := strings.ToLower(text)
	var tenths int
	var issues []string

	var profane int
	for _, term := range flaggedTerms {
		if strings.Contains(lower, term) {
			profane++
		}
	}
	if profane > 0 {
		tenths += 3 * profane
		issues = append(issues, fmt.Sprintf("profanity: %d", profane))
	}

	var aggressive int
	for _, w := range aggressiveWords {
		if strings.Contains(lower, w) {
			aggressive++
		}
	}
	if aggressive > 0 {
		tenths += 2 * aggressive
		issues = append(issues, fmt.Sprintf("aggressive words: %d", aggressive))
	}

	var shouting int
	for _, w := range letterRun.FindAllString(text, -1) {
		if isShouting(w) {
			shouting++
		}
	}
	if shouting > 2 {
		tenths++
		issues = append(issues, "excessive capitals")
	}

	if strings.Contains(text, "!!!") {
		tenths++
		issues = append(issues, "excessive exclamation marks")
	}

	if tenths > 10 {
		tenths = 10
	}
	return Toxicity{
		IsToxic: tenths > 5,
		Score:   float64(tenths) / 10,
		Issues:  issues,
	}
}
