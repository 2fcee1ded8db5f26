// Package analysis provides the advisory checks run on a complaint before moderation.
// It includes the completeness heuristic shown to moderators and the validator that
// lists what a record still lacks. Neither blocks submission.
package analysis

import (
	"strings"
	"unicode/utf8"

	"complaintbot/backend/internal/config"
	"complaintbot/backend/internal/models"
)

// Issue codes reported by Validate, rendered through the localization catalog.
const (
	IssueMissingName      = "issue_missing_name"
	IssueMissingContact   = "issue_missing_contact"
	IssueMissingDate      = "issue_missing_date"
	IssueMissingLocation  = "issue_missing_location"
	IssueShortDescription = "issue_short_description"
	IssueInvalidRating    = "issue_invalid_rating"
)

// AutoAssessScore returns the raw completeness score of a record.
func AutoAssessScore(c *models.Complaint) int {
	score := 0
	if length(c.SubjectName) > 5 {
		score++
	}
	if c.Contact != "" {
		score++
	}
	switch d := length(c.Description); {
	case d > 50:
		score += 2
	case d > 20:
		score++
	}
	if len(c.ViolationCategories) > 0 {
		score++
	}
	if length(c.Location) > 10 {
		score++
	}
	return score
}

// AutoAssess labels how detailed a record is.
func AutoAssess(c *models.Complaint) models.Assessment {
	switch score := AutoAssessScore(c); {
	case score >= 5:
		return models.AssessmentDetailed
	case score >= 3:
		return models.AssessmentSuperficial
	default:
		return models.AssessmentInsufficient
	}
}

// Validate lists the problems a moderator should look at.
func Validate(c *models.Complaint) models.Validation {
	var issues []string
	if strings.TrimSpace(c.SubjectName) == "" {
		issues = append(issues, IssueMissingName)
	}
	if strings.TrimSpace(c.Contact) == "" {
		issues = append(issues, IssueMissingContact)
	}
	if strings.TrimSpace(c.IncidentDate) == "" {
		issues = append(issues, IssueMissingDate)
	}
	if strings.TrimSpace(c.Location) == "" {
		issues = append(issues, IssueMissingLocation)
	}
	if length(strings.TrimSpace(c.Description)) < config.MinDescriptionLength {
		issues = append(issues, IssueShortDescription)
	}
	if r, ok := c.RatingValue(); !ok || r < config.MinRating || r > config.MaxRating {
		issues = append(issues, IssueInvalidRating)
	}
	return models.Validation{Complete: len(issues) == 0, Issues: issues}
}

func length(s string) int {
	return utf8.RuneCountInString(s)
}
