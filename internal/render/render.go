// Package render turns records and annotations into localized message text.
// Intake, moderation and the Telegram transport all format records through it,
// so a field is shown the same way to the reporter, the moderator and the channel.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"complaintbot/backend/internal/config"
	"complaintbot/backend/internal/models"
)

// Translator looks up a message by language and key.
type Translator interface {
	GetString(lang, key string) string
}

// Renderer formats messages in one language.
type Renderer struct {
	tr   Translator
	lang string
}

// New creates a Renderer for lang.
func New(tr Translator, lang string) *Renderer {
	return &Renderer{tr: tr, lang: lang}
}

// Lang returns the language the renderer writes in.
func (r *Renderer) Lang() string { return r.lang }

// T returns the message for key, formatted with args when any are given.
func (r *Renderer) T(key string, args ...any) string {
	s := r.tr.GetString(r.lang, key)
	if len(args) == 0 {
		return s
	}
	return fmt.Sprintf(s, args...)
}

// StepHeader returns the "Step N/M" title of an intake step.
func (r *Renderer) StepHeader(step int) string {
	return r.T("step_header", step, config.TotalSteps)
}

// FieldLabel returns the label of an editable field.
func (r *Renderer) FieldLabel(f models.EditField) string {
	return r.T("label_" + string(f))
}

// Fired returns the display value of a termination status.
func (r *Renderer) Fired(f models.FiredStatus) string {
	switch f {
	case models.FiredYes:
		return r.T("fired_yes")
	case models.FiredNo:
		return r.T("fired_no")
	case models.FiredUnknown:
		return r.T("fired_unknown")
	}
	return r.T("not_set")
}

// Assessment returns the display value of an auto-assessment label.
func (r *Renderer) Assessment(a models.Assessment) string {
	switch a {
	case models.AssessmentDetailed:
		return r.T("assessment_detailed")
	case models.AssessmentSuperficial:
		return r.T("assessment_superficial")
	case models.AssessmentInsufficient:
		return r.T("assessment_insufficient")
	}
	return r.T("not_set")
}

// Rating returns "N/10" or the not-set placeholder.
func (r *Renderer) Rating(c *models.Complaint) string {
	v, ok := c.RatingValue()
	if !ok {
		return r.T("not_set")
	}
	return strconv.Itoa(v) + "/" + strconv.Itoa(config.MaxRating)
}

// Tags joins a tag set for display.
func (r *Renderer) Tags(tags []string) string {
	if len(tags) == 0 {
		return r.T("none")
	}
	return strings.Join(tags, ", ")
}

func (r *Renderer) value(s string) string {
	if strings.TrimSpace(s) == "" {
		return r.T("not_set")
	}
	return s
}

func (r *Renderer) line(b *strings.Builder, key, value string) {
	b.WriteString(r.T(key))
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteByte('\n')
}

// Summary lists every field of the record, description last.
func (r *Renderer) Summary(c *models.Complaint) string {
	var b strings.Builder
	r.line(&b, "label_name", r.value(c.SubjectName))
	r.line(&b, "label_position", r.value(c.Position))
	r.line(&b, "label_contact", r.value(c.Contact))
	r.line(&b, "label_date", r.value(c.IncidentDate))
	r.line(&b, "label_location", r.value(c.Location))
	r.line(&b, "label_violations", r.Tags(c.ViolationCategories))
	r.line(&b, "label_positives", r.Tags(c.PositiveAspects))
	r.line(&b, "label_fired", r.Fired(c.FiredStatus))
	r.line(&b, "label_rating", r.Rating(c))
	r.line(&b, "label_files", strconv.Itoa(len(c.Attachments)))
	b.WriteString(r.T("label_description"))
	b.WriteString(":\n")
	b.WriteString(r.value(c.Description))
	return b.String()
}

// Validation renders the validator verdict.
func (r *Renderer) Validation(v models.Validation) string {
	if v.Complete {
		return r.T("validation_ok")
	}
	var b strings.Builder
	b.WriteString(r.T("validation_header"))
	for _, issue := range v.Issues {
		b.WriteString("\n• ")
		b.WriteString(r.T(issue))
	}
	return b.String()
}

// Suggestions renders writing hints, one per line.
func (r *Renderer) Suggestions(codes []string) string {
	if len(codes) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(r.T("suggestions_header"))
	for _, code := range codes {
		b.WriteString("\n• ")
		b.WriteString(r.T(code))
	}
	return b.String()
}

// Confirmation is the text of the final intake step.
func (r *Renderer) Confirmation(c *models.Complaint, v models.Validation) string {
	return strings.Join([]string{
		r.T("confirm_header"),
		r.Summary(c),
		r.Validation(v),
		r.T("label_assessment") + ": " + r.Assessment(c.Assessment),
		r.T("consent"),
	}, "\n\n")
}

// DraftPreview is the short form shown in the drafts view.
func (r *Renderer) DraftPreview(c *models.Complaint) string {
	desc := []rune(c.Description)
	if len(desc) > 100 {
		desc = append(desc[:100], []rune("...")...)
	}
	return r.T("draft_summary",
		c.CreatedAt.Format(config.DateLayout),
		r.value(c.SubjectName),
		r.value(c.Position),
		r.value(string(desc)),
	)
}

// Moderation is the administrator's view of a pending record.
func (r *Renderer) Moderation(v models.ModerationView) string {
	c := v.Record
	return strings.Join([]string{
		r.T("admin_new_complaint", c.ID),
		r.Summary(c),
		r.Validation(v.Validation),
		r.T("label_assessment") + ": " + r.Assessment(c.Assessment),
		r.T("label_toxicity") + ": " + strconv.FormatFloat(c.ToxicityScore, 'f', 1, 64),
	}, "\n\n")
}

// Public is the channel post of an approved record.
func (r *Renderer) Public(v models.PublicView) string {
	parts := []string{r.T("public_header"), r.Summary(v.Record)}
	if len(v.Hashtags) > 0 {
		parts = append(parts, strings.Join(v.Hashtags, " "))
	}
	return strings.Join(parts, "\n\n")
}
