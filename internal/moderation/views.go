package moderation

import (
	"strings"
	"unicode"

	"complaintbot/backend/internal/analysis"
	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/render"
)

// Hashtag turns a tag label into "#Word_Word": characters other than letters,
// digits and spaces are dropped and the remaining words joined with "_".
func Hashtag(tag string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, tag)
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return ""
	}
	return "#" + strings.Join(words, "_")
}

// Hashtags maps every violation category to its hashtag, skipping empty results.
func Hashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if h := Hashtag(t); h != "" {
			out = append(out, h)
		}
	}
	return out
}

// Choice ids: "adm:<action>:<record>", "edit:<field|finish|cancel>:<record>"
// and "edit:pos:<index|manual>" for the position keyboard.
const (
	prefixAdmin = "adm"
	prefixEdit  = "edit"

	actApprove      = "approve"
	actRejectSilent = "rejectnr"
	actRejectReason = "rejectwr"
	actEdit         = "edit"

	editFinish = "finish"
	editCancel = "cancel"
	editPos    = "pos"
)

// IsAction reports whether a choice id belongs to the moderation workflow.
func IsAction(choice string) bool {
	return strings.HasPrefix(choice, prefixAdmin+":") || strings.HasPrefix(choice, prefixEdit+":")
}

func actionID(parts ...string) string { return strings.Join(parts, ":") }

// AdminChoices is the moderation choice set of a pending record.
func (w *Workflow) AdminChoices(recordID string) models.ChoiceSet {
	return models.ChoiceSet{
		{ID: actionID(prefixAdmin, actApprove, recordID), Label: w.r.T("btn_approve")},
		{ID: actionID(prefixAdmin, actRejectSilent, recordID), Label: w.r.T("btn_reject")},
		{ID: actionID(prefixAdmin, actRejectReason, recordID), Label: w.r.T("btn_reject_reason")},
		{ID: actionID(prefixAdmin, actEdit, recordID), Label: w.r.T("btn_edit")},
	}
}

func (w *Workflow) editChoices(recordID string) models.ChoiceSet {
	set := make(models.ChoiceSet, 0, len(models.EditableFields)+2)
	for _, f := range models.EditableFields {
		set = append(set, models.Choice{ID: actionID(prefixEdit, string(f), recordID), Label: w.r.FieldLabel(f)})
	}
	return append(set,
		models.Choice{ID: actionID(prefixEdit, editFinish, recordID), Label: w.r.T("btn_finish_edit")},
		models.Choice{ID: actionID(prefixEdit, editCancel, recordID), Label: w.r.T("btn_cancel_edit")},
	)
}

// moderationView builds the administrator view. Validation is recomputed so
// the view always reflects the current field values.
func (w *Workflow) moderationView(rec *models.Complaint) models.ModerationView {
	return models.ModerationView{
		AdminID:    w.adminID,
		Record:     rec,
		Validation: analysis.Validate(rec),
		Choices:    w.AdminChoices(rec.ID),
	}
}

// fieldValue is the current value of a field as shown in the edit prompt.
func fieldValue(r *render.Renderer, c *models.Complaint, f models.EditField) string {
	var v string
	switch f {
	case models.FieldName:
		v = c.SubjectName
	case models.FieldPosition:
		v = c.Position
	case models.FieldContact:
		v = c.Contact
	case models.FieldDate:
		v = c.IncidentDate
	case models.FieldLocation:
		v = c.Location
	case models.FieldDescription:
		v = c.Description
	case models.FieldRating:
		return r.Rating(c)
	}
	if v == "" {
		return r.T("not_set")
	}
	return v
}

func (w *Workflow) publicView(rec *models.Complaint) models.PublicView {
	pub := rec.Clone()
	pub.ReporterID = 0
	return models.PublicView{
		RecordID:     rec.ID,
		Record:       pub,
		Hashtags:     Hashtags(rec.ViolationCategories),
		ObjectionURL: w.objectionURL,
	}
}
