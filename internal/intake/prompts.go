package intake

import (
	"errors"
	"strconv"
	"strings"

	"complaintbot/backend/internal/analysis"
	"complaintbot/backend/internal/config"
	"complaintbot/backend/internal/models"
)

// Choice ids are "<prefix>:<arg>".
const (
	prefixPosition  = "pos"
	prefixViolation = "viol"
	prefixAspect    = "asp"
	prefixFired     = "fired"
	prefixFiles     = "files"
	prefixConfirm   = "confirm"

	argManual   = "manual"
	argContinue = "continue"
	argAdd      = "add"
	argSkip     = "skip"
	argSubmit   = "submit"
	argDraft    = "draft"

	selectedMark = "✅ "
)

// Menu and draft choices are routed outside the step machine.
const (
	ChoiceMenuNew       = "menu:new"
	ChoiceMenuDrafts    = "menu:drafts"
	ChoiceMenuInfo      = "menu:info"
	ChoiceMenuHelp      = "menu:help"
	ChoiceDraftContinue = "draft:continue"
	ChoiceDraftDelete   = "draft:delete"
)

func choiceID(prefix, arg string) string { return prefix + ":" + arg }

func splitChoice(id string) (prefix, arg string) {
	prefix, arg, _ = strings.Cut(id, ":")
	return prefix, arg
}

var firedChoices = []struct {
	arg    string
	key    string
	status models.FiredStatus
}{
	{"yes", "btn_fired_yes", models.FiredYes},
	{"no", "btn_fired_no", models.FiredNo},
	{"unknown", "btn_fired_unknown", models.FiredUnknown},
}

// PositionChoices is the position keyboard with its manual-entry escape.
// Moderation reuses it with its own prefix.
func PositionChoices(prefix, manualLabel string) models.ChoiceSet {
	set := make(models.ChoiceSet, 0, len(config.Positions)+1)
	for i, p := range config.Positions {
		set = append(set, models.Choice{ID: choiceID(prefix, strconv.Itoa(i)), Label: p})
	}
	return append(set, models.Choice{ID: choiceID(prefix, argManual), Label: manualLabel})
}

func (m *Machine) toggles(prefix string, options, selected []string) models.ChoiceSet {
	set := make(models.ChoiceSet, 0, len(options)+1)
	for i, opt := range options {
		label := opt
		if models.Has(selected, opt) {
			label = selectedMark + opt
		}
		set = append(set, models.Choice{ID: choiceID(prefix, strconv.Itoa(i)), Label: label})
	}
	return append(set, models.Choice{ID: choiceID(prefix, argContinue), Label: m.r.T("btn_continue")})
}

func (m *Machine) withHeader(state models.IntakeState, body string) string {
	if n := StepNumber(state); n > 0 {
		return m.r.StepHeader(n) + "\n\n" + body
	}
	return body
}

// prompt asks for the input of the session's current state.
func (m *Machine) prompt(sess *models.Session) models.Prompt {
	p := models.Prompt{TargetID: sess.ReporterID}
	rec := sess.Record

	var body string
	switch sess.State {
	case models.StateAwaitingPhoto:
		body = m.r.T("ask_photo")
	case models.StateAwaitingName:
		body = m.r.T("ask_name")
	case models.StateAwaitingPosition:
		if sess.ManualPosition {
			body = m.r.T("ask_position_manual")
			break
		}
		body = m.r.T("ask_position")
		p.Choices = PositionChoices(prefixPosition, m.r.T("btn_manual_position"))
		p.Columns = 2
	case models.StateAwaitingContact:
		body = m.r.T("ask_contact")
	case models.StateAwaitingDate:
		body = m.r.T("ask_date")
	case models.StateAwaitingLocation:
		body = m.r.T("ask_location")
	case models.StateAwaitingDescription:
		body = m.r.T("ask_description", config.MinDescriptionLength, m.descriptionMax)
	case models.StateAwaitingViolationCategories:
		body = m.r.T("ask_violations")
		p.Choices = m.toggles(prefixViolation, config.ViolationCategories, rec.ViolationCategories)
		p.Columns = 2
	case models.StateAwaitingPositiveAspects:
		body = m.r.T("ask_positives")
		p.Choices = m.toggles(prefixAspect, config.PositiveAspects, rec.PositiveAspects)
		p.Columns = 2
	case models.StateAwaitingFiredStatus:
		body = m.r.T("ask_fired")
		for _, fc := range firedChoices {
			p.Choices = append(p.Choices, models.Choice{ID: choiceID(prefixFired, fc.arg), Label: m.r.T(fc.key)})
		}
		p.Columns = 3
	case models.StateAwaitingRating:
		body = m.r.T("ask_rating", config.MinRating, config.MaxRating)
	case models.StateAwaitingFiles:
		body = m.r.T("ask_files")
		p.Choices = models.ChoiceSet{
			{ID: choiceID(prefixFiles, argAdd), Label: m.r.T("btn_add_files")},
			{ID: choiceID(prefixFiles, argSkip), Label: m.r.T("btn_skip_files")},
		}
	case models.StateAwaitingConfirmation:
		body = m.r.Confirmation(rec, analysis.Validate(rec))
		p.Choices = models.ChoiceSet{
			{ID: choiceID(prefixConfirm, argSubmit), Label: m.r.T("btn_confirm")},
			{ID: choiceID(prefixConfirm, argDraft), Label: m.r.T("btn_save_draft")},
		}
	}
	p.Message = m.withHeader(sess.State, body)
	return p
}

func (m *Machine) text(target int64, key string, args ...any) models.Prompt {
	return models.Prompt{TargetID: target, Message: m.r.T(key, args...)}
}

// errorPrompt renders a field error, or the generic selection error.
func (m *Machine) errorPrompt(target int64, err error) models.Prompt {
	var fe *FieldError
	if errors.As(err, &fe) {
		return m.text(target, fe.Key, fe.Args...)
	}
	return m.text(target, "selection_error")
}
