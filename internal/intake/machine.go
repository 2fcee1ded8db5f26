// Package intake drives a reporter through the step-by-step collection of a
// complaint, from the subject's photo to the final confirmation.
package intake

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"complaintbot/backend/internal/analysis"
	"complaintbot/backend/internal/config"
	"complaintbot/backend/internal/metrics"
	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/render"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Store is the part of the session store the machine works with.
type Store interface {
	LockReporter(reporterID int64) (unlock func())
	Start(reporterID int64) (*models.Session, bool)
	Get(reporterID int64) (*models.Session, bool)
	End(reporterID int64) (*models.Session, bool)
	SaveDraft(reporterID int64) (*models.Complaint, error)
	LoadDraft(reporterID int64) (*models.Session, error)
	Draft(reporterID int64) (*models.Complaint, bool)
	DeleteDraft(reporterID int64) bool
}

// Submitter receives confirmed records. It is called without any session lock held.
type Submitter interface {
	Submit(ctx context.Context, rec *models.Complaint)
}

// Machine is the intake state machine.
type Machine struct {
	store          Store
	submitter      Submitter
	r              *render.Renderer
	log            *zap.Logger
	now            func() time.Time
	descriptionMax int
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock overrides the time source used for date tokens.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithDescriptionMax overrides the description length limit.
func WithDescriptionMax(n int) Option {
	return func(m *Machine) { m.descriptionMax = n }
}

// NewMachine creates the intake state machine.
func NewMachine(store Store, submitter Submitter, r *render.Renderer, log *zap.Logger, opts ...Option) *Machine {
	m := &Machine{
		store:          store,
		submitter:      submitter,
		r:              r,
		log:            log,
		now:            time.Now,
		descriptionMax: config.MaxDescriptionLength,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a new session, replacing any session or draft of the reporter.
func (m *Machine) Start(ctx context.Context, reporterID int64) models.Outcome {
	unlock := m.store.LockReporter(reporterID)
	defer unlock()

	sess, discarded := m.store.Start(reporterID)
	sess.State = DeriveState(sess.Record)
	m.log.Info("intake started", zap.Int64("reporter_id", reporterID), zap.String("record_id", sess.Record.ID))

	out := models.OK()
	if discarded {
		out = out.Append(m.text(reporterID, "draft_discarded"))
	}
	return out.Append(m.prompt(sess))
}

// ResumeDraft turns the reporter's draft back into a session at the first unset field.
func (m *Machine) ResumeDraft(ctx context.Context, reporterID int64) models.Outcome {
	unlock := m.store.LockReporter(reporterID)
	defer unlock()

	sess, err := m.store.LoadDraft(reporterID)
	if err != nil {
		return models.Fail(err, m.text(reporterID, "no_drafts"))
	}
	sess.State = DeriveState(sess.Record)
	metrics.Drafts.WithLabelValues("resumed").Inc()
	m.log.Info("draft resumed",
		zap.Int64("reporter_id", reporterID),
		zap.String("record_id", sess.Record.ID),
		zap.Stringer("state", sess.State),
	)
	return models.OK(m.text(reporterID, "draft_resumed"), m.prompt(sess))
}

// DiscardDraft deletes the reporter's draft.
func (m *Machine) DiscardDraft(ctx context.Context, reporterID int64) models.Outcome {
	unlock := m.store.LockReporter(reporterID)
	defer unlock()

	if !m.store.DeleteDraft(reporterID) {
		err := fmt.Errorf("discard draft for %d: %w", reporterID, models.ErrDraftNotFound)
		return models.Fail(err, m.text(reporterID, "no_drafts"))
	}
	metrics.Drafts.WithLabelValues("deleted").Inc()
	return models.OK(m.text(reporterID, "draft_deleted"))
}

// ShowDrafts describes the reporter's draft and offers to continue or delete it.
func (m *Machine) ShowDrafts(ctx context.Context, reporterID int64) models.Outcome {
	draft, ok := m.store.Draft(reporterID)
	if !ok {
		return models.OK(m.text(reporterID, "no_drafts"))
	}
	return models.OK(models.Prompt{
		TargetID: reporterID,
		Message:  m.r.DraftPreview(draft),
		Choices: models.ChoiceSet{
			{ID: ChoiceDraftContinue, Label: m.r.T("btn_draft_continue")},
			{ID: ChoiceDraftDelete, Label: m.r.T("btn_draft_delete")},
			{ID: ChoiceMenuNew, Label: m.r.T("btn_new")},
		},
	})
}

// SaveDraft parks the active session from any step.
func (m *Machine) SaveDraft(ctx context.Context, reporterID int64) models.Outcome {
	unlock := m.store.LockReporter(reporterID)
	defer unlock()
	return m.saveDraft(reporterID)
}

func (m *Machine) saveDraft(reporterID int64) models.Outcome {
	rec, err := m.store.SaveDraft(reporterID)
	if err != nil {
		return models.Fail(err, m.text(reporterID, "no_session"))
	}
	metrics.Drafts.WithLabelValues("saved").Inc()
	m.log.Info("draft saved", zap.Int64("reporter_id", reporterID), zap.String("record_id", rec.ID))
	return models.OK(m.text(reporterID, "draft_saved"))
}

// Handle applies one reporter event to the active session.
func (m *Machine) Handle(ctx context.Context, ev models.Event) models.Outcome {
	unlock := m.store.LockReporter(ev.ActorID)
	out, submitted := m.apply(ev)
	unlock()

	if submitted != nil {
		metrics.Submissions.Inc()
		m.log.Info("complaint submitted",
			zap.Int64("reporter_id", ev.ActorID),
			zap.String("record_id", submitted.ID),
			zap.String("assessment", string(submitted.Assessment)),
		)
		m.submitter.Submit(ctx, submitted)
	}
	return out
}

// apply runs under the reporter lock. A non-nil record means the session
// ended with a submission.
func (m *Machine) apply(ev models.Event) (models.Outcome, *models.Complaint) {
	sess, ok := m.store.Get(ev.ActorID)
	if !ok {
		err := fmt.Errorf("event from %d: %w", ev.ActorID, models.ErrSessionNotFound)
		return models.Fail(err, m.text(ev.ActorID, "no_session")), nil
	}

	switch sess.State {
	case models.StateAwaitingPhoto:
		return m.onPhoto(sess, ev), nil
	case models.StateAwaitingName:
		return m.onText(sess, ev, func(text string) error {
			v, err := ParseName(text)
			if err == nil {
				sess.Record.SubjectName = v
			}
			return err
		}), nil
	case models.StateAwaitingPosition:
		return m.onPosition(sess, ev), nil
	case models.StateAwaitingContact:
		return m.onText(sess, ev, func(text string) error {
			v, err := ParseContact(text)
			if err == nil {
				sess.Record.Contact = v
			}
			return err
		}), nil
	case models.StateAwaitingDate:
		return m.onText(sess, ev, func(text string) error {
			v, err := ParseDate(text, m.now())
			if err == nil {
				sess.Record.IncidentDate = v
			}
			return err
		}), nil
	case models.StateAwaitingLocation:
		return m.onText(sess, ev, func(text string) error {
			v, err := ParseLocation(text)
			if err == nil {
				sess.Record.Location = v
			}
			return err
		}), nil
	case models.StateAwaitingDescription:
		return m.onDescription(sess, ev), nil
	case models.StateAwaitingViolationCategories:
		return m.onToggle(sess, ev, prefixViolation, config.ViolationCategories, &sess.Record.ViolationCategories, true), nil
	case models.StateAwaitingPositiveAspects:
		return m.onToggle(sess, ev, prefixAspect, config.PositiveAspects, &sess.Record.PositiveAspects, false), nil
	case models.StateAwaitingFiredStatus:
		return m.onFired(sess, ev), nil
	case models.StateAwaitingRating:
		return m.onRating(sess, ev), nil
	case models.StateAwaitingFiles:
		return m.onFiles(sess, ev), nil
	case models.StateAwaitingConfirmation:
		return m.onConfirm(sess, ev)
	}

	err := fmt.Errorf("reporter %d in state %v: %w", ev.ActorID, sess.State, models.ErrSelection)
	return models.Fail(err, m.text(ev.ActorID, "selection_error")), nil
}

// advance moves to the next state and prompts for it.
func (m *Machine) advance(sess *models.Session, prompts ...models.Prompt) models.Outcome {
	sess.State++
	return models.OK(append(prompts, m.prompt(sess))...)
}

// reject keeps the state and re-prompts after the error.
func (m *Machine) reject(sess *models.Session, err error) models.Outcome {
	return models.Fail(err, m.errorPrompt(sess.ReporterID, err), m.prompt(sess))
}

// wrongShape answers an event of a kind the current state does not accept.
func (m *Machine) wrongShape(sess *models.Session, ev models.Event, key string) models.Outcome {
	if ev.Kind == models.EventSelection {
		err := fmt.Errorf("choice %q in %v: %w", ev.Choice, sess.State, models.ErrSelection)
		return models.Fail(err, m.text(sess.ReporterID, "selection_error"))
	}
	return m.reject(sess, invalid(key))
}

func (m *Machine) onPhoto(sess *models.Session, ev models.Event) models.Outcome {
	if ev.Kind != models.EventMedia || ev.Media == nil || ev.Media.Kind != models.AttachmentPhoto {
		return m.wrongShape(sess, ev, "err_photo_expected")
	}
	sess.Record.PhotoFileID = ev.Media.FileID
	return m.advance(sess)
}

// onText handles the plain text steps; set stores the parsed value and
// returns the validation error, if any.
func (m *Machine) onText(sess *models.Session, ev models.Event, set func(string) error) models.Outcome {
	if ev.Kind != models.EventText {
		return m.wrongShape(sess, ev, "err_text_expected")
	}
	if err := set(ev.Text); err != nil {
		return m.reject(sess, err)
	}
	return m.advance(sess)
}

func (m *Machine) onPosition(sess *models.Session, ev models.Event) models.Outcome {
	switch ev.Kind {
	case models.EventSelection:
		prefix, arg := splitChoice(ev.Choice)
		if prefix != prefixPosition {
			return m.wrongShape(sess, ev, "")
		}
		if arg == argManual {
			sess.ManualPosition = true
			return models.OK(m.prompt(sess))
		}
		pos, err := ParsePositionChoice(arg)
		if err != nil {
			m.log.Warn("bad position choice", zap.Int64("reporter_id", sess.ReporterID), zap.String("choice", ev.Choice))
			return models.Fail(err, m.text(sess.ReporterID, "selection_error"))
		}
		sess.Record.Position = pos
		sess.ManualPosition = false
		return m.advance(sess)
	case models.EventText:
		if !sess.ManualPosition {
			return m.reject(sess, invalid("err_position_choose"))
		}
		pos, err := ParseManualPosition(ev.Text)
		if err != nil {
			return m.reject(sess, err)
		}
		sess.Record.Position = pos
		sess.ManualPosition = false
		return m.advance(sess)
	}
	return m.wrongShape(sess, ev, "err_position_choose")
}

func (m *Machine) onDescription(sess *models.Session, ev models.Event) models.Outcome {
	if ev.Kind != models.EventText {
		return m.wrongShape(sess, ev, "err_text_expected")
	}
	res, err := ParseDescription(ev.Text, m.descriptionMax)
	if err != nil {
		return m.reject(sess, err)
	}
	sess.Record.Description = res.Text
	sess.Record.ToxicityScore = res.Diagnostics.Before.Score
	metrics.Toxicity.Observe(res.Diagnostics.Before.Score)
	if len(res.Diagnostics.ChangedBy) > 0 {
		m.log.Info("description sanitized",
			zap.Int64("reporter_id", sess.ReporterID),
			zap.Strings("stages", res.Diagnostics.ChangedBy),
			zap.Float64("toxicity_before", res.Diagnostics.Before.Score),
			zap.Float64("toxicity_after", res.Diagnostics.After.Score),
		)
	}

	var prompts []models.Prompt
	if hints := m.r.Suggestions(res.Diagnostics.Suggestions); hints != "" {
		prompts = append(prompts, models.Prompt{TargetID: sess.ReporterID, Message: hints})
	}
	return m.advance(sess, prompts...)
}

// onToggle implements the multi-select steps. requireOne blocks "continue"
// while the set is empty.
func (m *Machine) onToggle(sess *models.Session, ev models.Event, prefix string, options []string, set *pq.StringArray, requireOne bool) models.Outcome {
	if ev.Kind != models.EventSelection {
		return m.reject(sess, invalid("err_choose_option"))
	}
	p, arg := splitChoice(ev.Choice)
	if p != prefix {
		return m.wrongShape(sess, ev, "")
	}
	if arg == argContinue {
		if requireOne && len(*set) == 0 {
			return models.Fail(invalid("err_violations_empty"), m.text(sess.ReporterID, "err_violations_empty"))
		}
		return m.advance(sess)
	}

	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 || i >= len(options) {
		err = fmt.Errorf("toggle %q: %w", ev.Choice, models.ErrSelection)
		m.log.Warn("bad toggle choice", zap.Int64("reporter_id", sess.ReporterID), zap.String("choice", ev.Choice))
		return models.Fail(err, m.text(sess.ReporterID, "selection_error"))
	}
	*set = models.Toggle(*set, options[i])

	p2 := m.prompt(sess)
	p2.EditMessageID = ev.MessageID
	return models.OK(p2)
}

func (m *Machine) onFired(sess *models.Session, ev models.Event) models.Outcome {
	if ev.Kind != models.EventSelection {
		return m.reject(sess, invalid("err_choose_option"))
	}
	p, arg := splitChoice(ev.Choice)
	if p == prefixFired {
		for _, fc := range firedChoices {
			if fc.arg == arg {
				sess.Record.FiredStatus = fc.status
				return m.advance(sess)
			}
		}
	}
	return m.wrongShape(sess, ev, "")
}

func (m *Machine) onRating(sess *models.Session, ev models.Event) models.Outcome {
	if ev.Kind != models.EventText {
		return m.wrongShape(sess, ev, "err_text_expected")
	}
	v, err := ParseRating(ev.Text)
	if err != nil {
		return m.reject(sess, err)
	}
	sess.Record.Rating = &v
	sess.Record.Assessment = analysis.AutoAssess(sess.Record)
	return m.advance(sess)
}

func (m *Machine) onFiles(sess *models.Session, ev models.Event) models.Outcome {
	switch ev.Kind {
	case models.EventMedia:
		if ev.Media == nil {
			return m.reject(sess, invalid("err_files_expected"))
		}
		sess.Record.Attachments = append(sess.Record.Attachments, models.Attachment{
			Kind:     ev.Media.Kind,
			FileID:   ev.Media.FileID,
			FileName: ev.Media.FileName,
			Caption:  ev.Text,
		})
		return models.OK(m.text(sess.ReporterID, "file_added", len(sess.Record.Attachments)))
	case models.EventText:
		if IsDone(ev.Text) {
			return m.advance(sess)
		}
		return models.Fail(invalid("err_files_expected"), m.text(sess.ReporterID, "err_files_expected"))
	case models.EventSelection:
		switch ev.Choice {
		case choiceID(prefixFiles, argSkip):
			return m.advance(sess)
		case choiceID(prefixFiles, argAdd):
			return models.OK(m.text(sess.ReporterID, "send_files"))
		}
	}
	return m.wrongShape(sess, ev, "err_files_expected")
}

func (m *Machine) onConfirm(sess *models.Session, ev models.Event) (models.Outcome, *models.Complaint) {
	if ev.Kind != models.EventSelection {
		return m.reject(sess, invalid("err_choose_option")), nil
	}
	switch ev.Choice {
	case choiceID(prefixConfirm, argSubmit):
		m.store.End(sess.ReporterID)
		return models.OK(m.text(sess.ReporterID, "submitted")), sess.Record
	case choiceID(prefixConfirm, argDraft):
		return m.saveDraft(sess.ReporterID), nil
	}
	return m.wrongShape(sess, ev, ""), nil
}
