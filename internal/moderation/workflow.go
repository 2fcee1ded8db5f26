// Package moderation holds the queue of submitted records and the single
// administrator's review workflow: approve, reject with or without a reason,
// and field-by-field editing.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"complaintbot/backend/internal/analysis"
	"complaintbot/backend/internal/config"
	"complaintbot/backend/internal/intake"
	"complaintbot/backend/internal/metrics"
	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/render"
	"complaintbot/backend/internal/session"
	"complaintbot/backend/internal/textproc"

	"go.uber.org/zap"
)

// Store is the part of the session store that keeps administrator contexts.
type Store interface {
	LockAdmin(adminID int64) (unlock func())
	OpenEditing(adminID int64, recordID string) *models.EditingSession
	Editing(adminID int64) (*models.EditingSession, bool)
	CloseEditing(adminID int64)
	OpenRejection(adminID int64, recordID string) *models.RejectionSession
	Rejection(adminID int64) (*models.RejectionSession, bool)
	CloseRejection(adminID int64)
}

// AdminSink shows a record to the administrator.
type AdminSink interface {
	DeliverModeration(ctx context.Context, view models.ModerationView) error
}

// Publisher posts an approved record to the public channel.
type Publisher interface {
	Publish(ctx context.Context, view models.PublicView) error
}

// Notifier sends a plain message to a reporter.
type Notifier interface {
	Notify(ctx context.Context, reporterID int64, message string) error
}

// Archive persists records and their decisions.
type Archive interface {
	Save(ctx context.Context, rec *models.Complaint) error
}

// Feed receives queue changes for live dashboards.
type Feed interface {
	Emit(ctx context.Context, ev models.FeedEvent)
}

// Sinks are the workflow's external collaborators. Archive and Feed are optional.
type Sinks struct {
	Admin     AdminSink
	Publisher Publisher
	Notifier  Notifier
	Archive   Archive
	Feed      Feed
}

// effect is sink work deferred until every lock is released.
type effect func(ctx context.Context)

// Workflow is the moderation state machine over the pending queue.
type Workflow struct {
	store   Store
	sinks   Sinks
	r       *render.Renderer
	log     *zap.Logger
	adminID int64

	objectionURL   string
	descriptionMax int
	now            func() time.Time

	mu      sync.Mutex
	pending map[string]*models.Complaint
	records *session.KeyLock[string]
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithClock overrides the time source for date tokens and decision times.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithDescriptionMax overrides the description length limit.
func WithDescriptionMax(n int) Option {
	return func(w *Workflow) { w.descriptionMax = n }
}

// WithObjectionURL sets the link attached to public posts.
func WithObjectionURL(url string) Option {
	return func(w *Workflow) { w.objectionURL = url }
}

// New creates a Workflow for the given administrator.
func New(store Store, sinks Sinks, adminID int64, r *render.Renderer, log *zap.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		store:          store,
		sinks:          sinks,
		r:              r,
		log:            log,
		adminID:        adminID,
		descriptionMax: config.MaxDescriptionLength,
		now:            time.Now,
		pending:        make(map[string]*models.Complaint),
		records:        session.NewKeyLock[string](),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// AdminID returns the administrator the workflow serves.
func (w *Workflow) AdminID() int64 { return w.adminID }

// Submit queues a confirmed record and shows it to the administrator.
func (w *Workflow) Submit(ctx context.Context, rec *models.Complaint) {
	rec.Decision = models.DecisionPending
	snapshot := rec.Clone()

	w.mu.Lock()
	w.pending[rec.ID] = rec
	w.mu.Unlock()

	w.log.Info("record queued", zap.String("record_id", rec.ID))
	w.deliver(ctx, snapshot)
	w.archive(ctx, snapshot)
	w.emit(ctx, models.FeedQueued, snapshot)
}

// Pending returns copies of the queued records, oldest first.
func (w *Workflow) Pending() []*models.Complaint {
	w.mu.Lock()
	ids := make([]string, 0, len(w.pending))
	for id := range w.pending {
		ids = append(ids, id)
	}
	w.mu.Unlock()

	out := make([]*models.Complaint, 0, len(ids))
	for _, id := range ids {
		if rec, ok := w.snapshot(id); ok {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Record returns a copy of one queued record.
func (w *Workflow) Record(id string) (*models.Complaint, bool) {
	return w.snapshot(id)
}

// Len is the number of queued records.
func (w *Workflow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// HasContext reports whether the administrator has an open editing or rejection context.
func (w *Workflow) HasContext(adminID int64) bool {
	if _, ok := w.store.Editing(adminID); ok {
		return true
	}
	_, ok := w.store.Rejection(adminID)
	return ok
}

func (w *Workflow) exists(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[id]
	return ok
}

// withRecord runs fn on a queued record under its lock.
func (w *Workflow) withRecord(id string, fn func(*models.Complaint)) bool {
	unlock := w.records.Lock(id)
	defer unlock()

	w.mu.Lock()
	rec, ok := w.pending[id]
	w.mu.Unlock()
	if !ok {
		return false
	}
	fn(rec)
	return true
}

func (w *Workflow) snapshot(id string) (*models.Complaint, bool) {
	var cp *models.Complaint
	ok := w.withRecord(id, func(rec *models.Complaint) { cp = rec.Clone() })
	return cp, ok
}

// take removes a record from the queue. Only one caller can win.
func (w *Workflow) take(id string) (*models.Complaint, bool) {
	unlock := w.records.Lock(id)
	defer unlock()

	w.mu.Lock()
	defer w.mu.Unlock()
	rec, ok := w.pending[id]
	delete(w.pending, id)
	return rec, ok
}

// Approve publishes a record and removes it from the queue.
func (w *Workflow) Approve(ctx context.Context, recordID string) models.Outcome {
	rec, ok := w.take(recordID)
	if !ok {
		return w.notFound(recordID)
	}

	rec.Description = textproc.Sanitize(rec.Description, w.descriptionMax).Text
	w.resolve(rec, models.DecisionApproved, "")

	view := w.publicView(rec)
	if err := w.sinks.Publisher.Publish(ctx, view); err != nil {
		w.sinkFailed("publish", rec.ID, err)
	}
	w.archive(ctx, rec)
	w.emit(ctx, models.FeedApproved, rec)
	return models.OK(w.text("approved", shortID(rec.ID)))
}

// RejectNoReason rejects a record and tells the reporter with a fixed message.
func (w *Workflow) RejectNoReason(ctx context.Context, recordID string) models.Outcome {
	rec, ok := w.take(recordID)
	if !ok {
		return w.notFound(recordID)
	}
	w.resolve(rec, models.DecisionRejected, "")
	w.notify(ctx, rec, w.r.T("reject_notice"))
	w.archive(ctx, rec)
	w.emit(ctx, models.FeedRejected, rec)
	return models.OK(w.text("rejected", shortID(rec.ID)))
}

// BeginRejectWithReason waits for the administrator's next text as the reason.
func (w *Workflow) BeginRejectWithReason(ctx context.Context, adminID int64, recordID string) models.Outcome {
	if !w.exists(recordID) {
		return w.notFound(recordID)
	}
	unlock := w.store.LockAdmin(adminID)
	w.store.OpenRejection(adminID, recordID)
	unlock()
	return models.OK(w.text("ask_reject_reason"))
}

func (w *Workflow) rejectWithReason(adminID int64, rs *models.RejectionSession, reason string) (models.Outcome, effect) {
	if !w.exists(rs.RecordID) {
		w.store.CloseRejection(adminID)
		return w.notFound(rs.RecordID), nil
	}
	if strings.TrimSpace(reason) == "" {
		err := &intake.FieldError{Key: "err_empty"}
		return models.Fail(err, w.errorPrompt(err), w.text("ask_reject_reason")), nil
	}
	w.store.CloseRejection(adminID)
	rec, ok := w.take(rs.RecordID)
	if !ok {
		return w.notFound(rs.RecordID), nil
	}
	w.resolve(rec, models.DecisionRejected, reason)
	return models.OK(w.text("rejected", shortID(rec.ID))), func(ctx context.Context) {
		// The reason goes to the reporter exactly as typed.
		w.notify(ctx, rec, reason)
		w.archive(ctx, rec)
		w.emit(ctx, models.FeedRejected, rec)
	}
}

// BeginEdit opens an editing context and shows the field menu.
func (w *Workflow) BeginEdit(ctx context.Context, adminID int64, recordID string) models.Outcome {
	if !w.exists(recordID) {
		return w.notFound(recordID)
	}
	unlock := w.store.LockAdmin(adminID)
	w.store.OpenEditing(adminID, recordID)
	unlock()
	return models.OK(w.editMenu(recordID, "edit_menu"))
}

// SelectField scopes the open editing context to one field.
func (w *Workflow) SelectField(ctx context.Context, adminID int64, field models.EditField, recordID string) models.Outcome {
	unlock := w.store.LockAdmin(adminID)
	defer unlock()

	es, ok := w.store.Editing(adminID)
	if !ok || es.RecordID != recordID {
		return w.noContext(adminID)
	}
	rec, ok := w.snapshot(recordID)
	if !ok {
		w.store.CloseEditing(adminID)
		return w.notFound(recordID)
	}
	es.Field = field
	es.ManualPosition = false
	return models.OK(w.fieldPrompt(rec, field))
}

// FinishEdit closes the editing context and shows the updated record again.
func (w *Workflow) FinishEdit(ctx context.Context, adminID int64, recordID string) models.Outcome {
	rec, out, ok := w.closeEdit(adminID, recordID)
	if !ok {
		return out
	}
	w.deliver(ctx, rec)
	return models.OK(w.text("edit_finished"))
}

// CancelEdit closes the editing context. Fields committed during the pass stay committed.
func (w *Workflow) CancelEdit(ctx context.Context, adminID int64, recordID string) models.Outcome {
	_, out, ok := w.closeEdit(adminID, recordID)
	if !ok {
		return out
	}
	return models.OK(models.Prompt{
		TargetID: w.adminID,
		Message:  w.r.T("edit_cancelled"),
		Choices:  w.AdminChoices(recordID),
		Columns:  2,
	})
}

func (w *Workflow) closeEdit(adminID int64, recordID string) (*models.Complaint, models.Outcome, bool) {
	unlock := w.store.LockAdmin(adminID)
	defer unlock()

	es, ok := w.store.Editing(adminID)
	if !ok || es.RecordID != recordID {
		return nil, w.noContext(adminID), false
	}
	w.store.CloseEditing(adminID)
	rec, ok := w.snapshot(recordID)
	if !ok {
		return nil, w.notFound(recordID), false
	}
	return rec, models.Outcome{}, true
}

// editText applies a typed value to the selected field.
func (w *Workflow) editText(adminID int64, es *models.EditingSession, text string) (models.Outcome, effect) {
	var (
		apply func(*models.Complaint)
		err   error
	)
	if out, gone := w.staleEdit(adminID, es); gone {
		return out, nil
	}
	switch es.Field {
	case models.FieldNone:
		return models.Fail(&intake.FieldError{Key: "edit_choose_field"}, w.editMenu(es.RecordID, "edit_choose_field")), nil
	case models.FieldName:
		var v string
		v, err = intake.ParseName(text)
		apply = func(c *models.Complaint) { c.SubjectName = v }
	case models.FieldPosition:
		if !es.ManualPosition {
			err = &intake.FieldError{Key: "err_position_choose"}
			break
		}
		var v string
		v, err = intake.ParseManualPosition(text)
		apply = func(c *models.Complaint) { c.Position = v }
	case models.FieldContact:
		var v string
		v, err = intake.ParseContact(text)
		apply = func(c *models.Complaint) { c.Contact = v }
	case models.FieldDate:
		var v string
		v, err = intake.ParseDate(text, w.now())
		apply = func(c *models.Complaint) { c.IncidentDate = v }
	case models.FieldLocation:
		var v string
		v, err = intake.ParseLocation(text)
		apply = func(c *models.Complaint) { c.Location = v }
	case models.FieldDescription:
		res, perr := intake.ParseDescription(text, w.descriptionMax)
		err = perr
		apply = func(c *models.Complaint) {
			c.Description = res.Text
			c.ToxicityScore = res.Diagnostics.Before.Score
		}
	case models.FieldRating:
		var v int
		v, err = intake.ParseRating(text)
		apply = func(c *models.Complaint) {
			c.Rating = &v
			c.Assessment = analysis.AutoAssess(c)
		}
	}
	if err != nil {
		return models.Fail(err, w.errorPrompt(err)), nil
	}
	return w.commit(adminID, es, apply)
}

// selectPosition handles the position keyboard of an editing context.
func (w *Workflow) selectPosition(adminID int64, es *models.EditingSession, arg string) (models.Outcome, effect) {
	if out, gone := w.staleEdit(adminID, es); gone {
		return out, nil
	}
	if es.Field != models.FieldPosition {
		return w.selectionError(fmt.Errorf("position choice outside position edit: %w", models.ErrSelection)), nil
	}
	if arg == "manual" {
		es.ManualPosition = true
		return models.OK(w.text("ask_position_manual")), nil
	}
	pos, err := intake.ParsePositionChoice(arg)
	if err != nil {
		return w.selectionError(err), nil
	}
	return w.commit(adminID, es, func(c *models.Complaint) { c.Position = pos })
}

// staleEdit closes an editing context whose record has left the queue.
func (w *Workflow) staleEdit(adminID int64, es *models.EditingSession) (models.Outcome, bool) {
	if w.exists(es.RecordID) {
		return models.Outcome{}, false
	}
	w.store.CloseEditing(adminID)
	return w.notFound(es.RecordID), true
}

// commit writes one field under the record lock and returns to the field menu.
func (w *Workflow) commit(adminID int64, es *models.EditingSession, apply func(*models.Complaint)) (models.Outcome, effect) {
	var snapshot *models.Complaint
	ok := w.withRecord(es.RecordID, func(rec *models.Complaint) {
		apply(rec)
		snapshot = rec.Clone()
	})
	if !ok {
		w.store.CloseEditing(adminID)
		return w.notFound(es.RecordID), nil
	}

	label := w.r.FieldLabel(es.Field)
	w.log.Info("record field edited",
		zap.Int64("admin_id", adminID),
		zap.String("record_id", es.RecordID),
		zap.String("field", string(es.Field)),
	)
	es.Field = models.FieldNone
	es.ManualPosition = false

	out := models.OK(w.text("edit_saved", label), w.editMenu(es.RecordID, "edit_menu"))
	return out, func(ctx context.Context) { w.emit(ctx, models.FeedEdited, snapshot) }
}

// HandleText routes administrator text to the open rejection or editing context.
func (w *Workflow) HandleText(ctx context.Context, ev models.Event) models.Outcome {
	if ev.ActorID != w.adminID {
		return w.denied(ev.ActorID)
	}

	unlock := w.store.LockAdmin(ev.ActorID)
	var (
		out   models.Outcome
		after effect
	)
	rs, rejecting := w.store.Rejection(ev.ActorID)
	es, editing := w.store.Editing(ev.ActorID)
	switch {
	case !rejecting && !editing:
		out = w.noContext(ev.ActorID)
	case ev.Kind != models.EventText:
		err := &intake.FieldError{Key: "err_text_expected"}
		out = models.Fail(err, w.errorPrompt(err))
	case rejecting:
		out, after = w.rejectWithReason(ev.ActorID, rs, ev.Text)
	default:
		out, after = w.editText(ev.ActorID, es, ev.Text)
	}
	unlock()

	if after != nil {
		after(ctx)
	}
	return out
}

// HandleAction dispatches a moderation choice.
func (w *Workflow) HandleAction(ctx context.Context, ev models.Event) models.Outcome {
	if ev.ActorID != w.adminID {
		return w.denied(ev.ActorID)
	}
	prefix, act, target, err := parseAction(ev.Choice)
	if err != nil {
		return w.selectionError(err)
	}

	if prefix == prefixAdmin {
		switch act {
		case actApprove:
			return w.Approve(ctx, target)
		case actRejectSilent:
			return w.RejectNoReason(ctx, target)
		case actRejectReason:
			return w.BeginRejectWithReason(ctx, ev.ActorID, target)
		case actEdit:
			return w.BeginEdit(ctx, ev.ActorID, target)
		}
		return w.selectionError(fmt.Errorf("action %q: %w", ev.Choice, models.ErrSelection))
	}

	switch act {
	case editFinish:
		return w.FinishEdit(ctx, ev.ActorID, target)
	case editCancel:
		return w.CancelEdit(ctx, ev.ActorID, target)
	case editPos:
		unlock := w.store.LockAdmin(ev.ActorID)
		var (
			out   models.Outcome
			after effect
		)
		if es, ok := w.store.Editing(ev.ActorID); ok {
			out, after = w.selectPosition(ev.ActorID, es, target)
		} else {
			out = w.noContext(ev.ActorID)
		}
		unlock()
		if after != nil {
			after(ctx)
		}
		return out
	}
	field, ok := models.ParseEditField(act)
	if !ok {
		return w.selectionError(fmt.Errorf("edit field %q: %w", act, models.ErrSelection))
	}
	return w.SelectField(ctx, ev.ActorID, field, target)
}

func parseAction(choice string) (prefix, act, target string, err error) {
	parts := strings.Split(choice, ":")
	if len(parts) != 3 || parts[2] == "" || (parts[0] != prefixAdmin && parts[0] != prefixEdit) {
		return "", "", "", fmt.Errorf("action %q: %w", choice, models.ErrSelection)
	}
	return parts[0], parts[1], parts[2], nil
}

func (w *Workflow) resolve(rec *models.Complaint, d models.Decision, reason string) {
	now := w.now()
	rec.Decision = d
	rec.RejectReason = reason
	rec.ResolvedAt = &now
	metrics.Decisions.WithLabelValues(string(d)).Inc()
	w.log.Info("record resolved", zap.String("record_id", rec.ID), zap.String("decision", string(d)))
}

func (w *Workflow) deliver(ctx context.Context, rec *models.Complaint) {
	if err := w.sinks.Admin.DeliverModeration(ctx, w.moderationView(rec)); err != nil {
		w.sinkFailed("admin", rec.ID, err)
	}
}

func (w *Workflow) notify(ctx context.Context, rec *models.Complaint, message string) {
	if err := w.sinks.Notifier.Notify(ctx, rec.ReporterID, message); err != nil {
		w.sinkFailed("notify", rec.ID, err)
	}
}

func (w *Workflow) archive(ctx context.Context, rec *models.Complaint) {
	if w.sinks.Archive == nil {
		return
	}
	if err := w.sinks.Archive.Save(ctx, rec); err != nil {
		w.sinkFailed("archive", rec.ID, err)
	}
}

func (w *Workflow) emit(ctx context.Context, t models.FeedEventType, rec *models.Complaint) {
	if w.sinks.Feed == nil {
		return
	}
	w.sinks.Feed.Emit(ctx, models.FeedEvent{Type: t, RecordID: rec.ID, Record: rec})
}

func (w *Workflow) sinkFailed(sink, recordID string, err error) {
	metrics.SinkFailures.WithLabelValues(sink).Inc()
	w.log.Error("sink delivery failed", zap.String("sink", sink), zap.String("record_id", recordID), zap.Error(err))
}

func (w *Workflow) text(key string, args ...any) models.Prompt {
	return models.Prompt{TargetID: w.adminID, Message: w.r.T(key, args...)}
}

func (w *Workflow) editMenu(recordID, key string) models.Prompt {
	return models.Prompt{
		TargetID: w.adminID,
		Message:  w.r.T(key),
		Choices:  w.editChoices(recordID),
		Columns:  2,
	}
}

func (w *Workflow) fieldPrompt(rec *models.Complaint, field models.EditField) models.Prompt {
	p := w.text("edit_ask_field", w.r.FieldLabel(field), fieldValue(w.r, rec, field))
	if field == models.FieldPosition {
		p.Choices = intake.PositionChoices(prefixEdit+":"+editPos, w.r.T("btn_manual_position"))
		p.Columns = 2
	}
	return p
}

func (w *Workflow) errorPrompt(err error) models.Prompt {
	var fe *intake.FieldError
	if errors.As(err, &fe) {
		return w.text(fe.Key, fe.Args...)
	}
	return w.text("selection_error")
}

func (w *Workflow) notFound(recordID string) models.Outcome {
	err := fmt.Errorf("record %s: %w", recordID, models.ErrRecordNotFound)
	return models.Fail(err, w.text("record_not_found"))
}

func (w *Workflow) noContext(adminID int64) models.Outcome {
	err := fmt.Errorf("admin %d: %w", adminID, models.ErrSessionNotFound)
	return models.Fail(err, w.text("no_admin_context"))
}

func (w *Workflow) selectionError(err error) models.Outcome {
	w.log.Warn("bad moderation choice", zap.Error(err))
	return models.Fail(err, w.text("selection_error"))
}

func (w *Workflow) denied(actorID int64) models.Outcome {
	w.log.Warn("moderation action from non-admin", zap.Int64("actor_id", actorID))
	err := fmt.Errorf("actor %d: %w", actorID, models.ErrAccessDenied)
	return models.Fail(err, models.Prompt{TargetID: actorID, Message: w.r.T("access_denied")})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
