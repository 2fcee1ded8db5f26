package intake_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"complaintbot/backend/internal/intake"
	"complaintbot/backend/internal/localization"
	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/render"
	"complaintbot/backend/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const reporter int64 = 42

var fixedNow = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// MockSubmitter records submitted complaints.
type MockSubmitter struct {
	mock.Mock
}

func (m *MockSubmitter) Submit(ctx context.Context, rec *models.Complaint) {
	m.Called(ctx, rec)
}

type fixture struct {
	store     *session.Store
	submitter *MockSubmitter
	machine   *intake.Machine
	r         *render.Renderer
}

func newFixture() *fixture {
	clock := func() time.Time { return fixedNow }
	store := session.NewStore(session.WithClock(clock))
	sub := new(MockSubmitter)
	r := render.New(localization.MustDefault(), "en")
	return &fixture{
		store:     store,
		submitter: sub,
		machine:   intake.NewMachine(store, sub, r, zap.NewNop(), intake.WithClock(clock)),
		r:         r,
	}
}

func text(s string) models.Event {
	return models.Event{ActorID: reporter, Kind: models.EventText, Text: s}
}

func choose(id string) models.Event {
	return models.Event{ActorID: reporter, Kind: models.EventSelection, Choice: id, MessageID: 900}
}

func photo(fileID string) models.Event {
	return models.Event{ActorID: reporter, Kind: models.EventMedia, Media: &models.Media{Kind: models.AttachmentPhoto, FileID: fileID}}
}

func (f *fixture) send(t *testing.T, ev models.Event) models.Outcome {
	t.Helper()
	return f.machine.Handle(context.Background(), ev)
}

func (f *fixture) state(t *testing.T) models.IntakeState {
	t.Helper()
	sess, ok := f.store.Get(reporter)
	require.True(t, ok, "no active session")
	return sess.State
}

// walkTo drives a fresh session up to (not into) the given state with valid input.
func (f *fixture) walkTo(t *testing.T, target models.IntakeState) {
	t.Helper()
	f.machine.Start(context.Background(), reporter)

	steps := []models.Event{
		photo("subject-photo"),
		text("Петров Иван"),
		choose("pos:0"),
		text("+7 900 123-45-67"),
		text("today"),
		text("Москва, склад №3"),
		text("Водитель опоздал на рейс на два часа."),
		choose("viol:8"),
		choose("viol:continue"),
		choose("asp:continue"),
		choose("fired:no"),
		text("7"),
		choose("files:skip"),
	}
	for _, ev := range steps {
		if f.state(t) == target {
			return
		}
		out := f.send(t, ev)
		require.Equal(t, models.OutcomeOK, out.Kind, "step %v: %v", f.state(t), out.Err)
	}
	require.Equal(t, target, f.state(t))
}

// TestHandle_FullIntake verifies a complete dialogue ends with a submitted record.
func TestHandle_FullIntake(t *testing.T) {
	// Arrange
	f := newFixture()
	var submitted *models.Complaint
	f.submitter.On("Submit", mock.Anything, mock.AnythingOfType("*models.Complaint")).
		Run(func(args mock.Arguments) { submitted = args.Get(1).(*models.Complaint) }).
		Once()
	f.walkTo(t, models.StateAwaitingFiles)

	// Act
	added := f.send(t, models.Event{
		ActorID: reporter,
		Kind:    models.EventMedia,
		Text:    "накладная",
		Media:   &models.Media{Kind: models.AttachmentDocument, FileID: "doc-1", FileName: "waybill.pdf"},
	})
	done := f.send(t, text("Готово"))
	confirmed := f.send(t, choose("confirm:submit"))

	// Assert
	assert.Equal(t, models.OutcomeOK, added.Kind)
	assert.Equal(t, models.OutcomeOK, done.Kind)
	assert.Equal(t, models.OutcomeOK, confirmed.Kind)
	f.submitter.AssertExpectations(t)

	require.NotNil(t, submitted)
	assert.Equal(t, "subject-photo", submitted.PhotoFileID)
	assert.Equal(t, "Петров Иван", submitted.SubjectName)
	assert.Equal(t, "🚛 Водитель тягача", submitted.Position)
	assert.Equal(t, "14.03.2025", submitted.IncidentDate)
	assert.Equal(t, "Москва, склад №3", submitted.Location)
	assert.Equal(t, []string{"⏰ Опоздание"}, []string(submitted.ViolationCategories))
	assert.Empty(t, submitted.PositiveAspects)
	assert.Equal(t, models.FiredNo, submitted.FiredStatus)
	require.NotNil(t, submitted.Rating)
	assert.Equal(t, 7, *submitted.Rating)
	assert.NotEmpty(t, submitted.Assessment)
	require.Len(t, submitted.Attachments, 1)
	assert.Equal(t, "накладная", submitted.Attachments[0].Caption)
	assert.Equal(t, "waybill.pdf", submitted.Attachments[0].FileName)

	_, active := f.store.Get(reporter)
	assert.False(t, active, "session must end on submit")
}

// TestHandle_ShortDescriptionScenario walks the reference dialogue with a
// twelve-character description and checks the advisory label.
func TestHandle_ShortDescriptionScenario(t *testing.T) {
	// Arrange
	f := newFixture()
	var submitted []*models.Complaint
	f.submitter.On("Submit", mock.Anything, mock.AnythingOfType("*models.Complaint")).
		Run(func(args mock.Arguments) { submitted = append(submitted, args.Get(1).(*models.Complaint)) })
	f.machine.Start(context.Background(), reporter)
	description := "Грубил людям"
	require.Equal(t, 12, len([]rune(description)))

	steps := []models.Event{
		photo("subject-photo"),
		text("Иванов Иван Иванович"),
		choose("pos:0"),
		text("+79001234567"),
		text("сегодня"),
		text("Москва, Тверская 1"),
		text(description),
		choose("viol:0"),
		choose("viol:continue"),
		choose("asp:continue"),
		choose("fired:no"),
		text("7"),
		choose("files:skip"),
		choose("confirm:submit"),
	}

	// Act
	for i, ev := range steps {
		out := f.send(t, ev)
		require.Equal(t, models.OutcomeOK, out.Kind, "step %d: %v", i, out.Err)
	}

	// Assert
	require.Len(t, submitted, 1)
	rec := submitted[0]
	assert.Equal(t, "14.03.2025", rec.IncidentDate)
	assert.Equal(t, description, rec.Description)
	assert.Equal(t, models.FiredNo, rec.FiredStatus)
	assert.Empty(t, rec.PositiveAspects)
	require.NotNil(t, rec.Rating)
	assert.Equal(t, 7, *rec.Rating)
	assert.Equal(t, models.AssessmentSuperficial, rec.Assessment)
	_, active := f.store.Get(reporter)
	assert.False(t, active)
}

func TestHandle_NoSession(t *testing.T) {
	f := newFixture()

	out := f.send(t, text("привет"))

	assert.Equal(t, models.OutcomeSessionNotFound, out.Kind)
	assert.ErrorIs(t, out.Err, models.ErrSessionNotFound)
	require.Len(t, out.Prompts, 1)
	f.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestHandle_PhotoStepRejectsText(t *testing.T) {
	f := newFixture()
	f.machine.Start(context.Background(), reporter)

	out := f.send(t, text("вот фото"))

	assert.Equal(t, models.OutcomeInvalidInput, out.Kind)
	assert.Equal(t, models.StateAwaitingPhoto, f.state(t))
	// ошибка и повторный вопрос
	require.Len(t, out.Prompts, 2)
	assert.Equal(t, f.r.T("err_photo_expected"), out.Prompts[0].Message)
}

func TestHandle_SelectionOnTextStep(t *testing.T) {
	f := newFixture()
	f.walkTo(t, models.StateAwaitingName)

	out := f.send(t, choose("pos:1"))

	assert.Equal(t, models.OutcomeSelectionError, out.Kind)
	assert.Equal(t, models.StateAwaitingName, f.state(t))
}

// TestHandle_InvalidTextKeepsField verifies a rejected value leaves the record untouched.
func TestHandle_InvalidTextKeepsField(t *testing.T) {
	f := newFixture()
	f.walkTo(t, models.StateAwaitingName)

	out := f.send(t, text("  Ив "))

	assert.Equal(t, models.OutcomeInvalidInput, out.Kind)
	var fe *intake.FieldError
	require.True(t, errors.As(out.Err, &fe))
	assert.Equal(t, "err_name_short", fe.Key)
	sess, _ := f.store.Get(reporter)
	assert.Empty(t, sess.Record.SubjectName)
}

func TestHandle_ManualPosition(t *testing.T) {
	// Arrange
	f := newFixture()
	f.walkTo(t, models.StateAwaitingPosition)

	// Act
	manual := f.send(t, choose("pos:manual"))
	short := f.send(t, text("К"))
	ok := f.send(t, text("Кладовщик"))

	// Assert
	require.Len(t, manual.Prompts, 1)
	assert.Empty(t, manual.Prompts[0].Choices)
	assert.Equal(t, models.OutcomeInvalidInput, short.Kind)
	assert.Equal(t, models.OutcomeOK, ok.Kind)
	sess, _ := f.store.Get(reporter)
	assert.Equal(t, "Кладовщик", sess.Record.Position)
	assert.False(t, sess.ManualPosition)
	assert.Equal(t, models.StateAwaitingContact, sess.State)
}

func TestHandle_PositionTextWithoutManual(t *testing.T) {
	f := newFixture()
	f.walkTo(t, models.StateAwaitingPosition)

	out := f.send(t, text("Кладовщик"))

	assert.Equal(t, models.OutcomeInvalidInput, out.Kind)
	assert.Equal(t, models.StateAwaitingPosition, f.state(t))
}

func TestHandle_PositionOutOfRange(t *testing.T) {
	f := newFixture()
	f.walkTo(t, models.StateAwaitingPosition)

	out := f.send(t, choose("pos:99"))

	assert.Equal(t, models.OutcomeSelectionError, out.Kind)
	assert.Equal(t, models.StateAwaitingPosition, f.state(t))
}

func TestHandle_DateYesterday(t *testing.T) {
	f := newFixture()
	f.walkTo(t, models.StateAwaitingDate)

	out := f.send(t, text("Вчера"))

	require.Equal(t, models.OutcomeOK, out.Kind)
	sess, _ := f.store.Get(reporter)
	assert.Equal(t, "13.03.2025", sess.Record.IncidentDate)
}

func TestHandle_DescriptionBoundary(t *testing.T) {
	// Arrange
	f := newFixture()
	f.walkTo(t, models.StateAwaitingDescription)

	// Act
	short := f.send(t, text("123456789"))
	exact := f.send(t, text("1234567890"))

	// Assert
	assert.Equal(t, models.OutcomeInvalidInput, short.Kind)
	assert.Equal(t, models.OutcomeOK, exact.Kind)
	assert.Equal(t, models.StateAwaitingViolationCategories, f.state(t))
}

func TestHandle_DescriptionSanitized(t *testing.T) {
	f := newFixture()
	f.walkTo(t, models.StateAwaitingDescription)

	out := f.send(t, text("водитель   опоздал ,  хамил  пассажирам"))

	require.Equal(t, models.OutcomeOK, out.Kind)
	sess, _ := f.store.Get(reporter)
	assert.Equal(t, "водитель опоздал, хамил пассажирам", sess.Record.Description)
}

// TestHandle_ToggleTwice verifies a second selection removes the option again.
func TestHandle_ToggleTwice(t *testing.T) {
	// Arrange
	f := newFixture()
	f.walkTo(t, models.StateAwaitingViolationCategories)

	// Act
	first := f.send(t, choose("viol:0"))
	second := f.send(t, choose("viol:0"))
	cont := f.send(t, choose("viol:continue"))

	// Assert
	require.Len(t, first.Prompts, 1)
	assert.Equal(t, 900, first.Prompts[0].EditMessageID, "toggle edits the keyboard in place")
	assert.Equal(t, "✅ 🚫 Хамство", first.Prompts[0].Choices[0].Label)
	assert.Equal(t, "🚫 Хамство", second.Prompts[0].Choices[0].Label)

	assert.Equal(t, models.OutcomeInvalidInput, cont.Kind)
	assert.Equal(t, models.StateAwaitingViolationCategories, f.state(t))
	sess, _ := f.store.Get(reporter)
	assert.Empty(t, sess.Record.ViolationCategories)
}

func TestHandle_ToggleOutOfRange(t *testing.T) {
	f := newFixture()
	f.walkTo(t, models.StateAwaitingPositiveAspects)

	out := f.send(t, choose("asp:10"))

	assert.Equal(t, models.OutcomeSelectionError, out.Kind)
}

func TestHandle_Rating(t *testing.T) {
	tests := []struct {
		input string
		want  models.OutcomeKind
	}{
		{"15", models.OutcomeInvalidInput},
		{"-1", models.OutcomeInvalidInput},
		{"7.5", models.OutcomeInvalidInput},
		{"семь", models.OutcomeInvalidInput},
		{"0", models.OutcomeOK},
		{" 10 ", models.OutcomeOK},
		{"7", models.OutcomeOK},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f := newFixture()
			f.walkTo(t, models.StateAwaitingRating)

			out := f.send(t, text(tt.input))

			assert.Equal(t, tt.want, out.Kind)
			if tt.want == models.OutcomeOK {
				assert.Equal(t, models.StateAwaitingFiles, f.state(t))
			} else {
				assert.Equal(t, models.StateAwaitingRating, f.state(t))
			}
		})
	}
}

func TestHandle_FilesUnknownText(t *testing.T) {
	f := newFixture()
	f.walkTo(t, models.StateAwaitingFiles)

	out := f.send(t, text("потом"))

	assert.Equal(t, models.OutcomeInvalidInput, out.Kind)
	assert.Equal(t, models.StateAwaitingFiles, f.state(t))
}

// TestHandle_ConfirmDraft verifies "save as draft" parks the record without submitting.
func TestHandle_ConfirmDraft(t *testing.T) {
	f := newFixture()
	f.walkTo(t, models.StateAwaitingConfirmation)

	out := f.send(t, choose("confirm:draft"))

	assert.Equal(t, models.OutcomeOK, out.Kind)
	_, active := f.store.Get(reporter)
	assert.False(t, active)
	draft, ok := f.store.Draft(reporter)
	require.True(t, ok)
	assert.Equal(t, "Петров Иван", draft.SubjectName)
	f.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

// TestResumeDraft_DerivesState verifies a resumed draft continues at the first unset field.
func TestResumeDraft_DerivesState(t *testing.T) {
	// Arrange
	f := newFixture()
	f.walkTo(t, models.StateAwaitingDescription)
	saved := f.machine.SaveDraft(context.Background(), reporter)
	require.Equal(t, models.OutcomeOK, saved.Kind)

	// Act
	out := f.machine.ResumeDraft(context.Background(), reporter)

	// Assert
	require.Equal(t, models.OutcomeOK, out.Kind)
	sess, ok := f.store.Get(reporter)
	require.True(t, ok)
	assert.Equal(t, intake.DeriveState(sess.Record), sess.State)
	assert.Equal(t, models.StateAwaitingDescription, sess.State)
	_, hasDraft := f.store.Draft(reporter)
	assert.False(t, hasDraft)
}

func TestResumeDraft_NoDraft(t *testing.T) {
	f := newFixture()

	out := f.machine.ResumeDraft(context.Background(), reporter)

	assert.Equal(t, models.OutcomeDraftNotFound, out.Kind)
}

func TestDiscardDraft(t *testing.T) {
	f := newFixture()
	f.walkTo(t, models.StateAwaitingContact)
	f.machine.SaveDraft(context.Background(), reporter)

	first := f.machine.DiscardDraft(context.Background(), reporter)
	second := f.machine.DiscardDraft(context.Background(), reporter)

	assert.Equal(t, models.OutcomeOK, first.Kind)
	assert.Equal(t, models.OutcomeDraftNotFound, second.Kind)
}

func TestStart_AnnouncesDiscardedDraft(t *testing.T) {
	f := newFixture()
	f.walkTo(t, models.StateAwaitingContact)
	f.machine.SaveDraft(context.Background(), reporter)

	out := f.machine.Start(context.Background(), reporter)

	require.Len(t, out.Prompts, 2)
	assert.Equal(t, f.r.T("draft_discarded"), out.Prompts[0].Message)
	assert.Equal(t, models.StateAwaitingPhoto, f.state(t))
}

func TestShowDrafts(t *testing.T) {
	f := newFixture()

	empty := f.machine.ShowDrafts(context.Background(), reporter)
	f.walkTo(t, models.StateAwaitingContact)
	f.machine.SaveDraft(context.Background(), reporter)
	withDraft := f.machine.ShowDrafts(context.Background(), reporter)

	require.Len(t, empty.Prompts, 1)
	assert.Empty(t, empty.Prompts[0].Choices)
	require.Len(t, withDraft.Prompts, 1)
	assert.Equal(t, intake.ChoiceDraftContinue, withDraft.Prompts[0].Choices[0].ID)
}
