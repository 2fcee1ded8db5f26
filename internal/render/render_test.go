package render_test

import (
	"strings"
	"testing"
	"time"

	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/render"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

// stubTranslator echoes keys so assertions do not depend on catalog wording.
type stubTranslator map[string]string

func (s stubTranslator) GetString(lang, key string) string {
	if v, ok := s[key]; ok {
		return v
	}
	return key
}

func newRenderer() *render.Renderer {
	return render.New(stubTranslator{
		"step_header":   "Step %d/%d",
		"draft_summary": "%s|%s|%s|%s",
	}, "en")
}

func sample() *models.Complaint {
	rating := 7
	return &models.Complaint{
		ID:                  "rec-1",
		SubjectName:         "Петров",
		Position:            "Логист",
		IncidentDate:        "14.03.2025",
		Description:         "Опоздал на смену",
		ViolationCategories: pq.StringArray{"⏰ Опоздание", "🚫 Хамство"},
		FiredStatus:         models.FiredYes,
		Rating:              &rating,
		Attachments:         models.Attachments{{Kind: models.AttachmentPhoto, FileID: "f"}},
		CreatedAt:           time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestStepHeader(t *testing.T) {
	assert.Equal(t, "Step 3/11", newRenderer().StepHeader(3))
}

func TestSummary(t *testing.T) {
	// Arrange
	r := newRenderer()

	// Act
	got := r.Summary(sample())

	// Assert
	assert.Contains(t, got, "label_name: Петров\n")
	assert.Contains(t, got, "label_contact: not_set\n")
	assert.Contains(t, got, "label_violations: ⏰ Опоздание, 🚫 Хамство\n")
	assert.Contains(t, got, "label_positives: none\n")
	assert.Contains(t, got, "label_fired: fired_yes\n")
	assert.Contains(t, got, "label_rating: 7/10\n")
	assert.Contains(t, got, "label_files: 1\n")
	assert.True(t, strings.HasSuffix(got, "label_description:\nОпоздал на смену"))
}

func TestRating_Unset(t *testing.T) {
	assert.Equal(t, "not_set", newRenderer().Rating(&models.Complaint{}))
}

func TestValidation(t *testing.T) {
	r := newRenderer()

	assert.Equal(t, "validation_ok", r.Validation(models.Validation{Complete: true}))
	assert.Equal(t, "validation_header\n• issue_a\n• issue_b",
		r.Validation(models.Validation{Issues: []string{"issue_a", "issue_b"}}))
}

func TestSuggestions(t *testing.T) {
	r := newRenderer()

	assert.Empty(t, r.Suggestions(nil))
	assert.Equal(t, "suggestions_header\n• hint_dates", r.Suggestions([]string{"hint_dates"}))
}

func TestDraftPreview_TruncatesDescription(t *testing.T) {
	c := sample()
	c.Description = strings.Repeat("я", 150)

	got := newRenderer().DraftPreview(c)

	parts := strings.Split(got, "|")
	assert.Equal(t, "14.03.2025", parts[0])
	assert.Equal(t, strings.Repeat("я", 100)+"...", parts[3])
}

func TestPublic(t *testing.T) {
	r := newRenderer()
	view := models.PublicView{Record: sample(), Hashtags: []string{"#Опоздание", "#Хамство"}}

	got := r.Public(view)

	assert.True(t, strings.HasPrefix(got, "public_header\n\n"))
	assert.True(t, strings.HasSuffix(got, "\n\n#Опоздание #Хамство"))
}

func TestModeration(t *testing.T) {
	c := sample()
	c.ToxicityScore = 0.4

	got := newRenderer().Moderation(models.ModerationView{Record: c, Validation: models.Validation{Complete: true}})

	assert.Contains(t, got, "admin_new_complaint")
	assert.Contains(t, got, "label_toxicity: 0.4")
	assert.Contains(t, got, "validation_ok")
}
