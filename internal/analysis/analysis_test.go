package analysis_test

import (
	"strings"
	"testing"

	"complaintbot/backend/internal/analysis"
	"complaintbot/backend/internal/models"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestAutoAssess(t *testing.T) {
	tests := []struct {
		name      string
		complaint models.Complaint
		score     int
		want      models.Assessment
	}{
		{
			name:      "empty record",
			complaint: models.Complaint{},
			score:     0,
			want:      models.AssessmentInsufficient,
		},
		{
			name: "everything filled in",
			complaint: models.Complaint{
				SubjectName:         "Иванов Иван Иванович",
				Contact:             "+79001234567",
				Description:         strings.Repeat("подробно ", 7),
				ViolationCategories: pq.StringArray{"🚫 Хамство"},
				Location:            "Москва, Тверская 1",
			},
			score: 6,
			want:  models.AssessmentDetailed,
		},
		{
			name: "short description counts once",
			complaint: models.Complaint{
				SubjectName:         "Иванов Иван",
				Contact:             "+79001234567",
				Description:         "Нагрубил на складе утром",
				ViolationCategories: pq.StringArray{"🚫 Хамство"},
			},
			score: 4,
			want:  models.AssessmentSuperficial,
		},
		{
			name: "boundary lengths do not score",
			complaint: models.Complaint{
				SubjectName: "Семён",
				Description: strings.Repeat("а", 20),
				Location:    strings.Repeat("б", 10),
			},
			score: 0,
			want:  models.AssessmentInsufficient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.score, analysis.AutoAssessScore(&tt.complaint))
			assert.Equal(t, tt.want, analysis.AutoAssess(&tt.complaint))
		})
	}
}

func TestValidate_Complete(t *testing.T) {
	c := &models.Complaint{
		SubjectName:  "Иванов",
		Contact:      "+79001234567",
		IncidentDate: "01.02.2025",
		Location:     "Москва",
		Description:  "Опоздал на два часа",
		Rating:       intPtr(0),
	}

	v := analysis.Validate(c)

	assert.True(t, v.Complete)
	assert.Empty(t, v.Issues)
}

func TestValidate_ReportsEveryIssue(t *testing.T) {
	c := &models.Complaint{Description: "  коротко  ", Rating: intPtr(11)}

	v := analysis.Validate(c)

	assert.False(t, v.Complete)
	assert.Equal(t, []string{
		analysis.IssueMissingName,
		analysis.IssueMissingContact,
		analysis.IssueMissingDate,
		analysis.IssueMissingLocation,
		analysis.IssueShortDescription,
		analysis.IssueInvalidRating,
	}, v.Issues)
}

func TestValidate_MissingRating(t *testing.T) {
	c := &models.Complaint{
		SubjectName:  "Иванов",
		Contact:      "+79001234567",
		IncidentDate: "вчера",
		Location:     "Тверь",
		Description:  "Достаточно длинное описание",
	}

	v := analysis.Validate(c)

	assert.Equal(t, []string{analysis.IssueInvalidRating}, v.Issues)
}
