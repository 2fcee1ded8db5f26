package storage

import (
	"context"

	"complaintbot/backend/internal/models"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Save inserts the record or overwrites the archived copy with the same ID.
// A record is saved when it is queued and again when it is resolved.
func (s *Service) Save(ctx context.Context, rec *models.Complaint) error {
	err := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(rec).Error
	return errors.Wrapf(err, "save complaint %s", rec.ID)
}

// Get returns one archived record. A missing record wraps models.ErrRecordNotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.Complaint, error) {
	var rec models.Complaint
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrapf(models.ErrRecordNotFound, "complaint %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "get complaint %s", id)
	}
	return &rec, nil
}

// List returns the newest records first. An empty decision lists every record.
func (s *Service) List(ctx context.Context, decision models.Decision, limit int) ([]models.Complaint, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := s.DB.WithContext(ctx).Order("created_at desc").Limit(limit)
	if decision != "" {
		q = q.Where("decision = ?", decision)
	}

	var recs []models.Complaint
	if err := q.Find(&recs).Error; err != nil {
		return nil, errors.Wrapf(err, "list complaints (decision=%q)", decision)
	}
	return recs, nil
}

// Stats групує архів за рішенням.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var rows []struct {
		Decision models.Decision
		N        int64
	}
	err := s.DB.WithContext(ctx).
		Model(&models.Complaint{}).
		Select("decision, count(*) as n").
		Group("decision").
		Scan(&rows).Error
	if err != nil {
		return Stats{}, errors.Wrap(err, "complaint stats")
	}

	var st Stats
	for _, r := range rows {
		switch r.Decision {
		case models.DecisionPending:
			st.Pending = r.N
		case models.DecisionApproved:
			st.Approved = r.N
		case models.DecisionRejected:
			st.Rejected = r.N
		}
	}
	return st, nil
}
