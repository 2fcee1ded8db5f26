package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq" // Необхідний для pq.StringArray
	"gorm.io/gorm"
)

// FiredStatus says whether the subject of a complaint has been dismissed.
type FiredStatus string

const (
	FiredUnset   FiredStatus = ""
	FiredYes     FiredStatus = "yes"
	FiredNo      FiredStatus = "no"
	FiredUnknown FiredStatus = "unknown"
)

// AttachmentKind is the media type of an additional file.
type AttachmentKind string

const (
	AttachmentPhoto    AttachmentKind = "photo"
	AttachmentDocument AttachmentKind = "document"
	AttachmentVideo    AttachmentKind = "video"
)

// Assessment is the advisory completeness label computed at rating time.
type Assessment string

const (
	AssessmentNone         Assessment = ""
	AssessmentDetailed     Assessment = "detailed"
	AssessmentSuperficial  Assessment = "superficial"
	AssessmentInsufficient Assessment = "insufficient-data"
)

// Decision is the archived outcome of moderation.
type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// Attachment is one opaque media reference with an optional caption.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	FileID   string         `json:"file_id"`
	Caption  string         `json:"caption,omitempty"`
	FileName string         `json:"file_name,omitempty"`
}

// Attachments зберігається як jsonb.
type Attachments []Attachment

// Value implements driver.Valuer.
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *Attachments) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("attachments: unsupported scan type %T", src)
	}
	return jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, a)
}

// Complaint is the unit of work: a structured report about a staff member.
// The same struct is used for in-progress sessions, drafts, the moderation
// queue and the decision archive.
type Complaint struct {
	ID string `gorm:"primaryKey" json:"id"`

	// Reporter identity never leaves the process: it is not archived and not published.
	ReporterID int64 `gorm:"-" json:"-"`

	PhotoFileID         string         `json:"photo_file_id"`
	SubjectName         string         `json:"subject_name"`
	Position            string         `json:"position"`
	Contact             string         `json:"contact"`
	IncidentDate        string         `json:"incident_date"`
	Location            string         `json:"location"`
	Description         string         `gorm:"type:text" json:"description"`
	ViolationCategories pq.StringArray `gorm:"type:text[]" json:"violation_categories"`
	PositiveAspects     pq.StringArray `gorm:"type:text[]" json:"positive_aspects"`
	FiredStatus         FiredStatus    `json:"fired_status"`
	Rating              *int           `json:"rating"`
	Attachments         Attachments    `gorm:"type:jsonb" json:"attachments"`
	Assessment          Assessment     `json:"assessment"`
	ToxicityScore       float64        `json:"toxicity_score"`
	CreatedAt           time.Time      `json:"created_at"`

	// Archive columns, set when moderation resolves the record.
	Decision     Decision   `gorm:"index" json:"decision,omitempty"`
	RejectReason string     `json:"reject_reason,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// NewComplaint returns an empty record with a fresh identity.
func NewComplaint(reporterID int64, now time.Time) *Complaint {
	return &Complaint{
		ID:         uuid.New().String(),
		ReporterID: reporterID,
		CreatedAt:  now,
	}
}

// BeforeCreate — це хук GORM, який викликається перед створенням запису.
// Він генерує новий UUID, якщо ID ще не встановлено.
func (c *Complaint) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

// Clone returns a deep copy so that sinks can render a record while the
// workflow keeps mutating the original.
func (c *Complaint) Clone() *Complaint {
	if c == nil {
		return nil
	}
	cp := *c
	cp.ViolationCategories = append(pq.StringArray(nil), c.ViolationCategories...)
	cp.PositiveAspects = append(pq.StringArray(nil), c.PositiveAspects...)
	cp.Attachments = append(Attachments(nil), c.Attachments...)
	if c.Rating != nil {
		r := *c.Rating
		cp.Rating = &r
	}
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}

// RatingValue returns the rating and whether it has been set.
func (c *Complaint) RatingValue() (int, bool) {
	if c.Rating == nil {
		return 0, false
	}
	return *c.Rating, true
}

// Toggle adds tag to set if absent and removes it if present.
func Toggle(set pq.StringArray, tag string) pq.StringArray {
	for i, v := range set {
		if v == tag {
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return append(set, tag)
}

// Has reports whether tag is in set.
func Has(set []string, tag string) bool {
	for _, v := range set {
		if v == tag {
			return true
		}
	}
	return false
}
