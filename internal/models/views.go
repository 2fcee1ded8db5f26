package models

// Validation is the advisory verdict of the validator.
type Validation struct {
	Complete bool     `json:"complete"`
	Issues   []string `json:"issues"`
}

// ModerationView is what the administrator channel sink receives.
type ModerationView struct {
	AdminID    int64      `json:"-"`
	Record     *Complaint `json:"record"`
	Validation Validation `json:"validation"`
	Choices    ChoiceSet  `json:"choices"`
}

// PublicView is what the publish sink receives. It has no reporter identity.
type PublicView struct {
	RecordID     string     `json:"record_id"`
	Record       *Complaint `json:"record"`
	Hashtags     []string   `json:"hashtags"`
	ObjectionURL string     `json:"objection_url"`
}

// FeedEventType names a moderation feed event.
type FeedEventType string

const (
	FeedQueued   FeedEventType = "queued"
	FeedEdited   FeedEventType = "edited"
	FeedApproved FeedEventType = "approved"
	FeedRejected FeedEventType = "rejected"
)

// FeedEvent is broadcast to dashboard clients whenever the queue changes.
type FeedEvent struct {
	Type     FeedEventType `json:"type"`
	RecordID string        `json:"record_id"`
	Record   *Complaint    `json:"record,omitempty"`
}
