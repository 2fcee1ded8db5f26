package models

// EventKind is the shape of an inbound event.
type EventKind string

const (
	EventText      EventKind = "text"
	EventMedia     EventKind = "media"
	EventSelection EventKind = "selection"
	EventCommand   EventKind = "command"
)

// Media is an inbound media payload.
type Media struct {
	Kind     AttachmentKind
	FileID   string
	FileName string
}

// Event is one input from a reporter or the administrator, already stripped
// of transport details.
type Event struct {
	ActorID int64
	Kind    EventKind
	// Text carries the message text, the media caption or the command name.
	Text   string
	Media  *Media
	Choice string
	// MessageID references the transport message a selection came from, so
	// that keyboards can be updated in place.
	MessageID int
}

// Choice is one option of a choice set.
type Choice struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	// URL turns the choice into a link instead of a selection.
	URL string `json:"url,omitempty"`
}

// ChoiceSet is an ordered set of options the transport renders as buttons.
type ChoiceSet []Choice

// Prompt is an outbound message for one target.
type Prompt struct {
	TargetID int64
	Message  string
	Choices  ChoiceSet
	// Columns is the number of buttons per row; zero means one per row.
	Columns int
	// EditMessageID, when set, asks the transport to replace the choice set
	// of an existing message instead of sending a new one.
	EditMessageID int
}
