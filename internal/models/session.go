package models

// IntakeState is a step of the reporter dialogue.
type IntakeState int

const (
	StateAwaitingPhoto IntakeState = iota + 1
	StateAwaitingName
	StateAwaitingPosition
	StateAwaitingContact
	StateAwaitingDate
	StateAwaitingLocation
	StateAwaitingDescription
	StateAwaitingViolationCategories
	StateAwaitingPositiveAspects
	StateAwaitingFiredStatus
	StateAwaitingRating
	StateAwaitingFiles
	StateAwaitingConfirmation
)

var stateNames = map[IntakeState]string{
	StateAwaitingPhoto:               "awaiting_photo",
	StateAwaitingName:                "awaiting_name",
	StateAwaitingPosition:            "awaiting_position",
	StateAwaitingContact:             "awaiting_contact",
	StateAwaitingDate:                "awaiting_date",
	StateAwaitingLocation:            "awaiting_location",
	StateAwaitingDescription:         "awaiting_description",
	StateAwaitingViolationCategories: "awaiting_violation_categories",
	StateAwaitingPositiveAspects:     "awaiting_positive_aspects",
	StateAwaitingFiredStatus:         "awaiting_fired_status",
	StateAwaitingRating:              "awaiting_rating",
	StateAwaitingFiles:               "awaiting_files",
	StateAwaitingConfirmation:        "awaiting_confirmation",
}

func (s IntakeState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Session is a reporter's in-progress intake context.
type Session struct {
	ReporterID int64
	State      IntakeState
	Record     *Complaint
	// ManualPosition is set after the reporter picks manual entry on the position step.
	ManualPosition bool
}

// EditField names a record field an administrator may change.
type EditField string

const (
	FieldNone        EditField = ""
	FieldName        EditField = "name"
	FieldPosition    EditField = "position"
	FieldContact     EditField = "contact"
	FieldDate        EditField = "date"
	FieldLocation    EditField = "location"
	FieldDescription EditField = "description"
	FieldRating      EditField = "rating"
)

// EditableFields lists fields in the order the edit menu shows them.
var EditableFields = []EditField{
	FieldName, FieldPosition, FieldContact, FieldDate, FieldLocation, FieldDescription, FieldRating,
}

// ParseEditField maps a wire name back to an EditField.
func ParseEditField(s string) (EditField, bool) {
	for _, f := range EditableFields {
		if string(f) == s {
			return f, true
		}
	}
	return FieldNone, false
}

// EditingSession is an administrator's scoped edit of one pending record.
type EditingSession struct {
	AdminID        int64
	RecordID       string
	Field          EditField
	ManualPosition bool
}

// RejectionSession is an administrator's pending capture of a rejection reason.
type RejectionSession struct {
	AdminID  int64
	RecordID string
}
