package intake

import "complaintbot/backend/internal/models"

// DeriveState returns the first step whose field is still unset, in dialogue
// order. A record with every field set goes straight to confirmation; the
// optional files step is never derived.
func DeriveState(c *models.Complaint) models.IntakeState {
	switch {
	case c.PhotoFileID == "":
		return models.StateAwaitingPhoto
	case c.SubjectName == "":
		return models.StateAwaitingName
	case c.Position == "":
		return models.StateAwaitingPosition
	case c.Contact == "":
		return models.StateAwaitingContact
	case c.IncidentDate == "":
		return models.StateAwaitingDate
	case c.Location == "":
		return models.StateAwaitingLocation
	case c.Description == "":
		return models.StateAwaitingDescription
	case len(c.ViolationCategories) == 0:
		return models.StateAwaitingViolationCategories
	// Positive aspects may legitimately stay empty, so the step counts as
	// passed once the fired status is known.
	case c.FiredStatus == models.FiredUnset && len(c.PositiveAspects) == 0:
		return models.StateAwaitingPositiveAspects
	case c.FiredStatus == models.FiredUnset:
		return models.StateAwaitingFiredStatus
	case c.Rating == nil:
		return models.StateAwaitingRating
	}
	return models.StateAwaitingConfirmation
}

// StepNumber is the 1-based position of a state in the step header, or zero
// for the steps that carry no header.
func StepNumber(s models.IntakeState) int {
	if s >= models.StateAwaitingPhoto && s <= models.StateAwaitingRating {
		return int(s)
	}
	return 0
}
