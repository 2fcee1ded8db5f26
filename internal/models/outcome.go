package models

import "errors"

var (
	// ErrInvalidInput is a validation failure; the state does not advance.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionNotFound means there is no intake, editing or rejection context for the actor.
	ErrSessionNotFound = errors.New("session not found")
	// ErrRecordNotFound means the record was already resolved or never existed.
	ErrRecordNotFound = errors.New("record not found")
	// ErrSelection is a malformed or out-of-range selection.
	ErrSelection = errors.New("selection error")
	// ErrDraftNotFound means the reporter has no parked draft.
	ErrDraftNotFound = errors.New("draft not found")
	// ErrAccessDenied is an administrator action from a non-administrator.
	ErrAccessDenied = errors.New("access denied")
)

// OutcomeKind tags the result of a transition.
type OutcomeKind int

const (
	OutcomeOK OutcomeKind = iota
	OutcomeInvalidInput
	OutcomeSessionNotFound
	OutcomeRecordNotFound
	OutcomeSelectionError
	OutcomeDraftNotFound
	OutcomeAccessDenied
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "ok"
	case OutcomeInvalidInput:
		return "invalid_input"
	case OutcomeSessionNotFound:
		return "session_not_found"
	case OutcomeRecordNotFound:
		return "record_not_found"
	case OutcomeSelectionError:
		return "selection_error"
	case OutcomeDraftNotFound:
		return "draft_not_found"
	case OutcomeAccessDenied:
		return "access_denied"
	}
	return "unknown"
}

// Outcome is what every transition returns. Callers branch on Kind; Err
// carries the detail and wraps one of the sentinel errors above.
type Outcome struct {
	Kind    OutcomeKind
	Prompts []Prompt
	Err     error
}

// OK builds a successful outcome.
func OK(prompts ...Prompt) Outcome {
	return Outcome{Kind: OutcomeOK, Prompts: prompts}
}

// Fail builds a failed outcome whose Kind is derived from err.
func Fail(err error, prompts ...Prompt) Outcome {
	return Outcome{Kind: KindOf(err), Prompts: prompts, Err: err}
}

// KindOf maps an error onto the outcome taxonomy.
func KindOf(err error) OutcomeKind {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrInvalidInput):
		return OutcomeInvalidInput
	case errors.Is(err, ErrSessionNotFound):
		return OutcomeSessionNotFound
	case errors.Is(err, ErrRecordNotFound):
		return OutcomeRecordNotFound
	case errors.Is(err, ErrDraftNotFound):
		return OutcomeDraftNotFound
	case errors.Is(err, ErrAccessDenied):
		return OutcomeAccessDenied
	default:
		return OutcomeSelectionError
	}
}

// Append adds prompts to the outcome.
func (o Outcome) Append(prompts ...Prompt) Outcome {
	o.Prompts = append(o.Prompts, prompts...)
	return o
}
