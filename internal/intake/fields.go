package intake

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"complaintbot/backend/internal/config"
	"complaintbot/backend/internal/models"
	"complaintbot/backend/internal/textproc"
)

// FieldError is a rejected field value. Key is the catalog message shown to
// the actor, Args its format arguments.
type FieldError struct {
	Key  string
	Args []any
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid input (%s)", e.Key)
}

func (e *FieldError) Unwrap() error { return models.ErrInvalidInput }

func invalid(key string, args ...any) error {
	return &FieldError{Key: key, Args: args}
}

func minLength(text string, min int, key string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", invalid("err_empty")
	}
	if utf8.RuneCountInString(trimmed) < min {
		return "", invalid(key, min)
	}
	return trimmed, nil
}

// ParseName checks a subject name.
func ParseName(text string) (string, error) {
	return minLength(text, config.MinNameLength, "err_name_short")
}

// ParseManualPosition checks a free-text position.
func ParseManualPosition(text string) (string, error) {
	return minLength(text, config.MinManualPositionLength, "err_position_short")
}

// ParsePositionChoice maps a position index to its label.
func ParsePositionChoice(index string) (string, error) {
	i, err := strconv.Atoi(index)
	if err != nil || i < 0 || i >= len(config.Positions) {
		return "", fmt.Errorf("position %q: %w", index, models.ErrSelection)
	}
	return config.Positions[i], nil
}

// ParseContact checks a contact string.
func ParseContact(text string) (string, error) {
	return minLength(text, config.MinContactLength, "err_contact_short")
}

// ParseLocation checks an incident location.
func ParseLocation(text string) (string, error) {
	return minLength(text, config.MinLocationLength, "err_location_short")
}

// ParseDate substitutes the today and yesterday tokens with a DD.MM.YYYY date.
// Any other text is kept unchanged.
func ParseDate(text string, now time.Time) (string, error) {
	token := strings.ToLower(strings.TrimSpace(text))
	switch {
	case token == "":
		return "", invalid("err_empty")
	case isToken(token, config.TodayTokens):
		return now.Format(config.DateLayout), nil
	case isToken(token, config.YesterdayTokens):
		return now.AddDate(0, 0, -1).Format(config.DateLayout), nil
	}
	return text, nil
}

// ParseDescription checks the length of a description and sanitizes it.
func ParseDescription(text string, max int) (textproc.Result, error) {
	trimmed := strings.TrimSpace(text)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return textproc.Result{}, invalid("err_empty")
	case n < config.MinDescriptionLength:
		return textproc.Result{}, invalid("err_description_short", n, config.MinDescriptionLength)
	case n > max:
		return textproc.Result{}, invalid("err_description_long", n, max)
	}
	return textproc.Sanitize(trimmed, max), nil
}

// ParseRating accepts an integer in the rating range.
func ParseRating(text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || v < config.MinRating || v > config.MaxRating {
		return 0, invalid("err_rating", config.MinRating, config.MaxRating)
	}
	return v, nil
}

// IsDone reports whether text is one of the tokens that finish the files step.
func IsDone(text string) bool {
	return isToken(strings.ToLower(strings.TrimSpace(text)), config.DoneTokens)
}

func isToken(s string, tokens []string) bool {
	for _, t := range tokens {
		if s == t {
			return true
		}
	}
	return false
}
