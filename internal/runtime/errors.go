package runtime

import (
	stderrors "errors"

	"github.com/robibiruk/meditrack/internal/errors"
)

// Suggestions provides helpful suggestions for common errors.
var Suggestions = map[error]string{
	errors.ErrReminderNotFound:   "Use 'meditrack list' to see reminder ids.",
	errors.ErrNameRequired:       "Pass the person's name as the first argument.",
	errors.ErrMedicationRequired: "Pass the medication as the second argument.",
	errors.ErrInvalidClockTime:   "Use 24-hour HH:MM format, like '08:00' or '21:30'.",
	errors.ErrRemoteUnavailable:  "Check that the sync service is running, or work offline with local storage.",
	errors.ErrPermissionDenied:   "Sign in with 'meditrack login' or use guest mode.",
}

// GetSuggestion returns a suggestion for an error, if available.
func GetSuggestion(err error) string {
	var userErr *errors.UserError
	if stderrors.As(err, &userErr) && userErr.Suggestion != "" {
		return userErr.Suggestion
	}
	for knownErr, suggestion := range Suggestions {
		if stderrors.Is(err, knownErr) {
			return suggestion
		}
	}
	return ""
}

// FormatError formats an error with optional suggestion.
func FormatError(err error) string {
	msg := err.Error()
	if suggestion := GetSuggestion(err); suggestion != "" {
		msg += "\n" + suggestion
	}
	return msg
}
