// Package validate provides input validation helpers for MediTrack.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/robibiruk/meditrack/internal/errors"
)

const (
	// MaxNameLength is the maximum length for a person label.
	MaxNameLength = 200
	// MaxMedicationLength is the maximum length for a medication name.
	MaxMedicationLength = 200
	// MaxNamespaceLength is the maximum length for an owner namespace.
	MaxNamespaceLength = 128
)

// clockRegex validates 24-hour HH:MM clock times.
var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// namespaceRegex validates owner namespace segments. Namespaces travel as
// a single URL path segment, so slashes are not allowed.
var namespaceRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// NonEmpty validates that a string is not blank.
func NonEmpty(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewUserError(
			field+" cannot be empty",
			"Provide a value for "+field)
	}
	return nil
}

// ClockTime validates a 24-hour HH:MM time string. Seconds and timezones
// are not part of the format.
func ClockTime(value string) error {
	if !clockRegex.MatchString(value) {
		return errors.NewUserErrorWithField("time", value,
			"Invalid time format",
			"Use 24-hour HH:MM, for example 08:00 or 21:30")
	}
	return nil
}

// Name validates a person label.
func Name(value string) error {
	if err := NonEmpty("name", value); err != nil {
		return err
	}
	if utf8.RuneCountInString(value) > MaxNameLength {
		return errors.NewUserErrorWithField("name", value,
			"Name too long",
			"Names must be 200 characters or fewer")
	}
	return nil
}

// Medication validates a medication label.
func Medication(value string) error {
	if err := NonEmpty("medication", value); err != nil {
		return err
	}
	if utf8.RuneCountInString(value) > MaxMedicationLength {
		return errors.NewUserErrorWithField("medication", value,
			"Medication name too long",
			"Medication names must be 200 characters or fewer")
	}
	return nil
}

// Namespace validates an owner namespace path segment.
func Namespace(value string) error {
	if value == "" {
		return errors.NewUserError("namespace cannot be empty",
			"Provide an owner namespace")
	}
	if len(value) > MaxNamespaceLength {
		return errors.NewUserErrorWithField("namespace", value,
			"Namespace too long",
			"Namespaces must be 128 characters or fewer")
	}
	if !namespaceRegex.MatchString(value) {
		return errors.NewUserErrorWithField("namespace", value,
			"Invalid namespace format",
			"Namespaces must start with a letter or number and contain only letters, numbers, dashes, underscores, or periods")
	}
	return nil
}
