package model

import (
	"fmt"
	"strings"
	"time"
)

// PrefixReminder is the database key prefix for reminders.
const PrefixReminder = "reminder"

// Reminder is a single medication reminder. The JSON field names are the
// wire format shared by the local store, the sync service and its clients.
type Reminder struct {
	ID         string    `json:"id"`
	Name       string    `json:"name" validate:"required,max=200"`
	Medication string    `json:"medication" validate:"required,max=200"`
	Time       string    `json:"time" validate:"required"` // "HH:MM", 24-hour
	Phone      string    `json:"phone,omitempty"`
	SMS        bool      `json:"sms"`
	IsTaken    bool      `json:"is_taken"`
	CreatedAt  time.Time `json:"created_at"`
}

// SetKey sets the database key for this reminder.
func (r *Reminder) SetKey(key string) {
	r.ID = key
}

// GetKey returns the database key for this reminder.
func (r *Reminder) GetKey() string {
	return r.ID
}

// IsPending returns true if the medication has not been taken yet.
func (r *Reminder) IsPending() bool {
	return !r.IsTaken
}

// DueAt reports whether the reminder is due at the given instant. The
// reminder time carries no date and no timezone; it is matched against the
// wall clock of the given time truncated to the minute.
func (r *Reminder) DueAt(now time.Time) bool {
	return !r.IsTaken && r.Time == now.Format("15:04")
}

// ShortID returns a short identifier for display. Local ids carry the
// "reminder:" key prefix, remote ids are bare; both shorten to the first
// characters of the uuid part.
func (r *Reminder) ShortID() string {
	id := strings.TrimPrefix(r.ID, PrefixReminder+":")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// MatchesID reports whether q is the full id or a prefix of its uuid part.
func (r *Reminder) MatchesID(q string) bool {
	if q == "" {
		return false
	}
	if r.ID == q {
		return true
	}
	return strings.HasPrefix(strings.TrimPrefix(r.ID, PrefixReminder+":"), q)
}

// GenerateReminderKey builds a database key for a reminder from a UUID.
func GenerateReminderKey(uuid string) string {
	return fmt.Sprintf("%s:%s", PrefixReminder, uuid)
}

// NewReminder creates a reminder in its initial state.
func NewReminder(name, medication, clockTime string) *Reminder {
	return &Reminder{
		Name:       name,
		Medication: medication,
		Time:       clockTime,
		IsTaken:    false,
		CreatedAt:  time.Now(),
	}
}

// Fields holds the mutable subset of a reminder for partial updates. Nil
// members are left untouched.
type Fields struct {
	Name       *string `json:"name,omitempty"`
	Medication *string `json:"medication,omitempty"`
	Time       *string `json:"time,omitempty"`
	Phone      *string `json:"phone,omitempty"`
	SMS        *bool   `json:"sms,omitempty"`
	IsTaken    *bool   `json:"is_taken,omitempty"`
}

// Apply copies the non-nil members onto the reminder.
func (f Fields) Apply(r *Reminder) {
	if f.Name != nil {
		r.Name = *f.Name
	}
	if f.Medication != nil {
		r.Medication = *f.Medication
	}
	if f.Time != nil {
		r.Time = *f.Time
	}
	if f.Phone != nil {
		r.Phone = *f.Phone
	}
	if f.SMS != nil {
		r.SMS = *f.SMS
	}
	if f.IsTaken != nil {
		r.IsTaken = *f.IsTaken
	}
}

// Taken is a convenience constructor for the most common partial update.
func Taken(v bool) Fields {
	return Fields{IsTaken: &v}
}

// Progress summarizes completion over a list snapshot. It is derived on
// every call so it cannot drift from the list it was computed from.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
}

// ProgressOf counts taken reminders in the given snapshot.
func ProgressOf(reminders []*Reminder) Progress {
	p := Progress{Total: len(reminders)}
	for _, r := range reminders {
		if r.IsTaken {
			p.Completed++
		}
	}
	return p
}

// Percent returns the completion percentage, 0 for an empty list.
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	return int(float64(p.Completed) / float64(p.Total) * 100)
}

// Points returns the gamification score shown next to the progress bar.
func (p Progress) Points() int {
	return p.Completed * 10
}
