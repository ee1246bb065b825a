package model

import (
	"fmt"
	"time"
)

// NotificationType defines the type of notification.
type NotificationType string

// NotifyDose marks a notification about a due dose.
const NotifyDose NotificationType = "dose"

// Notification is a side-channel message about a reminder event.
type Notification struct {
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewNotification creates a new notification.
func NewNotification(t NotificationType, title, message string) *Notification {
	return &Notification{
		Type:      t,
		Title:     title,
		Message:   message,
		Fields:    make(map[string]string),
		Timestamp: time.Now(),
	}
}

// WithField adds a field to the notification.
func (n *Notification) WithField(key, value string) *Notification {
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	n.Fields[key] = value
	return n
}

// WithPhone routes the notification to an SMS recipient.
func (n *Notification) WithPhone(phone string) *Notification {
	n.Phone = phone
	return n
}

// DoseNotification builds the standard notification for a due reminder.
func DoseNotification(r *Reminder) *Notification {
	n := NewNotification(NotifyDose,
		fmt.Sprintf("Time to take %s", r.Medication),
		fmt.Sprintf("%s, your %s dose is due at %s.", r.Name, r.Medication, r.Time)).
		WithField("Medication", r.Medication).
		WithField("Time", r.Time)
	if r.SMS && r.Phone != "" {
		n.WithPhone(r.Phone)
	}
	return n
}
