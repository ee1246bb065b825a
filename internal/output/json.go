package output

import (
	"time"

	"github.com/robibiruk/meditrack/internal/model"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// ReminderOutput represents a reminder in JSON output.
type ReminderOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Medication string `json:"medication"`
	Time       string `json:"time"`
	Phone      string `json:"phone,omitempty"`
	SMS        bool   `json:"sms,omitempty"`
	IsTaken    bool   `json:"is_taken"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// NewReminderOutput creates a ReminderOutput from a Reminder.
func NewReminderOutput(r *model.Reminder) *ReminderOutput {
	out := &ReminderOutput{
		ID:         r.ID,
		Name:       r.Name,
		Medication: r.Medication,
		Time:       r.Time,
		Phone:      r.Phone,
		SMS:        r.SMS,
		IsTaken:    r.IsTaken,
	}
	if !r.CreatedAt.IsZero() {
		out.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return out
}

// ListResponse represents the list command output in JSON.
type ListResponse struct {
	Reminders []*ReminderOutput `json:"reminders"`
	Progress  ProgressOutput    `json:"progress"`
	Backend   string            `json:"backend"`
}

// ProgressOutput represents completion progress in JSON output.
type ProgressOutput struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Percent   int `json:"percent"`
	Points    int `json:"points"`
}

// NewListResponse creates a ListResponse from a reminder snapshot.
func NewListResponse(reminders []*model.Reminder, backend string) *ListResponse {
	out := &ListResponse{
		Reminders: make([]*ReminderOutput, 0, len(reminders)),
		Backend:   backend,
	}
	for _, r := range reminders {
		out.Reminders = append(out.Reminders, NewReminderOutput(r))
	}
	p := model.ProgressOf(reminders)
	out.Progress = ProgressOutput{
		Total:     p.Total,
		Completed: p.Completed,
		Percent:   p.Percent(),
		Points:    p.Points(),
	}
	return out
}

// StatusResponse represents a simple status result in JSON.
type StatusResponse struct {
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
}
