package output

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/robibiruk/meditrack/internal/model"
)

// Styles for CLI output.
var (
	// Colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#10B981") // Green
	colorMuted     = lipgloss.Color("#6B7280") // Gray
	colorWarning   = lipgloss.Color("#F59E0B") // Yellow
	colorError     = lipgloss.Color("#EF4444") // Red
	colorSuccess   = lipgloss.Color("#10B981") // Green

	// Styles
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleName = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleMedication = lipgloss.NewStyle().
			Foreground(colorSecondary)

	styleClock = lipgloss.NewStyle().
			Bold(true)

	styleTaken = lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(colorMuted)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	if c.IsColorEnabled() {
		c.Println(styleTitle.Render(text))
	} else {
		c.Println(text)
	}
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	if c.IsColorEnabled() {
		c.Println(styleSuccess.Render("✓ " + text))
	} else {
		c.Println("✓ " + text)
	}
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	if c.IsColorEnabled() {
		c.Println(styleWarning.Render("⚠ " + text))
	} else {
		c.Println("⚠ " + text)
	}
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	if c.IsColorEnabled() {
		c.Println(styleError.Render("✗ " + text))
	} else {
		c.Println("✗ " + text)
	}
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	if c.IsColorEnabled() {
		c.Println(styleMuted.Render(text))
	} else {
		c.Println(text)
	}
}

// ReminderLine formats one reminder for list output.
func (c *CLIFormatter) ReminderLine(r *model.Reminder) string {
	line := r.Name + " - " + r.Medication + " at " + r.Time
	if c.IsColorEnabled() {
		if r.IsTaken {
			line = styleTaken.Render(line)
		} else {
			line = styleName.Render(r.Name) + " - " +
				styleMedication.Render(r.Medication) + " at " +
				styleClock.Render(r.Time)
		}
	}
	status := "[ ]"
	if r.IsTaken {
		status = "[✓]"
	}
	return status + " " + line
}

// PrintReminderList prints reminders with a progress summary.
func (c *CLIFormatter) PrintReminderList(reminders []*model.Reminder) {
	if len(reminders) == 0 {
		c.Muted("No reminders yet.")
		c.Muted("Use 'meditrack add' to create one.")
		return
	}

	for _, r := range reminders {
		c.Printf("%s  %s\n", c.ReminderLine(r), c.mutedInline(r.ShortID()))
	}

	progress := model.ProgressOf(reminders)
	c.Println()
	c.Printf("Progress: %s %d/%d taken (%d pts)\n",
		ProgressBar(float64(progress.Percent()), 20), progress.Completed, progress.Total, progress.Points())
}

// PrintMedicineInfo prints a medicine lookup answer.
func (c *CLIFormatter) PrintMedicineInfo(name string, info *model.MedicineInfo) {
	c.Title(name)
	if info.Error != "" {
		c.Error(info.Error)
		return
	}
	c.Println(info.Answer)
}

// PrintNewMedicines prints the recent-approvals feed.
func (c *CLIFormatter) PrintNewMedicines(medicines []model.NewMedicine) {
	if len(medicines) == 0 {
		c.Muted("No new medicines.")
		return
	}
	for _, m := range medicines {
		if c.IsColorEnabled() {
			c.Printf("%s %s\n", styleName.Render(m.Name), styleMuted.Render("("+m.Category+")"))
		} else {
			c.Printf("%s (%s)\n", m.Name, m.Category)
		}
		c.Printf("  %s\n", m.Description)
	}
}

func (c *CLIFormatter) mutedInline(text string) string {
	if c.IsColorEnabled() {
		return styleMuted.Render(text)
	}
	return text
}

// ProgressBar creates a simple progress bar.
func ProgressBar(percentage float64, width int) string {
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	filled := int(float64(width) * percentage / 100)
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return bar
}
