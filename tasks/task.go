package tasks

import (
	"fmt"
	"net/url"
	"time"
)

// DateLayout is the plain calendar date format used for due dates and
// streak bookkeeping. Dates are compared as strings, no time zone math.
const DateLayout = "2006-01-02"

// TimeLayout is the wall-clock format for appointment times.
const TimeLayout = "15:04"

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

type Recurrence string

const (
	RecurrenceNone   Recurrence = ""
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

// Task is the single record type in the store.
type Task struct {
	ID              string     `json:"id"`
	Description     string     `json:"description"`
	Details         string     `json:"details,omitempty"`
	DueDate         string     `json:"dueDate,omitempty"` // YYYY-MM-DD
	DueTime         string     `json:"dueTime,omitempty"` // HH:MM
	Priority        Priority   `json:"priority"`
	Recurring       Recurrence `json:"recurring,omitempty"`
	WorkingDaysOnly bool       `json:"workingDaysOnly,omitempty"`
	Appointment     bool       `json:"appointment,omitempty"`
	ReminderMinutes int        `json:"reminderMinutes,omitempty"`
	Links           []string   `json:"links,omitempty"`

	Completed  bool `json:"completed"`
	Archived   bool `json:"archived"`
	InProgress bool `json:"inProgress"`

	StartedAt   *time.Time `json:"startedAt,omitempty"`
	TimeSpent   int64      `json:"timeSpent"` // accumulated whole seconds
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidationError marks a client error so handlers can return a 400
// instead of a generic server error.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// Validate checks the user-editable fields of a task.
func (t *Task) Validate() error {
	if t.Description == "" {
		return validationErrorf("description is required")
	}
	switch t.Priority {
	case PriorityHigh, PriorityMedium, PriorityLow:
	default:
		return validationErrorf("invalid priority %q", t.Priority)
	}
	switch t.Recurring {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly:
	default:
		return validationErrorf("invalid recurrence %q", t.Recurring)
	}
	if t.DueDate != "" {
		if _, err := time.Parse(DateLayout, t.DueDate); err != nil {
			return validationErrorf("invalid due date %q, expected YYYY-MM-DD", t.DueDate)
		}
	}
	if t.DueTime != "" {
		if _, err := time.Parse(TimeLayout, t.DueTime); err != nil {
			return validationErrorf("invalid due time %q, expected HH:MM", t.DueTime)
		}
	}
	if t.ReminderMinutes < 0 {
		return validationErrorf("reminder minutes must not be negative")
	}
	for _, link := range t.Links {
		u, err := url.ParseRequestURI(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return validationErrorf("invalid link URL %q", link)
		}
	}
	return nil
}

// DueAt resolves the task's due date and time into a concrete instant in
// the given location. Appointments without an explicit time are due at
// midnight. Returns false if the task has no due date.
func (t *Task) DueAt(loc *time.Location) (time.Time, bool) {
	if t.DueDate == "" {
		return time.Time{}, false
	}
	layout := DateLayout
	value := t.DueDate
	if t.DueTime != "" {
		layout = DateLayout + " " + TimeLayout
		value = t.DueDate + " " + t.DueTime
	}
	due, err := time.ParseInLocation(layout, value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return due, true
}
