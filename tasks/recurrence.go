package tasks

import "time"

// NextDueDate computes the due date of a recurring task's successor.
// Daily recurrence advances one calendar day; with workingDaysOnly set,
// a result landing on Saturday or Sunday is pushed to the following
// Monday. Weekly recurrence advances exactly seven days, which preserves
// the weekday. An empty or unparseable due date is returned unchanged.
func NextDueDate(due string, kind Recurrence, workingDaysOnly bool) string {
	if due == "" {
		return due
	}
	d, err := time.Parse(DateLayout, due)
	if err != nil {
		return due
	}

	switch kind {
	case RecurrenceDaily:
		d = d.AddDate(0, 0, 1)
		if workingDaysOnly {
			switch d.Weekday() {
			case time.Saturday:
				d = d.AddDate(0, 0, 2)
			case time.Sunday:
				d = d.AddDate(0, 0, 1)
			}
		}
	case RecurrenceWeekly:
		d = d.AddDate(0, 0, 7)
	default:
		return due
	}

	return d.Format(DateLayout)
}
