package tasks

import "time"

// StreakThreshold is the number of completions a day needs before it
// counts toward the streak.
const StreakThreshold = 3

// Streak tracks consecutive qualifying days for the gamification display.
// A day qualifies once StreakThreshold tasks are completed on it; skipping
// a day breaks the chain.
type Streak struct {
	Current             int    `json:"current"`
	TasksCompletedToday int    `json:"tasksCompletedToday"`
	LastDate            string `json:"lastDate,omitempty"` // YYYY-MM-DD
}

// RecordCompletion folds one task completion into the streak state.
func (s *Streak) RecordCompletion(now time.Time) {
	today := now.Format(DateLayout)

	if s.LastDate == today {
		s.TasksCompletedToday++
		// Promotion fires exactly once, when the threshold is first met.
		if s.TasksCompletedToday == StreakThreshold && s.Current < 1 {
			s.Current = 1
		}
		return
	}

	// Day boundary. The chain extends only if yesterday qualified;
	// anything else (missed day, first ever completion) resets it.
	if s.LastDate == yesterday(now) && s.TasksCompletedToday >= StreakThreshold {
		s.Current++
	} else {
		s.Current = 0
	}
	s.TasksCompletedToday = 1
	s.LastDate = today
}

func yesterday(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(DateLayout)
}
