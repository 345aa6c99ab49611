// Package reminder periodically scans appointment tasks and fires a
// one-shot notification when the current time enters a task's reminder
// window.
package reminder

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"focusdo/tasks"
)

// DefaultGrace is how long a reminder window stays open past the
// appointment time.
const DefaultGrace = 15 * time.Minute

// Notifier delivers a fired reminder, typically to connected websocket
// clients.
type Notifier interface {
	BroadcastReminder(t tasks.Task)
}

// TaskLister provides the current active task list.
type TaskLister interface {
	List() ([]tasks.Task, error)
}

// Scanner checks appointment tasks on a cron interval. Each task fires
// at most once per calendar day; the notified set resets when the date
// changes.
type Scanner struct {
	lister   TaskLister
	notifier Notifier
	log      *log.Logger
	cron     *cron.Cron
	grace    time.Duration
	loc      *time.Location
	now      func() time.Time

	mu           sync.Mutex
	notifiedDate string
	notified     map[string]bool
}

func NewScanner(lister TaskLister, notifier Notifier, logger *log.Logger, loc *time.Location) *Scanner {
	return &Scanner{
		lister:   lister,
		notifier: notifier,
		log:      logger,
		cron:     cron.New(cron.WithLocation(loc)),
		grace:    DefaultGrace,
		loc:      loc,
		now:      time.Now,
		notified: make(map[string]bool),
	}
}

// Start schedules the scan to run every interval.
func (s *Scanner) Start(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("scan interval must be positive")
	}
	spec := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	if _, err := s.cron.AddFunc(spec, func() { s.Scan(s.now()) }); err != nil {
		return fmt.Errorf("failed to schedule reminder scan: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron schedule and waits for a running scan to finish.
func (s *Scanner) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Scan walks the active tasks once. A reminder fires the first time now
// falls inside [due - lead, due + grace] for an appointment that has a
// due date and has not already fired today.
func (s *Scanner) Scan(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := now.Format(tasks.DateLayout)
	if s.notifiedDate != today {
		s.notified = make(map[string]bool)
		s.notifiedDate = today
	}

	list, err := s.lister.List()
	if err != nil {
		s.log.Error("reminder scan failed to list tasks", "err", err)
		return
	}

	for _, t := range list {
		if !t.Appointment || t.Completed || s.notified[t.ID] {
			continue
		}
		due, ok := t.DueAt(s.loc)
		if !ok {
			continue
		}
		opens := due.Add(-time.Duration(t.ReminderMinutes) * time.Minute)
		closes := due.Add(s.grace)
		if now.Before(opens) || now.After(closes) {
			continue
		}
		s.notified[t.ID] = true
		s.log.Info("reminder fired", "id", t.ID, "due", due.Format(time.RFC3339))
		s.notifier.BroadcastReminder(t)
	}
}
