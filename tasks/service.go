package tasks

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Service owns all task mutations. It wraps a Store with a process-local
// mutex: every operation is a full read-modify-write cycle against the
// backing document, and the HTTP server calls in from many goroutines.
type Service struct {
	mu    sync.Mutex
	store Store
	log   *log.Logger
	now   func() time.Time
}

func NewService(store Store, logger *log.Logger) *Service {
	return &Service{
		store: store,
		log:   logger,
		now:   time.Now,
	}
}

// List returns all non-archived tasks.
func (s *Service) List() ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.List()
	if err != nil {
		return nil, err
	}
	active := make([]Task, 0, len(all))
	for _, t := range all {
		if !t.Archived {
			active = append(active, t)
		}
	}
	return active, nil
}

// ListArchived returns archived tasks still held in the main document.
func (s *Service) ListArchived() ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.List()
	if err != nil {
		return nil, err
	}
	archived := make([]Task, 0)
	for _, t := range all {
		if t.Archived {
			archived = append(archived, t)
		}
	}
	return archived, nil
}

// ListArchiveMonth reads one archive partition file (month is YYYY-MM).
func (s *Service) ListArchiveMonth(month string) ([]Task, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, validationErrorf("invalid archive month %q, expected YYYY-MM", month)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ListArchive(month)
}

func (s *Service) Get(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// Create validates and stores a new task. An empty priority defaults to
// medium before validation.
func (s *Service) Create(t Task) (*Task, error) {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	t.ID = uuid.NewString()
	t.Completed = false
	t.Archived = false
	t.InProgress = false
	t.StartedAt = nil
	t.TimeSpent = 0
	t.CompletedAt = nil
	t.CreatedAt = now
	t.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Update mutates an existing task's editable fields in place. Lifecycle
// and timer fields are owned by the start/stop/complete transitions and
// are never taken from the request.
func (s *Service) Update(t Task) (*Task, error) {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.store.Get(t.ID)
	if err != nil {
		return nil, err
	}

	existing.Description = t.Description
	existing.Details = t.Details
	existing.DueDate = t.DueDate
	existing.DueTime = t.DueTime
	existing.Priority = t.Priority
	existing.Recurring = t.Recurring
	existing.WorkingDaysOnly = t.WorkingDaysOnly
	existing.Appointment = t.Appointment
	existing.ReminderMinutes = t.ReminderMinutes
	existing.Links = t.Links
	existing.UpdatedAt = s.now()

	if err := s.store.Save(*existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(id)
}

// Start begins the focus timer on a task. If another task is already
// running its elapsed time is accrued and it is stopped first, keeping
// at most one task in progress across the store.
func (s *Service) Start(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	t, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	all, err := s.store.List()
	if err != nil {
		return nil, err
	}
	for i := range all {
		other := &all[i]
		if other.InProgress && other.ID != id {
			s.accrue(other, now)
			other.UpdatedAt = now
			if err := s.store.Save(*other); err != nil {
				return nil, err
			}
			s.log.Info("auto-stopped running task", "id", other.ID)
		}
	}
	if !t.InProgress {
		t.InProgress = true
		t.StartedAt = &now
	}
	t.UpdatedAt = now
	if err := s.store.Save(*t); err != nil {
		return nil, err
	}
	return t, nil
}

// Stop halts the timer and adds the elapsed whole seconds to the task's
// accumulated time. Stopping a task that is not running is a no-op.
func (s *Service) Stop(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	s.accrue(t, now)
	t.UpdatedAt = now
	if err := s.store.Save(*t); err != nil {
		return nil, err
	}
	return t, nil
}

// Complete accrues any running timer, marks the task done and archived,
// records the completion in the streak, and spawns the successor for a
// recurring task. The successor copies the descriptive fields, advances
// the due date by the recurrence rule, and starts with a clean timer.
func (s *Service) Complete(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	s.accrue(t, now)
	t.Completed = true
	t.Archived = true
	t.CompletedAt = &now
	t.UpdatedAt = now
	if err := s.store.Save(*t); err != nil {
		return nil, err
	}

	s.recordStreak(now)

	if t.Recurring != RecurrenceNone {
		successor := Task{
			ID:              uuid.NewString(),
			Description:     t.Description,
			Details:         t.Details,
			DueDate:         NextDueDate(t.DueDate, t.Recurring, t.WorkingDaysOnly),
			DueTime:         t.DueTime,
			Priority:        t.Priority,
			Recurring:       t.Recurring,
			WorkingDaysOnly: t.WorkingDaysOnly,
			Appointment:     t.Appointment,
			ReminderMinutes: t.ReminderMinutes,
			Links:           append([]string(nil), t.Links...),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.store.Save(successor); err != nil {
			return nil, fmt.Errorf("failed to save recurring successor: %w", err)
		}
		s.log.Info("spawned recurring successor", "id", successor.ID, "dueDate", successor.DueDate)
	}

	return t, nil
}

// Restore returns an archived task to the active list.
func (s *Service) Restore(id string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	t.Completed = false
	t.Archived = false
	t.CompletedAt = nil
	t.UpdatedAt = s.now()
	if err := s.store.Save(*t); err != nil {
		return nil, err
	}
	return t, nil
}

// CleanupArchive moves archived tasks completed before the cutoff date
// out of the main document into per-month archive partitions. Returns
// the number of tasks moved.
func (s *Service) CleanupArchive(cutoffDate string) (int, error) {
	cutoff, err := time.Parse(DateLayout, cutoffDate)
	if err != nil {
		return 0, validationErrorf("invalid cutoff date %q, expected YYYY-MM-DD", cutoffDate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.List()
	if err != nil {
		return 0, err
	}

	keep := make([]Task, 0, len(all))
	byMonth := make(map[string][]Task)
	for _, t := range all {
		if t.Archived && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			month := t.CompletedAt.Format("2006-01")
			byMonth[month] = append(byMonth[month], t)
			continue
		}
		keep = append(keep, t)
	}

	moved := 0
	for month, ts := range byMonth {
		if err := s.store.AppendArchive(month, ts); err != nil {
			return 0, fmt.Errorf("failed to write archive partition %s: %w", month, err)
		}
		moved += len(ts)
	}
	if moved > 0 {
		if err := s.store.SaveAll(keep); err != nil {
			return 0, err
		}
		s.log.Info("archive cleanup", "moved", moved, "cutoff", cutoffDate)
	}
	return moved, nil
}

// Streak returns the current streak state.
func (s *Service) Streak() (Streak, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.LoadStreak()
}

// accrue folds a running timer's elapsed whole seconds into TimeSpent
// and clears the running state. Safe to call on a stopped task.
func (s *Service) accrue(t *Task, now time.Time) {
	if !t.InProgress {
		return
	}
	if t.StartedAt != nil {
		elapsed := int64(now.Sub(*t.StartedAt).Seconds())
		if elapsed > 0 {
			t.TimeSpent += elapsed
		}
	}
	t.InProgress = false
	t.StartedAt = nil
}

// recordStreak folds one completion into the persisted streak state.
// Streak persistence failures are logged, not surfaced: losing a streak
// update must not fail the completion itself.
func (s *Service) recordStreak(now time.Time) {
	streak, err := s.store.LoadStreak()
	if err != nil {
		s.log.Warn("failed to load streak state", "err", err)
		streak = Streak{}
	}
	streak.RecordCompletion(now)
	if err := s.store.SaveStreak(streak); err != nil {
		s.log.Warn("failed to save streak state", "err", err)
	}
}
