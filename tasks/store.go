package tasks

import "errors"

// ErrNotFound is returned when a task id does not exist in the store.
var ErrNotFound = errors.New("task not found")

// Repository is the minimal persistence surface for the main task
// document. Implementations do a full read-modify-write per call; the
// Service serializes access so the document stays consistent within
// this process.
type Repository interface {
	List() ([]Task, error)
	Get(id string) (*Task, error)
	Save(t Task) error
	SaveAll(ts []Task) error
	Delete(id string) error
}

// StreakStore persists the streak document.
type StreakStore interface {
	LoadStreak() (Streak, error)
	SaveStreak(s Streak) error
}

// ArchiveStore manages the date-partitioned archive, keyed by
// completion month (YYYY-MM).
type ArchiveStore interface {
	AppendArchive(month string, ts []Task) error
	ListArchive(month string) ([]Task, error)
}

// Store is the full persistence surface the Service needs.
type Store interface {
	Repository
	StreakStore
	ArchiveStore
}
