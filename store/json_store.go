// Package store provides the persistence backends for the task tracker:
// a JSON document store (the default) and a sqlite-backed store, both
// implementing tasks.Store.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"focusdo/tasks"
)

const (
	tasksFile  = "tasks.json"
	streakFile = "streak.json"
)

// taskDocument is the on-disk shape of the main store and of each
// archive partition: a single "tasks" array.
type taskDocument struct {
	Tasks []tasks.Task `json:"tasks"`
}

// JSONStore keeps the whole task list in one JSON document under a
// directory, with archive partitions and the streak document beside it.
// Every mutation rewrites the document via a temp file and rename so a
// crash never leaves a half-written store.
type JSONStore struct {
	mu  sync.Mutex
	dir string
}

func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &JSONStore{dir: dir}, nil
}

func (s *JSONStore) List() ([]tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.readDocument(tasksFile)
	return doc.Tasks, nil
}

func (s *JSONStore) Get(id string) (*tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.readDocument(tasksFile)
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == id {
			t := doc.Tasks[i]
			return &t, nil
		}
	}
	return nil, tasks.ErrNotFound
}

// Save inserts the task or replaces the entry with the same id.
func (s *JSONStore) Save(t tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.readDocument(tasksFile)
	replaced := false
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == t.ID {
			doc.Tasks[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Tasks = append(doc.Tasks, t)
	}
	return s.writeDocument(tasksFile, doc)
}

// SaveAll replaces the whole task list.
func (s *JSONStore) SaveAll(ts []tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ts == nil {
		ts = []tasks.Task{}
	}
	return s.writeDocument(tasksFile, taskDocument{Tasks: ts})
}

func (s *JSONStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.readDocument(tasksFile)
	for i := range doc.Tasks {
		if doc.Tasks[i].ID == id {
			doc.Tasks = append(doc.Tasks[:i], doc.Tasks[i+1:]...)
			return s.writeDocument(tasksFile, doc)
		}
	}
	return tasks.ErrNotFound
}

// AppendArchive appends tasks to the partition for the given month
// (YYYY-MM), creating the file on first use.
func (s *JSONStore) AppendArchive(month string, ts []tasks.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := archiveFileName(month)
	doc := s.readDocument(name)
	doc.Tasks = append(doc.Tasks, ts...)
	return s.writeDocument(name, doc)
}

// ListArchive reads one archive partition. A missing partition is an
// empty list, not an error.
func (s *JSONStore) ListArchive(month string) ([]tasks.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.readDocument(archiveFileName(month))
	return doc.Tasks, nil
}

func (s *JSONStore) LoadStreak() (tasks.Streak, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var streak tasks.Streak
	data, err := os.ReadFile(filepath.Join(s.dir, streakFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return tasks.Streak{}, nil
		}
		return tasks.Streak{}, fmt.Errorf("failed to read streak file: %w", err)
	}
	if err := json.Unmarshal(data, &streak); err != nil {
		return tasks.Streak{}, nil
	}
	return streak, nil
}

func (s *JSONStore) SaveStreak(streak tasks.Streak) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(streak, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal streak state: %w", err)
	}
	return s.atomicWrite(streakFile, data)
}

// readDocument loads a task document. Any read or parse failure yields
// an empty document: a missing or corrupt store reads as no tasks.
func (s *JSONStore) readDocument(name string) taskDocument {
	doc := taskDocument{Tasks: []tasks.Task{}}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return doc
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return taskDocument{Tasks: []tasks.Task{}}
	}
	if doc.Tasks == nil {
		doc.Tasks = []tasks.Task{}
	}
	return doc
}

func (s *JSONStore) writeDocument(name string, doc taskDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal task document: %w", err)
	}
	return s.atomicWrite(name, data)
}

func (s *JSONStore) atomicWrite(name string, data []byte) error {
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func archiveFileName(month string) string {
	return "archive-" + month + ".json"
}
