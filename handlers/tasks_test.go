package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"focusdo/services"
	"focusdo/tasks"
)

// memStore is a minimal in-memory tasks.Store for handler tests.
type memStore struct {
	tasks   []tasks.Task
	streak  tasks.Streak
	archive map[string][]tasks.Task
}

var _ tasks.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{archive: make(map[string][]tasks.Task)}
}

func (m *memStore) List() ([]tasks.Task, error) {
	return append([]tasks.Task(nil), m.tasks...), nil
}

func (m *memStore) Get(id string) (*tasks.Task, error) {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			t := m.tasks[i]
			return &t, nil
		}
	}
	return nil, tasks.ErrNotFound
}

func (m *memStore) Save(t tasks.Task) error {
	for i := range m.tasks {
		if m.tasks[i].ID == t.ID {
			m.tasks[i] = t
			return nil
		}
	}
	m.tasks = append(m.tasks, t)
	return nil
}

func (m *memStore) SaveAll(ts []tasks.Task) error {
	m.tasks = append([]tasks.Task(nil), ts...)
	return nil
}

func (m *memStore) Delete(id string) error {
	for i := range m.tasks {
		if m.tasks[i].ID == id {
			m.tasks = append(m.tasks[:i], m.tasks[i+1:]...)
			return nil
		}
	}
	return tasks.ErrNotFound
}

func (m *memStore) AppendArchive(month string, ts []tasks.Task) error {
	m.archive[month] = append(m.archive[month], ts...)
	return nil
}

func (m *memStore) ListArchive(month string) ([]tasks.Task, error) {
	return append([]tasks.Task(nil), m.archive[month]...), nil
}

func (m *memStore) LoadStreak() (tasks.Streak, error) { return m.streak, nil }

func (m *memStore) SaveStreak(s tasks.Streak) error {
	m.streak = s
	return nil
}

// newTestRouter wires the handler stack the way main does.
func newTestRouter(t *testing.T) (*mux.Router, *tasks.Service) {
	t.Helper()
	logger := log.New(io.Discard)
	service := tasks.NewService(newMemStore(), logger)
	hub := services.NewHub(logger)
	go hub.Run()

	h := NewTaskHandler(service, hub, logger)

	r := mux.NewRouter()
	r.HandleFunc("/api/tasks", h.ListTasks).Methods("GET")
	r.HandleFunc("/api/tasks", h.SaveTask).Methods("POST")
	r.HandleFunc("/api/tasks/archived", h.ListArchived).Methods("GET")
	r.HandleFunc("/api/tasks/{id}/start", h.StartTask).Methods("POST")
	r.HandleFunc("/api/tasks/{id}/stop", h.StopTask).Methods("POST")
	r.HandleFunc("/api/tasks/{id}/complete", h.CompleteTask).Methods("POST")
	r.HandleFunc("/api/tasks/{id}/restore", h.RestoreTask).Methods("POST")
	r.HandleFunc("/api/tasks/{id}", h.DeleteTask).Methods("DELETE")
	r.HandleFunc("/api/archive/cleanup", h.CleanupArchive).Methods("POST")
	r.HandleFunc("/api/streak", h.GetStreak).Methods("GET")
	return r, service
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r *mux.Router, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not the JSON envelope: %s", rec.Body.String())
	}
	return rec, env
}

func TestSaveTaskCreates(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, env := doJSON(t, r, "POST", "/api/tasks", map[string]any{
		"description": "write tests",
		"priority":    "high",
	})
	if rec.Code != http.StatusOK || env.Status != "success" {
		t.Fatalf("status %d, envelope %+v", rec.Code, env)
	}

	var created tasks.Task
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.Priority != tasks.PriorityHigh {
		t.Errorf("created = %+v", created)
	}
}

func TestSaveTaskValidationError(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, env := doJSON(t, r, "POST", "/api/tasks", map[string]any{
		"description": "bad link",
		"links":       []string{"not a url"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if env.Status != "error" || env.Message == "" {
		t.Errorf("envelope = %+v, want error with message", env)
	}
}

func TestSaveTaskUpdateUnknownID(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, _ := doJSON(t, r, "POST", "/api/tasks", map[string]any{
		"id":          "missing",
		"description": "ghost",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestTimerTransitionsOverHTTP(t *testing.T) {
	r, svc := newTestRouter(t)
	created, err := svc.Create(tasks.Task{Description: "focus"})
	if err != nil {
		t.Fatal(err)
	}

	rec, env := doJSON(t, r, "POST", "/api/tasks/"+created.ID+"/start", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d: %+v", rec.Code, env)
	}
	var started tasks.Task
	json.Unmarshal(env.Data, &started)
	if !started.InProgress {
		t.Error("start did not mark the task in progress")
	}

	rec, env = doJSON(t, r, "POST", "/api/tasks/"+created.ID+"/stop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop status = %d: %+v", rec.Code, env)
	}
	var stopped tasks.Task
	json.Unmarshal(env.Data, &stopped)
	if stopped.InProgress {
		t.Error("stop did not clear in-progress state")
	}

	rec, _ = doJSON(t, r, "POST", "/api/tasks/unknown/start", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("start unknown id status = %d, want 404", rec.Code)
	}
}

func TestCompleteAndArchivedListing(t *testing.T) {
	r, svc := newTestRouter(t)
	created, err := svc.Create(tasks.Task{Description: "finish me"})
	if err != nil {
		t.Fatal(err)
	}

	rec, _ := doJSON(t, r, "POST", "/api/tasks/"+created.ID+"/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d", rec.Code)
	}

	_, env := doJSON(t, r, "GET", "/api/tasks", nil)
	var active []tasks.Task
	json.Unmarshal(env.Data, &active)
	if len(active) != 0 {
		t.Errorf("active list has %d tasks after completion, want 0", len(active))
	}

	_, env = doJSON(t, r, "GET", "/api/tasks/archived", nil)
	var archived []tasks.Task
	json.Unmarshal(env.Data, &archived)
	if len(archived) != 1 || archived[0].ID != created.ID {
		t.Errorf("archived list = %+v", archived)
	}

	rec, _ = doJSON(t, r, "GET", "/api/tasks/archived?month=nope", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad month status = %d, want 400", rec.Code)
	}
}

func TestDeleteTask(t *testing.T) {
	r, svc := newTestRouter(t)
	created, err := svc.Create(tasks.Task{Description: "remove me"})
	if err != nil {
		t.Fatal(err)
	}

	rec, _ := doJSON(t, r, "DELETE", "/api/tasks/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec, _ = doJSON(t, r, "DELETE", "/api/tasks/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCleanupArchiveEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	rec, env := doJSON(t, r, "POST", "/api/archive/cleanup", map[string]string{"cutoffDate": "2025-10-01"})
	if rec.Code != http.StatusOK {
		t.Fatalf("cleanup status = %d: %+v", rec.Code, env)
	}

	rec, _ = doJSON(t, r, "POST", "/api/archive/cleanup", map[string]string{"cutoffDate": "soon"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad cutoff status = %d, want 400", rec.Code)
	}
}

func TestGetStreak(t *testing.T) {
	r, svc := newTestRouter(t)
	created, err := svc.Create(tasks.Task{Description: "one done"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Complete(created.ID); err != nil {
		t.Fatal(err)
	}

	rec, env := doJSON(t, r, "GET", "/api/streak", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("streak status = %d", rec.Code)
	}
	var streak tasks.Streak
	json.Unmarshal(env.Data, &streak)
	if streak.TasksCompletedToday != 1 {
		t.Errorf("tasksCompletedToday = %d, want 1", streak.TasksCompletedToday)
	}
}
