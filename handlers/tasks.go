package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"focusdo/services"
	"focusdo/tasks"
)

// TaskHandler exposes the task tracker's REST surface.
type TaskHandler struct {
	service *tasks.Service
	hub     *services.Hub
	log     *log.Logger
}

func NewTaskHandler(service *tasks.Service, hub *services.Hub, logger *log.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		hub:     hub,
		log:     logger,
	}
}

// ListTasks returns all active (non-archived) tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List()
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, list)
}

// ListArchived returns archived tasks. With ?month=YYYY-MM it reads a
// cleanup partition instead of the main document.
func (h *TaskHandler) ListArchived(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")

	var list []tasks.Task
	var err error
	if month != "" {
		list, err = h.service.ListArchiveMonth(month)
	} else {
		list, err = h.service.ListArchived()
	}
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, list)
}

// SaveTask creates a task when the body has no id and updates the
// matching task in place when it does.
func (h *TaskHandler) SaveTask(w http.ResponseWriter, r *http.Request) {
	var t tasks.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}

	var saved *tasks.Task
	var err error
	if t.ID == "" {
		saved, err = h.service.Create(t)
	} else {
		saved, err = h.service.Update(t)
	}
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.broadcastTasks()
	respondSuccess(w, saved)
}

// StartTask begins the focus timer on a task.
func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Start)
}

// StopTask stops the focus timer and accrues elapsed time.
func (h *TaskHandler) StopTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Stop)
}

// CompleteTask finishes a task, archives it and spawns the recurring
// successor when one is due.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Complete)
}

// RestoreTask returns an archived task to the active list.
func (h *TaskHandler) RestoreTask(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Restore)
}

func (h *TaskHandler) transition(w http.ResponseWriter, r *http.Request, op func(string) (*tasks.Task, error)) {
	id := mux.Vars(r)["id"]
	t, err := op(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.broadcastTasks()
	respondSuccess(w, t)
}

// DeleteTask removes a task entirely.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.service.Delete(id); err != nil {
		h.respondError(w, err)
		return
	}
	h.broadcastTasks()
	respondSuccess(w, map[string]string{"id": id})
}

// CleanupArchive moves archived tasks completed before the cutoff date
// into per-month archive files.
func (h *TaskHandler) CleanupArchive(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CutoffDate string `json:"cutoffDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondErrorMessage(w, http.StatusBadRequest, "invalid request format")
		return
	}

	moved, err := h.service.CleanupArchive(req.CutoffDate)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, map[string]int{"moved": moved})
}

// GetStreak returns the gamification streak state.
func (h *TaskHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.service.Streak()
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, streak)
}

// HandleWebSocket upgrades the HTTP connection and registers the client
// for live task and reminder events.
func (h *TaskHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // single-user app behind CORS; origins are not restricted
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	client := &services.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

// broadcastTasks pushes the post-mutation task list to connected
// clients. Failures only cost liveness, never the request.
func (h *TaskHandler) broadcastTasks() {
	list, err := h.service.List()
	if err != nil {
		h.log.Warn("failed to load tasks for broadcast", "err", err)
		return
	}
	h.hub.BroadcastTasks(list)
}

func (h *TaskHandler) respondError(w http.ResponseWriter, err error) {
	var verr *tasks.ValidationError
	switch {
	case errors.As(err, &verr):
		respondErrorMessage(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, tasks.ErrNotFound):
		respondErrorMessage(w, http.StatusNotFound, "task not found")
	default:
		h.log.Error("storage error", "err", err)
		respondErrorMessage(w, http.StatusInternalServerError, "server error")
	}
}

func respondSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "success",
		"data":   data,
	})
}

func respondErrorMessage(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"message": message,
	})
}
