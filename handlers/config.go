package handlers

import "net/http"

// ClientConfig is the subset of server configuration the browser client
// needs to mirror server behavior.
type ClientConfig struct {
	ReminderGraceMinutes int  `json:"reminderGraceMinutes"`
	ScanIntervalSeconds  int  `json:"scanIntervalSeconds"`
	StreakThreshold      int  `json:"streakThreshold"`
	AuthEnabled          bool `json:"authEnabled"`
}

// ConfigHandler serves GET /api/config.
type ConfigHandler struct {
	config ClientConfig
}

func NewConfigHandler(config ClientConfig) *ConfigHandler {
	return &ConfigHandler{config: config}
}

func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.config)
}
