package handlers

import (
	"net/http"

	"spwebhooks/infrastructure/spclient"
)

// SystemHandlers handles service-level endpoints.
type SystemHandlers struct {
	connections *spclient.ConnectionCache
}

// NewSystemHandlers creates a new system handlers instance.
func NewSystemHandlers(connections *spclient.ConnectionCache) *SystemHandlers {
	return &SystemHandlers{connections: connections}
}

// healthResponse reports service liveness and connection cache occupancy.
type healthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
}

// Health reports service liveness.
func (h *SystemHandlers) Health(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Connections: h.connections.Size(),
	})
}
