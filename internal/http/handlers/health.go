package handlers

import (
	"net/http"
)

// Health godoc
// @Summary Service liveness probe
// @Tags ops
// @Produce json
// @Success 200 {object} map[string]string
// @Router /v1/healthz [get]
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
