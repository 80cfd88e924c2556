package handlers

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"

	"wedding-planner-go/internal/models"
)

// WorkerPath is where browsers install the background worker from.
const WorkerPath = "/sw.js"

//go:embed static/sw.js
var serviceWorkerJS []byte

// ServiceWorkerHandler serves the background worker with the app name
// prepended, so notifications fall back to the same title as broadcasts.
func (h *Handler) ServiceWorkerHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := h.AppName
	if name == "" {
		name = models.DefaultAppName
	}
	quoted, err := json.Marshal(name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render worker")
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Service-Worker-Allowed", "/")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprintf(w, "const APP_NAME = %s;\n", quoted)
	_, _ = w.Write(serviceWorkerJS)
}
