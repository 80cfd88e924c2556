package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"wedding-planner-go/internal/push"
)

type Handler struct {
	Registrar  *push.Registrar
	Dispatcher *push.Dispatcher
	Logger     *zap.Logger
	// TriggerSecret guards /sendPush when non-empty.
	TriggerSecret string
	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
	// AppName is the fallback notification title baked into the worker.
	AppName string
}

func NewHandler(registrar *push.Registrar, dispatcher *push.Dispatcher, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Registrar:  registrar,
		Dispatcher: dispatcher,
		Logger:     logger,
	}
}

// Routes registers every endpoint on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/subscribe", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.SubscribePushHandler(w, r)
		case http.MethodDelete:
			h.UnsubscribePushHandler(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	mux.HandleFunc("/sendPush", h.SendPushHandler)
	mux.HandleFunc("/vapidPublicKey", h.GetVAPIDKeyHandler)
	mux.HandleFunc("/healthz", h.HealthHandler)
	mux.HandleFunc(WorkerPath, h.ServiceWorkerHandler)

	gatherer := h.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return mux
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
