package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"wedding-planner-go/internal/models"
	"wedding-planner-go/internal/push"
)

// GetVAPIDKeyHandler returns the public VAPID key
func (h *Handler) GetVAPIDKeyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"publicKey": h.Dispatcher.PublicKey(),
	})
}

// SubscribePushHandler saves a push subscription
func (h *Handler) SubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subscription models.SubscriptionInput `json:"subscription"`
		UserAgent    string                   `json:"userAgent"`
	}

	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	id, err := h.Registrar.Register(r.Context(), req.Subscription, req.UserAgent)
	if err != nil {
		h.writePushError(w, err, "Failed to save subscription")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id})
}

// UnsubscribePushHandler disables every subscription with the given endpoint
func (h *Handler) UnsubscribePushHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}

	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if err := h.Registrar.Deactivate(r.Context(), req.Endpoint); err != nil {
		h.writePushError(w, err, "Failed to remove subscription")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// SendPushHandler sends a push notification to all enabled subscribers
func (h *Handler) SendPushHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if !validateSignature(r, h.TriggerSecret) {
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var payload models.Payload
	if err := decodeBody(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		writeDecodeError(w, err)
		return
	}

	result, err := h.Dispatcher.Broadcast(r.Context(), payload)
	if err != nil {
		h.writePushError(w, err, "Failed to load subscriptions")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 64 << 10

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid request")
}

func (h *Handler) writePushError(w http.ResponseWriter, err error, serverMsg string) {
	var ve *push.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, ve.Error())
		return
	}
	h.Logger.Error(serverMsg, zap.Error(err))
	writeError(w, http.StatusInternalServerError, serverMsg)
}
