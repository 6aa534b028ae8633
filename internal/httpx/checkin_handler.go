package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-event-tickets/internal/checkin"
)

type CheckInHandler struct {
	Service *checkin.Service
}

func (h *CheckInHandler) Register(r chi.Router) {
	r.Post("/events/checkin", h.checkIn)
	r.Delete("/events/checkin", h.cancelCheckIn)
	r.Get("/events/{eventID}/checkin/status", h.status)
}

type checkInReq struct {
	EventID string `json:"eventId"`
	// UserID targets another attendee; requires event-management permission.
	UserID string `json:"userId,omitempty"`
}

func (h *CheckInHandler) checkIn(w http.ResponseWriter, r *http.Request) {
	var req checkInReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EventID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing eventId"})
		return
	}
	acting := UserID(r.Context())
	target := req.UserID
	if target == "" {
		target = acting
	}

	reg, err := h.Service.CheckIntoEvent(r.Context(), req.EventID, target, acting)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"checkIn": reg.CheckedInAt})
}

func (h *CheckInHandler) cancelCheckIn(w http.ResponseWriter, r *http.Request) {
	var req checkInReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EventID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing eventId"})
		return
	}
	acting := UserID(r.Context())
	target := req.UserID
	if target == "" {
		target = acting
	}

	reg, err := h.Service.CancelEventCheckIn(r.Context(), req.EventID, target, acting)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"checkIn": reg.CheckedInAt})
}

func (h *CheckInHandler) status(w http.ResponseWriter, r *http.Request) {
	st, err := h.Service.GetCheckInStatus(r.Context(), chi.URLParam(r, "eventID"), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
