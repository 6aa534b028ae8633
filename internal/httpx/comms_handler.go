package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-event-tickets/internal/comms"
)

// EventPermissions answers whether a user may manage an event.
type EventPermissions interface {
	IsEventStaff(ctx context.Context, eventID, userID string) (bool, error)
}

type CommsHandler struct {
	Service *comms.Service
	Staff   EventPermissions
}

func (h *CommsHandler) Register(r chi.Router) {
	r.Get("/events/{eventID}/communications/quota", h.quota)
	r.Post("/events/{eventID}/communications", h.create)
	r.Post("/communications/{id}/retry", h.retry)
	r.Get("/communications/{id}", h.get)
}

// RegisterMachine mounts the transport callback the delivery layer reports
// outcomes through.
func (h *CommsHandler) RegisterMachine(r chi.Router) {
	r.Post("/communications/records", h.updateRecords)
	r.Post("/communications/{id}/stats", h.updateStats)
}

// requireStaff gates organizer actions on event-management permission.
func (h *CommsHandler) requireStaff(w http.ResponseWriter, r *http.Request, eventID string) bool {
	staff, err := h.Staff.IsEventStaff(r.Context(), eventID, UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return false
	}
	if !staff {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no permission to manage this event"})
		return false
	}
	return true
}

func (h *CommsHandler) quota(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if !h.requireStaff(w, r, eventID) {
		return
	}
	q, err := h.Service.CanSendCommunication(r.Context(), eventID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type createCommReq struct {
	Type        comms.Type `json:"type"`
	Subject     string     `json:"subject"`
	Content     string     `json:"content"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

func (h *CommsHandler) create(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	if !h.requireStaff(w, r, eventID) {
		return
	}
	var req createCommReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Type != comms.TypeEmail && req.Type != comms.TypeSMS {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be EMAIL or SMS"})
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing content"})
		return
	}

	c, err := h.Service.CreateEventCommunication(r.Context(), comms.CreateInput{
		EventID:     eventID,
		SenderID:    UserID(r.Context()),
		Type:        req.Type,
		Subject:     req.Subject,
		Content:     req.Content,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *CommsHandler) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	// permission first: the stats refresh below writes aggregates
	c, err := h.Service.GetCommunication(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.requireStaff(w, r, c.EventID) {
		return
	}
	c, err = h.Service.UpdateCommunicationStats(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CommsHandler) retry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := h.Service.GetCommunication(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !h.requireStaff(w, r, c.EventID) {
		return
	}
	n, err := h.Service.RetryFailedCommunicationRecords(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"requeued": n})
}

type updateRecordsReq struct {
	Updates []comms.RecordUpdate `json:"updates"`
}

func (h *CommsHandler) updateRecords(w http.ResponseWriter, r *http.Request) {
	var req updateRecordsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Updates) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing updates"})
		return
	}
	if err := h.Service.BatchUpdateCommunicationRecords(r.Context(), req.Updates); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": len(req.Updates)})
}

func (h *CommsHandler) updateStats(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.UpdateCommunicationStats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}
