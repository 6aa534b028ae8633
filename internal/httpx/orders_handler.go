package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-event-tickets/internal/redisx"
	"github.com/ariefcatur/go-event-tickets/internal/tickets"
)

type OrdersHandler struct {
	Repo              *tickets.Repo
	Publisher         *tickets.Publisher
	Redis             *redis.Client
	ExpirationMinutes int
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Delete("/orders/{id}", h.cancelOrder)
	r.Post("/orders/{id}/invites", h.createInvites)
	r.Get("/orders/{id}/invites", h.listInvites)
	r.Post("/invites/redeem", h.redeemInvite)
}

// RegisterMachine mounts the payment-provider callbacks, authenticated with
// EventsToken credentials rather than a session.
func (h *OrdersHandler) RegisterMachine(r chi.Router) {
	r.Post("/orders/{orderNo}/pay", h.markPaid)
	r.Post("/orders/{orderNo}/refund", h.markRefunded)
}

type createOrderReq struct {
	EventID      string          `json:"eventId"`
	TicketTypeID string          `json:"ticketTypeId"`
	Quantity     int             `json:"quantity"`
	Answers      json.RawMessage `json:"answers,omitempty"`
}

type orderResp struct {
	ID         string     `json:"id"`
	OrderNo    string     `json:"orderNo"`
	EventID    string     `json:"eventId"`
	Status     string     `json:"status"`
	Quantity   int        `json:"quantity"`
	UnitCents  int        `json:"unitCents"`
	TotalCents int        `json:"totalCents"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	PaidAt     *time.Time `json:"paidAt,omitempty"`
	RefundedAt *time.Time `json:"refundedAt,omitempty"`
}

func toOrderResp(o *tickets.Order) orderResp {
	return orderResp{
		ID: o.ID, OrderNo: o.OrderNo, EventID: o.EventID, Status: string(o.Status),
		Quantity: o.Quantity, UnitCents: o.UnitCents, TotalCents: o.TotalCents,
		ExpiresAt: o.ExpiresAt, PaidAt: o.PaidAt, RefundedAt: o.RefundedAt,
	}
}

func (h *OrdersHandler) cacheStatus(r *http.Request, o *tickets.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	_ = h.Redis.Set(r.Context(), key, fmt.Sprintf(`{"status":%q}`, o.Status), redisx.TTLStatusCache).Err()
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.EventID == "" || req.TicketTypeID == "" || req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}

	o, err := h.Repo.CreateEventOrder(r.Context(), tickets.CreateOrderInput{
		EventID:           req.EventID,
		UserID:            UserID(r.Context()),
		TicketTypeID:      req.TicketTypeID,
		Quantity:          req.Quantity,
		ExpirationMinutes: h.ExpirationMinutes,
		Answers:           req.Answers,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(r, o)
	writeJSON(w, http.StatusCreated, toOrderResp(o))
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

func (h *OrdersHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}
	o, changed, err := h.Repo.CancelEventOrder(r.Context(), o.ID, "cancelled by user")
	if err != nil {
		writeError(w, err)
		return
	}
	if changed {
		h.Publisher.OrderCancelled(o, "cancelled by user")
		h.cacheStatus(r, o)
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

// loadOwnedOrder enforces that the caller owns the order or manages its
// event.
func (h *OrdersHandler) loadOwnedOrder(w http.ResponseWriter, r *http.Request) (*tickets.Order, bool) {
	o, err := h.Repo.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	userID := UserID(r.Context())
	if o.UserID != userID {
		staff, err := h.Repo.IsEventStaff(r.Context(), o.EventID, userID)
		if err != nil {
			writeError(w, err)
			return nil, false
		}
		if !staff {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "not your order"})
			return nil, false
		}
	}
	return o, true
}

type markPaidReq struct {
	TransactionID string     `json:"transactionId"`
	PaidAt        *time.Time `json:"paidAt,omitempty"`
}

func (h *OrdersHandler) markPaid(w http.ResponseWriter, r *http.Request) {
	var req markPaidReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TransactionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing transactionId"})
		return
	}
	o, err := h.Repo.MarkEventOrderPaid(r.Context(), chi.URLParam(r, "orderNo"), req.TransactionID, req.PaidAt)
	if err != nil {
		writeError(w, err)
		return
	}
	h.cacheStatus(r, o)
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

type markRefundedReq struct {
	RefundID   string     `json:"refundId"`
	RefundedAt *time.Time `json:"refundedAt,omitempty"`
}

func (h *OrdersHandler) markRefunded(w http.ResponseWriter, r *http.Request) {
	var req markRefundedReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefundID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing refundId"})
		return
	}
	o, changed, err := h.Repo.MarkEventOrderRefunded(r.Context(), chi.URLParam(r, "orderNo"), req.RefundID, req.RefundedAt)
	if err != nil {
		writeError(w, err)
		return
	}
	if changed {
		h.Publisher.OrderRefunded(o, req.RefundID)
		h.cacheStatus(r, o)
	}
	writeJSON(w, http.StatusOK, toOrderResp(o))
}

type createInvitesReq struct {
	Count int `json:"count"`
}

func (h *OrdersHandler) createInvites(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}
	var req createInvitesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	// the repo enforces the cumulative seat cap under the order lock
	invites, err := h.Repo.CreateOrderInvites(r.Context(), o.ID, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, invites)
}

func (h *OrdersHandler) listInvites(w http.ResponseWriter, r *http.Request) {
	o, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}
	invites, err := h.Repo.ListOrderInvites(r.Context(), o.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, invites)
}

type redeemReq struct {
	EventID string          `json:"eventId"`
	Code    string          `json:"code"`
	Answers json.RawMessage `json:"answers,omitempty"`
}

func (h *OrdersHandler) redeemInvite(w http.ResponseWriter, r *http.Request) {
	var req redeemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.EventID == "" || req.Code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing fields"})
		return
	}
	reg, err := h.Repo.RedeemOrderInvite(r.Context(), req.EventID, req.Code, UserID(r.Context()), req.Answers)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"registrationId": reg.ID,
		"status":         reg.Status,
	})
}
