package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-event-tickets/internal/checkin"
	"github.com/ariefcatur/go-event-tickets/internal/comms"
	"github.com/ariefcatur/go-event-tickets/internal/tickets"
	"github.com/ariefcatur/go-event-tickets/internal/token"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var rl *token.RateLimitError
	if errors.As(err, &rl) {
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":      rl.Error(),
			"retryAfter": rl.RetryAfter,
		})
		return
	}
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps the error taxonomy onto HTTP codes: not-found 404,
// permission-denied 403, state conflicts and validation 400.
func statusFor(err error) int {
	switch {
	case errors.Is(err, tickets.ErrEventNotFound),
		errors.Is(err, tickets.ErrOrderNotFound),
		errors.Is(err, tickets.ErrTicketTypeNotFound),
		errors.Is(err, tickets.ErrInviteNotFound),
		errors.Is(err, tickets.ErrRegistrationNotFound),
		errors.Is(err, comms.ErrNotFound),
		errors.Is(err, token.ErrTokenNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkin.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, tickets.ErrSoldOut),
		errors.Is(err, tickets.ErrQuantityNotPurchasable),
		errors.Is(err, tickets.ErrInviteWrongEvent),
		errors.Is(err, tickets.ErrInviteNotPending),
		errors.Is(err, tickets.ErrInviteOrderNotPaid),
		errors.Is(err, tickets.ErrAlreadyRegistered),
		errors.Is(err, tickets.ErrTooManyInvites),
		errors.Is(err, checkin.ErrAlreadyCheckedIn),
		errors.Is(err, checkin.ErrNotCheckedIn),
		errors.Is(err, checkin.ErrWindowClosed),
		errors.Is(err, comms.ErrQuotaExceeded),
		errors.Is(err, comms.ErrNoRegistrants),
		errors.Is(err, comms.ErrNoValidRecipients),
		errors.Is(err, comms.ErrNoRetryableRecords),
		errors.Is(err, comms.ErrNotRetryable):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
