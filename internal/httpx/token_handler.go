package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-event-tickets/internal/token"
)

type TokenHandler struct {
	Repo *token.Repo
}

func (h *TokenHandler) Register(r chi.Router) {
	r.Post("/tokens", h.issue)
	r.Delete("/tokens", h.revoke)
	r.Get("/tokens", h.get)
}

type tokenResp struct {
	ID         string     `json:"id"`
	LastFour   string     `json:"lastFour"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt *time.Time `json:"lastUsedAt,omitempty"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
	// Token carries the plaintext exactly once, on issue.
	Token string `json:"token,omitempty"`
}

func (h *TokenHandler) issue(w http.ResponseWriter, r *http.Request) {
	issued, err := h.Repo.IssueEventsToken(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResp{
		ID:        issued.Token.ID,
		LastFour:  issued.Token.TokenLastFour,
		CreatedAt: issued.Token.CreatedAt,
		Token:     issued.Plain,
	})
}

func (h *TokenHandler) revoke(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.RevokeEventsToken(r.Context(), UserID(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TokenHandler) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.Repo.GetEventsToken(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResp{
		ID:         t.ID,
		LastFour:   t.TokenLastFour,
		CreatedAt:  t.CreatedAt,
		LastUsedAt: t.LastUsedAt,
		RevokedAt:  t.RevokedAt,
	})
}
