package httpx

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ariefcatur/go-event-tickets/internal/redisx"
	"github.com/ariefcatur/go-event-tickets/internal/token"
)

type ctxKey string

const (
	userIDKey  ctxKey = "user_id"
	tokenIDKey ctxKey = "token_id"
)

func UserID(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// SessionAuth resolves the caller through the session store. The session id
// arrives as `Authorization: Session <id>` or the session_id cookie.
func SessionAuth(rdb *redis.Client) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := bearerValue(r, "Session")
			if sid == "" {
				if c, err := r.Cookie("session_id"); err == nil {
					sid = c.Value
				}
			}
			if sid == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "no session"})
				return
			}

			userID, err := rdb.Get(r.Context(), fmt.Sprintf(redisx.KeySession, sid)).Result()
			if err != nil || userID == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid session"})
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenAuth authenticates machine clients: `Authorization: EventsToken
// <token>` resolves to a user by hash lookup, then the rate limiter runs
// before the handler. Usage bookkeeping is best-effort and off the request
// path.
func TokenAuth(repo *token.Repo, limiter token.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			plain := bearerValue(r, "EventsToken")
			if plain == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing EventsToken credential"})
				return
			}

			t, err := repo.VerifyEventsToken(r.Context(), plain)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
				return
			}

			if err := limiter.Allow(r.Context(), t.ID); err != nil {
				writeError(w, err)
				return
			}

			ip := r.RemoteAddr
			agent := r.UserAgent()
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = repo.RecordEventsTokenUsage(ctx, t.ID, ip, agent, time.Now().UTC())
			}()

			ctx := context.WithValue(r.Context(), userIDKey, t.UserID)
			ctx = context.WithValue(ctx, tokenIDKey, t.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerValue(r *http.Request, scheme string) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	v := strings.TrimPrefix(h, scheme+" ")
	if v == h {
		return ""
	}
	return strings.TrimSpace(v)
}
