package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
)

type contextKey string

const userIDKey contextKey = "user_id"

const sessionName = "marketplace_session"

// SessionAuth resolves the signed-in user from the session cookie and puts
// the user id on the request context. Requests without a valid session pass
// through unauthenticated; RequireUser gates the protected routes.
type SessionAuth struct {
	store sessions.Store
}

// NewSessionAuth creates session-backed authentication middleware
func NewSessionAuth(store sessions.Store) *SessionAuth {
	return &SessionAuth{store: store}
}

// LoadUser reads the session and attaches the user id to the context
func (m *SessionAuth) LoadUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := m.store.Get(r, sessionName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		if userID, ok := session.Values["user_id"].(int); ok && userID > 0 {
			r = r.WithContext(context.WithValue(r.Context(), userIDKey, userID))
		}

		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects requests that carry no authenticated user
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserIDFromContext(r.Context()) == 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required"}` + "\n"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserIDFromContext returns the authenticated user id, or 0 when the
// request is anonymous
func UserIDFromContext(ctx context.Context) int {
	if userID, ok := ctx.Value(userIDKey).(int); ok {
		return userID
	}
	return 0
}

// WithUserID returns a context carrying the given user id. Used by tests
// and by the session login flow.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}
