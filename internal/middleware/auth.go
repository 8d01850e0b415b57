package middleware

import (
	"log/slog"
	"net/http"

	"github.com/heymemory/server/internal/ctxkeys"
	"github.com/heymemory/server/internal/repository"
	"github.com/heymemory/server/internal/service"
)

// Session resolves the session cookie into a user and stores both on the
// request context. Requests without a valid session pass through
// unauthenticated; guards decide whether that is acceptable.
func Session(sessions repository.SessionRepository, users repository.UserRepository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(service.SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessions.ByID(cookie.Value)
			if err != nil {
				if err != repository.ErrSessionNotFound {
					slog.Error("session lookup failed", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.ByID(session.UserID)
			if err != nil {
				// Session outlived the user, drop it
				if err == repository.ErrUserNotFound {
					_ = sessions.Delete(session.ID)
				} else {
					slog.Error("session user lookup failed", "error", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := ctxkeys.WithSession(r.Context(), session)
			ctx = ctxkeys.WithUser(ctx, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects requests without a verified, logged-in user.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil || !user.IsVerified() {
			unauthorized(w)
			return
		}
		next(w, r)
	}
}

// RequireAdmin rejects requests unless the user is a verified admin.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := ctxkeys.User(r.Context())
		if user == nil || !user.IsVerified() {
			unauthorized(w)
			return
		}
		if !user.IsAdmin {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"Admin access required"}`))
			return
		}
		next(w, r)
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"message":"Authentication required"}`))
}
