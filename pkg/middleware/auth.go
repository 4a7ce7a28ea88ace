package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const userIDKey ctxKey = "user_id"

// SessionName is the cookie carrying the browser session. The payment
// gateway redirects the browser back without any bearer token, so the
// callback route can only identify the user through this session.
const SessionName = "pantrychef_session"

// SessionUserKey is the session value holding the user id.
const SessionUserKey = "user_id"

// Auth authenticates requests either by a Bearer JWT (API clients) or
// by the browser session cookie (redirect callback path). Unauthorized
// requests are rejected with 401.
func Auth(jwtSecret []byte, store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := userFromBearer(r, jwtSecret); ok {
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
				return
			}
			if userID, ok := userFromSession(r, store); ok {
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
				return
			}
			http.Error(w, `{"error":"not authenticated"}`, http.StatusUnauthorized)
		})
	}
}

// MaybeAuth resolves the user like Auth but lets unauthenticated
// requests through with no user on the context. The redirect callback
// uses it so the handler can send anonymous browsers to the login page
// instead of answering 401.
func MaybeAuth(jwtSecret []byte, store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID, ok := userFromBearer(r, jwtSecret); ok {
				r = r.WithContext(WithUserID(r.Context(), userID))
			} else if userID, ok := userFromSession(r, store); ok {
				r = r.WithContext(WithUserID(r.Context(), userID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func userFromBearer(r *http.Request, secret []byte) (uuid.UUID, bool) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return uuid.Nil, false
	}
	raw := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func userFromSession(r *http.Request, store sessions.Store) (uuid.UUID, bool) {
	if store == nil {
		return uuid.Nil, false
	}
	session, err := store.Get(r, SessionName)
	if err != nil {
		return uuid.Nil, false
	}
	raw, ok := session.Values[SessionUserKey].(string)
	if !ok {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// WithUserID stores the authenticated user id on the context.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}
