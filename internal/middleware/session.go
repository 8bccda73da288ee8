package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"todolist/internal/auth"
	"todolist/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	userIDKey       contextKey = "user_id"
	sessionTokenKey contextKey = "session_token"
)

const LoginPath = "/login/"

type SessionResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Session, error)
}

// Session resolves the session cookie, if any, and stores the user id in the request context.
// Requests with a missing or invalid cookie continue anonymously.
func Session(resolver SessionResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := resolver.Resolve(r.Context(), cookie.Value)
			if err != nil {
				if !isSessionRejection(err) {
					logger.Error("Session: resolve failed", err,
						zap.String("request_id", GetRequestID(r.Context())))
				} else {
					logger.Debug("Session: rejected", zap.Error(err))
				}
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithUser(r.Context(), session.UserID)
			ctx = context.WithValue(ctx, sessionTokenKey, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func isSessionRejection(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken) ||
		errors.Is(err, auth.ErrExpiredToken) ||
		errors.Is(err, auth.ErrSessionRevoked)
}

// RequireUser redirects anonymous requests to the login page, remembering where they were going.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFrom(r.Context()); !ok {
			target := LoginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithUser(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func UserFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// SessionToken returns the raw token the current request was authenticated with.
func SessionToken(ctx context.Context) string {
	token, _ := ctx.Value(sessionTokenKey).(string)
	return token
}
