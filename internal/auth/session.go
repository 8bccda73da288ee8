package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todolist/internal/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken   = errors.New("invalid session token")
	ErrExpiredToken   = errors.New("session token has expired")
	ErrSessionRevoked = errors.New("session revoked")
)

const DefaultSessionTTL = 14 * 24 * time.Hour

type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// Session is an authenticated login of one user.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ExpiresAt time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// SessionManager issues signed session tokens and checks them against a revocable Store.
type SessionManager struct {
	config SessionConfig
	store  Store
	now    func() time.Time
}

func NewSessionManager(config SessionConfig, store Store) *SessionManager {
	if config.TTL <= 0 {
		config.TTL = DefaultSessionTTL
	}
	if config.Issuer == "" {
		config.Issuer = "todolist"
	}
	return &SessionManager{
		config: config,
		store:  store,
		now:    time.Now,
	}
}

func (m *SessionManager) TTL() time.Duration {
	return m.config.TTL
}

// Issue starts a session for the user and returns its token.
func (m *SessionManager) Issue(ctx context.Context, userID uuid.UUID) (string, *Session, error) {
	now := m.now()
	session := &Session{
		ID:        uuid.New(),
		UserID:    userID,
		ExpiresAt: now.Add(m.config.TTL),
	}

	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID.String(),
			Subject:   userID.String(),
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", nil, fmt.Errorf("sign session token: %w", err)
	}

	if err := m.store.Save(ctx, session.ID.String(), userID.String(), m.config.TTL); err != nil {
		return "", nil, fmt.Errorf("save session: %w", err)
	}

	logger.Debug("Session: issued",
		zap.String("session_id", session.ID.String()),
		zap.String("user_id", userID.String()))

	return token, session, nil
}

// Resolve verifies the token and that its session has not been revoked.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := m.parse(token)
	if err != nil {
		return nil, err
	}

	sessionID, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	storedUser, err := m.store.Get(ctx, sessionID.String())
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if storedUser != userID.String() {
		logger.Warn("Session: subject mismatch", zap.String("session_id", sessionID.String()))
		return nil, ErrInvalidToken
	}

	return &Session{
		ID:        sessionID,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke ends the session the token belongs to. Tokens that no longer verify are ignored.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	claims, err := m.parse(token)
	if err != nil {
		return nil
	}
	if err := m.store.Delete(ctx, claims.ID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	logger.Debug("Session: revoked", zap.String("session_id", claims.ID))
	return nil
}

func (m *SessionManager) parse(token string) (*sessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.Secret), nil
	},
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
