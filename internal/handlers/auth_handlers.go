package handlers

import (
	"net/http"
	"time"
	"todolist/internal/handlers/dto"
	"todolist/internal/logger"
	"todolist/internal/middleware"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	homePath    = "/"
	currentPath = "/current/"
	groupsPath  = "/groups/"
)

// Home is the landing page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserFrom(r.Context())
	payload := []Payload{
		toPayload("service", "todolist"),
		toPayload("authenticated", ok),
	}
	if ok {
		if u, err := h.auth.GetUser(r.Context(), userID); err == nil {
			payload = append(payload, toPayload("user", dto.FromUser(u)))
		}
	}
	responseWithJSON(w, http.StatusOK, payload...)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.health.HealthCheck(r.Context()); err != nil {
		logger.Error("HTTP: health check failed", err)
		responseWithJSON(w, http.StatusServiceUnavailable,
			toPayload("status", "unhealthy"),
			toPayload("time", time.Now().UTC()),
		)
		return
	}
	responseWithJSON(w, http.StatusOK,
		toPayload("status", "healthy"),
		toPayload("time", time.Now().UTC()),
	)
}

func (h *Handler) SignupPage(w http.ResponseWriter, r *http.Request) {
	responseWithJSON(w, http.StatusOK, toPayload("form", dto.SignupForm{}))
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	values, err := parseForm(r)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	form := dto.NewSignupForm(values)

	created, err := h.auth.Signup(r.Context(), form.Username, form.Password1, form.Password2)
	if err != nil {
		handleError(w, r, err, form)
		return
	}

	if err := h.startSession(w, r, created.UUID); err != nil {
		handleError(w, r, err, form)
		return
	}

	logger.Info("HTTP: user signed up", zap.String("user_id", created.UUID.String()))
	redirect(w, r, currentPath)
}

func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	form := dto.LoginForm{Next: r.URL.Query().Get("next")}
	responseWithJSON(w, http.StatusOK, toPayload("form", form))
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	values, err := parseForm(r)
	if err != nil {
		handleError(w, r, err, nil)
		return
	}
	form := dto.NewLoginForm(values)
	if form.Next == "" {
		form.Next = r.URL.Query().Get("next")
	}

	u, err := h.auth.Login(r.Context(), form.Username, form.Password)
	if err != nil {
		handleError(w, r, err, form)
		return
	}

	if err := h.startSession(w, r, u.UUID); err != nil {
		handleError(w, r, err, form)
		return
	}

	redirect(w, r, safeNext(form.Next, currentPath))
}

// Logout ends the current session. Without one it only redirects.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.SessionToken(r.Context()); token != "" {
		if err := h.sessions.Revoke(r.Context(), token); err != nil {
			handleError(w, r, err, nil)
			return
		}
	}
	h.clearCookie(w)
	redirect(w, r, homePath)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	token, session, err := h.sessions.Issue(r.Context(), userID)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(h.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// currentUser is only called behind RequireUser.
func currentUser(r *http.Request) uuid.UUID {
	id, _ := middleware.UserFrom(r.Context())
	return id
}
