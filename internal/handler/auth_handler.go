package handler

import (
	"net/http"
	"strings"
	"time"

	"technotes-api/internal/model"
	"technotes-api/internal/service"
	"technotes-api/pkg/apierror"
)

const (
	RefreshCookieName = "refreshToken"
	refreshCookiePath = "/auth"
)

type CookieOptions struct {
	Secure   bool
	SameSite http.SameSite
}

type AuthHandler struct {
	service *service.AuthService
	cookie  CookieOptions
	sink    eventSink
}

func NewAuthHandler(service *service.AuthService, cookie CookieOptions, sink eventSink) *AuthHandler {
	return &AuthHandler{service: service, cookie: cookie, sink: sink}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" || payload.Password == "" {
		writeError(w, r, h.sink, apierror.Validation("All fields are required", "username, password"))
		return
	}

	session, err := h.service.Login(r.Context(), username, payload.Password)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	h.setRefreshCookie(w, session.RefreshToken)
	writeJSON(w, http.StatusOK, model.LoginResponse{
		AccessToken: session.AccessToken.Token,
		Roles:       rolesOf(session.User.Roles),
		User:        session.User.Public(),
	})
}

// Refresh reads the refresh token from its cookie only; a token sent any
// other way is ignored.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		writeError(w, r, h.sink, apierror.Unauthorized("Unauthorized"))
		return
	}

	session, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	if session.RefreshToken != nil {
		h.setRefreshCookie(w, session.RefreshToken)
	}
	writeJSON(w, http.StatusOK, model.RefreshResponse{
		AccessToken: session.AccessToken.Token,
		Roles:       rolesOf(session.User.Roles),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := ""
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		token = cookie.Value
	}

	if err := h.service.Logout(r.Context(), token); err != nil {
		writeError(w, r, h.sink, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token *model.IssuedToken) {
	if token == nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token.Token,
		Path:     refreshCookiePath,
		MaxAge:   int(h.service.RefreshTTL().Seconds()),
		Expires:  token.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: h.cookie.SameSite,
	})
}
