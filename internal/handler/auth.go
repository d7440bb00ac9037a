package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fortify/fortify-go/internal/cookie"
	"github.com/fortify/fortify-go/internal/crypto"
	"github.com/fortify/fortify-go/internal/middleware"
	"github.com/fortify/fortify-go/internal/model"
	"github.com/fortify/fortify-go/internal/service"
)

// Response messages.
const (
	MsgRegistered        = "Registration successful"
	MsgLoggedIn          = "Login successful"
	MsgLoggedOut         = "Logout successful"
	MsgRefreshed         = "Token refreshed successfully"
	MsgCredentialsNeeded = "Username and password are required."
	MsgInvalidLogin      = "Invalid credentials"
	MsgRefreshMissing    = "Refresh token not found."
	MsgRefreshInvalid    = "Invalid or expired refresh token."
	MsgValidationFailed  = "validation failed"
	msgInternalError     = "internal server error"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service *service.AuthService
	cookies *cookie.Codec
	csrf    *middleware.CSRF
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, cookies *cookie.Codec, csrf *middleware.CSRF, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies, csrf: csrf, logger: logger}
}

// HandleRegister handles POST /api/auth/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			recordAuthEvent(eventRegister, outcomeRejected)
			writeJSON(w, http.StatusBadRequest, validationErrorResponse{Error: MsgValidationFailed, Fields: verr.Fields})
			return
		}
		recordAuthEvent(eventRegister, outcomeError)
		h.logger.ErrorContext(r.Context(), "register user", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse(msgInternalError))
		return
	}

	recordAuthEvent(eventRegister, outcomeSuccess)
	h.logger.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, http.StatusCreated, model.AuthResponse{Message: MsgRegistered, User: model.NewUserResponse(user)})
}

// HandleLogin handles POST /api/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}

	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse(MsgCredentialsNeeded))
		return
	}

	user, pair, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			recordAuthEvent(eventLogin, outcomeRejected)
			writeJSON(w, http.StatusUnauthorized, errorResponse(MsgInvalidLogin))
			return
		}
		recordAuthEvent(eventLogin, outcomeError)
		h.logger.ErrorContext(r.Context(), "login", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse(msgInternalError))
		return
	}

	h.cookies.SetTokenPair(w, pair)
	recordAuthEvent(eventLogin, outcomeSuccess)
	writeJSON(w, http.StatusOK, model.AuthResponse{Message: MsgLoggedIn, User: model.NewUserResponse(user)})
}

// HandleLogout handles POST /api/auth/logout requests. Tokens stay valid
// until they expire; only the cookies are removed.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	recordAuthEvent(eventLogout, outcomeSuccess)
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: MsgLoggedOut})
}

// HandleRefresh handles POST /api/auth/refresh requests.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := h.cookies.RefreshToken(r)
	if !ok {
		recordAuthEvent(eventRefresh, outcomeRejected)
		writeJSON(w, http.StatusBadRequest, errorResponse(MsgRefreshMissing))
		return
	}

	access, err := h.service.Refresh(refreshToken)
	if err != nil {
		if errors.Is(err, crypto.ErrInvalidToken) {
			recordAuthEvent(eventRefresh, outcomeRejected)
			writeJSON(w, http.StatusUnauthorized, errorResponse(MsgRefreshInvalid))
			return
		}
		recordAuthEvent(eventRefresh, outcomeError)
		h.logger.ErrorContext(r.Context(), "refresh token", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse(msgInternalError))
		return
	}

	h.cookies.SetAccessToken(w, access)
	recordAuthEvent(eventRefresh, outcomeSuccess)
	writeJSON(w, http.StatusOK, model.MessageResponse{Message: MsgRefreshed})
}

// HandleCurrentUser handles GET /api/accounts/current requests.
func (h *AuthHandler) HandleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse(middleware.MsgNotAuthenticated))
		return
	}

	writeJSON(w, http.StatusOK, model.UserEnvelope{User: model.NewUserResponse(user)})
}

// HandleCSRF handles GET /api/auth/csrf requests.
func (h *AuthHandler) HandleCSRF(w http.ResponseWriter, r *http.Request) {
	token, err := h.csrf.Issue(w)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "issue csrf token", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse(msgInternalError))
		return
	}

	writeJSON(w, http.StatusOK, model.CSRFResponse{CSRFToken: token})
}
