package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/screenlog/screenlog-be/internal/apperr"
	"github.com/screenlog/screenlog-be/internal/auth"
	"github.com/screenlog/screenlog-be/internal/services"
)

// AuthHandler handles login and email verification.
type AuthHandler struct {
	users  services.UserServiceProvider
	tokens *auth.TokenService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users services.UserServiceProvider, tokens *auth.TokenService) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// TokenPayload defines the structure for login requests.
type TokenPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is the body returned on a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token exchanges credentials for a bearer token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var payload TokenPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		RespondError(w, r, apperr.New(apperr.KindBadRequest, "invalid request body"))
		return
	}

	user, err := h.users.AuthenticateUser(r.Context(), payload.Email, payload.Password)
	if err != nil {
		log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
		RespondError(w, r, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		RespondError(w, r, apperr.Wrap(apperr.KindInternal, "failed to issue token", err))
		return
	}

	RespondJSON(w, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

// VerifyEmail consumes a verification token from the query string.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		RespondError(w, r, apperr.New(apperr.KindBadRequest, "invalid token"))
		return
	}

	verified, err := h.users.VerifyEmail(r.Context(), token)
	if err != nil {
		RespondError(w, r, err)
		return
	}
	if !verified {
		RespondError(w, r, apperr.New(apperr.KindBadRequest, "invalid or expired token"))
		return
	}

	RespondJSON(w, http.StatusOK, map[string]string{"message": "Email verified successfully!"})
}
