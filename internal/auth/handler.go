package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ayush/digital-library/internal/apperr"
	"github.com/ayush/digital-library/internal/middleware"
	"github.com/ayush/digital-library/internal/models"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, fullName, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users        UserStore
	tokens       *TokenIssuer
	secureCookie bool
	log          *zap.SugaredLogger
}

func NewHandler(users UserStore, tokens *TokenIssuer, secureCookie bool, log *zap.SugaredLogger) *Handler {
	return &Handler{users: users, tokens: tokens, secureCookie: secureCookie, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Register creates a new user. It does not log the user in.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}
	if err := models.Validate.Struct(req); err != nil {
		apperr.Write(w, apperr.Wrap(apperr.Validation, "invalid registration data", err))
		return
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		h.log.Errorw("hash password", "err", err)
		apperr.Write(w, err)
		return
	}

	if _, err := h.users.CreateUser(r.Context(), req.FullName, req.Email, hashed); err != nil {
		if !apperr.IsKind(err, apperr.Conflict) {
			h.log.Errorw("create user", "err", err)
		}
		apperr.Write(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "user registered successfully"})
}

// Login authenticates a user and sets the token cookie. Unknown email and
// wrong password are deliberately indistinguishable.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperr.Write(w, apperr.New(apperr.Validation, "invalid request body"))
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.log.Errorw("get user by email", "err", err)
		apperr.Write(w, err)
		return
	}
	if user == nil || !CheckPassword(user.Password, req.Password) {
		apperr.Write(w, apperr.New(apperr.Authentication, "Invalid Credentials"))
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.log.Errorw("issue token", "err", err)
		apperr.Write(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(TokenTTL / time.Second),
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "LOGGED",
		"user":    user,
	})
}

// Logout tells the client to discard its token. Always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// Profile returns the authenticated user attached by the access guard.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		apperr.Write(w, apperr.New(apperr.Authentication, "not authenticated"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}
