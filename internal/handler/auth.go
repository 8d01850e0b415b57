package handler

import (
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/heymemory/server/internal/repository"
	"github.com/heymemory/server/internal/service"
	"github.com/heymemory/server/internal/validation"
)

type AuthHandler struct {
	authService *service.AuthService
	appName     string
}

func NewAuthHandler(authService *service.AuthService, appName string) *AuthHandler {
	return &AuthHandler{authService: authService, appName: appName}
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Register(req.Email, req.Password, req.ConfirmPassword)
	if err != nil {
		var validationErr *validation.Error
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists):
			Error(w, http.StatusBadRequest, "An account with this email already exists")
		case errors.Is(err, service.ErrInvalidEmail):
			Error(w, http.StatusBadRequest, "Please enter a valid email address")
		case errors.Is(err, service.ErrPasswordMismatch):
			Error(w, http.StatusBadRequest, "Passwords do not match")
		case errors.As(err, &validationErr):
			Error(w, http.StatusBadRequest, validationErr.Message)
		default:
			ServerError(w, err)
		}
		return
	}

	JSON(w, http.StatusCreated, map[string]string{
		"message": "Registration successful. Please check your email to verify your account.",
		"userId":  user.ID,
	})
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, session, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailNotVerified):
			Error(w, http.StatusUnauthorized, "Please verify your email before logging in")
		case errors.Is(err, service.ErrInvalidCredentials):
			Error(w, http.StatusUnauthorized, "Invalid email or password")
		default:
			ServerError(w, err)
		}
		return
	}

	h.authService.SetSessionCookie(w, session)

	JSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user": map[string]any{
			"id":              user.ID,
			"email":           user.Email,
			"isEmailVerified": user.IsVerified(),
			"isAdmin":         user.IsAdmin,
		},
	})
}

// Logout handles POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(service.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.authService.Logout(cookie.Value); err != nil {
			slog.Error("failed to delete session", "error", err)
		}
	}
	h.authService.ClearSessionCookie(w)
	Message(w, http.StatusOK, "Logged out")
}

var verifyResultTemplate = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}} - {{.AppName}}</title>
  <style>
    body { font-family: system-ui, sans-serif; max-width: 32rem; margin: 4rem auto; padding: 0 1rem; text-align: center; }
    h1 { font-size: 1.5rem; }
    a { color: #2563eb; }
  </style>
</head>
<body>
  <h1>{{.Title}}</h1>
  <p>{{.Body}}</p>
  <p><a href="/">Go to {{.AppName}}</a></p>
</body>
</html>
`))

func (h *AuthHandler) renderVerifyResult(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	err := verifyResultTemplate.Execute(w, map[string]string{
		"Title":   title,
		"Body":    body,
		"AppName": h.appName,
	})
	if err != nil {
		slog.Error("failed to render verify page", "error", err)
	}
}

// VerifyEmail handles GET /api/verify-email/{token}. The link arrives in
// an email, so the response is a human-readable page rather than JSON.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	_, err := h.authService.VerifyEmail(token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			h.renderVerifyResult(w, http.StatusBadRequest,
				"Verification failed",
				"This verification link is invalid or has expired. You can request a new one from the login page.")
			return
		}
		h.renderVerifyResult(w, http.StatusInternalServerError,
			"Something went wrong",
			"We could not verify your email right now. Please try again in a moment.")
		return
	}

	h.renderVerifyResult(w, http.StatusOK,
		"Email verified",
		"Your email address is confirmed. You can now log in to your account.")
}

// CheckVerificationStatus handles POST /api/check-verification-status
func (h *AuthHandler) CheckVerificationStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	exists, verified, userID := h.authService.VerificationStatus(req.Email)

	resp := map[string]any{
		"exists":   exists,
		"verified": verified,
	}
	if exists {
		resp["userId"] = userID
	}
	JSON(w, http.StatusOK, resp)
}

// ResendVerification handles POST /api/resend-verification
func (h *AuthHandler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.authService.ResendVerification(req.Email)
	if err != nil {
		var cooldown *service.CooldownError
		switch {
		case errors.As(err, &cooldown):
			JSON(w, http.StatusTooManyRequests, map[string]any{
				"message":          fmt.Sprintf("Please wait %d seconds before requesting another email", cooldown.RemainingSeconds),
				"remainingSeconds": cooldown.RemainingSeconds,
			})
		case errors.Is(err, repository.ErrUserNotFound):
			Error(w, http.StatusNotFound, "No account found with this email")
		case errors.Is(err, service.ErrAlreadyVerified):
			Error(w, http.StatusBadRequest, "This account is already verified")
		default:
			ServerError(w, err)
		}
		return
	}

	Message(w, http.StatusOK, "Verification email sent")
}

// CancelRegistration handles POST /api/cancel-registration
func (h *AuthHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.authService.CancelRegistration(req.Email)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			Error(w, http.StatusNotFound, "No account found with this email")
		case errors.Is(err, service.ErrAlreadyVerified):
			Error(w, http.StatusBadRequest, "A verified account cannot be cancelled")
		default:
			ServerError(w, err)
		}
		return
	}

	Message(w, http.StatusOK, "Registration cancelled")
}
