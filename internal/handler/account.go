package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/heymemory/server/internal/ctxkeys"
	"github.com/heymemory/server/internal/service"
	"github.com/heymemory/server/internal/validation"
)

type AccountHandler struct {
	authService *service.AuthService
}

func NewAccountHandler(authService *service.AuthService) *AccountHandler {
	return &AccountHandler{authService: authService}
}

// CurrentUser handles GET /api/user
func (h *AccountHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	JSON(w, http.StatusOK, presentUser(user))
}

// UpdateProfile handles PUT /api/profile. Every profile mutation,
// including a password change, requires the current password.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		FirstName       *string `json:"firstName"`
		LastName        *string `json:"lastName"`
		DateOfBirth     *string `json:"dateOfBirth"`
		Address         *string `json:"address"`
		City            *string `json:"city"`
		State           *string `json:"state"`
		ZipCode         *string `json:"zipCode"`
		Country         *string `json:"country"`
		CurrentPassword string  `json:"currentPassword"`
		NewPassword     string  `json:"newPassword"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.CurrentPassword == "" {
		Error(w, http.StatusBadRequest, "Current password is required")
		return
	}

	updated, err := h.authService.UpdateProfile(user.ID, req.CurrentPassword, service.ProfileUpdate{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
		Country:     req.Country,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		var validationErr *validation.Error
		switch {
		case errors.Is(err, service.ErrInvalidCurrentPassword):
			Error(w, http.StatusUnauthorized, "Current password is incorrect")
		case errors.As(err, &validationErr):
			Error(w, http.StatusBadRequest, validationErr.Message)
		default:
			ServerError(w, err)
		}
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated",
		"user":    presentUser(updated),
	})
}

// InitiateEmailChange handles POST /api/initiate-email-change
func (h *AccountHandler) InitiateEmailChange(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req struct {
		NewEmail string `json:"newEmail"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := h.authService.RequestEmailChange(user.ID, req.NewEmail)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			Error(w, http.StatusBadRequest, "Please enter a valid email address")
		case errors.Is(err, service.ErrEmailAlreadyExists):
			Error(w, http.StatusBadRequest, "This email address is already in use")
		default:
			ServerError(w, err)
		}
		return
	}

	Message(w, http.StatusOK, "Verification email sent to the new address")
}

// ConfirmEmailChange handles GET /api/confirm-email-change/{token}. The
// link arrives in an email, so the outcome is reported by redirecting
// back into the app with a query parameter.
func (h *AccountHandler) ConfirmEmailChange(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")

	_, err := h.authService.ConfirmEmailChange(token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToken):
			http.Redirect(w, r, "/?error=invalid-or-expired-token", http.StatusSeeOther)
		case errors.Is(err, service.ErrNoPendingEmailChange):
			http.Redirect(w, r, "/?error=no-pending-email-change", http.StatusSeeOther)
		case errors.Is(err, service.ErrEmailAlreadyExists):
			http.Redirect(w, r, "/?error=email-already-in-use", http.StatusSeeOther)
		default:
			http.Redirect(w, r, "/?error=email-change-failed", http.StatusSeeOther)
		}
		return
	}

	http.Redirect(w, r, "/?success=email-changed", http.StatusSeeOther)
}

// CancelEmailChange handles POST /api/cancel-email-change
func (h *AccountHandler) CancelEmailChange(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.authService.CancelEmailChange(user.ID)
	if err != nil {
		if errors.Is(err, service.ErrNoPendingEmailChange) {
			Error(w, http.StatusBadRequest, "No email change in progress")
			return
		}
		ServerError(w, err)
		return
	}

	Message(w, http.StatusOK, "Email change cancelled")
}

// ResendEmailChange handles POST /api/resend-email-change-verification
func (h *AccountHandler) ResendEmailChange(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.authService.ResendEmailChange(user.ID)
	if err != nil {
		var cooldown *service.CooldownError
		switch {
		case errors.As(err, &cooldown):
			JSON(w, http.StatusTooManyRequests, map[string]any{
				"message":          fmt.Sprintf("Please wait %d seconds before requesting another email", cooldown.RemainingSeconds),
				"remainingSeconds": cooldown.RemainingSeconds,
			})
		case errors.Is(err, service.ErrNoPendingEmailChange):
			Error(w, http.StatusBadRequest, "No email change in progress")
		default:
			ServerError(w, err)
		}
		return
	}

	Message(w, http.StatusOK, "Verification email sent")
}
