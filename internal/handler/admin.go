package handler

import (
	"errors"
	"net/http"

	"github.com/heymemory/server/internal/ctxkeys"
	"github.com/heymemory/server/internal/repository"
	"github.com/heymemory/server/internal/service"
	"github.com/heymemory/server/internal/validation"
)

type AdminHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewAdminHandler(userService *service.UserService, authService *service.AuthService) *AdminHandler {
	return &AdminHandler{userService: userService, authService: authService}
}

type adminUserRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	IsAdmin     bool    `json:"isAdmin"`
	IsVerified  bool    `json:"isVerified"`
	FirstName   *string `json:"firstName"`
	LastName    *string `json:"lastName"`
	DateOfBirth *string `json:"dateOfBirth"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	State       *string `json:"state"`
	ZipCode     *string `json:"zipCode"`
	Country     *string `json:"country"`
}

func (req adminUserRequest) toInput() service.AdminUserInput {
	return service.AdminUserInput{
		Email:       req.Email,
		Password:    req.Password,
		IsAdmin:     req.IsAdmin,
		IsVerified:  req.IsVerified,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
		Country:     req.Country,
	}
}

// ListUsers handles GET /api/admin/users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.All()
	if err != nil {
		ServerError(w, err)
		return
	}

	payload := make([]userPayload, 0, len(users))
	for _, user := range users {
		payload = append(payload, presentUser(user))
	}
	JSON(w, http.StatusOK, payload)
}

// GetUser handles GET /api/admin/users/{id}
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.ByID(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			Error(w, http.StatusNotFound, "User not found")
			return
		}
		ServerError(w, err)
		return
	}

	JSON(w, http.StatusOK, presentUser(user))
}

// CreateUser handles POST /api/admin/users
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req adminUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Password == "" {
		Error(w, http.StatusBadRequest, "Password is required")
		return
	}

	user, err := h.userService.AdminCreate(req.toInput(), h.authService.HashPassword)
	if err != nil {
		h.writeUserError(w, err)
		return
	}

	JSON(w, http.StatusCreated, presentUser(user))
}

// UpdateUser handles PUT /api/admin/users/{id}
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req adminUserRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.userService.AdminUpdate(r.PathValue("id"), req.toInput(), h.authService.HashPassword)
	if err != nil {
		h.writeUserError(w, err)
		return
	}

	JSON(w, http.StatusOK, presentUser(user))
}

// DeleteUser handles DELETE /api/admin/users/{id}
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// An admin removing their own account would orphan the session
	// mid-request; make them use a second admin instead.
	if actor := ctxkeys.User(r.Context()); actor != nil && actor.ID == id {
		Error(w, http.StatusBadRequest, "You cannot delete your own account")
		return
	}

	err := h.userService.AdminDelete(id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			Error(w, http.StatusNotFound, "User not found")
			return
		}
		ServerError(w, err)
		return
	}

	Message(w, http.StatusOK, "User deleted")
}

func (h *AdminHandler) writeUserError(w http.ResponseWriter, err error) {
	var validationErr *validation.Error
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		Error(w, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrEmailAlreadyExists):
		Error(w, http.StatusBadRequest, "An account with this email already exists")
	case errors.Is(err, service.ErrInvalidEmail):
		Error(w, http.StatusBadRequest, "Please enter a valid email address")
	case errors.As(err, &validationErr):
		Error(w, http.StatusBadRequest, validationErr.Message)
	default:
		ServerError(w, err)
	}
}
