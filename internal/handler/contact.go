package handler

import (
	"net/http"
	"strings"

	"github.com/heymemory/server/internal/service"
	"github.com/heymemory/server/internal/validation"
)

type ContactHandler struct {
	emailService *service.EmailService
}

func NewContactHandler(emailService *service.EmailService) *ContactHandler {
	return &ContactHandler{emailService: emailService}
}

// Submit handles POST /api/contact. Delivering the email is the whole
// operation, so a failed send fails the request.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Message = strings.TrimSpace(req.Message)

	if req.Name == "" || req.Subject == "" || req.Message == "" {
		Error(w, http.StatusBadRequest, "Name, subject and message are required")
		return
	}
	if err := validation.ValidateEmail(strings.TrimSpace(req.Email)); err != nil {
		Error(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	err := h.emailService.SendContactMessage(req.Name, req.Email, req.Subject, req.Message)
	if err != nil {
		ServerError(w, err)
		return
	}

	Message(w, http.StatusOK, "Message sent. We will get back to you soon.")
}
