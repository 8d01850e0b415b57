package handler

import (
	"errors"
	"net/http"

	"github.com/heymemory/server/internal/ctxkeys"
	"github.com/heymemory/server/internal/service"
)

type RememberHandler struct {
	rememberService *service.RememberService
}

func NewRememberHandler(rememberService *service.RememberService) *RememberHandler {
	return &RememberHandler{rememberService: rememberService}
}

type rememberItemRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Pinned  bool   `json:"pinned"`
}

// List handles GET /api/remember-items
func (h *RememberHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	items, err := h.rememberService.Items(user.ID)
	if err != nil {
		ServerError(w, err)
		return
	}

	JSON(w, http.StatusOK, presentRememberItems(items))
}

// Get handles GET /api/remember-items/{id}
func (h *RememberHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	item, err := h.rememberService.Item(user.ID, r.PathValue("id"))
	if err != nil {
		h.writeItemError(w, err)
		return
	}

	JSON(w, http.StatusOK, presentRememberItem(item))
}

// Create handles POST /api/remember-items
func (h *RememberHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req rememberItemRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.rememberService.Create(user.ID, req.Title, req.Content, req.Pinned)
	if err != nil {
		h.writeItemError(w, err)
		return
	}

	JSON(w, http.StatusCreated, presentRememberItem(item))
}

// Update handles PUT /api/remember-items/{id}
func (h *RememberHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req rememberItemRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.rememberService.Update(user.ID, r.PathValue("id"), req.Title, req.Content, req.Pinned)
	if err != nil {
		h.writeItemError(w, err)
		return
	}

	JSON(w, http.StatusOK, presentRememberItem(item))
}

// Delete handles DELETE /api/remember-items/{id}
func (h *RememberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.rememberService.Delete(user.ID, r.PathValue("id"))
	if err != nil {
		h.writeItemError(w, err)
		return
	}

	Message(w, http.StatusOK, "Item deleted")
}

func (h *RememberHandler) writeItemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRememberItemNotFound):
		Error(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, service.ErrTitleRequired):
		Error(w, http.StatusBadRequest, "Title is required")
	default:
		ServerError(w, err)
	}
}
