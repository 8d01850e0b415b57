package handler

import (
	"errors"
	"net/http"

	"github.com/heymemory/server/internal/ctxkeys"
	"github.com/heymemory/server/internal/service"
	"github.com/heymemory/server/internal/validation"
)

// maxPhotoUploadBytes bounds the multipart form, slightly above the
// per-file limit so the validator reports the friendly error.
const maxPhotoUploadBytes = 6 << 20

type FaceHandler struct {
	faceService *service.FaceService
}

func NewFaceHandler(faceService *service.FaceService) *FaceHandler {
	return &FaceHandler{faceService: faceService}
}

type faceRequest struct {
	PersonName   string  `json:"personName"`
	Relationship string  `json:"relationship"`
	Notes        *string `json:"notes"`
}

// List handles GET /api/faces
func (h *FaceHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	faces, err := h.faceService.Faces(user.ID)
	if err != nil {
		ServerError(w, err)
		return
	}

	JSON(w, http.StatusOK, presentFaces(faces))
}

// Get handles GET /api/faces/{id}
func (h *FaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	face, err := h.faceService.Face(user.ID, r.PathValue("id"))
	if err != nil {
		h.writeFaceError(w, err)
		return
	}

	JSON(w, http.StatusOK, presentFace(face))
}

// Create handles POST /api/faces
func (h *FaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req faceRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	face, err := h.faceService.Create(user.ID, req.PersonName, req.Relationship, req.Notes)
	if err != nil {
		h.writeFaceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, presentFace(face))
}

// Update handles PUT /api/faces/{id}
func (h *FaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req faceRequest
	if err := DecodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	face, err := h.faceService.Update(user.ID, r.PathValue("id"), req.PersonName, req.Relationship, req.Notes)
	if err != nil {
		h.writeFaceError(w, err)
		return
	}

	JSON(w, http.StatusOK, presentFace(face))
}

// Delete handles DELETE /api/faces/{id}
func (h *FaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.faceService.Delete(user.ID, r.PathValue("id"))
	if err != nil {
		h.writeFaceError(w, err)
		return
	}

	Message(w, http.StatusOK, "Face deleted")
}

// UploadPhoto handles POST /api/faces/{id}/photo with a multipart field
// named "photo".
func (h *FaceHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoUploadBytes)
	if err := r.ParseMultipartForm(maxPhotoUploadBytes); err != nil {
		Error(w, http.StatusBadRequest, "Invalid upload: expected a multipart form with a photo")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		Error(w, http.StatusBadRequest, "Missing photo file")
		return
	}
	defer func() { _ = file.Close() }()

	face, err := h.faceService.UploadPhoto(user.ID, r.PathValue("id"), file, header)
	if err != nil {
		h.writeFaceError(w, err)
		return
	}

	JSON(w, http.StatusOK, presentFace(face))
}

func (h *FaceHandler) writeFaceError(w http.ResponseWriter, err error) {
	var validationErr *validation.Error
	switch {
	case errors.Is(err, service.ErrFaceNotFound):
		Error(w, http.StatusNotFound, "Face not found")
	case errors.As(err, &validationErr):
		Error(w, http.StatusBadRequest, validationErr.Message)
	default:
		ServerError(w, err)
	}
}
