package service

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heymemory/server/internal/model"
	"github.com/heymemory/server/internal/repository"
	"github.com/heymemory/server/internal/validation"
)

var (
	ErrFaceNotFound = errors.New("face not found")
)

// FaceService manages the faces flashcards. All operations are scoped
// to the owning user; a face belonging to someone else reads as
// not-found.
type FaceService struct {
	faceRepo    repository.FaceRepository
	fileService *FileService
}

func NewFaceService(faceRepo repository.FaceRepository, fileService *FileService) *FaceService {
	return &FaceService{
		faceRepo:    faceRepo,
		fileService: fileService,
	}
}

func (s *FaceService) Faces(userID string) ([]*model.Face, error) {
	faces, err := s.faceRepo.ByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get faces: %w", err)
	}

	for _, face := range faces {
		s.populatePhotoURL(face)
	}

	return faces, nil
}

func (s *FaceService) Face(userID, faceID string) (*model.Face, error) {
	face, err := s.faceRepo.ByID(faceID)
	if err != nil {
		return nil, ErrFaceNotFound
	}

	if face.UserID != userID {
		return nil, ErrFaceNotFound
	}

	s.populatePhotoURL(face)
	return face, nil
}

func (s *FaceService) Create(userID, personName, relationship string, notes *string) (*model.Face, error) {
	err := validation.ValidateName(personName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	face := &model.Face{
		ID:           uuid.New().String(),
		UserID:       userID,
		PersonName:   strings.TrimSpace(personName),
		Relationship: strings.TrimSpace(relationship),
		Notes:        notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.faceRepo.Create(face)
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}

	return face, nil
}

func (s *FaceService) Update(userID, faceID, personName, relationship string, notes *string) (*model.Face, error) {
	face, err := s.Face(userID, faceID)
	if err != nil {
		return nil, err
	}

	err = validation.ValidateName(personName)
	if err != nil {
		return nil, err
	}

	face.PersonName = strings.TrimSpace(personName)
	face.Relationship = strings.TrimSpace(relationship)
	face.Notes = notes
	face.UpdatedAt = time.Now()

	err = s.faceRepo.Update(face)
	if err != nil {
		return nil, fmt.Errorf("failed to update face: %w", err)
	}

	return face, nil
}

func (s *FaceService) Delete(userID, faceID string) error {
	face, err := s.Face(userID, faceID)
	if err != nil {
		return err
	}

	err = s.fileService.DeleteOwnerFile("face", face.ID, model.FileTypePhoto)
	if err != nil {
		slog.Warn("failed to delete face photo", "error", err, "face_id", face.ID)
	}

	err = s.faceRepo.Delete(face.ID)
	if err != nil {
		return fmt.Errorf("failed to delete face: %w", err)
	}

	return nil
}

// UploadPhoto replaces the face's photo. The previous photo, if any, is
// removed from storage.
func (s *FaceService) UploadPhoto(userID, faceID string, file multipart.File, header *multipart.FileHeader) (*model.Face, error) {
	face, err := s.Face(userID, faceID)
	if err != nil {
		return nil, err
	}

	err = validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		return nil, err
	}

	err = s.fileService.DeleteOwnerFile("face", face.ID, model.FileTypePhoto)
	if err != nil {
		slog.Warn("failed to delete previous face photo", "error", err, "face_id", face.ID)
	}

	_, err = s.fileService.Upload(userID, "face", face.ID, model.FileTypePhoto, file, header)
	if err != nil {
		return nil, err
	}

	s.populatePhotoURL(face)
	return face, nil
}

func (s *FaceService) populatePhotoURL(face *model.Face) {
	photo, err := s.fileService.FileByType("face", face.ID, model.FileTypePhoto)
	if err == nil {
		face.PhotoURL = s.fileService.URL(photo)
	}
}
