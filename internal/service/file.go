package service

import (
	"fmt"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/heymemory/server/internal/model"
	"github.com/heymemory/server/internal/repository"
	"github.com/heymemory/server/internal/storage"
)

type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

// Upload stores a file and creates a database record.
// File validation (type, size, content) is the caller's responsibility.
func (s *FileService) Upload(userID, ownerType, ownerID, fileType string, file multipart.File, header *multipart.FileHeader) (*model.File, error) {
	ext := filepath.Ext(header.Filename)
	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	storagePath := filepath.Join(fileType+"s", filename)

	err := s.storage.Save(storagePath, file)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	fileModel := &model.File{
		ID:           uuid.New().String(),
		UserID:       userID,
		OwnerType:    ownerType,
		OwnerID:      ownerID,
		Type:         fileType,
		Filename:     filename,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		StoragePath:  storagePath,
		CreatedAt:    time.Now(),
	}

	err = s.fileRepo.Create(fileModel)
	if err != nil {
		// If DB insert fails, try to cleanup the uploaded file
		delErr := s.storage.Delete(storagePath)
		if delErr != nil {
			slog.Error("failed to delete file from storage during cleanup", "error", delErr, "path", storagePath)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	return fileModel, nil
}

// FileByType retrieves the latest file of a type for an owner.
func (s *FileService) FileByType(ownerType, ownerID, fileType string) (*model.File, error) {
	return s.fileRepo.FileByType(ownerType, ownerID, fileType)
}

// URL returns a time-limited URL for a file.
func (s *FileService) URL(file *model.File) string {
	if file == nil {
		return ""
	}
	return s.storage.URL(file.StoragePath)
}

// Delete removes a file from storage and database
func (s *FileService) Delete(fileID string) error {
	file, err := s.fileRepo.ByID(fileID)
	if err != nil {
		return fmt.Errorf("failed to get file: %w", err)
	}

	// Delete from storage (best effort)
	delErr := s.storage.Delete(file.StoragePath)
	if delErr != nil {
		slog.Error("failed to delete file from storage", "error", delErr, "path", file.StoragePath)
	}

	err = s.fileRepo.Delete(fileID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	return nil
}

// DeleteOwnerFile deletes the file of a type attached to an owner, if any.
func (s *FileService) DeleteOwnerFile(ownerType, ownerID, fileType string) error {
	file, err := s.fileRepo.FileByType(ownerType, ownerID, fileType)
	if err != nil {
		if err == repository.ErrFileNotFound {
			return nil
		}
		return err
	}

	return s.Delete(file.ID)
}

// DeleteAllUserFilesFromStorage removes a user's physical files. The DB
// records go away with the user row via cascade.
func (s *FileService) DeleteAllUserFilesFromStorage(userID string) error {
	files, err := s.fileRepo.AllUserFiles(userID)
	if err != nil {
		return fmt.Errorf("failed to get user files: %w", err)
	}

	for _, file := range files {
		err = s.storage.Delete(file.StoragePath)
		if err != nil {
			// Log but continue - physical file may already be gone
			slog.Warn("failed to delete file from storage", "storage_path", file.StoragePath, "error", err)
		}
	}

	return nil
}
