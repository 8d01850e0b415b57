package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heymemory/server/internal/model"
	"github.com/heymemory/server/internal/repository"
	"github.com/heymemory/server/internal/validation"
)

// UserService covers admin user management and user lookups outside
// the auth flows.
type UserService struct {
	userRepository    repository.UserRepository
	sessionRepository repository.SessionRepository
	fileService       *FileService
	emailService      *EmailService
}

func NewUserService(
	userRepository repository.UserRepository,
	sessionRepository repository.SessionRepository,
	fileService *FileService,
	emailService *EmailService,
) *UserService {
	return &UserService{
		userRepository:    userRepository,
		sessionRepository: sessionRepository,
		fileService:       fileService,
		emailService:      emailService,
	}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	return s.userRepository.ByID(id)
}

func (s *UserService) All() ([]*model.User, error) {
	return s.userRepository.All()
}

// AdminUserInput carries the fields an admin sets when creating or
// replacing a user.
type AdminUserInput struct {
	Email       string
	Password    string // required on create, optional on update
	IsAdmin     bool
	IsVerified  bool
	FirstName   *string
	LastName    *string
	DateOfBirth *string
	Address     *string
	City        *string
	State       *string
	ZipCode     *string
	Country     *string
}

// AdminCreate creates a user directly. Admin-created users skip the
// verification flow when IsVerified is set.
func (s *UserService) AdminCreate(input AdminUserInput, hashPassword func(string) (string, error)) (*model.User, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	err = validation.ValidatePassword(input.Password)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashedPassword,
		IsAdmin:      input.IsAdmin,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		DateOfBirth:  input.DateOfBirth,
		Address:      input.Address,
		City:         input.City,
		State:        input.State,
		ZipCode:      input.ZipCode,
		Country:      input.Country,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.IsVerified {
		user.EmailVerifiedAt = &now
	}

	err = s.userRepository.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("admin created user", "user_id", user.ID, "email", user.Email, "is_admin", user.IsAdmin)
	return user, nil
}

// AdminUpdate replaces a user's fields. An empty Password leaves the
// stored hash untouched.
func (s *UserService) AdminUpdate(id string, input AdminUserInput, hashPassword func(string) (string, error)) (*model.User, error) {
	user, err := s.userRepository.ByID(id)
	if err != nil {
		return nil, err
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))
	err = validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	user.Email = email
	user.IsAdmin = input.IsAdmin
	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.DateOfBirth = input.DateOfBirth
	user.Address = input.Address
	user.City = input.City
	user.State = input.State
	user.ZipCode = input.ZipCode
	user.Country = input.Country

	now := time.Now()
	if input.IsVerified && user.EmailVerifiedAt == nil {
		user.EmailVerifiedAt = &now
	}
	if !input.IsVerified {
		user.EmailVerifiedAt = nil
	}

	if input.Password != "" {
		err = validation.ValidatePassword(input.Password)
		if err != nil {
			return nil, err
		}

		hashedPassword, err := hashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashedPassword
	}

	user.UpdatedAt = now
	err = s.userRepository.Update(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	slog.Info("admin updated user", "user_id", user.ID)
	return user, nil
}

// AdminDelete removes a user, their sessions and their stored files.
func (s *UserService) AdminDelete(id string) error {
	user, err := s.userRepository.ByID(id)
	if err != nil {
		return err
	}

	err = s.sessionRepository.DeleteByUser(user.ID)
	if err != nil {
		slog.Warn("failed to delete user sessions", "error", err, "user_id", user.ID)
	}

	err = s.fileService.DeleteAllUserFilesFromStorage(user.ID)
	if err != nil {
		// Orphaned files are better than a failed deletion
		slog.Warn("failed to delete user files from storage", "error", err, "user_id", user.ID)
	}

	err = s.emailService.SendAccountDeletedEmail(user.Email)
	if err != nil {
		slog.Warn("failed to send account deleted email", "error", err, "user_id", user.ID)
	}

	// FK cascades remove sessions, tokens, faces, remember items and
	// file records with the user row.
	err = s.userRepository.Delete(user.ID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("admin deleted user", "user_id", user.ID, "email", user.Email)
	return nil
}
