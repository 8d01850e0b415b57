package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/heymemory/server/internal/model"
	"github.com/heymemory/server/internal/repository"
	"github.com/heymemory/server/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrEmailAlreadyExists     = errors.New("email already exists")
	ErrEmailNotVerified       = errors.New("email not verified")
	ErrAlreadyVerified        = errors.New("email already verified")
	ErrInvalidEmail           = errors.New("invalid email address")
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrPasswordMismatch       = errors.New("passwords do not match")
	ErrNoPendingEmailChange   = errors.New("no pending email change")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
)

// CooldownError is returned when a resend is requested before the
// per-user cooldown window has elapsed.
type CooldownError struct {
	RemainingSeconds int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("please wait %d seconds before requesting another email", e.RemainingSeconds)
}

const SessionCookieName = "hm_session"

type AuthService struct {
	userRepository         repository.UserRepository
	tokenRepository        repository.TokenRepository
	sessionRepository      repository.SessionRepository
	emailService           *EmailService
	isProduction           bool
	sessionExpiry          time.Duration
	tokenEmailVerifyExpiry time.Duration
	tokenEmailChangeExpiry time.Duration
	resendCooldown         time.Duration
}

func NewAuthService(
	userRepository repository.UserRepository,
	tokenRepository repository.TokenRepository,
	sessionRepository repository.SessionRepository,
	emailService *EmailService,
	isProduction bool,
	sessionExpiry time.Duration,
	tokenEmailVerifyExpiry time.Duration,
	tokenEmailChangeExpiry time.Duration,
	resendCooldown time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:         userRepository,
		tokenRepository:        tokenRepository,
		sessionRepository:      sessionRepository,
		emailService:           emailService,
		isProduction:           isProduction,
		sessionExpiry:          sessionExpiry,
		tokenEmailVerifyExpiry: tokenEmailVerifyExpiry,
		tokenEmailChangeExpiry: tokenEmailChangeExpiry,
		resendCooldown:         resendCooldown,
	}
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

func (s *AuthService) ComparePassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) GenerateToken() (string, error) {
	bytes := make([]byte, 32)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// Register creates an unverified user and sends the verification email.
// The email send is best effort: the account exists either way and the
// link can be re-requested via ResendVerification.
func (s *AuthService) Register(email, password, confirmPassword string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return nil, ErrInvalidEmail
	}

	err = validation.ValidatePassword(password)
	if err != nil {
		return nil, err
	}

	if password != confirmPassword {
		return nil, ErrPasswordMismatch
	}

	_, err = s.userRepository.ByEmail(email)
	if err == nil {
		return nil, ErrEmailAlreadyExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.userRepository.Create(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	verificationToken, err := s.issueToken(user.ID, model.TokenTypeEmailVerify, s.tokenEmailVerifyExpiry)
	if err != nil {
		return nil, err
	}

	err = s.emailService.SendVerificationEmail(user.Email, verificationToken)
	if err != nil {
		slog.Warn("failed to send verification email", "error", err, "user_id", user.ID)
	}

	s.markEmailSent(user)

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// VerifyEmail consumes a verification token and marks the user verified.
func (s *AuthService) VerifyEmail(token string) (*model.User, error) {
	tokenModel, err := s.tokenRepository.ConsumeToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if tokenModel.Type != model.TokenTypeEmailVerify {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepository.ByID(tokenModel.UserID)
	if err != nil {
		return nil, err
	}

	if user.IsVerified() {
		return user, nil
	}

	now := time.Now()
	user.EmailVerifiedAt = &now
	user.UpdatedAt = now
	err = s.userRepository.Update(user)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	err = s.emailService.SendWelcomeEmail(user.Email)
	if err != nil {
		slog.Warn("failed to send welcome email", "error", err, "user_id", user.ID)
	}

	slog.Info("email verified", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// VerificationStatus reports whether an account exists for the email
// and whether it is verified.
func (s *AuthService) VerificationStatus(email string) (exists bool, verified bool, userID string) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		return false, false, ""
	}

	return true, user.IsVerified(), user.ID
}

// ResendVerification reissues the verification token after the cooldown
// has elapsed. The send failure is fatal here: delivering the email is
// the operation's only effect.
func (s *AuthService) ResendVerification(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		return err
	}

	if user.IsVerified() {
		return ErrAlreadyVerified
	}

	if remaining := s.cooldownRemaining(user); remaining > 0 {
		return &CooldownError{RemainingSeconds: remaining}
	}

	verificationToken, err := s.issueToken(user.ID, model.TokenTypeEmailVerify, s.tokenEmailVerifyExpiry)
	if err != nil {
		return err
	}

	err = s.emailService.SendVerificationEmail(user.Email, verificationToken)
	if err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	s.markEmailSent(user)
	return nil
}

// CancelRegistration hard-deletes an unverified account. Verified
// accounts cannot be cancelled this way.
func (s *AuthService) CancelRegistration(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		return err
	}

	if user.IsVerified() {
		return ErrAlreadyVerified
	}

	err = s.userRepository.Delete(user.ID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	slog.Info("registration cancelled", "user_id", user.ID, "email", user.Email)
	return nil
}

// Login authenticates the user and creates a server-side session.
// Unverified users are rejected even with correct credentials.
func (s *AuthService) Login(email, password string) (*model.User, *model.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.userRepository.ByEmail(email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(password, user.PasswordHash)
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	if !user.IsVerified() {
		return nil, nil, ErrEmailNotVerified
	}

	sessionID, err := s.GenerateToken()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate session id: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionExpiry),
	}
	err = s.sessionRepository.Create(session)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in", "user_id", user.ID, "email", user.Email)
	return user, session, nil
}

func (s *AuthService) Logout(sessionID string) error {
	return s.sessionRepository.Delete(sessionID)
}

func (s *AuthService) SetSessionCookie(w http.ResponseWriter, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.ID,
		Expires:  session.ExpiresAt,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *AuthService) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.isProduction,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequestEmailChange starts the two-step email change: the new address
// gets a verification link, the current address a notification. The
// user's email is not touched until the link is confirmed.
func (s *AuthService) RequestEmailChange(userID, newEmail string) error {
	newEmail = strings.TrimSpace(strings.ToLower(newEmail))

	err := validation.ValidateEmail(newEmail)
	if err != nil {
		return ErrInvalidEmail
	}

	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if newEmail == user.Email {
		return ErrInvalidEmail
	}

	existingUser, err := s.userRepository.ByEmail(newEmail)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if existingUser != nil {
		return ErrEmailAlreadyExists
	}

	user.PendingEmail = &newEmail
	user.UpdatedAt = time.Now()
	err = s.userRepository.Update(user)
	if err != nil {
		return fmt.Errorf("failed to save pending email: %w", err)
	}

	verificationToken, err := s.issueToken(user.ID, model.TokenTypeEmailChange, s.tokenEmailChangeExpiry)
	if err != nil {
		return err
	}

	err = s.emailService.SendEmailChangeVerification(newEmail, verificationToken)
	if err != nil {
		slog.Warn("failed to send email change verification", "error", err, "user_id", user.ID)
	}

	err = s.emailService.SendEmailChangeNotification(user.Email, newEmail)
	if err != nil {
		slog.Warn("failed to send email change notification", "error", err, "user_id", user.ID)
	}

	s.markEmailSent(user)

	slog.Info("email change requested", "user_id", user.ID, "new_email", newEmail)
	return nil
}

// ConfirmEmailChange consumes the change token and swaps the pending
// email in. pending_email and the token are cleared together.
func (s *AuthService) ConfirmEmailChange(token string) (*model.User, error) {
	tokenModel, err := s.tokenRepository.ConsumeToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if tokenModel.Type != model.TokenTypeEmailChange {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepository.ByID(tokenModel.UserID)
	if err != nil {
		return nil, err
	}

	if !user.HasPendingEmailChange() {
		return nil, ErrNoPendingEmailChange
	}

	user.Email = *user.PendingEmail
	user.PendingEmail = nil
	user.UpdatedAt = time.Now()

	err = s.userRepository.Update(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			// Someone registered the address while the change was pending.
			return nil, ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("failed to update email: %w", err)
	}

	slog.Info("email changed", "user_id", user.ID, "new_email", user.Email)
	return user, nil
}

// CancelEmailChange clears the pending email and invalidates any
// outstanding change tokens, keeping the pair in lockstep.
func (s *AuthService) CancelEmailChange(userID string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPendingEmailChange() {
		return ErrNoPendingEmailChange
	}

	user.PendingEmail = nil
	user.UpdatedAt = time.Now()
	err = s.userRepository.Update(user)
	if err != nil {
		return fmt.Errorf("failed to clear pending email: %w", err)
	}

	err = s.tokenRepository.DeleteByUserAndType(user.ID, model.TokenTypeEmailChange)
	if err != nil {
		slog.Warn("failed to delete email change tokens", "error", err, "user_id", user.ID)
	}

	slog.Info("email change cancelled", "user_id", user.ID)
	return nil
}

// ResendEmailChange reissues the change token to the pending address.
func (s *AuthService) ResendEmailChange(userID string) error {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !user.HasPendingEmailChange() {
		return ErrNoPendingEmailChange
	}

	if remaining := s.cooldownRemaining(user); remaining > 0 {
		return &CooldownError{RemainingSeconds: remaining}
	}

	verificationToken, err := s.issueToken(user.ID, model.TokenTypeEmailChange, s.tokenEmailChangeExpiry)
	if err != nil {
		return err
	}

	err = s.emailService.SendEmailChangeVerification(*user.PendingEmail, verificationToken)
	if err != nil {
		return fmt.Errorf("failed to send email change verification: %w", err)
	}

	s.markEmailSent(user)
	return nil
}

// ProfileUpdate carries the replacement profile fields plus the
// optional password change.
type ProfileUpdate struct {
	FirstName   *string
	LastName    *string
	DateOfBirth *string
	Address     *string
	City        *string
	State       *string
	ZipCode     *string
	Country     *string
	NewPassword string
}

// UpdateProfile applies a profile update. currentPassword must match
// the stored hash or nothing changes.
func (s *AuthService) UpdateProfile(userID, currentPassword string, update ProfileUpdate) (*model.User, error) {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	err = s.ComparePassword(currentPassword, user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCurrentPassword
	}

	user.FirstName = update.FirstName
	user.LastName = update.LastName
	user.DateOfBirth = update.DateOfBirth
	user.Address = update.Address
	user.City = update.City
	user.State = update.State
	user.ZipCode = update.ZipCode
	user.Country = update.Country

	if update.NewPassword != "" {
		err = validation.ValidatePassword(update.NewPassword)
		if err != nil {
			return nil, err
		}

		hashedPassword, err := s.HashPassword(update.NewPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hashedPassword
	}

	user.UpdatedAt = time.Now()
	err = s.userRepository.Update(user)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	slog.Info("profile updated", "user_id", user.ID)
	return user, nil
}

// issueToken invalidates previous unused tokens of the same type and
// creates a fresh one.
func (s *AuthService) issueToken(userID, tokenType string, expiry time.Duration) (string, error) {
	err := s.tokenRepository.DeleteByUserAndType(userID, tokenType)
	if err != nil {
		slog.Warn("failed to delete old tokens", "error", err, "user_id", userID, "type", tokenType)
	}

	value, err := s.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	token := &model.Token{
		UserID:    userID,
		Type:      tokenType,
		Token:     value,
		ExpiresAt: time.Now().Add(expiry),
	}
	err = s.tokenRepository.Create(token)
	if err != nil {
		return "", fmt.Errorf("failed to create token: %w", err)
	}

	return value, nil
}

// cooldownRemaining returns the whole seconds left in the resend
// window, or 0 when a send is allowed.
func (s *AuthService) cooldownRemaining(user *model.User) int {
	if user.LastEmailSentAt == nil {
		return 0
	}

	elapsed := time.Since(*user.LastEmailSentAt)
	if elapsed >= s.resendCooldown {
		return 0
	}

	return int(math.Ceil((s.resendCooldown - elapsed).Seconds()))
}

func (s *AuthService) markEmailSent(user *model.User) {
	now := time.Now()
	user.LastEmailSentAt = &now
	user.UpdatedAt = now

	err := s.userRepository.Update(user)
	if err != nil {
		slog.Warn("failed to record email send time", "error", err, "user_id", user.ID)
	}
}
