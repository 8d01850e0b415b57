package service

import (
	"errors"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/heymemory/server/internal/db"
	"github.com/heymemory/server/internal/repository"
)

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

// fakeSender records outbound mail instead of delivering it.
type fakeSender struct {
	mu   sync.Mutex
	sent []sentEmail
	fail bool
}

func (f *fakeSender) Send(to, subject, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, Body: text})
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeSender) last() sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

var tokenLinkPattern = regexp.MustCompile(`/(?:verify-email|confirm-email-change)/([0-9a-f]{64})`)

// lastToken pulls the token out of the most recent email's link.
func (f *fakeSender) lastToken(t *testing.T) string {
	t.Helper()
	matches := tokenLinkPattern.FindStringSubmatch(f.last().Body)
	require.Len(t, matches, 2, "email should contain a token link")
	return matches[1]
}

// lastTokenTo pulls the token from the most recent email to addr.
func (f *fakeSender) lastTokenTo(t *testing.T, addr string) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].To != addr {
			continue
		}
		matches := tokenLinkPattern.FindStringSubmatch(f.sent[i].Body)
		require.Len(t, matches, 2, "email should contain a token link")
		return matches[1]
	}
	t.Fatalf("no email sent to %s", addr)
	return ""
}

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}

type testEnv struct {
	db       *sqlx.DB
	sender   *fakeSender
	users    repository.UserRepository
	tokens   repository.TokenRepository
	sessions repository.SessionRepository
	auth     *AuthService
	email    *EmailService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := newTestDB(t)
	sender := &fakeSender{}

	users := repository.NewUserRepository(database)
	tokens := repository.NewTokenRepository(database)
	sessions := repository.NewSessionRepository(database)

	emailService := NewEmailService(sender, "http://localhost:8090", "heyMemory", "contact@heymemory.test")
	auth := NewAuthService(
		users,
		tokens,
		sessions,
		emailService,
		false,
		7*24*time.Hour,
		24*time.Hour,
		24*time.Hour,
		60*time.Second,
	)

	return &testEnv{
		db:       database,
		sender:   sender,
		users:    users,
		tokens:   tokens,
		sessions: sessions,
		auth:     auth,
		email:    emailService,
	}
}

const testPassword = "correct-horse-battery"

// registerVerified creates a user and walks it through verification.
func (e *testEnv) registerVerified(t *testing.T, email string) string {
	t.Helper()

	user, err := e.auth.Register(email, testPassword, testPassword)
	require.NoError(t, err)

	_, err = e.auth.VerifyEmail(e.sender.lastToken(t))
	require.NoError(t, err)

	return user.ID
}

// backdateLastEmail moves the user's last send outside the cooldown.
func (e *testEnv) backdateLastEmail(t *testing.T, userID string) {
	t.Helper()

	user, err := e.users.ByID(userID)
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Minute)
	user.LastEmailSentAt = &past
	require.NoError(t, e.users.Update(user))
}
