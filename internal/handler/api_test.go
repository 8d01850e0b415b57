package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heymemory/server/internal/app"
	"github.com/heymemory/server/internal/config"
	"github.com/heymemory/server/internal/db"
	"github.com/heymemory/server/internal/routes"
)

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

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

var tokenLinkPattern = regexp.MustCompile(`/(?:verify-email|confirm-email-change)/([0-9a-f]{64})`)

func (f *fakeSender) lastTokenTo(t *testing.T, addr string) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].To != addr {
			continue
		}
		matches := tokenLinkPattern.FindStringSubmatch(f.sent[i].Body)
		require.Len(t, matches, 2)
		return matches[1]
	}
	t.Fatalf("no email sent to %s", addr)
	return ""
}

type fakeStorage struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (f *fakeStorage) Save(path string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = data
	return nil
}

func (f *fakeStorage) Delete(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
	return nil
}

func (f *fakeStorage) URL(path string) string {
	return "https://storage.test/" + path
}

// apiClient is a cookie-aware test client that handles the CSRF
// double-submit dance the way the frontend does.
type apiClient struct {
	t      *testing.T
	server *httptest.Server
	http   *http.Client
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeSender, *app.App) {
	t.Helper()

	database, err := db.Init("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	cfg := &config.Config{
		AppName:                "heyMemory",
		AppEnv:                 "development",
		AppURL:                 "http://localhost:8090",
		SupportEmail:           "hello@heymemory.test",
		ContentPath:            t.TempDir(),
		SessionExpiry:          7 * 24 * time.Hour,
		TokenEmailVerifyExpiry: 24 * time.Hour,
		TokenEmailChangeExpiry: 24 * time.Hour,
		EmailResendCooldown:    60 * time.Second,
		EmailFrom:              "noreply@heymemory.test",
		ContactEmail:           "contact@heymemory.test",
	}

	sender := &fakeSender{}
	store := &fakeStorage{files: make(map[string][]byte)}
	a := app.NewWithDeps(cfg, database, store, sender)

	server := httptest.NewServer(routes.New(a))
	t.Cleanup(server.Close)

	return server, sender, a
}

func newAPIClient(t *testing.T, server *httptest.Server) *apiClient {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	c := &apiClient{
		t:      t,
		server: server,
		http:   &http.Client{Jar: jar},
	}

	// Prime the CSRF cookie
	resp := c.get("/api/health")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	return c
}

func (c *apiClient) csrfToken() string {
	serverURL, _ := url.Parse(c.server.URL)
	for _, cookie := range c.http.Jar.Cookies(serverURL) {
		if cookie.Name == "csrf_token" {
			return cookie.Value
		}
	}
	return ""
}

func (c *apiClient) do(method, path string, body any) *http.Response {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-CSRF-Token", c.csrfToken())

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	return resp
}

func (c *apiClient) get(path string) *http.Response {
	c.t.Helper()
	resp, err := c.http.Get(c.server.URL + path)
	require.NoError(c.t, err)
	return resp
}

func (c *apiClient) post(path string, body any) *http.Response {
	return c.do(http.MethodPost, path, body)
}

func (c *apiClient) put(path string, body any) *http.Response {
	return c.do(http.MethodPut, path, body)
}

func (c *apiClient) delete(path string) *http.Response {
	return c.do(http.MethodDelete, path, nil)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func decodeList(t *testing.T, resp *http.Response) []map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

const testPassword = "correct-horse-battery"

// register creates an account and returns the verification token.
func (c *apiClient) register(t *testing.T, sender *fakeSender, email string) string {
	t.Helper()

	resp := c.post("/api/register", map[string]string{
		"email":           email,
		"password":        testPassword,
		"confirmPassword": testPassword,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	return sender.lastTokenTo(t, email)
}

func (c *apiClient) registerAndLogin(t *testing.T, sender *fakeSender, email string) {
	t.Helper()

	token := c.register(t, sender, email)

	resp := c.get("/api/verify-email/" + token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = c.post("/api/login", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestRegistrationToLoginFlow(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	token := client.register(t, sender, "alice@example.com")

	// Login before verification is rejected
	resp := client.post("/api/login", map[string]string{
		"email":    "alice@example.com",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody(t, resp)
	assert.Contains(t, body["message"], "verify")

	// The emailed link verifies the account
	resp = client.get("/api/verify-email/" + token)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	_ = resp.Body.Close()

	resp = client.post("/api/login", map[string]string{
		"email":    "alice@example.com",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decodeBody(t, resp)
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, true, user["isEmailVerified"])

	resp = client.get("/api/user")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeBody(t, resp)
	assert.Equal(t, "alice@example.com", profile["email"])
}

func TestRegisterDuplicateEmailReturns400(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	client.register(t, sender, "alice@example.com")

	resp := client.post("/api/register", map[string]string{
		"email":           "alice@example.com",
		"password":        testPassword,
		"confirmPassword": testPassword,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestVerifyEmailInvalidTokenShowsFailurePage(t *testing.T) {
	server, _, _ := newTestServer(t)
	client := newAPIClient(t, server)

	resp := client.get("/api/verify-email/bogus")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	_ = resp.Body.Close()
}

func TestResendVerificationCooldownReturns429(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	client.register(t, sender, "alice@example.com")

	resp := client.post("/api/resend-verification", map[string]string{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	body := decodeBody(t, resp)
	remaining, ok := body["remainingSeconds"].(float64)
	require.True(t, ok)
	assert.Greater(t, remaining, float64(0))
	assert.LessOrEqual(t, remaining, float64(60))
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	server, _, _ := newTestServer(t)
	client := newAPIClient(t, server)

	for _, path := range []string{"/api/user", "/api/faces", "/api/remember-items"} {
		resp := client.get(path)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		_ = resp.Body.Close()
	}

	resp := client.get("/api/admin/users")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAdminRoutesRejectNonAdmins(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	client.registerAndLogin(t, sender, "alice@example.com")

	resp := client.get("/api/admin/users")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestCSRFProtection(t *testing.T) {
	server, _, _ := newTestServer(t)

	// A POST without the CSRF header is rejected
	resp, err := http.Post(server.URL+"/api/login", "application/json",
		bytes.NewReader([]byte(`{"email":"a@b.c","password":"x"}`)))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestLogoutEndsSession(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	client.registerAndLogin(t, sender, "alice@example.com")

	resp := client.post("/api/logout", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = client.get("/api/user")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestProfileUpdate(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	client.registerAndLogin(t, sender, "alice@example.com")

	resp := client.put("/api/profile", map[string]any{
		"firstName":       "Alice",
		"city":            "Portland",
		"currentPassword": testPassword,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	user := body["user"].(map[string]any)
	assert.Equal(t, "Alice", user["firstName"])

	// Wrong current password changes nothing
	resp = client.put("/api/profile", map[string]any{
		"firstName":       "Mallory",
		"currentPassword": "wrong-password-1234",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestEmailChangeFlow(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	client.registerAndLogin(t, sender, "alice@example.com")

	resp := client.post("/api/initiate-email-change", map[string]string{
		"newEmail": "new@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	token := sender.lastTokenTo(t, "new@example.com")

	// The confirmation link redirects back into the app
	noRedirect := &http.Client{
		Jar:           client.http.Jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error { return http.ErrUseLastResponse },
	}
	confirmResp, err := noRedirect.Get(server.URL + "/api/confirm-email-change/" + token)
	require.NoError(t, err)
	assert.Equal(t, http.StatusSeeOther, confirmResp.StatusCode)
	assert.Equal(t, "/?success=email-changed", confirmResp.Header.Get("Location"))
	_ = confirmResp.Body.Close()

	resp = client.get("/api/user")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decodeBody(t, resp)
	assert.Equal(t, "new@example.com", profile["email"])

	// Replaying the link reports an error instead
	replayResp, err := noRedirect.Get(server.URL + "/api/confirm-email-change/" + token)
	require.NoError(t, err)
	assert.Equal(t, "/?error=invalid-or-expired-token", replayResp.Header.Get("Location"))
	_ = replayResp.Body.Close()
}

func TestCancelEmailChange(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	client.registerAndLogin(t, sender, "alice@example.com")

	// Nothing pending yet
	resp := client.post("/api/cancel-email-change", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = client.post("/api/initiate-email-change", map[string]string{
		"newEmail": "new@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = client.post("/api/cancel-email-change", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestFaceEndpoints(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	client.registerAndLogin(t, sender, "alice@example.com")

	resp := client.post("/api/faces", map[string]any{
		"personName":   "Grandma Rose",
		"relationship": "Grandmother",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	faceID := created["id"].(string)

	resp = client.get("/api/faces")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	faces := decodeList(t, resp)
	require.Len(t, faces, 1)
	assert.Equal(t, "Grandma Rose", faces[0]["personName"])

	resp = client.put("/api/faces/"+faceID, map[string]any{
		"personName":   "Rose",
		"relationship": "Grandmother",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody(t, resp)
	assert.Equal(t, "Rose", updated["personName"])

	resp = client.delete("/api/faces/" + faceID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = client.get("/api/faces/" + faceID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestFacePhotoUpload(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	client.registerAndLogin(t, sender, "alice@example.com")

	resp := client.post("/api/faces", map[string]any{
		"personName":   "Grandma Rose",
		"relationship": "Grandmother",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	faceID := decodeBody(t, resp)["id"].(string)

	// Minimal PNG header so content sniffing accepts it
	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	part, err := writer.CreateFormFile("photo", "grandma.png")
	require.NoError(t, err)
	_, err = part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 100)...))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, err := http.NewRequest(http.MethodPost, server.URL+"/api/faces/"+faceID+"/photo", &form)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-CSRF-Token", client.csrfToken())

	uploadResp, err := client.http.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, uploadResp.StatusCode)
	face := decodeBody(t, uploadResp)
	assert.Contains(t, face["photoUrl"], "https://storage.test/")
}

func TestRememberItemEndpoints(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	client.registerAndLogin(t, sender, "alice@example.com")

	resp := client.post("/api/remember-items", map[string]any{
		"title":   "Take medication",
		"content": "Blue pill after breakfast",
		"pinned":  true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	itemID := created["id"].(string)
	assert.Equal(t, true, created["pinned"])

	resp = client.post("/api/remember-items", map[string]any{
		"title": "",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = client.get("/api/remember-items")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := decodeList(t, resp)
	assert.Len(t, items, 1)

	resp = client.delete("/api/remember-items/" + itemID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestAdminUserManagement(t *testing.T) {
	server, sender, a := newTestServer(t)
	client := newAPIClient(t, server)

	client.registerAndLogin(t, sender, "admin@example.com")

	// Promote through the service, then manage users over HTTP
	adminUser, err := a.UserRepository.ByEmail("admin@example.com")
	require.NoError(t, err)
	adminUser.IsAdmin = true
	require.NoError(t, a.UserRepository.Update(adminUser))

	resp := client.post("/api/admin/users", map[string]any{
		"email":      "carol@example.com",
		"password":   testPassword,
		"isVerified": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	carolID := created["id"].(string)
	assert.Equal(t, true, created["isEmailVerified"])

	resp = client.get("/api/admin/users")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := decodeList(t, resp)
	assert.Len(t, users, 2)

	resp = client.put("/api/admin/users/"+carolID, map[string]any{
		"email":      "carol@example.com",
		"isAdmin":    true,
		"isVerified": true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeBody(t, resp)
	assert.Equal(t, true, updated["isAdmin"])

	// Admins cannot delete themselves
	resp = client.delete("/api/admin/users/" + adminUser.ID)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = client.delete("/api/admin/users/" + carolID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp = client.get("/api/admin/users/" + carolID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestContactForm(t *testing.T) {
	server, sender, _ := newTestServer(t)
	client := newAPIClient(t, server)

	resp := client.post("/api/contact", map[string]string{
		"name":    "Alice",
		"email":   "alice@example.com",
		"subject": "Question",
		"message": "How do I add a face?",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	sender.mu.Lock()
	last := sender.sent[len(sender.sent)-1]
	sender.mu.Unlock()
	assert.Equal(t, "contact@heymemory.test", last.To)
	assert.Contains(t, last.Body, "How do I add a face?")

	// Delivering the message is the whole operation
	sender.fail = true
	resp = client.post("/api/contact", map[string]string{
		"name":    "Alice",
		"email":   "alice@example.com",
		"subject": "Question",
		"message": "Hello?",
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestContactFormValidation(t *testing.T) {
	server, _, _ := newTestServer(t)
	client := newAPIClient(t, server)

	resp := client.post("/api/contact", map[string]string{
		"name":    "",
		"email":   "alice@example.com",
		"subject": "Hi",
		"message": "Hello",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp = client.post("/api/contact", map[string]string{
		"name":    "Alice",
		"email":   "not-an-email",
		"subject": "Hi",
		"message": "Hello",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
