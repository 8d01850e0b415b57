package routes

import (
	"net/http"

	"github.com/heymemory/server/internal/app"
	"github.com/heymemory/server/internal/handler"
	"github.com/heymemory/server/internal/middleware"
)

// New builds the route table and wraps it with the shared middleware
// chain.
func New(a *app.App) http.Handler {
	mux := http.NewServeMux()

	authHandler := handler.NewAuthHandler(a.AuthService, a.Config.AppName)
	accountHandler := handler.NewAccountHandler(a.AuthService)
	adminHandler := handler.NewAdminHandler(a.UserService, a.AuthService)
	faceHandler := handler.NewFaceHandler(a.FaceService)
	rememberHandler := handler.NewRememberHandler(a.RememberService)
	contactHandler := handler.NewContactHandler(a.EmailService)
	contentHandler := handler.NewContentHandler(a.ContentService, a.Config.AppName)
	healthHandler := handler.NewHealthHandler(a.DB)

	rateLimited := middleware.RateLimitAuth()

	// Public
	mux.HandleFunc("GET /api/health", healthHandler.Check)
	mux.HandleFunc("POST /api/register", rateLimited(authHandler.Register))
	mux.HandleFunc("POST /api/login", rateLimited(authHandler.Login))
	mux.HandleFunc("POST /api/logout", authHandler.Logout)
	mux.HandleFunc("GET /api/verify-email/{token}", authHandler.VerifyEmail)
	mux.HandleFunc("POST /api/check-verification-status", authHandler.CheckVerificationStatus)
	mux.HandleFunc("POST /api/resend-verification", rateLimited(authHandler.ResendVerification))
	mux.HandleFunc("POST /api/cancel-registration", rateLimited(authHandler.CancelRegistration))
	mux.HandleFunc("GET /api/confirm-email-change/{token}", accountHandler.ConfirmEmailChange)
	mux.HandleFunc("POST /api/contact", rateLimited(contactHandler.Submit))
	mux.HandleFunc("GET /pages/{slug}", contentHandler.Page)

	// Authenticated
	mux.HandleFunc("GET /api/user", middleware.RequireAuth(accountHandler.CurrentUser))
	mux.HandleFunc("PUT /api/profile", middleware.RequireAuth(accountHandler.UpdateProfile))
	mux.HandleFunc("POST /api/initiate-email-change", middleware.RequireAuth(accountHandler.InitiateEmailChange))
	mux.HandleFunc("POST /api/cancel-email-change", middleware.RequireAuth(accountHandler.CancelEmailChange))
	mux.HandleFunc("POST /api/resend-email-change-verification", middleware.RequireAuth(rateLimited(accountHandler.ResendEmailChange)))

	mux.HandleFunc("GET /api/faces", middleware.RequireAuth(faceHandler.List))
	mux.HandleFunc("POST /api/faces", middleware.RequireAuth(faceHandler.Create))
	mux.HandleFunc("GET /api/faces/{id}", middleware.RequireAuth(faceHandler.Get))
	mux.HandleFunc("PUT /api/faces/{id}", middleware.RequireAuth(faceHandler.Update))
	mux.HandleFunc("DELETE /api/faces/{id}", middleware.RequireAuth(faceHandler.Delete))
	mux.HandleFunc("POST /api/faces/{id}/photo", middleware.RequireAuth(faceHandler.UploadPhoto))

	mux.HandleFunc("GET /api/remember-items", middleware.RequireAuth(rememberHandler.List))
	mux.HandleFunc("POST /api/remember-items", middleware.RequireAuth(rememberHandler.Create))
	mux.HandleFunc("GET /api/remember-items/{id}", middleware.RequireAuth(rememberHandler.Get))
	mux.HandleFunc("PUT /api/remember-items/{id}", middleware.RequireAuth(rememberHandler.Update))
	mux.HandleFunc("DELETE /api/remember-items/{id}", middleware.RequireAuth(rememberHandler.Delete))

	// Admin
	mux.HandleFunc("GET /api/admin/users", middleware.RequireAdmin(adminHandler.ListUsers))
	mux.HandleFunc("POST /api/admin/users", middleware.RequireAdmin(adminHandler.CreateUser))
	mux.HandleFunc("GET /api/admin/users/{id}", middleware.RequireAdmin(adminHandler.GetUser))
	mux.HandleFunc("PUT /api/admin/users/{id}", middleware.RequireAdmin(adminHandler.UpdateUser))
	mux.HandleFunc("DELETE /api/admin/users/{id}", middleware.RequireAdmin(adminHandler.DeleteUser))

	return middleware.Chain(mux,
		middleware.Config(a.Config),
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.Session(a.SessionRepository, a.UserRepository),
	)
}
