package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/heymemory/server/internal/config"
	"github.com/heymemory/server/internal/db"
	"github.com/heymemory/server/internal/repository"
	"github.com/heymemory/server/internal/service"
	"github.com/heymemory/server/internal/storage"
)

// App wires repositories and services together. Handlers and routes are
// constructed on top of it.
type App struct {
	Config *config.Config
	DB     *sqlx.DB

	UserRepository    repository.UserRepository
	TokenRepository   repository.TokenRepository
	SessionRepository repository.SessionRepository

	AuthService     *service.AuthService
	UserService     *service.UserService
	FaceService     *service.FaceService
	RememberService *service.RememberService
	FileService     *service.FileService
	EmailService    *service.EmailService
	ContentService  *service.ContentService
}

// New builds the application graph: database, migrations, storage,
// repositories, services.
func New(cfg *config.Config) (*App, error) {
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to init database: %w", err)
	}

	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	store, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	sender := service.NewSender(cfg.ResendAPIKey, cfg.EmailFrom, cfg.IsDevelopment())
	return NewWithDeps(cfg, database, store, sender), nil
}

// NewWithDeps builds the graph on top of an already-open database,
// storage backend and mail sender. Tests use it to inject fakes.
func NewWithDeps(cfg *config.Config, database *sqlx.DB, store storage.Storage, sender service.Sender) *App {
	userRepo := repository.NewUserRepository(database)
	tokenRepo := repository.NewTokenRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	faceRepo := repository.NewFaceRepository(database)
	rememberRepo := repository.NewRememberItemRepository(database)
	fileRepo := repository.NewFileRepository(database)

	emailService := service.NewEmailService(sender, cfg.AppURL, cfg.AppName, cfg.ContactEmail)

	authService := service.NewAuthService(
		userRepo,
		tokenRepo,
		sessionRepo,
		emailService,
		cfg.IsProduction(),
		cfg.SessionExpiry,
		cfg.TokenEmailVerifyExpiry,
		cfg.TokenEmailChangeExpiry,
		cfg.EmailResendCooldown,
	)

	fileService := service.NewFileService(fileRepo, store)
	faceService := service.NewFaceService(faceRepo, fileService)
	rememberService := service.NewRememberService(rememberRepo)
	userService := service.NewUserService(userRepo, sessionRepo, fileService, emailService)
	contentService := service.NewContentService(cfg.ContentPath)

	return &App{
		Config:            cfg,
		DB:                database,
		UserRepository:    userRepo,
		TokenRepository:   tokenRepo,
		SessionRepository: sessionRepo,
		AuthService:       authService,
		UserService:       userService,
		FaceService:       faceService,
		RememberService:   rememberService,
		FileService:       fileService,
		EmailService:      emailService,
		ContentService:    contentService,
	}
}

// Close releases the application's resources.
func (a *App) Close() error {
	return db.Close(a.DB)
}
