package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/labvault/backend/internal/auth"
	"github.com/labvault/backend/internal/database"
	"github.com/labvault/backend/internal/middleware"
	"github.com/labvault/backend/internal/models"
	"github.com/labvault/backend/internal/services"
	"github.com/labvault/backend/pkg/logger"
	"gorm.io/gorm"
)

func init() {
	logger.Init()
}

// testEnv mirrors the production wiring over an in-memory store so
// handler tests exercise the full middleware chain.
type testEnv struct {
	App       *fiber.App
	DB        *gorm.DB
	Registry  *auth.Registry
	Tokens    *auth.TokenService
	Passwords *auth.PasswordService
	Settings  *models.Settings
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	settings := &models.Settings{
		ID:           models.SettingsID,
		JWTSecret:    "test-secret",
		PasswordSalt: "test-salt",
	}
	if err := db.Create(settings).Error; err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}

	passwords := auth.NewPasswordService(settings.PasswordSalt)
	tokens := auth.NewTokenService(settings.JWTSecret)
	events := services.NewEventService(db)

	registry := auth.NewRegistry(db, events)
	registry.Register(auth.StrategyLocal, auth.NewLocalStrategy(db, passwords))
	registry.Reconfigure(settings)

	authHandler := NewAuthHandler(db, registry, tokens)
	usersHandler := NewUsersHandler(db, passwords, events)
	apiTokensHandler := NewAPITokensHandler(db)

	authMiddleware := middleware.NewAuthMiddleware(registry)

	app := fiber.New()

	authRoutes := app.Group("/api/auth")
	authRoutes.Get("/login", authHandler.AvailableStrategies)
	authRoutes.Post("/login/local", authHandler.LoginLocal)
	authRoutes.Get("/login/google", authHandler.GoogleRedirect)
	authRoutes.Get("/login/google/callback", authHandler.GoogleCallback)
	authRoutes.Get("/login/google/settings", authMiddleware.RequireAuth, middleware.AdminOnly, authHandler.GoogleSettingsGet)
	authRoutes.Post("/login/google/settings", authMiddleware.RequireAuth, middleware.AdminOnly, authHandler.GoogleSettingsUpdate)

	authRoutes.Get("/self", authMiddleware.RequireAuth, authHandler.Self)

	authRoutes.Get("/users", authMiddleware.RequireAuth, usersHandler.List)
	authRoutes.Post("/users", authMiddleware.RequireAuth, middleware.AdminOnly, usersHandler.Create)
	authRoutes.Get("/users/:id", authMiddleware.RequireAuth, usersHandler.Get)
	authRoutes.Put("/users/:id", authMiddleware.RequireAuth, middleware.SelfOrAdmin, usersHandler.Update)
	authRoutes.Delete("/users/:id", authMiddleware.RequireAuth, middleware.AdminOnly, usersHandler.Delete)

	authRoutes.Get("/users/:id/api-tokens", authMiddleware.RequireAuth, middleware.SelfOrAdmin, apiTokensHandler.List)
	authRoutes.Post("/users/:id/api-tokens", authMiddleware.RequireAuth, middleware.SelfOrAdmin, apiTokensHandler.Create)

	return &testEnv{
		App:       app,
		DB:        db,
		Registry:  registry,
		Tokens:    tokens,
		Passwords: passwords,
		Settings:  settings,
	}
}

func (e *testEnv) createUser(t *testing.T, username, password string, role models.UserRole) *models.User {
	t.Helper()

	user := models.User{
		Username:    username,
		DisplayName: username,
		Role:        role,
	}
	if password != "" {
		hashed, err := e.Passwords.Hash(password)
		if err != nil {
			t.Fatalf("failed hashing password: %v", err)
		}
		user.HashedPassword = hashed
	}
	if err := e.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed creating user %q: %v", username, err)
	}
	return &user
}

// loginAs issues a bearer token directly, bypassing the login route.
func (e *testEnv) loginAs(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := e.Tokens.Issue(user.ID)
	if err != nil {
		t.Fatalf("failed issuing token: %v", err)
	}
	return token
}

func performRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed marshaling request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()

	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("failed decoding response envelope: %v", err)
	}
	return env
}

func decodeData(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	env := decodeEnvelope(t, resp)
	if !env.Success {
		t.Fatalf("expected a success envelope, got error %q", env.Error)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("failed decoding data payload: %v", err)
	}
}

func assertStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()

	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, resp *http.Response, status int, message string) {
	t.Helper()

	assertStatus(t, resp, status)
	env := decodeEnvelope(t, resp)
	if env.Success {
		t.Fatal("expected an error envelope")
	}
	if message != "" && env.Error != message {
		t.Errorf("expected error %q, got %q", message, env.Error)
	}
}
