package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"streamvault/pkg/auth"
)

func authTestApp(t *testing.T, jwtAuth *auth.LocalJWTAuth) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Get("/protected", LocalAuthMiddleware(jwtAuth), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"user_id": c.Locals("user_id")})
	})
	return app
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	jwtAuth, err := auth.NewLocalJWTAuth("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth: %v", err)
	}
	app := authTestApp(t, jwtAuth)

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuthMiddlewareRejectsBadToken(t *testing.T) {
	jwtAuth, err := auth.NewLocalJWTAuth("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth: %v", err)
	}
	app := authTestApp(t, jwtAuth)

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	jwtAuth, err := auth.NewLocalJWTAuth("test-secret", time.Minute)
	if err != nil {
		t.Fatalf("NewLocalJWTAuth: %v", err)
	}
	app := authTestApp(t, jwtAuth)

	token, err := jwtAuth.GenerateAccessToken("user-1", "user@example.com", "user")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestAuthMiddlewareDevBypass(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	app := authTestApp(t, nil)

	req := httptest.NewRequest("GET", "/protected", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("status = %d, want 200 in development bypass", resp.StatusCode)
	}
}
