package routes

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/gaspartrip/devcamper-api/models"
	"github.com/gaspartrip/devcamper-api/utils"
)

// buildAuthTestApp creates a minimal app with the access-token verifier and an
// admin-only route, mirroring how main wires the users party.
func buildAuthTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	app := iris.New()

	verifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	verifyMiddleware := verifier.Verify(func() interface{} { return new(utils.AccessToken) })

	users := app.Party("/api/v1/users", verifyMiddleware, utils.RequireRoles(models.RoleAdmin))
	{
		users.Get("/", func(ctx iris.Context) {
			utils.Data(ctx, iris.StatusOK, []models.User{})
		})
	}
	return app
}

func signTestToken(role string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), 0)
	token, _ := signer.Sign(utils.AccessToken{ID: "5c8a1d5b0190b214360dc031", Role: role})
	return string(token)
}

func TestUsersRouteRBAC(t *testing.T) {
	app := buildAuthTestApp()
	if err := app.Build(); err != nil {
		t.Fatalf("failed to build app: %v", err)
	}

	// No token -> rejected by the verifier
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	// User role -> 403
	req2 := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req2.Header.Set("Authorization", "Bearer "+signTestToken(models.RoleUser))
	resp2 := httptest.NewRecorder()
	app.ServeHTTP(resp2, req2)
	if resp2.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for user role, got %d", resp2.Code)
	}

	// Publisher role -> 403 as well, the list is admin-only
	req3 := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req3.Header.Set("Authorization", "Bearer "+signTestToken(models.RolePublisher))
	resp3 := httptest.NewRecorder()
	app.ServeHTTP(resp3, req3)
	if resp3.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for publisher role, got %d", resp3.Code)
	}

	// Admin role -> 200
	req4 := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req4.Header.Set("Authorization", "Bearer "+signTestToken(models.RoleAdmin))
	resp4 := httptest.NewRecorder()
	app.ServeHTTP(resp4, req4)
	if resp4.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin role, got %d", resp4.Code)
	}
}
