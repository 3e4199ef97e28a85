package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"imgstore/internal/middleware"
	"imgstore/internal/security"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-that-is-at-least-32-bytes!"

func setupApp(t *testing.T) (*fiber.App, *security.TokenIssuer) {
	t.Helper()
	issuer, err := security.NewTokenIssuer(testSecret, time.Hour, "imgstore")
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", middleware.AuthRequired(issuer, zap.NewNop()), func(c *fiber.Ctx) error {
		p, ok := security.PrincipalFromContext(c.UserContext())
		if !ok {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.JSON(fiber.Map{
			"subject":  p.Subject,
			"roles":    p.Roles,
			"username": middleware.Username(c),
			"locals":   c.Locals(middleware.LocalsUsername),
		})
	})
	return app, issuer
}

func TestAuthRequired_ValidToken(t *testing.T) {
	app, issuer := setupApp(t)
	token, err := issuer.Issue("validUser", []string{security.RoleUser})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "validUser", body["subject"])
	assert.Equal(t, []any{"USER"}, body["roles"])
	assert.Equal(t, "validUser", body["username"])
	assert.Equal(t, "validUser", body["locals"])
}

func TestAuthRequired_Rejects(t *testing.T) {
	app, issuer := setupApp(t)
	expired, err := issuer.IssueWithTTL("validUser", []string{security.RoleUser}, -time.Minute)
	require.NoError(t, err)

	other, err := security.NewTokenIssuer("another-secret-that-is-32-bytes-long", time.Hour, "imgstore")
	require.NoError(t, err)
	foreign, err := other.Issue("validUser", []string{security.RoleUser})
	require.NoError(t, err)

	cases := map[string]string{
		"missing": "",
		"scheme":  "Basic dXNlcjpwYXNz",
		"empty":   "Bearer ",
		"garbage": "Bearer not.a.token",
		"expired": "Bearer " + expired,
		"foreign": "Bearer " + foreign,
	}
	for name, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp, err := app.Test(req, -1)
		require.NoError(t, err, name)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, name)

		body, _ := io.ReadAll(resp.Body)
		assert.NotContains(t, string(body), "subject", name)
	}
}
