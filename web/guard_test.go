package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yash-076/job-aggregator-web/client"
	"github.com/yash-076/job-aggregator-web/web"
)

type fakeResolver struct {
	session *client.Session
}

func (f fakeResolver) Resolve(c *fiber.Ctx) *client.Session {
	return f.session
}

func viewApp() *fiber.App {
	return fiber.New(fiber.Config{
		Views: django.New("../views", ".html"),
	})
}

func mintToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "someone@example.com",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

func newSession(t *testing.T, ctx context.Context) *client.Session {
	t.Helper()
	store := client.NewCredentialStore(client.NewMemoryStore())
	session := client.NewSession(ctx, store)
	t.Cleanup(session.Close)
	return session
}

func TestRouteGuardRendersLoadingWithoutSession(t *testing.T) {
	app := viewApp()
	app.Get("/search", web.RouteGuard(fakeResolver{}), func(c *fiber.Ctx) error {
		t.Error("handler must not run")
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/search", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouteGuardRedirectsAnonymous(t *testing.T) {
	ctx := context.Background()
	session := newSession(t, ctx)

	app := viewApp()
	app.Get("/alerts", web.RouteGuard(fakeResolver{session: session}), func(c *fiber.Ctx) error {
		t.Error("handler must not run")
		return nil
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/alerts?active=1", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/signin", resp.Header.Get("Location"))

	cookies := strings.Join(resp.Header.Values("Set-Cookie"), ";")
	assert.Contains(t, cookies, "rejected_route")
}

func TestRouteGuardPassesAuthenticated(t *testing.T) {
	ctx := context.Background()
	session := newSession(t, ctx)

	err := session.Login(ctx, client.Credential{
		Token: mintToken(t, time.Now().Add(time.Hour)),
		User:  client.User{ID: 1, Email: "someone@example.com"},
	})
	require.NoError(t, err)

	app := viewApp()
	app.Get("/search", web.RouteGuard(fakeResolver{session: session}), func(c *fiber.Ctx) error {
		got := web.SessionFromCtx(c)
		if got == nil {
			return c.SendStatus(http.StatusInternalServerError)
		}
		assert.Equal(t, "someone@example.com", got.User().Email)
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/search", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
