package web

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yash-076/job-aggregator-web/client"
)

const (
	// SessionLocal is the fiber locals key the guard stores the resolved
	// session under for downstream handlers.
	SessionLocal = "session"

	// rejectedRouteCookie preserves the originally requested location across
	// the sign-in round trip.
	rejectedRouteCookie = "rejected_route"

	signInPath = "/signin"
)

// RouteGuard gates protected views on resolved session state: loading view
// while the session is still materializing, redirect to sign-in for
// anonymous visitors, pass-through for authenticated ones. It keeps no state
// of its own and re-evaluates on every request.
func RouteGuard(resolver SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session := resolver.Resolve(c)

		if session == nil || session.Loading() {
			return c.Render("loading", fiber.Map{})
		}

		if !session.IsAuthenticated() {
			SetRejectedRoute(c, c.OriginalURL())
			return c.Redirect(signInPath, fiber.StatusSeeOther)
		}

		c.Locals(SessionLocal, session)
		return c.Next()
	}
}

// SessionFromCtx returns the session the guard resolved, or nil on
// unguarded routes.
func SessionFromCtx(c *fiber.Ctx) *client.Session {
	session, _ := c.Locals(SessionLocal).(*client.Session)
	return session
}

// SetRejectedRoute remembers where an anonymous visitor was headed so the
// sign-in flow can send them back.
func SetRejectedRoute(c *fiber.Ctx, path string) {
	c.Cookie(&fiber.Cookie{
		Name:     rejectedRouteCookie,
		Value:    path,
		Expires:  time.Now().Add(5 * time.Minute),
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// PopRejectedRoute returns the preserved location (or def) and clears the
// cookie.
func PopRejectedRoute(c *fiber.Ctx, def string) string {
	path := c.Cookies(rejectedRouteCookie)
	if path == "" {
		return def
	}
	c.Cookie(&fiber.Cookie{
		Name:     rejectedRouteCookie,
		Value:    "",
		Expires:  time.Now().Add(-24 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return path
}
