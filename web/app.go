package web

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-logger/glog"
	"github.com/redis/go-redis/v9"

	"github.com/yash-076/job-aggregator-web/client"
)

// App assembles the frontend: fiber server, view engine, session registry,
// and the controllers.
type App struct {
	cfg      *Config
	srv      *fiber.App
	registry *Registry
	logger   glog.Logger
	http     *http.Client
	redis    *redis.Client
	keep     *KeepAlive
}

// New wires the application. When cfg.RedisURL is set, browser sessions
// survive restarts; otherwise they live in process memory.
func New(ctx context.Context, cfg *Config, lgr *glog.BaseLogger) (*App, error) {
	a := &App{
		cfg:    cfg,
		logger: lgr.GetLogger("web"),
		http:   &http.Client{},
	}

	factory, rdb, err := storeFactory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.redis = rdb

	a.registry = NewRegistry(factory, cfg.SessionTTL,
		WithRegistryLogger(glogAdapter{lgr.GetLogger("sessions")}),
		WithSessionOptions(
			client.WithSessionLogger(glogAdapter{lgr.GetLogger("session")}),
		),
	)

	engine := django.New(cfg.ViewsDir, ".html")

	a.srv = fiber.New(fiber.Config{
		Views:        engine,
		ErrorHandler: a.errorHandler,
	})

	a.routes()

	if cfg.KeepAliveSpec != "" {
		a.keep = NewKeepAlive(a.anonymousAPI(), cfg.KeepAliveSpec, lgr.GetLogger("keepalive"))
	}

	return a, nil
}

func storeFactory(ctx context.Context, cfg *Config) (StoreFactory, *redis.Client, error) {
	if cfg.RedisURL == "" {
		return func(string) client.Store { return client.NewMemoryStore() }, nil, nil
	}

	rdb, err := client.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("session store: %w", err)
	}

	factory := func(sid string) client.Store {
		return client.NewRedisStore(rdb, "session:"+sid, cfg.SessionTTL)
	}
	return factory, rdb, nil
}

func (a *App) routes() {
	auth := &AuthController{App: a}
	jobs := &JobsController{App: a}
	alerts := &AlertsController{App: a}
	match := &MatchController{App: a}
	pages := &PagesController{App: a}

	a.srv.Get("/signup", auth.SignUpShow)
	a.srv.Post("/signup", auth.SignUpPost)
	a.srv.Get("/signin", auth.SignInShow)
	a.srv.Post("/signin", auth.SignInPost)
	a.srv.Post("/signout", auth.SignOut)

	a.srv.Get("/about", pages.About)
	a.srv.Get("/blog", pages.Blog)
	a.srv.Get("/contact", pages.Contact)
	a.srv.Get("/privacy", pages.Privacy)
	a.srv.Get("/terms", pages.Terms)

	guard := RouteGuard(a.registry)
	a.srv.Get("/", guard, jobs.Search)
	a.srv.Get("/search", guard, jobs.Search)
	a.srv.Get("/alerts", guard, alerts.Index)
	a.srv.Post("/alerts", guard, alerts.Create)
	a.srv.Post("/alerts/:id/toggle", guard, alerts.Toggle)
	a.srv.Post("/alerts/:id/delete", guard, alerts.Delete)
	a.srv.Get("/resume", guard, match.Show)
	a.srv.Post("/resume", guard, match.Upload)
}

// api builds the request pipeline for one session. Gateways are cheap; the
// transport and the credential store are the shared pieces.
func (a *App) api(c *fiber.Ctx, session *client.Session) *client.API {
	gw := client.NewGateway(a.cfg.BackendURL, session.Credentials(),
		client.WithHTTPClient(a.http),
		client.WithTimeout(a.cfg.RequestTimeout),
		client.WithGatewayLogger(glogAdapter{a.logger}),
		client.WithInvalidationListener(func(path string) {
			a.logger.Info("backend invalidated session", "path", path)
			session.Invalidate(c.UserContext())
		}),
	)
	return client.NewAPI(gw)
}

// anonymousAPI is the pipeline for calls that never carry credentials, like
// the keep-alive ping.
func (a *App) anonymousAPI() *client.API {
	store := client.NewCredentialStore(client.NewMemoryStore())
	gw := client.NewGateway(a.cfg.BackendURL, store,
		client.WithHTTPClient(a.http),
		client.WithTimeout(a.cfg.RequestTimeout),
		client.WithGatewayLogger(glogAdapter{a.logger}),
	)
	return client.NewAPI(gw)
}

// errorHandler is the top-level subscriber for session invalidation: a
// SessionExpired error escaping any handler becomes a redirect to sign-in,
// except on the auth pages themselves where it would loop.
func (a *App) errorHandler(c *fiber.Ctx, err error) error {
	if client.IsSessionExpired(err) {
		if path := c.Path(); path != "/signin" && path != "/signup" {
			SetRejectedRoute(c, c.OriginalURL())
			return c.Redirect("/signin", fiber.StatusSeeOther)
		}
	}

	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	a.logger.Error("unhandled request error", "path", c.Path(), "error", err)
	return c.Status(code).Render("error", fiber.Map{
		"message": "Something went wrong. Please try again.",
	})
}

// Listen serves until the listener fails or Shutdown is called.
func (a *App) Listen() error {
	if a.keep != nil {
		a.keep.Start()
	}
	a.logger.Info("frontend listening", "port", a.cfg.Port, "backend", a.cfg.BackendURL)
	return a.srv.Listen(":" + a.cfg.Port)
}

// Shutdown stops the server, the keep-alive pinger, and every session timer.
func (a *App) Shutdown(ctx context.Context) error {
	if a.keep != nil {
		a.keep.Stop()
	}
	a.registry.Close()
	if a.redis != nil {
		defer a.redis.Close()
	}
	return a.srv.ShutdownWithContext(ctx)
}

// Server exposes the fiber app for tests.
func (a *App) Server() *fiber.App {
	return a.srv
}

// glogAdapter bridges the structured logger into the client package's
// printf-style Logger.
type glogAdapter struct {
	log glog.Logger
}

func (g glogAdapter) Debug(format string, args ...any) { g.log.Debug(fmt.Sprintf(format, args...)) }
func (g glogAdapter) Info(format string, args ...any)  { g.log.Info(fmt.Sprintf(format, args...)) }
func (g glogAdapter) Error(format string, args ...any) { g.log.Error(fmt.Sprintf(format, args...)) }
