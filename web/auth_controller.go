package web

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"

	"github.com/yash-076/job-aggregator-web/client"
)

// AuthController serves the sign-in, sign-up, and sign-out pages.
type AuthController struct {
	App *App
}

// SignInPayload is the form payload
type SignInPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will validate the payload
func (p SignInPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required),
	)
}

// SignUpPayload is the form payload
type SignUpPayload struct {
	Email           string `form:"email" json:"email"`
	FullName        string `form:"full_name" json:"full_name"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (p SignUpPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&p.FullName, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&p.ConfirmPassword,
			validation.Required,
			validation.By(matchesString(p.Password)),
		),
	)
}

func matchesString(want string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != want {
			return validation.NewError("validation_match", "passwords do not match")
		}
		return nil
	}
}

func (a *AuthController) SignInShow(c *fiber.Ctx) error {
	if session := a.App.registry.Resolve(c); session != nil && session.IsAuthenticated() {
		return c.Redirect("/search", fiber.StatusSeeOther)
	}
	return c.Render("signin", fiber.Map{
		"record":     SignInPayload{},
		"registered": c.Query("registered") == "1",
	})
}

func (a *AuthController) SignInPost(c *fiber.Ctx) error {
	payload := new(SignInPayload)

	if err := c.BodyParser(payload); err != nil {
		a.App.logger.Error("sign in parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).Render("signin", fiber.Map{
			"record": payload,
			"error":  "Failed to parse form",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Render("signin", fiber.Map{
			"record": payload,
			"error":  err.Error(),
		})
	}

	session := a.App.registry.Resolve(c)
	if session == nil {
		return fiber.ErrInternalServerError
	}
	api := a.App.api(c, session)
	ctx := c.UserContext()

	tok, err := api.Login(ctx, payload.Email, payload.Password)
	if err != nil {
		return c.Render("signin", fiber.Map{
			"record": payload,
			"error":  loginErrorMessage(err),
		})
	}

	user, err := api.CurrentUserWithToken(ctx, tok.AccessToken)
	if err != nil {
		a.App.logger.Error("sign in load profile", "error", err)
		return c.Render("signin", fiber.Map{
			"record": payload,
			"error":  "Signed in, but loading your profile failed. Please try again.",
		})
	}

	if err := session.Login(ctx, client.Credential{Token: tok.AccessToken, User: *user}); err != nil {
		a.App.logger.Error("sign in persist session", "error", err)
		return c.Render("signin", fiber.Map{
			"record": payload,
			"error":  "Your session could not be started. Please try again.",
		})
	}

	return c.Redirect(PopRejectedRoute(c, "/search"), fiber.StatusSeeOther)
}

// loginErrorMessage keeps backend auth failures user facing. A 401 on the
// login route is bad credentials, not an expired session.
func loginErrorMessage(err error) string {
	switch {
	case client.IsSessionExpired(err):
		return "Invalid email or password"
	case client.IsTimeout(err):
		return "The server took too long to respond. Please try again."
	case client.IsNetworkError(err):
		return "Could not reach the server. Please try again."
	default:
		return err.Error()
	}
}

func (a *AuthController) SignUpShow(c *fiber.Ctx) error {
	if session := a.App.registry.Resolve(c); session != nil && session.IsAuthenticated() {
		return c.Redirect("/search", fiber.StatusSeeOther)
	}
	return c.Render("signup", fiber.Map{
		"record": SignUpPayload{},
	})
}

func (a *AuthController) SignUpPost(c *fiber.Ctx) error {
	payload := new(SignUpPayload)

	if err := c.BodyParser(payload); err != nil {
		a.App.logger.Error("sign up parse payload", "error", err)
		return c.Status(fiber.StatusBadRequest).Render("signup", fiber.Map{
			"record": payload,
			"error":  "Failed to parse form",
		})
	}

	if err := payload.Validate(); err != nil {
		return c.Render("signup", fiber.Map{
			"record": payload,
			"error":  err.Error(),
		})
	}

	session := a.App.registry.Resolve(c)
	if session == nil {
		return fiber.ErrInternalServerError
	}
	api := a.App.api(c, session)

	if _, err := api.Register(c.UserContext(), payload.Email, payload.FullName, payload.Password); err != nil {
		return c.Render("signup", fiber.Map{
			"record": payload,
			"error":  loginErrorMessage(err),
		})
	}

	return c.Redirect("/signin?registered=1", fiber.StatusSeeOther)
}

func (a *AuthController) SignOut(c *fiber.Ctx) error {
	if session := a.App.registry.Resolve(c); session != nil {
		session.Logout(c.UserContext())
	}
	return c.Redirect("/signin", fiber.StatusSeeOther)
}
