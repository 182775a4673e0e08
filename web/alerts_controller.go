package web

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"

	"github.com/yash-076/job-aggregator-web/client"
)

// AlertsController manages saved email alerts.
type AlertsController struct {
	App *App
}

// AlertCreatePayload is the form payload
type AlertCreatePayload struct {
	Name     string `form:"name" json:"name"`
	Email    string `form:"email" json:"email"`
	Title    string `form:"title" json:"title"`
	Company  string `form:"company" json:"company"`
	Location string `form:"location" json:"location"`
	JobType  string `form:"job_type" json:"job_type"`
}

// Validate will validate the payload
func (p AlertCreatePayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

func (a *AlertsController) Index(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	if session == nil {
		return fiber.ErrInternalServerError
	}

	api := a.App.api(c, session)

	alerts, err := api.Alerts(c.UserContext())
	if err != nil {
		if client.IsSessionExpired(err) {
			return err
		}
		a.App.logger.Error("list alerts", "error", err)
		return c.Render("alerts", fiber.Map{
			"user":   session.User(),
			"record": AlertCreatePayload{Email: session.User().Email},
			"error":  "Could not load your alerts. Please try again.",
		})
	}

	return c.Render("alerts", fiber.Map{
		"user":   session.User(),
		"record": AlertCreatePayload{Email: session.User().Email},
		"alerts": alerts,
	})
}

func (a *AlertsController) Create(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	if session == nil {
		return fiber.ErrInternalServerError
	}

	payload := new(AlertCreatePayload)
	if err := c.BodyParser(payload); err != nil {
		a.App.logger.Error("create alert parse payload", "error", err)
		return c.Redirect("/alerts", fiber.StatusSeeOther)
	}

	if err := payload.Validate(); err != nil {
		return a.renderWithError(c, session, payload, err.Error())
	}

	api := a.App.api(c, session)

	filters := client.AlertFilters{
		Title:    payload.Title,
		Company:  payload.Company,
		Location: payload.Location,
		JobType:  payload.JobType,
	}
	if _, err := api.CreateAlert(c.UserContext(), payload.Email, payload.Name, filters); err != nil {
		if client.IsSessionExpired(err) {
			return err
		}
		a.App.logger.Error("create alert", "error", err)
		return a.renderWithError(c, session, payload, "Creating the alert failed. Please try again.")
	}

	return c.Redirect("/alerts", fiber.StatusSeeOther)
}

func (a *AlertsController) Toggle(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	if session == nil {
		return fiber.ErrInternalServerError
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.ErrBadRequest
	}

	active := c.FormValue("active") == "true"
	api := a.App.api(c, session)

	if _, err := api.UpdateAlert(c.UserContext(), int64(id), client.AlertUpdate{IsActive: &active}); err != nil {
		if client.IsSessionExpired(err) {
			return err
		}
		a.App.logger.Error("toggle alert", "id", id, "error", err)
	}

	return c.Redirect("/alerts", fiber.StatusSeeOther)
}

func (a *AlertsController) Delete(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	if session == nil {
		return fiber.ErrInternalServerError
	}

	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.ErrBadRequest
	}

	api := a.App.api(c, session)

	if err := api.DeleteAlert(c.UserContext(), int64(id)); err != nil {
		if client.IsSessionExpired(err) {
			return err
		}
		a.App.logger.Error("delete alert", "id", id, "error", err)
	}

	return c.Redirect("/alerts", fiber.StatusSeeOther)
}

func (a *AlertsController) renderWithError(c *fiber.Ctx, session *client.Session, payload *AlertCreatePayload, msg string) error {
	api := a.App.api(c, session)
	alerts, err := api.Alerts(c.UserContext())
	if err != nil && client.IsSessionExpired(err) {
		return err
	}
	return c.Render("alerts", fiber.Map{
		"user":   session.User(),
		"record": payload,
		"alerts": alerts,
		"error":  msg,
	})
}
