package web

import "github.com/gofiber/fiber/v2"

// PagesController renders the static marketing pages.
type PagesController struct {
	App *App
}

func (p *PagesController) About(c *fiber.Ctx) error {
	return c.Render("about", fiber.Map{})
}

func (p *PagesController) Blog(c *fiber.Ctx) error {
	return c.Render("blog", fiber.Map{})
}

func (p *PagesController) Contact(c *fiber.Ctx) error {
	return c.Render("contact", fiber.Map{})
}

func (p *PagesController) Privacy(c *fiber.Ctx) error {
	return c.Render("privacy", fiber.Map{})
}

func (p *PagesController) Terms(c *fiber.Ctx) error {
	return c.Render("terms", fiber.Map{})
}
