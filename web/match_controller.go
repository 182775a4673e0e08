package web

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yash-076/job-aggregator-web/client"
)

const matchTopN = 20

// MatchController serves the resume-to-jobs matching page.
type MatchController struct {
	App *App
}

func (m *MatchController) Show(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	if session == nil {
		return fiber.ErrInternalServerError
	}
	return c.Render("resume", fiber.Map{
		"user": session.User(),
	})
}

func (m *MatchController) Upload(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	if session == nil {
		return fiber.ErrInternalServerError
	}

	header, err := c.FormFile("resume")
	if err != nil {
		return c.Render("resume", fiber.Map{
			"user":  session.User(),
			"error": "Choose a PDF resume to upload.",
		})
	}

	if !strings.EqualFold(filepath.Ext(header.Filename), ".pdf") {
		return c.Render("resume", fiber.Map{
			"user":  session.User(),
			"error": "Only PDF resumes are supported.",
		})
	}

	file, err := header.Open()
	if err != nil {
		m.App.logger.Error("open resume upload", "error", err)
		return c.Render("resume", fiber.Map{
			"user":  session.User(),
			"error": "Reading the upload failed. Please try again.",
		})
	}
	defer file.Close()

	api := m.App.api(c, session)

	result, err := api.MatchResume(c.UserContext(), header.Filename, file, matchTopN)
	if err != nil {
		if client.IsSessionExpired(err) {
			return err
		}
		m.App.logger.Error("match resume", "error", err)
		return c.Render("resume", fiber.Map{
			"user":  session.User(),
			"error": matchErrorMessage(err),
		})
	}

	if result == nil || len(result.TopMatches) == 0 {
		return c.Render("resume", fiber.Map{
			"user":  session.User(),
			"empty": true,
		})
	}

	return c.Render("resume", fiber.Map{
		"user":    session.User(),
		"matches": result.TopMatches,
		"scored":  result.TotalJobsScored,
	})
}

func matchErrorMessage(err error) string {
	switch {
	case client.IsTimeout(err):
		return "Matching took too long. Try again with a smaller file."
	case client.IsNetworkError(err):
		return "Could not reach the server. Please try again."
	default:
		return "Matching failed. Please try again."
	}
}
