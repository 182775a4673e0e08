package web

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yash-076/job-aggregator-web/client"
)

const jobsPerPage = 50

// JobsController serves the job search page.
type JobsController struct {
	App *App
}

// SearchPayload is the form payload
type SearchPayload struct {
	Title    string `form:"title" query:"title" json:"title"`
	Company  string `form:"company" query:"company" json:"company"`
	Location string `form:"location" query:"location" json:"location"`
	JobType  string `form:"job_type" query:"job_type" json:"job_type"`
	Source   string `form:"source" query:"source" json:"source"`
	Page     int    `form:"page" query:"page" json:"page"`
}

func (j *JobsController) Search(c *fiber.Ctx) error {
	session := SessionFromCtx(c)
	if session == nil {
		return fiber.ErrInternalServerError
	}

	payload := new(SearchPayload)
	if err := c.QueryParser(payload); err != nil {
		j.App.logger.Error("search parse query", "error", err)
		payload = new(SearchPayload)
	}
	if payload.Page < 1 {
		payload.Page = 1
	}

	api := j.App.api(c, session)

	result, err := api.SearchJobs(c.UserContext(), client.JobQuery{
		Title:    payload.Title,
		Company:  payload.Company,
		Location: payload.Location,
		JobType:  payload.JobType,
		Source:   payload.Source,
		Skip:     (payload.Page - 1) * jobsPerPage,
		Limit:    jobsPerPage,
	})
	if err != nil {
		if client.IsSessionExpired(err) {
			return err
		}
		j.App.logger.Error("search jobs", "error", err)
		return c.Render("search", fiber.Map{
			"user":   session.User(),
			"record": payload,
			"error":  searchErrorMessage(err),
		})
	}

	return c.Render("search", fiber.Map{
		"user":      session.User(),
		"record":    payload,
		"jobs":      result.Items,
		"total":     result.Total,
		"page":      payload.Page,
		"pages":     pageCount(result.Total),
		"has_more":  result.HasMore,
		"next_page": payload.Page + 1,
		"prev_page": payload.Page - 1,
	})
}

func pageCount(total int) int {
	if total <= 0 {
		return 1
	}
	return (total + jobsPerPage - 1) / jobsPerPage
}

func searchErrorMessage(err error) string {
	switch {
	case client.IsTimeout(err):
		return "The search took too long. Try a narrower filter."
	case client.IsNetworkError(err):
		return "Could not reach the server. Please try again."
	default:
		return "Search failed. Please try again."
	}
}
