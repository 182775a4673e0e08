package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Job is one aggregated listing as the backend reports it.
type Job struct {
	ID          int64          `json:"id"`
	Title       string         `json:"title"`
	Company     string         `json:"company"`
	Location    string         `json:"location,omitempty"`
	JobType     string         `json:"job_type"`
	Description string         `json:"description,omitempty"`
	SourceURL   string         `json:"source_url"`
	Source      string         `json:"source"`
	PostedDate  string         `json:"posted_date,omitempty"`
	IsActive    bool           `json:"is_active"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   string         `json:"created_at,omitempty"`
	UpdatedAt   string         `json:"updated_at,omitempty"`
}

// JobList is one page of search results.
type JobList struct {
	Items   []Job `json:"items"`
	Total   int   `json:"total"`
	Skip    int   `json:"skip"`
	Limit   int   `json:"limit"`
	HasMore bool  `json:"has_more"`
}

// JobQuery is the search filter set. Zero-valued fields are omitted from the
// query string; the frontend never interprets their semantics.
type JobQuery struct {
	Title    string
	Company  string
	Location string
	JobType  string
	Source   string
	Skip     int
	Limit    int
}

// AlertFilters is the filter criteria attached to an alert, passed opaquely
// to the backend.
type AlertFilters struct {
	Title    string `json:"title,omitempty"`
	Company  string `json:"company,omitempty"`
	Location string `json:"location,omitempty"`
	JobType  string `json:"job_type,omitempty"`
}

// Alert is a saved email alert.
type Alert struct {
	ID        int64        `json:"id"`
	Email     string       `json:"email"`
	Name      string       `json:"name"`
	Filters   AlertFilters `json:"filters"`
	IsActive  bool         `json:"is_active"`
	CreatedAt string       `json:"created_at,omitempty"`
}

// AlertUpdate carries the mutable alert fields; nil means leave unchanged.
type AlertUpdate struct {
	Name     *string       `json:"name,omitempty"`
	Filters  *AlertFilters `json:"filters,omitempty"`
	IsActive *bool         `json:"is_active,omitempty"`
}

// TokenResponse is the login result.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// JobMatch is one scored job from a resume match run.
type JobMatch struct {
	Job             Job      `json:"job"`
	MatchScore      float64  `json:"match_score"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

// MatchResult is the ranked outcome of a resume upload.
type MatchResult struct {
	TopMatches      []JobMatch `json:"top_matches"`
	TotalJobsScored int        `json:"total_jobs_scored"`
}

// API exposes the backend operations the pages need, all funnelled through
// one Gateway so every call shares the same timeout, auth, and failure
// handling.
type API struct {
	gw *Gateway
}

// NewAPI wraps a gateway with the typed operations.
func NewAPI(gw *Gateway) *API {
	return &API{gw: gw}
}

// Register creates an account. Unauthenticated.
func (a *API) Register(ctx context.Context, email, fullName, password string) (*User, error) {
	body, err := jsonBody(map[string]string{
		"email":     email,
		"full_name": fullName,
		"password":  password,
	})
	if err != nil {
		return nil, err
	}

	user := &User{}
	if err := a.gw.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Body:        body,
		ContentType: "application/json",
	}, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login exchanges credentials for a bearer token. The backend speaks the
// OAuth2 password form: `username` carries the email.
func (a *API) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	token := &TokenResponse{}
	if err := a.gw.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        loginPath,
		Body:        strings.NewReader(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	}, token); err != nil {
		return nil, err
	}
	return token, nil
}

// CurrentUser fetches the authenticated profile.
func (a *API) CurrentUser(ctx context.Context) (*User, error) {
	user := &User{}
	if err := a.gw.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          "/auth/me",
		Authenticated: true,
	}, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CurrentUserWithToken fetches the profile using an explicit token, for the
// window during login where the credential is not yet stored.
func (a *API) CurrentUserWithToken(ctx context.Context, token string) (*User, error) {
	user := &User{}
	if err := a.gw.Do(ctx, Request{
		Method:      http.MethodGet,
		Path:        "/auth/me",
		BearerToken: token,
	}, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SearchJobs runs a filtered, paginated search. Results come back exactly as
// the backend scored and ordered them.
func (a *API) SearchJobs(ctx context.Context, query JobQuery) (*JobList, error) {
	params := url.Values{}
	setIfPresent(params, "title", query.Title)
	setIfPresent(params, "company", query.Company)
	setIfPresent(params, "location", query.Location)
	setIfPresent(params, "job_type", query.JobType)
	setIfPresent(params, "source", query.Source)
	if query.Skip > 0 {
		params.Set("skip", strconv.Itoa(query.Skip))
	}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}

	list := &JobList{}
	if err := a.gw.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          "/jobs",
		Query:         params,
		Authenticated: true,
	}, list); err != nil {
		return nil, err
	}
	return list, nil
}

// JobDetail fetches one listing.
func (a *API) JobDetail(ctx context.Context, id int64) (*Job, error) {
	job := &Job{}
	if err := a.gw.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/jobs/%d", id),
	}, job); err != nil {
		return nil, err
	}
	return job, nil
}

// CreateAlert registers a new email alert for the authenticated user.
func (a *API) CreateAlert(ctx context.Context, email, name string, filters AlertFilters) (*Alert, error) {
	body, err := jsonBody(map[string]any{
		"email":   email,
		"name":    name,
		"filters": filters,
	})
	if err != nil {
		return nil, err
	}

	alert := &Alert{}
	if err := a.gw.Do(ctx, Request{
		Method:        http.MethodPost,
		Path:          "/alerts",
		Body:          body,
		ContentType:   "application/json",
		Authenticated: true,
	}, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// Alerts lists the authenticated user's alerts.
func (a *API) Alerts(ctx context.Context) ([]Alert, error) {
	var alerts []Alert
	if err := a.gw.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          "/alerts",
		Authenticated: true,
	}, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// Alert fetches a single alert by id.
func (a *API) Alert(ctx context.Context, id int64) (*Alert, error) {
	alert := &Alert{}
	if err := a.gw.Do(ctx, Request{
		Method:        http.MethodGet,
		Path:          fmt.Sprintf("/alerts/%d", id),
		Authenticated: true,
	}, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// UpdateAlert patches an alert's name, filters, or active flag.
func (a *API) UpdateAlert(ctx context.Context, id int64, update AlertUpdate) (*Alert, error) {
	body, err := jsonBody(update)
	if err != nil {
		return nil, err
	}

	alert := &Alert{}
	if err := a.gw.Do(ctx, Request{
		Method:        http.MethodPut,
		Path:          fmt.Sprintf("/alerts/%d", id),
		Body:          body,
		ContentType:   "application/json",
		Authenticated: true,
	}, alert); err != nil {
		return nil, err
	}
	return alert, nil
}

// DeleteAlert removes an alert. The backend answers 204.
func (a *API) DeleteAlert(ctx context.Context, id int64) error {
	return a.gw.Do(ctx, Request{
		Method:        http.MethodDelete,
		Path:          fmt.Sprintf("/alerts/%d", id),
		Authenticated: true,
	}, nil)
}

// MatchResume uploads a PDF resume and returns the top-N ranked matches. A
// backend that has nothing to score answers 204, which resolves to nil.
func (a *API) MatchResume(ctx context.Context, filename string, resume io.Reader, topN int) (*MatchResult, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("resume", filename)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, resume); err != nil {
		return nil, err
	}
	if err := form.Close(); err != nil {
		return nil, err
	}

	params := url.Values{}
	if topN > 0 {
		params.Set("top_n", strconv.Itoa(topN))
	}

	// result stays nil when the backend answers 204 or a non-JSON body;
	// decoding through the double pointer allocates only on real payloads.
	var result *MatchResult
	if err := a.gw.Do(ctx, Request{
		Method:        http.MethodPost,
		Path:          "/match/resume",
		Query:         params,
		Body:          &buf,
		ContentType:   form.FormDataContentType(),
		Authenticated: true,
	}, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Health pings the backend. Best effort: callers typically log and ignore
// the error.
func (a *API) Health(ctx context.Context) error {
	return a.gw.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/health",
	}, nil)
}

func setIfPresent(params url.Values, key, value string) {
	if value != "" {
		params.Set(key, value)
	}
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}
