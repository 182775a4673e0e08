package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every outbound call.
const DefaultTimeout = 30 * time.Second

const loginPath = "/auth/login"

// InvalidationListener is notified when a 401 tears the session down. The
// web layer translates it into a redirect to the sign-in page; the gateway
// itself never touches navigation.
type InvalidationListener func(path string)

// Request describes one backend call.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	ContentType string
	// Authenticated attaches a bearer header sourced fresh from the
	// credential store; the header value is never cached across calls.
	Authenticated bool
	// BearerToken, when set, is used verbatim instead of the store. Needed
	// during login, before the credential has been persisted.
	BearerToken string
}

// Gateway executes backend calls with a fixed deadline, uniform error
// classification, and centralized 401 handling. It does not retry; retry
// policy belongs to callers.
type Gateway struct {
	baseURL      string
	http         *http.Client
	creds        *CredentialStore
	timeout      time.Duration
	logger       Logger
	onInvalidate InvalidationListener
}

// GatewayOption customizes a Gateway.
type GatewayOption func(*Gateway)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(client *http.Client) GatewayOption {
	return func(g *Gateway) {
		if client != nil {
			g.http = client
		}
	}
}

// WithTimeout overrides the per-call deadline.
func WithTimeout(timeout time.Duration) GatewayOption {
	return func(g *Gateway) {
		if timeout > 0 {
			g.timeout = timeout
		}
	}
}

// WithGatewayLogger overrides the default logger.
func WithGatewayLogger(logger Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithInvalidationListener registers the 401 observer.
func WithInvalidationListener(listener InvalidationListener) GatewayOption {
	return func(g *Gateway) {
		g.onInvalidate = listener
	}
}

// NewGateway builds a gateway rooted at baseURL. creds supplies the bearer
// header and is cleared whenever the backend answers 401.
func NewGateway(baseURL string, creds *CredentialStore, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		creds:   creds,
		timeout: DefaultTimeout,
		logger:  defLogger{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do executes req and decodes a JSON response body into out when out is
// non-nil. A 204 or a non-JSON content type leaves out untouched and returns
// nil: an empty response is legitimate, not a parse error.
func (g *Gateway) Do(ctx context.Context, req Request, out any) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	endpoint := g.baseURL + req.Path
	if len(req.Query) > 0 {
		endpoint += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, endpoint, req.Body)
	if err != nil {
		return err
	}

	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	httpReq.Header.Set("Accept", "application/json")

	if req.BearerToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	} else if req.Authenticated {
		cred, err := g.creds.Load(ctx)
		if err != nil {
			g.logger.Error("credential load: %v", err)
		}
		if cred != nil {
			httpReq.Header.Set("Authorization", "Bearer "+cred.Token)
		}
	}

	resp, err := g.http.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			g.logger.Info("request timed out: %s %s", req.Method, req.Path)
			return ErrTimeout
		}
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			g.logger.Debug("request canceled: %s %s", req.Method, req.Path)
			return context.Canceled
		}
		g.logger.Error("request transport failure: %s %s: %v", req.Method, req.Path, err)
		return ErrNetwork
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return g.invalidate(ctx, req.Path)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return RequestFailed(errorMessage(resp))
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// invalidate clears the credential pair and notifies the listener. The
// listener is skipped for the login call itself: a failed login is a bad
// password, not a dead session, and must not bounce the user off the form.
func (g *Gateway) invalidate(ctx context.Context, path string) error {
	if err := g.creds.Clear(ctx); err != nil {
		g.logger.Error("credential clear after 401: %v", err)
	}
	if g.onInvalidate != nil && path != loginPath {
		g.onInvalidate(path)
	}
	return ErrSessionExpired
}

// errorMessage extracts the human readable message from a backend error
// body. The backend reports failures as {"detail": "..."}; anything else
// falls back to the HTTP status text.
func errorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(body) > 0 {
		var payload struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
			return payload.Detail
		}
	}
	return resp.Status
}
