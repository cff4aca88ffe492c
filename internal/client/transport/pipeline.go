package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/catusdev/catus-client/internal/client/credentials"
	"github.com/catusdev/catus-client/internal/logging"
	"github.com/catusdev/catus-client/internal/notify"
	"github.com/catusdev/catus-client/internal/tokenx"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultMaxRetries      = 3
	defaultBackoffBase     = time.Second
	defaultExpiryThreshold = 5 * time.Minute
)

// publicPaths are exempt from the forced-logout reaction to a 401. A 401 on
// the login or refresh call itself means bad input, not an expired session,
// and reacting would loop. The check must stay ahead of the 401 branch.
var publicPaths = map[string]struct{}{
	"/auth/kakao":   {},
	"/auth/refresh": {},
	"/auth/logout":  {},
}

// TokenRefresher exchanges the stored refresh token for a fresh access
// token. The session manager implements it; implementations must coalesce
// concurrent calls into a single in-flight exchange.
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context) (string, error)
}

// Request describes one logical outbound call. The body is re-marshaled per
// attempt so retries resubmit an identical request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// Attempt is the explicit retry context threaded alongside a request.
// It replaces the old trick of smuggling a counter through headers.
type Attempt struct {
	Number int // 1-based
	Max    int
}

// Options configures a Pipeline. BaseURL, Credentials and Logger are
// required; everything else has defaults.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Credentials *credentials.Store
	Refresher   TokenRefresher
	Classifier  *Classifier
	Sink        notify.Sink
	Logger      logging.Logger

	// OnSessionExpired runs after an unrecoverable 401 clears the stored
	// credentials. It fires at most once per session.
	OnSessionExpired func(ctx context.Context)
}

// Pipeline is the single choke point for outbound calls.
type Pipeline struct {
	baseURL          string
	http             *http.Client
	creds            *credentials.Store
	refresher        TokenRefresher
	classifier       *Classifier
	sink             notify.Sink
	log              logging.Logger
	onSessionExpired func(ctx context.Context)

	maxRetries      uint64
	backoffBase     time.Duration
	expiryThreshold time.Duration

	sessionExpired atomic.Bool
}

func NewPipeline(opts Options) *Pipeline {
	if opts.Timeout == 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Classifier == nil {
		opts.Classifier = &Classifier{}
	}
	if opts.Sink == nil {
		opts.Sink = notify.Nop{}
	}
	return &Pipeline{
		baseURL:          strings.TrimRight(opts.BaseURL, "/"),
		http:             &http.Client{Timeout: opts.Timeout},
		creds:            opts.Credentials,
		refresher:        opts.Refresher,
		classifier:       opts.Classifier,
		sink:             opts.Sink,
		log:              opts.Logger,
		onSessionExpired: opts.OnSessionExpired,
		maxRetries:       defaultMaxRetries,
		backoffBase:      defaultBackoffBase,
		expiryThreshold:  defaultExpiryThreshold,
	}
}

// SetRefresher wires the token refresher after construction. The session
// manager needs the pipeline to talk to the backend, so the two are
// constructed pipeline-first and joined here.
func (p *Pipeline) SetRefresher(r TokenRefresher) {
	p.refresher = r
}

// ResetSessionGuard re-arms the once-per-session expiry reaction. Called by
// the session manager after a successful login.
func (p *Pipeline) ResetSessionGuard() {
	p.sessionExpired.Store(false)
}

// Do executes the request, decoding a successful JSON response into out
// (which may be nil). Retryable failures are retried with exponential
// backoff (1s, 2s, 4s) up to 3 retries; the error surfaced afterwards is
// always an *APIError.
func (p *Pipeline) Do(ctx context.Context, req Request, out any) error {
	reqID := uuid.NewString()
	log := p.log.With("req_id", reqID, "method", req.Method, "path", req.Path)

	token := p.prepareToken(ctx, req, log)

	attempt := Attempt{Max: int(p.maxRetries) + 1}
	backoff := retry.WithMaxRetries(p.maxRetries, retry.NewExponential(p.backoffBase))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt.Number++
		err := p.doOnce(ctx, req, token, out, attempt, log)
		if err == nil {
			return nil
		}
		if cls := p.classifier.Classify(err); cls.Retryable {
			log.Warn(ctx, "request failed, will retry", "attempt", attempt.Number, "kind", string(cls.Kind), "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}

	cls := p.classifier.Classify(err)
	log.Error(ctx, "request failed", "attempts", attempt.Number, "kind", string(cls.Kind), "error", err)

	if cls.Kind == KindAuth && !isPublicPath(req.Path) {
		p.expireSession(ctx)
	}
	p.sink.Notify(cls.Message, notify.SeverityError)

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{Message: cls.Message}
}

// prepareToken returns the bearer token for this request, refreshing it
// first when it is about to expire. A failed refresh is not fatal here: the
// request proceeds with the stale token and the normal 401 path takes over.
func (p *Pipeline) prepareToken(ctx context.Context, req Request, log logging.Logger) string {
	token, ok := p.creds.AccessToken(ctx)
	if !ok || token == "" {
		return ""
	}

	// Public paths still carry the token when one exists (logout does), but
	// never trigger a refresh: refreshing on the refresh call would loop.
	if !isPublicPath(req.Path) && p.refresher != nil && tokenx.IsExpiringSoon(token, p.expiryThreshold) {
		refreshed, err := p.refresher.RefreshAccessToken(ctx)
		switch {
		case err != nil:
			log.Warn(ctx, "proactive token refresh failed, proceeding with stale token", "error", err)
		case refreshed != "":
			token = refreshed
		}
	}
	return token
}

func (p *Pipeline) doOnce(ctx context.Context, req Request, token string, out any, attempt Attempt, log logging.Logger) error {
	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return &APIError{Message: msgUnknown}
		}
		body = bytes.NewReader(b)
	}

	u := p.baseURL + req.Path
	if len(req.Query) > 0 {
		u += "?" + req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	log.Debug(ctx, "sending request", "attempt", attempt.Number, "max_attempts", attempt.Max)

	resp, err := p.http.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return newStatusError(resp.StatusCode, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// newStatusError builds the typed error for a non-2xx response, preferring
// the backend's own message field when the body carries one.
func newStatusError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Data: body, Message: statusMessage(status)}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		apiErr.Message = payload.Message
	}
	return apiErr
}

// expireSession clears credential state and fires the session-expired hook,
// at most once per session no matter how many requests fail concurrently.
func (p *Pipeline) expireSession(ctx context.Context) {
	if !p.sessionExpired.CompareAndSwap(false, true) {
		return
	}
	p.creds.ClearAuth(ctx)
	if p.onSessionExpired != nil {
		p.onSessionExpired(ctx)
	}
}

func isPublicPath(path string) bool {
	_, ok := publicPaths[path]
	return ok
}
