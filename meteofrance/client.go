package meteofrance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
)

const (
	// DefaultBaseURL is the root every API path is resolved against.
	DefaultBaseURL = "https://public-api.meteofrance.fr/public/"
	// DefaultTokenURL is where an application id is exchanged for a bearer token.
	DefaultTokenURL = "https://portail-api.meteofrance.fr/token"
	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second

	breakerOpenTimeout = 30 * time.Second
	maxErrorBody       = 512
)

// Config holds the client settings. One of ApplicationID, APIKey or Token is
// required; when several are given the API key wins, then the token.
type Config struct {
	ApplicationID string `validate:"omitempty,credential"`
	APIKey        string `validate:"omitempty,credential"`
	Token         string `validate:"omitempty,credential"`

	BaseURL  string `validate:"omitempty,url"`
	TokenURL string `validate:"omitempty,url"`

	// Timeout bounds each HTTP exchange. Zero means DefaultTimeout.
	Timeout time.Duration `validate:"-"`
	// MaxRetries is the number of extra attempts on 429/5xx and transport
	// errors. Zero, the default, sends each request exactly once.
	MaxRetries int `validate:"gte=0,lte=10"`
	// BreakerThreshold opens a circuit breaker after that many consecutive
	// upstream failures. Zero disables the breaker.
	BreakerThreshold uint32

	HTTPClient *http.Client    `validate:"-"`
	Logger     *slog.Logger    `validate:"-"`
	Recorder   Recorder        `validate:"-"`
	Clock      clockwork.Clock `validate:"-"`
}

// Client performs authenticated GET requests against the Météo-France public
// API and classifies failures into AuthError and UpstreamError.
type Client struct {
	baseURL  string
	apiKey   string
	tokens   *tokenSource
	http     *retryablehttp.Client
	breaker  *gobreaker.CircuitBreaker
	clock    clockwork.Clock
	recorder Recorder
	logger   *slog.Logger
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("credential", validCredential); err != nil {
		panic(err)
	}
	return v
}

// validCredential rejects whitespace and control characters, which can never
// appear in an API key, a JWT, or a base64 application id.
func validCredential(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// Validate checks the configuration without building a client.
func (cfg Config) Validate() error {
	if cfg.ApplicationID == "" && cfg.APIKey == "" && cfg.Token == "" {
		return &ConfigurationError{Field: "ApplicationID", Reason: "an application id, api key or token is required"}
	}
	if cfg.Timeout < 0 {
		return &ConfigurationError{Field: "Timeout", Reason: "must not be negative"}
	}
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ConfigurationError{Field: verrs[0].Field(), Reason: validationReason(verrs[0])}
		}
		return &ConfigurationError{Field: "Config", Reason: err.Error()}
	}
	return nil
}

func validationReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "credential":
		return "must not contain whitespace or control characters"
	case "url":
		return "must be an absolute URL"
	case "gte", "lte":
		return fmt.Sprintf("must be %s %s", fe.Tag(), fe.Param())
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// New validates cfg and builds a Client. It performs no network I/O: the
// application id is exchanged for a token on the first request.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = httpClient
	rc.RetryMax = cfg.MaxRetries
	rc.Logger = logger
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		http:     rc,
		clock:    clock,
		recorder: recorder,
		logger:   logger,
	}

	if cfg.APIKey == "" {
		c.tokens = &tokenSource{
			applicationID: cfg.ApplicationID,
			tokenURL:      tokenURL,
			httpClient:    httpClient,
			clock:         clock,
			recorder:      recorder,
			logger:        logger,
			token:         cfg.Token,
		}
	}

	if cfg.BreakerThreshold > 0 {
		threshold := cfg.BreakerThreshold
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "meteofrance",
			Timeout: breakerOpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			// A rejected credential or an unpublished product says nothing
			// about upstream health.
			IsSuccessful: func(err error) bool {
				return err == nil || IsAuthError(err) || errors.Is(err, ErrNoData)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			},
		})
	}

	return c, nil
}

// Get issues one authenticated GET for path (relative to the base URL) and
// returns the response when the status is 2xx.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	start := c.clock.Now()
	resp, err := c.execute(ctx, path, params)
	c.recorder.ObserveRequest(path, outcomeOf(err), c.clock.Since(start))
	return resp, err
}

func (c *Client) execute(ctx context.Context, path string, params url.Values) (*Response, error) {
	if c.breaker == nil {
		return c.fetch(ctx, path, params)
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, path, params)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, &UpstreamError{Endpoint: path, Err: fmt.Errorf("circuit breaker: %w", err)}
	}
	if err != nil {
		return nil, err
	}
	return out.(*Response), nil
}

type rawResponse struct {
	status int
	header http.Header
	body   []byte
	token  string
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) (*Response, error) {
	raw, err := c.roundTrip(ctx, path, params)
	if err != nil {
		return nil, err
	}

	// An expired JWT is renewed once from the application id; the request is
	// then replayed with the new token.
	if c.tokens != nil && c.tokens.canRenew() && isExpiredToken(raw) {
		c.logger.Info("token expired, requesting a new one", "endpoint", path)
		c.tokens.Invalidate(raw.token)
		if raw, err = c.roundTrip(ctx, path, params); err != nil {
			return nil, err
		}
	}

	return c.classify(path, raw)
}

func (c *Client) roundTrip(ctx context.Context, path string, params url.Values) (rawResponse, error) {
	u := c.baseURL + strings.TrimPrefix(path, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return rawResponse{}, &UpstreamError{Endpoint: path, Err: fmt.Errorf("create request: %w", err)}
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json, */*;q=0.8")
	req.Header.Set("X-Request-Id", requestID)

	var token string
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	} else {
		token, err = c.tokens.Token(ctx)
		if err != nil {
			return rawResponse{}, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("GET", "endpoint", path, "request_id", requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return rawResponse{}, &UpstreamError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return rawResponse{}, &UpstreamError{Endpoint: path, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	return rawResponse{status: resp.StatusCode, header: resp.Header, body: body, token: token}, nil
}

func (c *Client) classify(path string, raw rawResponse) (*Response, error) {
	switch {
	case raw.status >= 200 && raw.status <= 299:
		c.logger.Debug("request successful", "endpoint", path, "status", raw.status)
		return &Response{Endpoint: path, StatusCode: raw.status, Header: raw.header, Body: raw.body}, nil

	case raw.status == http.StatusUnauthorized || raw.status == http.StatusForbidden:
		apiErr := parseAPIError(raw)
		c.logger.Error("access denied", "endpoint", path, "status", raw.status, "code", apiErr.code)
		return nil, &AuthError{StatusCode: raw.status, Code: apiErr.code, Message: apiErr.message}

	case raw.status == http.StatusNotFound:
		c.logger.Warn("missing data", "endpoint", path)
		return nil, &UpstreamError{Endpoint: path, StatusCode: raw.status, Body: truncate(raw.body), Err: ErrNoData}

	case raw.status == http.StatusBadRequest:
		c.logger.Error("parameter error", "endpoint", path)
	case raw.status >= 500:
		c.logger.Error("service not available", "endpoint", path, "status", raw.status)
	}
	return nil, &UpstreamError{Endpoint: path, StatusCode: raw.status, Body: truncate(raw.body)}
}

type apiError struct {
	code    string
	message string
}

// parseAPIError extracts the gateway error fields. The code is sometimes sent
// as a JSON number, sometimes as a string.
func parseAPIError(raw rawResponse) apiError {
	var payload struct {
		Code        json.RawMessage `json:"code"`
		Message     string          `json:"message"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(raw.body, &payload); err != nil {
		return apiError{message: truncate(raw.body)}
	}
	msg := payload.Description
	if msg == "" {
		msg = payload.Message
	}
	return apiError{code: strings.Trim(string(payload.Code), `"`), message: msg}
}

func isExpiredToken(raw rawResponse) bool {
	if raw.status != http.StatusUnauthorized || !strings.Contains(raw.header.Get("Content-Type"), "json") {
		return false
	}
	apiErr := parseAPIError(raw)
	return apiErr.code == invalidJWTCode || strings.Contains(apiErr.message, "Invalid JWT token")
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return OutcomeAuthError
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return OutcomeCircuitOpen
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) && upErr.StatusCode == 0 {
		return OutcomeTransportError
	}
	return OutcomeUpstreamError
}

func truncate(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		return s[:maxErrorBody] + "..."
	}
	return s
}
