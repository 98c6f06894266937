package meteofrance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	// defaultTokenLifetime applies when the token endpoint omits expires_in.
	defaultTokenLifetime = time.Hour

	// tokenExpirySkew renews the token slightly before the server expires it.
	tokenExpirySkew = time.Minute

	// invalidJWTCode is the API error code sent with a 401 when the bearer
	// token has expired or was superseded by a newer one.
	invalidJWTCode = "900901"
)

// tokenSource exchanges the application id for a bearer token and caches it.
// A static token from Config.Token is used as-is until the API rejects it.
type tokenSource struct {
	applicationID string
	tokenURL      string
	httpClient    *http.Client
	clock         clockwork.Clock
	recorder      Recorder
	logger        *slog.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time // zero for a static token
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token returns a valid bearer token, minting one when the cache is empty or
// expired. Concurrent callers share a single exchange.
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && (s.expiresAt.IsZero() || s.clock.Now().Before(s.expiresAt)) {
		return s.token, nil
	}
	if s.applicationID == "" {
		return "", &AuthError{StatusCode: http.StatusUnauthorized, Message: "token expired and no application id to renew it"}
	}
	return s.refreshLocked(ctx)
}

// Invalidate drops the cached token if it is still the one that was rejected,
// so the next Token call mints a fresh one.
func (s *tokenSource) Invalidate(rejected string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == rejected {
		s.token = ""
		s.expiresAt = time.Time{}
	}
}

func (s *tokenSource) canRenew() bool {
	return s.applicationID != ""
}

func (s *tokenSource) refreshLocked(ctx context.Context) (string, error) {
	tok, lifetime, err := s.exchange(ctx)
	if err != nil {
		if IsAuthError(err) {
			s.recorder.ObserveTokenRefresh(OutcomeAuthError)
		} else {
			s.recorder.ObserveTokenRefresh(OutcomeUpstreamError)
		}
		return "", err
	}
	s.recorder.ObserveTokenRefresh(OutcomeSuccess)

	s.token = tok
	s.expiresAt = s.clock.Now().Add(lifetime - tokenExpirySkew)
	s.logger.Debug("bearer token renewed", "expires_at", s.expiresAt)
	return tok, nil
}

func (s *tokenSource) exchange(ctx context.Context) (string, time.Duration, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+s.applicationID)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", 0, &UpstreamError{Endpoint: "token", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, &UpstreamError{Endpoint: "token", StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return "", 0, &AuthError{StatusCode: resp.StatusCode, Message: "application id rejected: " + strings.TrimSpace(string(body))}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", 0, &UpstreamError{Endpoint: "token", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", 0, &UpstreamError{Endpoint: "token", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return "", 0, &UpstreamError{Endpoint: "token", StatusCode: resp.StatusCode, Body: string(body), Err: fmt.Errorf("no access_token in response")}
	}

	lifetime := defaultTokenLifetime
	if tr.ExpiresIn > 0 {
		lifetime = time.Duration(tr.ExpiresIn) * time.Second
	}
	if lifetime <= tokenExpirySkew {
		lifetime = tokenExpirySkew + time.Second
	}
	return tr.AccessToken, lifetime, nil
}
