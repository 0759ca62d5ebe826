// TIDAL API implementation of [Catalog]
//
// Response shapes follow the v1 endpoints under api.tidal.com/v1.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/session"
	"github.com/desertthunder/tidalx/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultAPIURL  = "https://api.tidal.com/v1"
	defaultAuthURL = "https://auth.tidal.com/v1/oauth2"
	resourcesURL   = "https://resources.tidal.com/images"
	tidalScopes    = "r_usr w_usr w_sub"
	deviceGrant    = "urn:ietf:params:oauth:grant-type:device_code"
)

// TidalService talks to the TIDAL API on behalf of one [session.Session].
type TidalService struct {
	cfg        shared.TidalConfig
	oauth      *oauth2.Config
	session    *session.Session
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger

	// OnRefresh receives the renewed record after a silent refresh.
	OnRefresh func(models.TokenRecord) error

	refreshMu sync.Mutex

	mu      sync.Mutex
	offsets map[string]int
	liked   map[int64]bool
}

// NewTidalService creates a TIDAL client bound to sess.
//
// Empty URLs fall back to the public endpoints, a nil client to [http.DefaultClient] and a nil logger to stderr.
func NewTidalService(cfg shared.TidalConfig, sess *session.Session, client *http.Client, logger *log.Logger) *TidalService {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.AuthURL == "" {
		cfg.AuthURL = defaultAuthURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.AuthURL = strings.TrimRight(cfg.AuthURL, "/")
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(os.Stderr)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &TidalService{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				DeviceAuthURL: cfg.AuthURL + "/device_authorization",
				TokenURL:      cfg.AuthURL + "/token",
				AuthStyle:     oauth2.AuthStyleInParams,
			},
			Scopes: strings.Fields(tidalScopes),
		},
		session:    sess,
		httpClient: client,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     shared.WithLogger(logger, "service", "tidal"),
		offsets:    map[string]int{},
		liked:      map[int64]bool{},
	}
}

func (s *TidalService) Name() string {
	return "TIDAL"
}

// Reset forgets the pagination cursors and the liked set, so a later session starts from the first page.
func (s *TidalService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets = map[string]int{}
	s.liked = map[int64]bool{}
}

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	form   url.Values
	// cursor keys the pagination offset, defaulting to path.
	cursor string
	// auth requires a user session.
	auth bool
}

// doRequest performs a rate-limited API request and decodes the JSON response into result.
//
// A 401 on an authenticated request triggers one refresh and one retry.
func (s *TidalService) doRequest(ctx context.Context, r request, result any) error {
	if r.auth && !s.session.Authenticated() {
		return shared.ErrNotAuthenticated
	}

	resp, err := s.send(ctx, r)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && s.session.Authenticated() {
		resp.Body.Close()
		s.logger.Debug("access token rejected, refreshing", "path", r.path)
		if err := s.Refresh(ctx); err != nil {
			return err
		}
		if resp, err = s.send(ctx, r); err != nil {
			return err
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return s.statusError(r, resp)
	}

	if result != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func (s *TidalService) send(ctx context.Context, r request) (*http.Response, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	rec := s.session.Record()
	query := url.Values{}
	for k, v := range r.query {
		query[k] = v
	}
	if rec.CountryCode != "" {
		query.Set("countryCode", rec.CountryCode)
	}

	apiURL := s.cfg.APIURL + r.path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	var body io.Reader
	if r.form != nil {
		body = strings.NewReader(r.form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, r.method, apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if s.session.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+rec.AccessToken)
	} else {
		req.Header.Set("X-Tidal-Token", s.cfg.ClientID)
	}
	if r.form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("X-Request-ID", shared.GenerateID())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	return resp, nil
}

func (s *TidalService) statusError(r request, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.UserMessage != "" {
		return fmt.Errorf("%w: %s %s: status %d: %s", shared.ErrAPIRequest, r.method, r.path, resp.StatusCode, apiErr.UserMessage)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s %s: status 401", shared.ErrNotAuthenticated, r.method, r.path)
	}
	return fmt.Errorf("%w: %s %s: status %d", shared.ErrAPIRequest, r.method, r.path, resp.StatusCode)
}

// oauthContext carries the service's HTTP client into [oauth2] calls.
func (s *TidalService) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
}

// Refresh renews the access token with the stored refresh token, updates the session and persists the result through
// OnRefresh.
func (s *TidalService) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	rec := s.session.Record()
	if rec.RefreshToken == "" {
		return shared.ErrNoRefreshToken
	}

	tok, err := s.oauth.TokenSource(s.oauthContext(ctx), &oauth2.Token{RefreshToken: rec.RefreshToken}).Token()
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrRefreshFailed, classifyTokenError(err))
	}

	updated, err := s.session.Refresh(tok.AccessToken, tok.RefreshToken)
	if err != nil {
		return err
	}
	s.logger.Info("access token refreshed", "user_id", updated.UserID)

	if s.OnRefresh != nil {
		if err := s.OnRefresh(updated); err != nil {
			return fmt.Errorf("failed to persist refreshed session: %w", err)
		}
	}
	return nil
}

// IssueDeviceCode requests a device code and user code.
//
// The returned VerificationURI prefers the complete form that embeds the user code.
func (s *TidalService) IssueDeviceCode(ctx context.Context) (models.DeviceGrant, error) {
	form := url.Values{
		"client_id": {s.cfg.ClientID},
		"scope":     {tidalScopes},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.oauth.Endpoint.DeviceAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return models.DeviceGrant{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return models.DeviceGrant{}, fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.DeviceGrant{}, fmt.Errorf("%w: device authorization: status %d", shared.ErrNetwork, resp.StatusCode)
	}

	var da deviceAuthorization
	if err := json.NewDecoder(resp.Body).Decode(&da); err != nil {
		return models.DeviceGrant{}, fmt.Errorf("failed to decode device authorization: %w", err)
	}
	if da.DeviceCode == "" {
		return models.DeviceGrant{}, fmt.Errorf("%w: device authorization returned no device code", shared.ErrAPIRequest)
	}

	uri := da.VerificationURIComplete
	if uri == "" {
		uri = da.VerificationURI
	}

	return models.DeviceGrant{
		DeviceCode:      da.DeviceCode,
		UserCode:        da.UserCode,
		VerificationURI: shared.EnsureScheme(uri),
		Interval:        seconds(da.Interval),
		ExpiresAt:       expiresAt(da.ExpiresIn),
	}, nil
}

// PollToken performs a single device token check.
func (s *TidalService) PollToken(ctx context.Context, deviceCode string) (models.TokenRecord, error) {
	tok, err := s.oauth.Exchange(s.oauthContext(ctx), "",
		oauth2.SetAuthURLParam("grant_type", deviceGrant),
		oauth2.SetAuthURLParam("device_code", deviceCode),
		oauth2.SetAuthURLParam("scope", tidalScopes),
	)
	if err != nil {
		return models.TokenRecord{}, classifyTokenError(err)
	}

	rec := models.TokenRecord{
		UserID:       extraInt(tok.Extra("user_id")),
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if user, ok := tok.Extra("user").(map[string]any); ok {
		if rec.UserID == 0 {
			rec.UserID = extraInt(user["userId"])
		}
		if cc, ok := user["countryCode"].(string); ok {
			rec.CountryCode = cc
		}
	}
	return rec, nil
}

// classifyTokenError maps OAuth error codes onto the shared sentinels.
func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return fmt.Errorf("%w: %v", shared.ErrNetwork, err)
	}

	switch re.ErrorCode {
	case "authorization_pending", "slow_down":
		return fmt.Errorf("%w: %s", shared.ErrAuthorizationPending, re.ErrorCode)
	case "access_denied":
		return fmt.Errorf("%w: %s", shared.ErrAccessDenied, re.ErrorDescription)
	case "expired_token":
		return fmt.Errorf("%w: %s", shared.ErrAuthTimeout, re.ErrorDescription)
	case "invalid_grant":
		return fmt.Errorf("%w: %s", shared.ErrInvalidGrant, re.ErrorDescription)
	}
	if re.Response != nil && re.Response.StatusCode >= 500 {
		return fmt.Errorf("%w: token endpoint status %d", shared.ErrNetwork, re.Response.StatusCode)
	}
	return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
}

// extraInt reads a numeric token extra, which JSON decoding yields as float64.
func extraInt(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}

func seconds(n int64) time.Duration {
	return time.Duration(n) * time.Second
}

// expiresAt turns a relative expiry into an absolute deadline. Zero means no deadline.
func expiresAt(in int64) time.Time {
	if in <= 0 {
		return time.Time{}
	}
	return time.Now().Add(seconds(in))
}
