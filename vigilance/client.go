package vigilance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"

	"github.com/couchcryptid/meteo-vigilance/meteofrance"
)

// API paths, relative to the base URL.
const (
	CarteEndpoint    = "DPVigilance/v1/cartevigilance/encours"
	BulletinEndpoint = "DPVigilance/v1/textesvigilance/encours"
	VignetteEndpoint = "DPVigilance/v1/vignettenationale-J-et-J1/encours"
)

// API is the transport the client fetches products through. *meteofrance.Client
// implements it.
type API interface {
	Get(ctx context.Context, path string, params url.Values) (*meteofrance.Response, error)
}

// Config configures New.
type Config struct {
	meteofrance.Config

	// TempDir receives the vignette image. Empty keeps the image in memory only.
	TempDir string
}

// Client retrieves vigilance products. It holds no state between calls apart
// from the token cached by the underlying API client, and is safe for
// concurrent use.
type Client struct {
	api       API
	tempDir   string
	displayer Displayer
	logger    *slog.Logger
}

// Option customizes a Client built with NewWithAPI.
type Option func(*Client)

// WithTempDir sets the directory vignettes are written to.
func WithTempDir(dir string) Option {
	return func(c *Client) { c.tempDir = dir }
}

// WithDisplayer replaces the platform viewer used by Display.
func WithDisplayer(d Displayer) Option {
	return func(c *Client) { c.displayer = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New validates cfg and builds a client. It does not contact the API.
func New(cfg Config) (*Client, error) {
	if cfg.TempDir != "" {
		if info, err := os.Stat(cfg.TempDir); err == nil && !info.IsDir() {
			return nil, &meteofrance.ConfigurationError{Field: "TempDir", Reason: "not a directory"}
		}
	}
	api, err := meteofrance.New(cfg.Config)
	if err != nil {
		return nil, err
	}
	return NewWithAPI(api, WithTempDir(cfg.TempDir), WithLogger(cfg.Logger)), nil
}

// NewWithAPI wraps an existing API client.
func NewWithAPI(api API, opts ...Option) *Client {
	c := &Client{
		api:       api,
		displayer: SystemViewer{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetCarte fetches the current vigilance map.
func (c *Client) GetCarte(ctx context.Context) (*Carte, error) {
	resp, err := c.api.Get(ctx, CarteEndpoint, nil)
	if err != nil {
		return nil, err
	}
	var carte Carte
	if err := resp.Decode(&carte); err != nil {
		return nil, err
	}
	if err := carte.validate(); err != nil {
		return nil, resp.PayloadError(err.Error())
	}
	c.logger.Debug("vigilance map fetched",
		"update_time", carte.Product.UpdateTime,
		"periods", len(carte.Product.Periods),
	)
	return &carte, nil
}

// GetPhenomenon fetches the vigilance map once and derives the per-window
// table and the per-zone maximum table from it.
func (c *Client) GetPhenomenon(ctx context.Context) (PhenomenonTable, TimelapseTable, error) {
	carte, err := c.GetCarte(ctx)
	if err != nil {
		return nil, nil, err
	}
	return carte.PhenomenonTable(), carte.TimelapseTable(), nil
}

// GetBulletin fetches the bulletin text. When no bulletin is published the
// error matches meteofrance.ErrNoData.
func (c *Client) GetBulletin(ctx context.Context) (*Bulletin, error) {
	resp, err := c.api.Get(ctx, BulletinEndpoint, nil)
	if err != nil {
		if errors.Is(err, meteofrance.ErrNoData) {
			c.logger.Warn("no vigilance bulletin published")
		}
		return nil, err
	}
	var bulletin Bulletin
	if err := resp.Decode(&bulletin); err != nil {
		return nil, err
	}
	if err := bulletin.validate(); err != nil {
		return nil, resp.PayloadError(err.Error())
	}
	return &bulletin, nil
}

// GetVignette fetches the map image. With a temp directory configured the
// image is also written there and Path is set.
func (c *Client) GetVignette(ctx context.Context) (*Vignette, error) {
	resp, err := c.api.Get(ctx, VignetteEndpoint, nil)
	if err != nil {
		return nil, err
	}
	v, err := newVignette(resp)
	if err != nil {
		return nil, err
	}
	if c.tempDir != "" {
		if _, err := v.Save(c.tempDir); err != nil {
			return nil, err
		}
		c.logger.Debug("vignette saved", "path", v.Path, "bytes", len(v.Data))
	}
	return v, nil
}

// Display opens a saved image with the configured displayer.
func (c *Client) Display(ctx context.Context, path string) error {
	if path == "" {
		return fmt.Errorf("display: empty path")
	}
	return c.displayer.Display(ctx, path)
}
