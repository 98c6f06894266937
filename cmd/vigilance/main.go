// Command vigilance fetches the current Météo-France vigilance products and
// prints them as tables. Credentials are read from the environment (or a .env
// file) the same way as the exporter.
//
// Usage:
//
//	METEOFRANCE_APPLICATION_ID=... go run ./cmd/vigilance \
//	  -phenomenon -bulletin -vignette -display -format csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/meteo-vigilance/internal/config"
	"github.com/couchcryptid/meteo-vigilance/internal/export"
	"github.com/couchcryptid/meteo-vigilance/meteofrance"
	"github.com/couchcryptid/meteo-vigilance/vigilance"
)

type options struct {
	phenomenon bool
	summary    bool
	bulletin   bool
	vignette   bool
	display    bool
	format     export.Format
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "vigilance:", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop already called
	}
}

func run(ctx context.Context, out io.Writer) error {
	phenomenon := flag.Bool("phenomenon", false, "print the per-window and per-zone phenomenon tables")
	summary := flag.Bool("summary", false, "print the per-phenomenon color counts")
	bulletin := flag.Bool("bulletin", false, "print the bulletin text blocks")
	vignette := flag.Bool("vignette", false, "download the vigilance map image")
	display := flag.Bool("display", false, "open the downloaded map with the system image viewer (implies -vignette)")
	format := flag.String("format", "csv", "table format: csv or json")
	flag.Parse()

	f, err := export.ParseFormat(*format)
	if err != nil {
		return err
	}
	opts := options{
		phenomenon: *phenomenon,
		summary:    *summary,
		bulletin:   *bulletin,
		vignette:   *vignette || *display,
		display:    *display,
		format:     f,
	}
	if !opts.phenomenon && !opts.summary && !opts.bulletin && !opts.vignette {
		opts.phenomenon = true
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Tables go to stdout, logs to stderr.
	logger := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	client, err := vigilance.New(vigilance.Config{
		Config: meteofrance.Config{
			ApplicationID:    cfg.ApplicationID,
			APIKey:           cfg.APIKey,
			Token:            cfg.Token,
			BaseURL:          cfg.BaseURL,
			Timeout:          cfg.RequestTimeout,
			MaxRetries:       cfg.MaxRetries,
			BreakerThreshold: cfg.BreakerThreshold,
			Logger:           logger,
		},
		TempDir: cfg.TempDir,
	})
	if err != nil {
		return err
	}

	return fetch(ctx, client, opts, out, logger)
}

// newLogger follows LOG_LEVEL and LOG_FORMAT like the exporter, writing to w.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func fetch(ctx context.Context, client *vigilance.Client, opts options, out io.Writer, logger *slog.Logger) error {
	if opts.phenomenon || opts.summary {
		carte, err := client.GetCarte(ctx)
		if err != nil {
			return fmt.Errorf("get vigilance map: %w", err)
		}
		if opts.phenomenon {
			if err := section(out, "phenomenon", carte.PhenomenonTable(), opts.format); err != nil {
				return err
			}
			if err := section(out, "timelapse", carte.TimelapseTable(), opts.format); err != nil {
				return err
			}
		}
		if opts.summary {
			if err := section(out, "summary", carte.Summary(), opts.format); err != nil {
				return err
			}
		}
	}

	if opts.bulletin {
		b, err := client.GetBulletin(ctx)
		switch {
		case errors.Is(err, meteofrance.ErrNoData):
			logger.Info("no bulletin published: current vigilance does not require one")
		case err != nil:
			return fmt.Errorf("get bulletin: %w", err)
		default:
			if err := section(out, "bulletin", b.TextBlocks(), opts.format); err != nil {
				return err
			}
		}
	}

	if opts.vignette {
		v, err := client.GetVignette(ctx)
		if err != nil {
			return fmt.Errorf("get vignette: %w", err)
		}
		path := v.Path
		if path == "" && opts.display {
			if path, err = v.Save(os.TempDir()); err != nil {
				return err
			}
		}
		logger.Info("vignette downloaded",
			"filename", v.Filename,
			"content_type", v.ContentType,
			"size", fmt.Sprintf("%dx%d", v.Width, v.Height),
			"bytes", len(v.Data),
			"path", path,
		)
		if opts.display {
			if err := client.Display(ctx, path); err != nil {
				return err
			}
		}
	}
	return nil
}

// section writes a table preceded by a "# name" line.
func section(out io.Writer, name string, t vigilance.Table, f export.Format) error {
	if _, err := fmt.Fprintf(out, "# %s\n", name); err != nil {
		return err
	}
	if err := export.Write(out, t, f); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	_, err := fmt.Fprintln(out)
	return err
}
