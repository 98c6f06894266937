package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/meteo-vigilance/internal/observability"
	"github.com/couchcryptid/meteo-vigilance/meteofrance"
	"github.com/couchcryptid/meteo-vigilance/vigilance"
	"github.com/jonboulle/clockwork"
)

// Fetcher retrieves the current vigilance tables. *vigilance.Client implements it.
type Fetcher interface {
	GetPhenomenon(ctx context.Context) (vigilance.PhenomenonTable, vigilance.TimelapseTable, error)
}

// Sink receives the level changes detected by a poll.
type Sink interface {
	Publish(ctx context.Context, changes []LevelChange) error
}

// LevelChange is a (zone, phenomenon) pair whose maximum color differs from
// the previous poll. PreviousColorID is 0 the first time a pair is seen and
// ColorID is 0 when a pair is no longer reported.
type LevelChange struct {
	DomainID        string    `json:"domain_id"`
	PhenomenonID    string    `json:"phenomenon_id"`
	PhenomenonLabel string    `json:"phenomenon_label"`
	PreviousColorID int       `json:"previous_color_id"`
	ColorID         int       `json:"color_id"`
	ColorName       string    `json:"color_name"`
	PolledAt        time.Time `json:"polled_at"`
}

// Key identifies the pair, e.g. "13|1".
func (c LevelChange) Key() string {
	return c.DomainID + "|" + c.PhenomenonID
}

type pairKey struct {
	domain     vigilance.ID
	phenomenon vigilance.ID
}

// Exporter polls the vigilance map, mirrors the per-zone levels into
// Prometheus gauges and forwards level changes to a Sink.
type Exporter struct {
	fetcher  Fetcher
	sink     Sink
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu       sync.RWMutex
	levels   map[pairKey]int
	latest   vigilance.TimelapseTable
	polledAt time.Time
}

// New creates an Exporter. sink may be nil, in which case changes are only
// logged and counted.
func New(f Fetcher, sink Sink, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Exporter {
	return &Exporter{
		fetcher:  f,
		sink:     sink,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
		levels:   make(map[pairKey]int),
	}
}

// CheckReadiness returns nil once a poll has succeeded.
func (e *Exporter) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("exporter has not completed a poll yet")
	}
	return nil
}

// Levels returns the per-zone table of the last successful poll and its time.
// ok is false before the first successful poll.
func (e *Exporter) Levels() (table vigilance.TimelapseTable, polledAt time.Time, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.ready.Load() {
		return nil, time.Time{}, false
	}
	return e.latest, e.polledAt, true
}

// Run polls immediately and then once per interval until the context is
// cancelled. It returns an error only when the credential is rejected, since
// polling again cannot succeed.
func (e *Exporter) Run(ctx context.Context) error {
	e.logger.Info("exporter started", "interval", e.interval, "publishing", e.sink != nil)
	e.metrics.ExporterRunning.Set(1)
	defer e.metrics.ExporterRunning.Set(0)

	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		if err := e.poll(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			e.logger.Info("exporter stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
		}
	}
}

// poll runs one fetch-compare-publish cycle. Only an authentication failure is
// returned; other failures are logged and retried on the next tick.
func (e *Exporter) poll(ctx context.Context) error {
	start := e.clock.Now()

	_, timelapse, err := e.fetcher.GetPhenomenon(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		e.metrics.Polls.WithLabelValues("error").Inc()
		if meteofrance.IsAuthError(err) {
			e.logger.Error("vigilance credential rejected, stopping", "error", err)
			return fmt.Errorf("poll vigilance: %w", err)
		}
		e.logger.Error("poll vigilance failed", "error", err)
		return nil
	}

	next := make(map[pairKey]int, len(timelapse))
	for _, row := range timelapse {
		next[pairKey{domain: row.DomainID, phenomenon: row.PhenomenonID}] = row.MaxColorID
	}
	changes := e.diff(timelapse, next, start)

	if len(changes) > 0 && e.sink != nil {
		if err := e.sink.Publish(ctx, changes); err != nil {
			// Levels are not committed, so the same changes are detected again.
			e.metrics.Polls.WithLabelValues("error").Inc()
			e.logger.Error("publish level changes failed", "error", err, "changes", len(changes))
			return nil
		}
		e.metrics.MessagesProduced.Add(float64(len(changes)))
	}
	e.metrics.LevelChanges.Add(float64(len(changes)))

	e.mu.Lock()
	e.levels = next
	e.latest = timelapse
	e.polledAt = start
	e.mu.Unlock()

	e.metrics.MaxColor.Reset()
	for _, row := range timelapse {
		e.metrics.MaxColor.WithLabelValues(string(row.DomainID), string(row.PhenomenonID)).Set(float64(row.MaxColorID))
	}

	e.metrics.Polls.WithLabelValues("success").Inc()
	e.ready.Store(true)
	e.logger.Info("vigilance polled",
		"pairs", len(timelapse),
		"changes", len(changes),
		"duration", e.clock.Since(start),
	)
	return nil
}

// diff compares the new levels with the committed ones. Changes follow the
// table order; pairs that disappeared come last.
func (e *Exporter) diff(table vigilance.TimelapseTable, next map[pairKey]int, polledAt time.Time) []LevelChange {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var changes []LevelChange
	for _, row := range table {
		prev := e.levels[pairKey{domain: row.DomainID, phenomenon: row.PhenomenonID}]
		if prev == row.MaxColorID {
			continue
		}
		changes = append(changes, LevelChange{
			DomainID:        string(row.DomainID),
			PhenomenonID:    string(row.PhenomenonID),
			PhenomenonLabel: row.PhenomenonLabel,
			PreviousColorID: prev,
			ColorID:         row.MaxColorID,
			ColorName:       row.MaxColorName,
			PolledAt:        polledAt,
		})
	}

	var gone []LevelChange
	for key, prev := range e.levels {
		if _, ok := next[key]; ok {
			continue
		}
		gone = append(gone, LevelChange{
			DomainID:        string(key.domain),
			PhenomenonID:    string(key.phenomenon),
			PhenomenonLabel: vigilance.PhenomenonLabel(key.phenomenon),
			PreviousColorID: prev,
			PolledAt:        polledAt,
		})
	}
	sortChanges(gone)
	return append(changes, gone...)
}

func sortChanges(changes []LevelChange) {
	slices.SortFunc(changes, func(a, b LevelChange) int {
		return strings.Compare(a.Key(), b.Key())
	})
}
