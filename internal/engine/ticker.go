package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/efreitasn/teamstocks/internal/domain"
)

// QuoteRepository is the slice of the store the tick loop needs.
type QuoteRepository interface {
	AppendQuotes(ctx context.Context, quotes []domain.Quote) error
	LatestQuotes(ctx context.Context) (map[string]domain.Quote, error)
	LatestTick(ctx context.Context) (int64, error)
}

// SnapshotRecorder values every account and stores one snapshot each. It
// lets the engine record snapshots without depending on the service layer.
type SnapshotRecorder interface {
	RecordAll(ctx context.Context, at time.Time) (int, error)
}

// TickReport summarizes one tick.
type TickReport struct {
	Tick       int64
	Simple     int
	Composite  int
	Skipped    map[string][]string
	Snapshots  int
	ExecutedAt time.Time
}

// TickLoop owns the logical clock. Each tick simulates every simple
// instrument, derives the composites from the prices just written, then
// records account snapshots, in that order.
type TickLoop struct {
	interval   time.Duration
	catalog    *domain.Catalog
	quotes     QuoteRepository
	simulator  *PriceSimulator
	composites *CompositeIndexCalculator
	snapshots  SnapshotRecorder
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex // serializes ticks
	seeded bool
	tick   int64 // last committed tick

	running sync.WaitGroup // loops launched by Start
}

// NewTickLoop creates a TickLoop. snapshots may be nil. Every simple
// instrument's anchor is primed with its catalog seed price.
func NewTickLoop(
	interval time.Duration,
	catalog *domain.Catalog,
	quotes QuoteRepository,
	simulator *PriceSimulator,
	snapshots SnapshotRecorder,
	logger *slog.Logger,
) *TickLoop {
	for _, inst := range catalog.Simple() {
		simulator.SetAnchor(inst.Name, inst.SeedPrice)
	}
	return &TickLoop{
		interval:   interval,
		catalog:    catalog,
		quotes:     quotes,
		simulator:  simulator,
		composites: NewCompositeIndexCalculator(catalog),
		snapshots:  snapshots,
		logger:     logger,
		now:        time.Now,
		tick:       -1,
	}
}

// SetClock replaces the time source. Intended for tests.
func (l *TickLoop) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Seed resumes the tick counter from the store and writes a seed quote for
// every simple instrument that has none, followed by the composites. On an
// empty store the seed quotes are tick 0. Seed is idempotent and Tick calls
// it on first use.
func (l *TickLoop) Seed(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seed(context.WithoutCancel(ctx))
}

func (l *TickLoop) seed(ctx context.Context) error {
	if l.seeded {
		return nil
	}

	last, err := l.quotes.LatestTick(ctx)
	if err != nil {
		return fmt.Errorf("load latest tick: %w", err)
	}
	l.tick = last

	latest, err := l.quotes.LatestQuotes(ctx)
	if err != nil {
		return fmt.Errorf("load latest quotes: %w", err)
	}

	tick := l.tick + 1
	at := l.now()
	var seeds []domain.Quote
	for _, inst := range l.catalog.Simple() {
		if _, ok := latest[inst.Name]; ok {
			continue
		}
		q := domain.Quote{Instrument: inst.Name, Price: inst.SeedPrice, Tick: tick, Timestamp: at}
		seeds = append(seeds, q)
		latest[inst.Name] = q
	}

	if len(seeds) > 0 {
		comp := l.composites.Compute(latest, tick, at)
		if err := l.quotes.AppendQuotes(ctx, append(seeds, comp.Quotes...)); err != nil {
			return fmt.Errorf("append seed quotes: %w", err)
		}
		l.tick = tick
		l.logger.Info("seeded instruments",
			slog.Int64("tick", tick),
			slog.Int("simple", len(seeds)),
			slog.Int("composite", len(comp.Quotes)),
		)
	}

	l.seeded = true
	return nil
}

// Start launches a background goroutine that ticks at the configured
// interval. It stops when ctx is cancelled; a tick already running is
// allowed to finish. Use Wait to block until it has.
func (l *TickLoop) Start(ctx context.Context) {
	l.running.Add(1)
	go func() {
		defer l.running.Done()
		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := l.Tick(ctx); err != nil {
					l.logger.Error("tick failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}

// Wait blocks until every goroutine launched by Start has returned,
// including the tick it was running when its context was cancelled.
func (l *TickLoop) Wait() {
	l.running.Wait()
}

// Tick runs one full tick. The phases run to completion even if ctx is
// cancelled midway. If the simple quotes cannot be stored the tick is not
// consumed and the error is returned.
func (l *TickLoop) Tick(ctx context.Context) (TickReport, error) {
	ctx = context.WithoutCancel(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.seed(ctx); err != nil {
		return TickReport{}, err
	}

	latest, err := l.quotes.LatestQuotes(ctx)
	if err != nil {
		return TickReport{}, fmt.Errorf("load latest quotes: %w", err)
	}

	tick := l.tick + 1
	at := l.now()
	report := TickReport{Tick: tick, ExecutedAt: at}

	// Phase 1: simple instruments.
	var simple []domain.Quote
	for _, inst := range l.catalog.Simple() {
		current, ok := latest[inst.Name]
		if !ok {
			l.logger.Warn("simple instrument has no quote", slog.String("instrument", inst.Name))
			continue
		}
		q := domain.Quote{
			Instrument: inst.Name,
			Price:      l.simulator.Step(inst.Name, current.Price),
			Tick:       tick,
			Timestamp:  at,
		}
		simple = append(simple, q)
		latest[inst.Name] = q
	}
	if err := l.quotes.AppendQuotes(ctx, simple); err != nil {
		return TickReport{}, fmt.Errorf("append simple quotes for tick %d: %w", tick, err)
	}
	l.tick = tick
	report.Simple = len(simple)

	// Phase 2: composites from the prices committed above.
	comp := l.composites.Compute(latest, tick, at)
	for name, missing := range comp.Skipped {
		l.logger.Warn("composite skipped",
			slog.String("instrument", name),
			slog.Any("missing", missing),
			slog.Int64("tick", tick),
		)
	}
	report.Skipped = comp.Skipped
	if len(comp.Quotes) > 0 {
		if err := l.quotes.AppendQuotes(ctx, comp.Quotes); err != nil {
			return report, fmt.Errorf("append composite quotes for tick %d: %w", tick, err)
		}
	}
	report.Composite = len(comp.Quotes)

	// Phase 3: snapshots.
	if l.snapshots != nil {
		n, err := l.snapshots.RecordAll(ctx, at)
		if err != nil {
			return report, fmt.Errorf("record snapshots for tick %d: %w", tick, err)
		}
		report.Snapshots = n
	}

	l.logger.Debug("tick complete",
		slog.Int64("tick", tick),
		slog.Int("simple", report.Simple),
		slog.Int("composite", report.Composite),
		slog.Int("snapshots", report.Snapshots),
	)
	return report, nil
}

// LastTick returns the last committed tick, or -1 before the first one.
func (l *TickLoop) LastTick() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tick
}
