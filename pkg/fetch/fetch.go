// Package fetch runs the paginated export loop: one request at a time,
// following the Link header, pausing when the rate budget runs low and
// returning every record accumulated even when a page fails.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/stars-export/pkg/client"
	"github.com/Sternrassler/stars-export/pkg/logging"
	"github.com/Sternrassler/stars-export/pkg/pagination"
	"github.com/Sternrassler/stars-export/pkg/ratelimit"
	"github.com/Sternrassler/stars-export/pkg/record"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for fetch runs.
var (
	pagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stars_pages_fetched_total",
		Help: "Total non-empty starred pages fetched",
	})

	recordsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stars_records_fetched_total",
		Help: "Total repository records accumulated",
	})

	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stars_fetch_runs_total",
		Help: "Total fetch runs by terminal state",
	}, []string{"state"})
)

// State is the terminal state of a run.
type State string

const (
	// StateDone means pagination was exhausted.
	StateDone State = "done"

	// StateFailed means a request failed or the run was cancelled.
	StateFailed State = "failed"
)

// PageFetcher performs one page request. *client.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, url string) (*client.Page, error)
}

// Config holds fetch loop configuration.
type Config struct {
	// Governor decides rate pauses. Nil selects ratelimit.NewGovernor().
	Governor *ratelimit.Governor

	// Clock drives both suspensions. Nil keeps the governor's clock.
	Clock ratelimit.Clock

	// Jitter is the courtesy delay between pages. Zero disables it.
	Jitter ratelimit.Jitter
}

// DefaultConfig returns the default governor with jitter disabled.
func DefaultConfig() Config {
	return Config{
		Governor: ratelimit.NewGovernor(),
	}
}

// Result is what a run produced.
type Result struct {
	// Records in page arrival order, then within-page order.
	Records []record.Record

	// Pages is the number of non-empty pages accumulated.
	Pages int

	State State

	// NextCursor is the page that was not completed when State is
	// StateFailed. Passing it to Run resumes the export.
	NextCursor string

	// Err is the error that ended a failed run.
	Err error
}

// Fetcher runs the export loop against a PageFetcher.
type Fetcher struct {
	pages    PageFetcher
	governor ratelimit.Governor
	jitter   ratelimit.Jitter
	logger   zerolog.Logger
}

// New creates a Fetcher.
func New(pages PageFetcher, cfg Config) (*Fetcher, error) {
	if pages == nil {
		return nil, errors.New("page fetcher is required")
	}

	if cfg.Jitter.Min < 0 || (cfg.Jitter.Max > 0 && cfg.Jitter.Max < cfg.Jitter.Min) {
		return nil, fmt.Errorf("invalid jitter range [%v, %v]", cfg.Jitter.Min, cfg.Jitter.Max)
	}

	governor := ratelimit.NewGovernor()
	if cfg.Governor != nil {
		governor = cfg.Governor
	}

	// Copy so the run owns its governor and one clock drives both suspensions.
	g := *governor
	if cfg.Clock != nil {
		g.Clock = cfg.Clock
	}
	if g.Clock == nil {
		g.Clock = ratelimit.SystemClock{}
	}

	return &Fetcher{
		pages:    pages,
		governor: g,
		jitter:   cfg.Jitter,
		logger:   logging.NewLogger("fetch"),
	}, nil
}

// Run fetches from start until an empty page, a missing next link, a
// failed request or cancellation. The returned Result is never nil; the
// error is non-nil exactly when Result.State is StateFailed.
func (f *Fetcher) Run(ctx context.Context, start string) (*Result, error) {
	result := &Result{Records: []record.Record{}}
	cursor := start

	for {
		if err := ctx.Err(); err != nil {
			return f.fail(result, cursor, err)
		}

		f.logger.Info().Str("url", cursor).Int("page", result.Pages+1).Msg("Fetching page")

		page, err := f.pages.FetchPage(ctx, cursor)
		if err != nil {
			return f.fail(result, cursor, err)
		}

		// An empty page is the end-of-data sentinel even when a next link exists.
		if len(page.Repositories) == 0 {
			return f.done(result), nil
		}

		records := record.NormalizeAll(page.Repositories)
		result.Records = append(result.Records, records...)
		result.Pages++
		pagesFetched.Inc()
		recordsFetched.Add(float64(len(records)))

		f.logger.Debug().
			Int("records", len(records)).
			Int("total", len(result.Records)).
			Bool("from_cache", page.FromCache).
			Msg("Page accumulated")

		next, hasNext := pagination.NextPageURL(page.Link)
		if last, ok := pagination.ParseLinks(page.Link)[pagination.RelLast]; ok {
			f.logger.Debug().Str("last", last).Msg("Pagination")
		}

		var (
			wait  time.Duration
			pause bool
		)
		if page.Budget != nil {
			ratelimit.Observe(f.logger, *page.Budget, f.governor.Threshold)
			wait, pause = f.governor.ShouldPause(page.Budget.Remaining, page.Budget.ResetAt)
		}

		if !hasNext {
			return f.done(result), nil
		}

		// Cancellation is checked before each suspension as well as each request.
		if pause {
			if err := ctx.Err(); err != nil {
				return f.fail(result, next, err)
			}
			f.logger.Warn().
				Dur("wait", wait).
				Int("remaining", page.Budget.Remaining).
				Time("reset_at", page.Budget.ResetAt).
				Msg("Rate budget low, pausing before next page")
			if err := f.governor.Wait(ctx, wait); err != nil {
				return f.fail(result, next, err)
			}
		}

		if f.jitter.Enabled() {
			if err := ctx.Err(); err != nil {
				return f.fail(result, next, err)
			}
			if err := f.governor.Clock.Sleep(ctx, f.jitter.Next()); err != nil {
				return f.fail(result, next, err)
			}
		}

		cursor = next
	}
}

func (f *Fetcher) done(result *Result) *Result {
	result.State = StateDone
	runsTotal.WithLabelValues(string(StateDone)).Inc()
	f.logger.Info().
		Int("pages", result.Pages).
		Int("records", len(result.Records)).
		Msg("All starred repositories fetched")
	return result
}

func (f *Fetcher) fail(result *Result, cursor string, err error) (*Result, error) {
	result.State = StateFailed
	result.NextCursor = cursor
	result.Err = err
	runsTotal.WithLabelValues(string(StateFailed)).Inc()
	f.logger.Error().
		Err(err).
		Int("pages", result.Pages).
		Int("records", len(result.Records)).
		Str("resume_from", cursor).
		Msg("Fetch stopped early, returning partial results")
	return result, err
}
