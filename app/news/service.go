package news

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lysyi3m/news-relay/app/metrics"
)

const (
	BreakingLimit = 10
	PopularLimit  = 20
	CategoryLimit = 20
)

var (
	// ErrConfiguration is returned before any network call when the backend
	// endpoint or credential is missing.
	ErrConfiguration = errors.New("backend credentials are missing")
	ErrInvalidLimit  = errors.New("limit must be positive")
)

// Source is the backend query surface: an unfiltered select over the
// articles table.
type Source interface {
	ListArticles(ctx context.Context) ([]RawRecord, error)
	Configured() bool
}

type Service struct {
	source   Source
	filterer *Filterer
}

// NewService accepts a nil source; every fetch then fails with
// ErrConfiguration.
func NewService(source Source, filterer *Filterer) *Service {
	if filterer == nil {
		filterer = NewFilterer()
	}
	return &Service{
		source:   source,
		filterer: filterer,
	}
}

func (s *Service) FetchArticles(ctx context.Context, limit int, category string) ([]Article, error) {
	if err := s.check(limit); err != nil {
		metrics.FetchTotal.WithLabelValues(metrics.StatusRejected).Inc()
		return nil, err
	}

	start := time.Now()
	records, err := s.source.ListArticles(ctx)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.FetchTotal.WithLabelValues(metrics.StatusError).Inc()
		slog.Error("Unable to fetch articles", "limit", limit, "category", category, "error", err)
		return nil, err
	}

	visible := s.filterer.Run(records, category)
	if len(visible) > limit {
		visible = visible[:limit]
	}

	articles := DecodeAll(visible)
	metrics.FetchTotal.WithLabelValues(metrics.StatusSuccess).Inc()
	slog.Debug("Articles fetched",
		"received", len(records),
		"returned", len(articles),
		"category", category,
		"duration", time.Since(start))

	return articles, nil
}

// Fetch runs FetchArticles without blocking the caller. The returned channel
// yields exactly one Result and is then closed.
func (s *Service) Fetch(ctx context.Context, limit int, category string) <-chan Result {
	results := make(chan Result, 1)

	if err := s.check(limit); err != nil {
		metrics.FetchTotal.WithLabelValues(metrics.StatusRejected).Inc()
		results <- Result{Err: err}
		close(results)
		return results
	}

	go func() {
		defer close(results)
		articles, err := s.FetchArticles(ctx, limit, category)
		results <- Result{Articles: articles, Err: err}
	}()

	return results
}

func (s *Service) FetchBreaking(ctx context.Context) ([]Article, error) {
	return s.FetchArticles(ctx, BreakingLimit, "")
}

func (s *Service) FetchPopular(ctx context.Context) ([]Article, error) {
	return s.FetchArticles(ctx, PopularLimit, "")
}

func (s *Service) FetchCategory(ctx context.Context, category string) ([]Article, error) {
	return s.FetchArticles(ctx, CategoryLimit, category)
}

func (s *Service) FetchBreakingAsync(ctx context.Context) <-chan Result {
	return s.Fetch(ctx, BreakingLimit, "")
}

func (s *Service) FetchPopularAsync(ctx context.Context) <-chan Result {
	return s.Fetch(ctx, PopularLimit, "")
}

func (s *Service) FetchCategoryAsync(ctx context.Context, category string) <-chan Result {
	return s.Fetch(ctx, CategoryLimit, category)
}

func (s *Service) Configured() bool {
	return s.source != nil && s.source.Configured()
}

func (s *Service) check(limit int) error {
	if !s.Configured() {
		return ErrConfiguration
	}
	if limit <= 0 {
		return ErrInvalidLimit
	}
	return nil
}
