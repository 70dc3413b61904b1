package parser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"AINewsScanner/internal/config"
	"AINewsScanner/internal/domain"
	"AINewsScanner/internal/ports"
	"AINewsScanner/internal/scanner"
)

// StrategySource implements ArticleSource via registered scanner strategies.
// A single source's total failure never aborts the run: the error is logged
// and the iteration moves to the next profile.
type StrategySource struct {
	registry    *scanner.Registry
	profiles    []config.SourceProfile
	sourceDelay time.Duration
	logger      *slog.Logger
}

var _ ports.ArticleSource = (*StrategySource)(nil)

// NewStrategySource wires the scanner registry with config-defined profiles;
// sourceDelay is the politeness pause between consecutive sources.
func NewStrategySource(reg *scanner.Registry, profiles []config.SourceProfile, sourceDelay time.Duration, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry:    reg,
		profiles:    profiles,
		sourceDelay: sourceDelay,
		logger:      log,
	}
}

// FetchAll iterates over configured profiles and executes their scanners,
// aggregating results in profile order then within-source discovery order.
func (s *StrategySource) FetchAll(ctx context.Context, perSourceLimit int) ([]domain.Article, error) {
	if s.registry == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}

	s.info("starting scrape", "sources", len(s.profiles), "limit_per_source", perSourceLimit)

	var aggregated []domain.Article
	for i, profile := range s.profiles {
		strategyName := profile.Scanner
		if strategyName == "" {
			strategyName = "site"
		}

		strategy, err := s.registry.Resolve(strategyName)
		if err != nil {
			s.warn("skipping source with unknown scanner", "source", profile.Name, "scanner", strategyName)
			continue
		}

		results, err := strategy.Scan(ctx, scanner.Request{Profile: profile, Limit: perSourceLimit})
		if err != nil {
			s.warn("source scan failed, continuing", "source", profile.Name, "error", err)
		} else {
			s.info("source scan complete", "source", profile.Name, "articles", len(results))
			aggregated = append(aggregated, results...)
		}

		if i < len(s.profiles)-1 {
			s.pause(ctx)
		}
		if ctx.Err() != nil {
			return aggregated, ctx.Err()
		}
	}

	s.info("scrape complete", "total_articles", len(aggregated))
	return aggregated, nil
}

func (s *StrategySource) pause(ctx context.Context) {
	if s.sourceDelay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(s.sourceDelay):
	}
}

func (s *StrategySource) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *StrategySource) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
