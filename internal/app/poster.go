package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/dbl-go/internal/config"
	"github.com/samvad-hq/dbl-go/internal/logger"
	"github.com/samvad-hq/dbl-go/internal/metrics"
	"github.com/samvad-hq/dbl-go/internal/stats"
	"github.com/samvad-hq/dbl-go/pkg/dbl"
)

// statsUpdater is the part of *dbl.Client the poster needs.
type statsUpdater interface {
	UpdateStats(ctx context.Context, bot dbl.BotID, stats dbl.ShardStats) error
}

// Poster periodically reports a bot's server count to top.gg. After a 429 it
// skips ticks until the server's retry_after has elapsed.
type Poster struct {
	client   statsUpdater
	bot      dbl.BotID
	source   stats.Source
	interval time.Duration
	log      logger.Logger
	now      func() time.Time

	blockedUntil time.Time
}

// NewPoster builds a stats poster from config.
func NewPoster(cfg *config.Config, log logger.Logger) (*Poster, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if cfg.BotID == 0 {
		return nil, fmt.Errorf("bot_id is required")
	}
	if cfg.StatsFile == "" && cfg.ServerCount == 0 {
		return nil, fmt.Errorf("either stats_file or server_count is required")
	}

	client, err := dbl.New(cfg.Token,
		dbl.WithBaseURL(cfg.BaseURL),
		dbl.WithTimeout(cfg.HTTPTimeout),
		dbl.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("init dbl client: %w", err)
	}

	return newPoster(client, cfg.BotID, stats.FromConfig(cfg.StatsFile, cfg.ServerCount, cfg.ShardCount), cfg.PostInterval, log), nil
}

func newPoster(client statsUpdater, bot dbl.BotID, source stats.Source, interval time.Duration, log logger.Logger) *Poster {
	return &Poster{
		client:   client,
		bot:      bot,
		source:   source,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Run posts immediately and then on every interval until ctx is cancelled.
// Individual failures are logged and do not stop the loop.
func (p *Poster) Run(ctx context.Context) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("poster is not initialized")
	}

	p.log.InfoObj("poster loop starting", "poster_state", map[string]any{
		"bot":      p.bot.String(),
		"interval": p.interval.String(),
	})

	if _, err := p.postOnce(ctx); err != nil {
		p.log.ErrorObj("initial stats post failed", "error", err.Error())
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.InfoObj("poster loop exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if _, err := p.postOnce(ctx); err != nil {
				p.log.ErrorObj("scheduled stats post failed", "error", err.Error())
			}
		}
	}
}

// postOnce sends the current stats. It reports false without contacting the
// API while a rate limit window is open.
func (p *Poster) postOnce(ctx context.Context) (bool, error) {
	now := p.now()
	if now.Before(p.blockedUntil) {
		p.log.DebugObj("stats post skipped during rate limit", "retry_at", p.blockedUntil.UTC())
		return false, nil
	}

	st, err := p.source.Stats(ctx)
	if err != nil {
		metrics.StatsPosts.WithLabelValues("error").Inc()
		return false, fmt.Errorf("read stats: %w", err)
	}

	err = p.client.UpdateStats(ctx, p.bot, st)
	var rl *dbl.RatelimitError
	limited := errors.As(err, &rl)
	metrics.StatsPosts.WithLabelValues(metrics.StatsPostStatus(err, limited)).Inc()
	if limited {
		p.blockedUntil = now.Add(rl.Duration())
		p.log.WarnObj("stats post rate limited", "ratelimit", map[string]any{
			"retry_after": rl.RetryAfter,
			"retry_at":    p.blockedUntil.UTC(),
		})
		return true, err
	}
	if err != nil {
		return true, fmt.Errorf("update stats: %w", err)
	}

	p.log.InfoObj("stats posted", "stats", st)
	return true, nil
}
