package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/samvad-hq/dbl-go/internal/config"
	"github.com/samvad-hq/dbl-go/internal/logger"
	"github.com/samvad-hq/dbl-go/internal/metrics"
	"github.com/samvad-hq/dbl-go/internal/storage"
	"github.com/samvad-hq/dbl-go/pkg/dbl"
	"github.com/samvad-hq/dbl-go/pkg/publishers"
)

const shutdownTimeout = 10 * time.Second

// Receiver accepts top.gg vote webhooks, drops redeliveries and forwards
// each new vote to the configured publishers.
type Receiver struct {
	cfg    *config.Config
	fanout *publishers.Fanout
	store  storage.Store
	log    logger.Logger
	router http.Handler
	votes  *keyLocks
}

// NewReceiver builds a receiver runtime from config files.
func NewReceiver(ctx context.Context, cfg *config.Config, log logger.Logger) (*Receiver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, fmt.Errorf("webhook_secret is required")
	}

	fanout, err := loadFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		VoteTTL:         cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"vote_ttl_seconds":         int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	return newReceiver(cfg, fanout, store, log), nil
}

func newReceiver(cfg *config.Config, fanout *publishers.Fanout, store storage.Store, log logger.Logger) *Receiver {
	r := &Receiver{cfg: cfg, fanout: fanout, store: store, log: log, votes: newKeyLocks()}
	r.router = r.routes()
	return r
}

// loadFanout builds the enabled publishers. An empty path runs the receiver
// in log-only mode.
func loadFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		log.WarnObj("no publishers file configured; votes are only logged", "publishers_file", path)
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	if len(enabled) == 0 {
		return nil, fmt.Errorf("no publishers enabled in %s", path)
	}

	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, p := range enabled {
		summaries = append(summaries, map[string]string{"id": p.ID, "type": p.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

func (r *Receiver) routes() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(r.observe)

	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if r.cfg.MetricsEnabled {
		mux.Handle("/metrics", metrics.Handler())
	}
	mux.Handle(r.cfg.WebhookPath, dbl.NewWebhookHandler(r.cfg.WebhookSecret, r.handleVote,
		dbl.WithRejectHook(r.onReject)))
	return mux
}

// Handler exposes the router, mainly for tests.
func (r *Receiver) Handler() http.Handler { return r.router }

// Run serves until ctx is cancelled, then drains in-flight requests and
// releases publishers and storage.
func (r *Receiver) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", r.cfg.WebhookAddr)
	if err != nil {
		r.close()
		return fmt.Errorf("listen %s: %w", r.cfg.WebhookAddr, err)
	}
	return r.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (r *Receiver) Serve(ctx context.Context, ln net.Listener) error {
	defer r.close()

	srv := &http.Server{
		Handler:           r.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	r.log.InfoObj("receiver listening", "receiver_state", map[string]any{
		"addr":             ln.Addr().String(),
		"webhook_path":     r.cfg.WebhookPath,
		"publishers_count": r.fanout.Size(),
		"metrics_enabled":  r.cfg.MetricsEnabled,
	})

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	r.log.InfoObj("receiver shutting down", "reason", ctx.Err().Error())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// handleVote forwards a vote unless it was already delivered. The vote is
// only marked once a publisher accepted it, so a failed delivery answers
// 500 and top.gg retries. Deliveries of the same vote are serialized so a
// concurrent redelivery sees the first one's mark.
func (r *Receiver) handleVote(ctx context.Context, hook dbl.Webhook) error {
	key := storage.VoteKey(hook)
	unlock := r.votes.lock(key)
	defer unlock()

	seen, err := r.store.SeenVote(key)
	if err != nil {
		r.log.WarnObj("vote store lookup failed", "error", err.Error())
	}
	if seen {
		metrics.VotesDuplicate.Inc()
		r.log.DebugObj("duplicate vote dropped", "vote_key", key)
		return nil
	}

	evt := publishers.NewEvent(hook)
	delivered, err := r.fanout.Publish(ctx, evt)
	if err != nil {
		metrics.PublishFailures.Inc()
		r.log.ErrorObj("vote publish failed", "publish_error", map[string]any{
			"vote_key":  key,
			"delivered": delivered,
			"error":     err.Error(),
		})
		if delivered == 0 {
			return err
		}
	}

	if err := r.store.MarkVote(key); err != nil {
		r.log.WarnObj("vote store update failed", "error", err.Error())
	}
	metrics.VotesReceived.WithLabelValues(string(hook.Type)).Inc()
	r.log.InfoObj("vote received", "vote", map[string]any{
		"bot":        hook.Bot.String(),
		"user":       hook.User.String(),
		"type":       hook.Type,
		"is_weekend": hook.IsWeekend,
		"delivered":  delivered,
	})
	return nil
}

func (r *Receiver) onReject(req *http.Request, reason string, err error) {
	metrics.WebhookRejected.WithLabelValues(reason).Inc()
	fields := map[string]any{
		"reason":      reason,
		"remote_addr": req.RemoteAddr,
		"method":      req.Method,
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	r.log.WarnObj("webhook rejected", "webhook_reject", fields)
}

func (r *Receiver) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ObserveRequest(route, status, time.Since(start).Seconds())
	})
}

func (r *Receiver) close() {
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publisher close failed", "error", err.Error())
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			r.log.ErrorObj("storage close failed", "error", err.Error())
		}
	}
}
