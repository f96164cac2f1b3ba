package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"public-audio-gateway/access/application"
	"public-audio-gateway/access/domain"
	"public-audio-gateway/access/httpapi"
	accessinfra "public-audio-gateway/access/infra"
	"public-audio-gateway/config"
	"public-audio-gateway/middleware/ratelimit"
	rldomain "public-audio-gateway/middleware/ratelimit/domain"
	"public-audio-gateway/middleware/ratelimit/infra"

	"github.com/gin-gonic/gin"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	RunE:  runServe,
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	db, err := accessinfra.OpenDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer func() { _ = sqlDB.Close() }()
	}
	if err := accessinfra.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	repo := accessinfra.NewGormRepository(db)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var events domain.PlayPublisher
	if cfg.Events.NatsURL != "" {
		nc, err := nats.Connect(cfg.Events.NatsURL, nats.Name("public-audio-gateway"))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer func() { _ = nc.Drain() }()
		events = accessinfra.NewNatsPublisher(nc, cfg.Events.Subject)
	}

	keyFn := ratelimit.DefaultKeyFunc(cfg.Rate.KeyHeader, cfg.Rate.TrustProxyHeaders)

	var (
		public    []gin.HandlerFunc
		memWindow *infra.MemoryWindowCounter
		statsView statsViewFunc
	)
	if cfg.Rate.Enabled {
		opts := ratelimit.Options{
			KeyFn:               keyFn,
			RejectStatus:        http.StatusTooManyRequests,
			RetryAfter:          cfg.Rate.RetryAfter,
			AddRateLimitHeaders: cfg.Rate.AddHeaders,
		}

		switch cfg.Rate.Algorithm {
		case config.AlgorithmTokenBucket:
			store := infra.NewTokenBucketStore(cfg.Rate.RPS, cfg.Rate.Burst)
			store.StartJanitor(ctx)
			opts.Store = store
		default:
			if cfg.Rate.RedisAddr != "" {
				rdb, err := newRedisClient(cfg.Rate.RedisAddr, cfg.Rate.RedisPassword, cfg.Rate.RedisDB)
				if err != nil {
					return fmt.Errorf("redis rate ping error: %w", err)
				}
				defer func() { _ = rdb.Close() }()
				opts.Window = infra.NewRedisWindowCounter(rdb, int64(cfg.Rate.Limit), cfg.Rate.Window,
					infra.WithWindowPrefix(cfg.Rate.RedisPrefix))
			} else {
				memWindow = infra.NewMemoryWindowCounter(int64(cfg.Rate.Limit), cfg.Rate.Window,
					infra.WithPruneThreshold(cfg.Rate.PruneThreshold))
				opts.Window = memWindow
			}
		}

		if cfg.Stats.Enabled {
			stats, view, closeStats, err := newStatsStore(cfg)
			if err != nil {
				return err
			}
			defer closeStats()
			opts.Stats = stats
			statsView = view
		}

		public = append(public, ratelimit.Middleware(opts))
	}

	gin.SetMode(gin.ReleaseMode)

	h := &httpapi.Handler{
		Gateway: application.Gateway{
			Accounts: repo,
			Assets:   repo,
			Events:   events,
			Window:   cfg.Quota.MonthlyWindow,
		},
		Usage:     application.UsageService{Accounts: repo, Assets: repo, Window: cfg.Quota.MonthlyWindow},
		Sharing:   application.Sharing{Accounts: repo, Assets: repo, BaseURL: cfg.Server.PublicBaseURL},
		Keys:      application.Keys{Repo: repo},
		ClientKey: keyFn,
	}

	srv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           newPublicRouter(cfg, h, public),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// estatísticas ficam fora do roteador público, em listener próprio
	debugSrv := newDebugServer(cfg.Stats.DebugAddr, memWindow, statsView)
	if debugSrv != nil {
		go func() {
			log.Printf("rate-stats debug listening on %s", debugSrv.Addr)
			if err := debugSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("debug server error: %v", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if debugSrv != nil {
			_ = debugSrv.Shutdown(shutdownCtx)
		}
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("gateway listening on %s publicBaseURL=%s db=%s", cfg.Server.ListenAddr, cfg.Server.PublicBaseURL, cfg.Database.Driver)
	log.Printf("rate: enabled=%v algorithm=%s limit=%d window=%s redis=%v keyHeader=%q trustProxy=%v",
		cfg.Rate.Enabled, cfg.Rate.Algorithm, cfg.Rate.Limit, cfg.Rate.Window, cfg.Rate.RedisAddr != "", cfg.Rate.KeyHeader, cfg.Rate.TrustProxyHeaders)
	log.Printf("rate-stats: enabled=%v redisAddr=%q bucket=%q ttl=%s trackKeys=%v debugAddr=%q", cfg.Stats.Enabled, cfg.Stats.RedisAddr, cfg.Stats.Bucket, cfg.Stats.TTL, cfg.Stats.TrackKeys, cfg.Stats.DebugAddr)
	log.Printf("concurrency: max=%d acquireTimeout=%s", cfg.Concurrency.Max, cfg.Concurrency.Timeout)
	log.Printf("events: nats=%v subject=%q monthlyWindow=%s", cfg.Events.NatsURL != "", cfg.Events.Subject, cfg.Quota.MonthlyWindow)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func newRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	_, err := rdb.Ping(pingCtx).Result()
	cancel()
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

// statsViewFunc devolve o corpo exposto em /debug/ratelimit/stats.
type statsViewFunc func(ctx context.Context) (any, error)

func newStatsStore(cfg config.Config) (rldomain.StatsStore, statsViewFunc, func(), error) {
	if cfg.Stats.RedisAddr == "" {
		mem := infra.NewMemoryStatsStore(infra.WithTrackKeys(cfg.Stats.TrackKeys))
		view := func(context.Context) (any, error) {
			return gin.H{"total": mem.Total(), "routes": mem.ByRoute(), "keys": mem.ByKey()}, nil
		}
		return mem, view, func() {}, nil
	}

	rdb, err := newRedisClient(cfg.Stats.RedisAddr, cfg.Stats.RedisPassword, cfg.Stats.RedisDB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("redis stats ping error: %w", err)
	}
	store := infra.NewRedisStatsStore(
		rdb,
		infra.WithStatsPrefix(cfg.Stats.Prefix),
		infra.WithStatsTTL(cfg.Stats.TTL),
		infra.WithStatsBucket(cfg.Stats.Bucket),
		infra.WithStatsTrackKeys(cfg.Stats.TrackKeys),
	)
	view := func(ctx context.Context) (any, error) {
		total, err := store.Totals(ctx)
		if err != nil {
			return nil, err
		}
		return gin.H{"total": total}, nil
	}
	return store, view, func() { _ = rdb.Close() }, nil
}

func newPublicRouter(cfg config.Config, h *httpapi.Handler, public []gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
		Max:            cfg.Concurrency.Max,
		RejectStatus:   http.StatusServiceUnavailable,
		AcquireTimeout: cfg.Concurrency.Timeout,
	}))
	h.Register(r, public...)
	return r
}

// newDebugServer devolve nil quando addr está vazio ou não há nada a expor.
func newDebugServer(addr string, window *infra.MemoryWindowCounter, stats statsViewFunc) *http.Server {
	if addr == "" {
		return nil
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if !registerDebug(r, window, stats) {
		return nil
	}
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func registerDebug(r gin.IRouter, window *infra.MemoryWindowCounter, stats statsViewFunc) bool {
	if window == nil && stats == nil {
		return false
	}
	r.GET("/debug/ratelimit/stats", func(c *gin.Context) {
		body := gin.H{}
		if window != nil {
			body["windowKeys"] = window.Len()
		}
		if stats != nil {
			v, err := stats(c.Request.Context())
			if err != nil {
				log.Printf("read rate limit stats: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}
			body["stats"] = v
		}
		c.JSON(http.StatusOK, body)
	})
	return true
}
