package main

import (
	"context"
	"flag"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/davidahmann/govgate/internal/api"
	"github.com/davidahmann/govgate/internal/audit"
	"github.com/davidahmann/govgate/internal/auth"
	"github.com/davidahmann/govgate/internal/config"
	"github.com/davidahmann/govgate/internal/engine"
	"github.com/davidahmann/govgate/internal/metrics"
	"github.com/davidahmann/govgate/internal/policy"
	"github.com/davidahmann/govgate/internal/ratelimit"
	"github.com/davidahmann/govgate/internal/stream"
)

const sinkOpenTimeout = 10 * time.Second

func main() {
	if err := runFn(os.Args[1:], os.Getenv, listenAndServe, newServer); err != nil {
		fatalf("server error: %v", err)
	}
}

var runFn = run
var fatalf = func(format string, args ...any) {
	zlog.Fatal().Msgf(format, args...)
}

type envFn func(string) string
type listenFn func(*http.Server) error
type serverFactory func(cfg config.Config, getenv envFn, logger zerolog.Logger) (*http.Server, func(), error)

func newServer(cfg config.Config, getenv envFn, logger zerolog.Logger) (*http.Server, func(), error) {
	tables, err := policy.LoadTables(cfg.TablesPath)
	if err != nil {
		return nil, nil, err
	}
	eng := engine.New(tables, cfg.EngineVersion)
	status := eng.Status()
	logger.Info().
		Str("tables_id", status.TablesID).
		Str("tables_version", status.TablesVersion).
		Str("tables_hash", status.TablesHash).
		Str("engine_version", status.EngineVersion).
		Msg("tables loaded")

	ctx, cancel := context.WithTimeout(context.Background(), sinkOpenTimeout)
	defer cancel()
	sink, err := audit.Open(ctx, audit.Config{
		Driver:  cfg.Audit.Driver,
		Path:    cfg.Audit.Path,
		DSN:     cfg.Audit.DSN,
		Brokers: cfg.Audit.Brokers,
		Topic:   cfg.Audit.Topic,
	})
	if err != nil {
		return nil, nil, err
	}
	recorder := audit.NewRecorder(sink, cfg.Audit.Timeout(), cfg.Audit.Retries, logger)
	if budget := cfg.Audit.Budget(); budget > 0 {
		recorder.Budget = budget
	}

	limiter, closeLimiter := newLimiter(cfg.RateLimit, logger)

	h := &api.Handler{
		Auth:          auth.NewAuthenticatorFromEnv(getenv),
		Engine:        eng,
		Limiter:       limiter,
		Recorder:      recorder,
		Hub:           stream.NewHub(),
		Metrics:       metrics.NewRegistry(),
		Logger:        logger,
		StreamOrigins: cfg.Stream.AllowedOrigins,
	}
	cleanup := func() {
		if err := recorder.Close(); err != nil {
			logger.Warn().Err(err).Msg("audit sink close")
		}
		closeLimiter()
	}
	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
	}, cleanup, nil
}

// newLimiter returns nil when rate limiting is disabled. A Redis address
// selects the shared limiter; otherwise the window is per process.
func newLimiter(cfg config.RateLimitConfig, logger zerolog.Logger) (ratelimit.Limiter, func()) {
	if !cfg.Enabled {
		return nil, func() {}
	}
	if cfg.RedisAddr == "" {
		return ratelimit.NewInMemory(cfg.PerMinute, cfg.Window()), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	closeClient := func() {
		if err := client.Close(); err != nil {
			logger.Warn().Err(err).Msg("redis close")
		}
	}
	return ratelimit.NewRedis(client, cfg.PerMinute, cfg.Window(), logger), closeClient
}

func newLogger(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	level, err := cfg.ZerologLevel()
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Str("service", "govgate").Logger()
}

func run(args []string, getenv envFn, listen listenFn, factory serverFactory) error {
	fs := flag.NewFlagSet("govgate", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to govgate config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := config.Default()
	if cfgFile := firstNonEmpty(*configPath, getenv("GOVGATE_CONFIG_PATH")); cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	cfg.ListenAddr = firstNonEmpty(getenv("GOVGATE_LISTEN_ADDR"), cfg.ListenAddr, ":8080")
	cfg.TablesPath = firstNonEmpty(getenv("GOVGATE_TABLES_PATH"), cfg.TablesPath)
	cfg.Log.Level = firstNonEmpty(getenv("GOVGATE_LOG_LEVEL"), cfg.Log.Level)
	cfg.RateLimit.RedisAddr = firstNonEmpty(getenv("GOVGATE_REDIS_ADDR"), cfg.RateLimit.RedisAddr)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.Log, os.Stderr)
	server, cleanup, err := factory(cfg, getenv, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info().Str("addr", cfg.ListenAddr).Str("audit_driver", cfg.Audit.Driver).Bool("rate_limit", cfg.RateLimit.Enabled).Msg("govgate listening")
	if err := listen(server); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func listenAndServe(server *http.Server) error {
	return server.ListenAndServe()
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
