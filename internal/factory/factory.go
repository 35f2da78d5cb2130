package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mcoot/osrsbingo/internal/api"
	"github.com/mcoot/osrsbingo/internal/api/handler"
	"github.com/mcoot/osrsbingo/internal/api/live"
	"github.com/mcoot/osrsbingo/internal/api/middleware"
	"github.com/mcoot/osrsbingo/internal/config"
	"github.com/mcoot/osrsbingo/internal/dependencies/clock"
	"github.com/mcoot/osrsbingo/internal/dependencies/random"
	"github.com/mcoot/osrsbingo/internal/services/auth"
	"github.com/mcoot/osrsbingo/internal/services/board"
	"github.com/mcoot/osrsbingo/internal/services/history"
	"github.com/mcoot/osrsbingo/internal/services/rank"
	"github.com/mcoot/osrsbingo/internal/services/scoring"
	"github.com/mcoot/osrsbingo/internal/storage"
	"github.com/mcoot/osrsbingo/internal/storage/memory"
	redisstorage "github.com/mcoot/osrsbingo/internal/storage/redis"
	sqlitestorage "github.com/mcoot/osrsbingo/internal/storage/sqlite"
)

// Length of a generated token secret
const generatedSecretLength = 48

// App contains all wired application components
type App struct {
	Config *config.Config
	Logger *slog.Logger

	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	BoardService   *board.Service
	ScoringService *scoring.Service
	HistoryService *history.Service
	RankService    *rank.Service
	AuthService    *auth.Service
	HubManager     *live.HubManager
	RateLimiter    *middleware.RateLimiter
}

// New creates a new application with all dependencies wired. A nil logger
// discards logs.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	store, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(cfg, store, clock.New(), random.New(), logger, 0)
	if err != nil {
		closeStorage(store)
		return nil, err
	}
	return app, nil
}

// newStorage creates the storage backend named by the config
func newStorage(cfg *config.Config) (storage.Storage, error) {
	switch cfg.Storage.Type {
	case config.StorageMemory, "":
		return memory.New(), nil
	case config.StorageRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = cfg.Storage.RedisURL
		store, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return store, nil
	case config.StorageSQLite:
		store, err := sqlitestorage.New(sqlitestorage.DefaultConfig(cfg.Storage.SQLitePath))
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return store, nil
	default:
		return nil, errors.New("invalid storage type: must be 'memory', 'redis' or 'sqlite'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful
// for testing). hashCost overrides the bcrypt cost when non-zero.
func newWithDependencies(
	cfg *config.Config,
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
	hashCost int,
) (*App, error) {
	tokenTTL, err := cfg.TokenTTL()
	if err != nil {
		return nil, err
	}
	dedupeWindow, err := cfg.DedupeWindow()
	if err != nil {
		return nil, err
	}
	trustedProxies, err := cfg.TrustedProxies()
	if err != nil {
		return nil, err
	}

	secret := cfg.Auth.TokenSecret
	if secret == "" {
		// Tokens will not survive a restart
		logger.Warn("no token secret configured, generating one")
		secret = rnd.String(generatedSecretLength, random.Alphanumeric)
	}
	if cfg.Auth.AdminPassword == "" {
		logger.Warn("no admin password configured, admin login is disabled")
	}

	authService, err := auth.New(clk, auth.Config{
		AdminPassword: cfg.Auth.AdminPassword,
		IngestAPIKey:  cfg.Auth.IngestAPIKey,
		TokenSecret:   secret,
		TokenTTL:      tokenTTL,
		HashCost:      hashCost,
	})
	if err != nil {
		return nil, err
	}

	hubManager := live.NewHubManager(logger)
	boardService := board.New(store, rnd, clk, hubManager, logger, board.Options{
		DefaultSize: cfg.Board.DefaultSize,
		MaxSize:     cfg.Board.MaxSize,
	})
	historyService := history.New(store, boardService, clk, hubManager, logger, history.Options{
		DedupeWindow: dedupeWindow,
		DefaultLimit: cfg.History.DefaultLimit,
		MaxLimit:     cfg.History.MaxLimit,
	})

	return &App{
		Config:         cfg,
		Logger:         logger,
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		BoardService:   boardService,
		ScoringService: scoring.New(logger),
		HistoryService: historyService,
		RankService:    rank.New(store, clk, hubManager, logger),
		AuthService:    authService,
		HubManager:     hubManager,
		RateLimiter:    middleware.NewRateLimiter(cfg.Ingest.RatePerSecond, cfg.Ingest.Burst, trustedProxies...),
	}, nil
}

// Router builds the HTTP API for the app
func (a *App) Router() http.Handler {
	var pinger handler.Pinger
	if p, ok := a.Storage.(handler.Pinger); ok {
		pinger = p
	}

	return api.NewRouter(api.RouterConfig{
		Logger:         a.Logger,
		AuthService:    a.AuthService,
		BoardService:   a.BoardService,
		ScoringService: a.ScoringService,
		HistoryService: a.HistoryService,
		RankService:    a.RankService,
		HubManager:     a.HubManager,
		RateLimiter:    a.RateLimiter,
		StorageType:    a.Config.Storage.Type,
		Pinger:         pinger,
		PublicURL:      a.Config.Server.PublicURL,
		IngestKey:      a.Config.Auth.IngestAPIKey,
		CORSOrigins:    a.Config.Server.CORSOrigins,
	})
}

// RunMaintenance periodically drops expired revocations, idle rate limiters
// and empty live hubs until ctx is cancelled
func (a *App) RunMaintenance(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.AuthService.CleanRevoked()
			a.RateLimiter.Cleanup()
			a.HubManager.CleanupEmptyHubs()
		}
	}
}

// Close disconnects live clients and closes the storage backend
func (a *App) Close() error {
	a.HubManager.Close()
	if closer, ok := a.Storage.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func closeStorage(store storage.Storage) {
	if closer, ok := store.(io.Closer); ok {
		_ = closer.Close()
	}
}
