package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/osrsbingo/internal/api/handler"
	"github.com/mcoot/osrsbingo/internal/api/live"
	"github.com/mcoot/osrsbingo/internal/api/middleware"
	"github.com/mcoot/osrsbingo/internal/services/auth"
	"github.com/mcoot/osrsbingo/internal/services/board"
	"github.com/mcoot/osrsbingo/internal/services/history"
	"github.com/mcoot/osrsbingo/internal/services/rank"
	"github.com/mcoot/osrsbingo/internal/services/scoring"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    auth.ServiceInterface
	BoardService   board.ServiceInterface
	ScoringService scoring.ServiceInterface
	HistoryService history.ServiceInterface
	RankService    rank.ServiceInterface
	HubManager     *live.HubManager
	RateLimiter    *middleware.RateLimiter

	StorageType string
	Pinger      handler.Pinger // optional storage health check
	PublicURL   string
	IngestKey   string
	CORSOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	boardHandler := handler.NewBoardHandler(cfg.BoardService, cfg.ScoringService)
	dropHandler := handler.NewDropHandler(cfg.HistoryService, cfg.Logger)
	statsHandler := handler.NewStatsHandler(cfg.HistoryService, cfg.RankService)
	adminHandler := handler.NewAdminHandler(cfg.AuthService, cfg.PublicURL, cfg.IngestKey)
	liveHandler := handler.NewLiveHandler(cfg.HubManager, cfg.CORSOrigins, cfg.Logger)
	healthHandler := handler.NewHealthHandler(cfg.StorageType, cfg.Pinger)

	// Create middleware
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = middleware.NewRateLimiter(0, 0)
	}
	ingestMiddleware := middleware.RequireIngestKey(cfg.AuthService)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Recovery(cfg.Logger))
	api.Use(middleware.OptionalAdmin(cfg.AuthService))
	api.Use(middleware.Logging(cfg.Logger))

	// Public routes
	api.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/board", boardHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard", boardHandler.Leaderboard).Methods(http.MethodGet)
	api.HandleFunc("/players/{player}/lines", boardHandler.Lines).Methods(http.MethodGet)
	api.HandleFunc("/history", dropHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/analytics", dropHandler.Analytics).Methods(http.MethodGet)
	api.HandleFunc("/deaths", statsHandler.DeathStats).Methods(http.MethodGet)
	api.HandleFunc("/deaths/by-npc", statsHandler.DeathsByNPC).Methods(http.MethodGet)
	api.HandleFunc("/deaths/by-player-npc", statsHandler.DeathsByPlayerNPC).Methods(http.MethodGet)
	api.HandleFunc("/rank", statsHandler.LatestRank).Methods(http.MethodGet)
	api.HandleFunc("/rank/history", statsHandler.RankHistory).Methods(http.MethodGet)
	api.HandleFunc("/events", liveHandler.Events).Methods(http.MethodGet)
	api.HandleFunc("/ws", liveHandler.WebSocket).Methods(http.MethodGet)
	api.HandleFunc("/admin/login", adminHandler.Login).Methods(http.MethodPost)

	// Admin mutations. Services check the admin flag themselves, so these
	// routes only need OptionalAdmin.
	api.HandleFunc("/board", boardHandler.Replace).Methods(http.MethodPut)
	api.HandleFunc("/board/resize", boardHandler.Resize).Methods(http.MethodPost)
	api.HandleFunc("/board/clear", boardHandler.Clear).Methods(http.MethodPost)
	api.HandleFunc("/board/shuffle", boardHandler.Shuffle).Methods(http.MethodPost)
	api.HandleFunc("/board/shuffle/undo", boardHandler.UndoShuffle).Methods(http.MethodPost)
	api.HandleFunc("/board/tiles/{index}", boardHandler.EditTile).Methods(http.MethodPut)
	api.HandleFunc("/board/bonuses", boardHandler.SetLineBonuses).Methods(http.MethodPut)
	api.HandleFunc("/board/tiles/{index}/completions", boardHandler.AddCompletion).Methods(http.MethodPost)
	api.HandleFunc("/board/tiles/{index}/completions/{player}", boardHandler.RemoveCompletion).Methods(http.MethodDelete)
	api.HandleFunc("/history", dropHandler.Delete).Methods(http.MethodDelete)

	// Admin-only routes with no service-level check
	admin := api.NewRoute().Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/admin/logout", adminHandler.Logout).Methods(http.MethodPost)
	admin.HandleFunc("/drops/manual", dropHandler.Manual).Methods(http.MethodPost)
	admin.HandleFunc("/webhook", adminHandler.WebhookInfo).Methods(http.MethodGet)
	admin.HandleFunc("/webhook/qr.png", adminHandler.WebhookQR).Methods(http.MethodGet)

	// Plugin ingest routes
	ingest := api.NewRoute().Subrouter()
	ingest.Use(rateLimiter.Middleware)
	ingest.Use(ingestMiddleware)
	ingest.HandleFunc("/drops", dropHandler.Record).Methods(http.MethodPost)
	ingest.HandleFunc("/drops/import", dropHandler.Import).Methods(http.MethodPost)
	ingest.HandleFunc("/webhooks/dink", dropHandler.Dink).Methods(http.MethodPost)
	ingest.HandleFunc("/deaths", statsHandler.RecordDeath).Methods(http.MethodPost)
	ingest.HandleFunc("/rank/snapshot", statsHandler.RecordRank).Methods(http.MethodPost)

	return middleware.CORS(cfg.CORSOrigins)(r)
}
