package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"aucto-auction-client/internal/adapters/api"
	"aucto-auction-client/internal/adapters/db"
	"aucto-auction-client/internal/adapters/redis"
	"aucto-auction-client/internal/adapters/scheduler"
	"aucto-auction-client/internal/adapters/ws"
	"aucto-auction-client/internal/app"
	"aucto-auction-client/internal/config"
	"aucto-auction-client/internal/domain/auction"
	"aucto-auction-client/internal/domain/bid"
	"aucto-auction-client/internal/domain/countdown"
	"aucto-auction-client/internal/ports/outbound"
)

func main() {

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	initLogging(cfg)

	log.Info().Msg("Starting Aucto auction watcher...")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create Redis client
	redisClient := redis.NewClient(cfg)
	if err := redis.PingRedis(ctx, redisClient); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()
	log.Info().Msg("Redis connection established")

	sessionStore := redis.NewSessionStore(redis.SessionStoreParams{
		RedisClient: redisClient,
		Key:         cfg.Redis.SessionKey,
		Logger:      log.Logger,
	})

	// The client reads the token from the session it also serves
	var session *app.Session
	tokens := api.TokenFunc(func() string { return session.Token() })

	client := api.NewClient(api.ClientParams{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Tokens:  tokens,
		Logger:  log.Logger,
	})
	session = app.NewSession(app.SessionParams{
		Users:  client,
		Store:  sessionStore,
		Logger: log.Logger,
	})

	if err := session.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("Stored session discarded, watching anonymously")
	}
	if u, ok := session.User(); ok {
		log.Info().Str("user_id", u.ID).Str("name", u.Name).Msg("Session restored")
	}

	live := ws.NewClient(ws.ClientParams{
		URL:             cfg.WebSocket.URL,
		Tokens:          tokens,
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		Logger:          log.Logger,
	})
	defer live.Close()

	// Optional snapshot archive
	var recorder outbound.SnapshotRecorder
	if cfg.Database.Enabled() {
		dbConn, err := db.NewConnection(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbConn.Close()

		snapshots := db.NewSnapshotRepository(db.SnapshotRepositoryParams{Conn: dbConn, Logger: log.Logger})
		if err := snapshots.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to prepare snapshot archive")
		}
		recorder = snapshots
		log.Info().Msg("Snapshot archive enabled")
	}

	wishlist := app.NewWishlist(app.WishlistParams{API: client, Session: session, Logger: log.Logger})

	views := make(map[string]*app.DetailView, len(cfg.Watcher.Auctions))
	for _, auctionID := range cfg.Watcher.Auctions {
		logger := log.Logger.With().Str("auction_id", auctionID).Logger()
		views[auctionID] = app.NewDetailView(app.DetailViewParams{
			Bids: app.NewBidViewModel(app.BidViewModelParams{
				Bids:     client,
				Auctions: client,
				Session:  session,
				Logger:   log.Logger,
			}),
			Wishlist: wishlist,
			Live:     live,
			Session:  session,
			Tick:     cfg.Watcher.Tick,
			Recorder: recorder,
			Logger:   log.Logger,
			OnRefresh: func(a auction.Auction, bids []bid.Bid) {
				event := logger.Info().
					Str("title", a.Title).
					Str("status", string(a.Status)).
					Int("bids", len(bids))
				if len(bids) > 0 {
					event = event.Str("leading", bids[0].Amount.String())
				}
				event.Msg("Auction refreshed")
			},
			OnTick: func(c countdown.Countdown) {
				logger.Debug().Str("countdown", c.Label).Msg("Countdown")
			},
		})
	}

	// Shared end-time schedule; an expiry triggers one more fetch
	expiryScheduler := scheduler.NewExpiryScheduler(scheduler.ExpirySchedulerParams{
		RedisClient: redisClient,
		Tick:        cfg.Watcher.Tick,
		OnExpired: func(ctx context.Context, auctionID string) {
			view, ok := views[auctionID]
			if !ok {
				return
			}
			if err := view.Refresh(ctx); err != nil {
				log.Warn().Err(err).Str("auction_id", auctionID).Msg("Refresh after expiry failed")
			}
		},
		Logger: log.Logger,
	})
	expiryScheduler.Start()
	log.Info().Msg("Expiry scheduler started")

	for auctionID, view := range views {
		if err := view.Mount(ctx, auctionID); err != nil {
			log.Error().Err(err).Str("auction_id", auctionID).Msg("Failed to open auction")
			continue
		}
		if a, ok := view.Bids().Auction(); ok {
			if err := expiryScheduler.Schedule(ctx, auctionID, a.EndTime); err != nil {
				log.Warn().Err(err).Str("auction_id", auctionID).Msg("Failed to schedule expiry")
			}
		}
	}

	if len(views) == 0 {
		log.Warn().Msg("No auctions configured, set " + config.WatchAuctions)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-ctx.Done():
		log.Info().Msg("Context cancelled")
	}

	// Graceful shutdown
	log.Info().Msg("Starting graceful shutdown...")

	for _, view := range views {
		view.Unmount()
	}
	log.Info().Msg("Auction views closed")

	expiryScheduler.Stop()
	log.Info().Msg("Expiry scheduler stopped")

	log.Info().Msg("Graceful shutdown completed")
}

func initLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Logging.Format == "json" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		// Console format for development
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &log.Logger
}
