// main.go
//
// Entry point for the Food for Thought server.
//
// Startup order: .env → config → logging → database + migrations → dish
// schedule import → session store → HTTP server. SIGINT/SIGTERM trigger a
// graceful shutdown bounded by SHUTDOWN_TIMEOUT.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/foodforthought/assets"
	"github.com/robalobadob/foodforthought/internal/config"
	"github.com/robalobadob/foodforthought/internal/daily"
	"github.com/robalobadob/foodforthought/internal/db"
	"github.com/robalobadob/foodforthought/internal/dish"
	"github.com/robalobadob/foodforthought/internal/geo"
	"github.com/robalobadob/foodforthought/internal/httpserver"
	"github.com/robalobadob/foodforthought/internal/player"
	"github.com/robalobadob/foodforthought/internal/store"
	"github.com/robalobadob/foodforthought/internal/tiles"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DB.Driver, cfg.DB.URL)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("open database")
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	countries, err := geo.Load(cfg.Content.CountriesFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Content.CountriesFile).Msg("load countries")
	}

	dishes := dish.NewSQLStore(conn)
	if err := seedSchedule(ctx, dishes, countries, cfg.Content.SeedFile); err != nil {
		log.Fatal().Err(err).Msg("import dish schedule")
	}

	sessions, closeSessions := openSessions(ctx, cfg, conn)
	defer closeSessions()

	srv := httpserver.New(httpserver.Deps{
		Config:    cfg,
		Dishes:    dishes,
		Resolver:  dish.NewResolver(dishes, countries, time.Now),
		Countries: countries,
		Tiles:     tiles.NewService(cfg.Content.ImagesDir, uint(max(cfg.Content.TileMaxWidth, 0))),
		Players:   player.NewStore(conn),
		Tokens:    player.NewTokens(cfg.Auth.Secret, time.Duration(cfg.Auth.ExpiryDays)*24*time.Hour),
		Results:   daily.NewStore(conn),
		Sessions:  sessions,
	})

	hs := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.HTTP.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		log.Info().Msg("shutting down")
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	log.Info().Str("addr", cfg.HTTP.Addr).Str("env", cfg.Env).Msg("starting foodforthought server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Log.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// seedSchedule imports SEED_FILE, or the bundled sample when unset. Dishes
// already scheduled are left alone, so this is safe on every start.
func seedSchedule(ctx context.Context, dishes dish.Store, countries *geo.Table, path string) error {
	var (
		list []*dish.Dish
		err  error
	)
	if path != "" {
		list, err = dish.LoadSchedule(path)
	} else {
		var data []byte
		if data, err = assets.SampleSchedule(); err == nil {
			list, err = dish.ParseSchedule(data, "json")
		}
	}
	if err != nil {
		return err
	}

	rep, err := dish.Import(ctx, dishes, countries, list, time.Now())
	if err != nil {
		return err
	}
	for name, reason := range rep.Skipped {
		log.Debug().Str("dish", name).Err(reason).Msg("schedule entry skipped")
	}
	buffer, err := dish.BufferDays(ctx, dishes, time.Now())
	if err != nil {
		return err
	}
	source := "sample"
	if path != "" {
		source = filepath.Base(path)
	}
	ev := log.Info()
	if buffer < 3 {
		ev = log.Warn()
	}
	ev.Str("source", source).
		Int("inserted", len(rep.Inserted)).
		Int("skipped", len(rep.Skipped)).
		Int("bufferDays", buffer).
		Msg("dish schedule")
	return nil
}

// openSessions picks the server-held session store: Redis when REDIS_ADDR
// is set and reachable, otherwise the kv table in the main database.
func openSessions(ctx context.Context, cfg config.Config, conn *sqlx.DB) (store.Namespaced, func()) {
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Session.TTL).Msg("sessions in redis")
			return store.NewRedis(rdb, cfg.Session.TTL), func() { _ = rdb.Close() }
		}
		_ = rdb.Close()
		log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, falling back to sql sessions")
	}

	kv := store.NewSQL(conn)
	go pruneSessions(ctx, kv, cfg.Session.TTL)
	return kv, func() {}
}

// pruneSessions drops SQL session rows untouched for longer than ttl.
func pruneSessions(ctx context.Context, kv *store.SQL, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		n, err := kv.Prune(ctx, time.Now().Add(-ttl))
		switch {
		case err != nil && !errors.Is(err, context.Canceled):
			log.Warn().Err(err).Msg("prune sessions")
		case n > 0:
			log.Debug().Int64("rows", n).Msg("pruned sessions")
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
