// Copyright 2024-2026 Aiku AI

// Command linkbot is a Matrix account-concierge bot. It walks users
// through login and registration over direct messages, lets operators
// manage accounts, menu buttons and broadcast announcements, and relays
// user messages to a staff channel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.mau.fi/util/dbutil"
	_ "go.mau.fi/util/dbutil/litestream"

	"github.com/aiku/matrix-linkbot/pkg/api"
	"github.com/aiku/matrix-linkbot/pkg/bot"
	"github.com/aiku/matrix-linkbot/pkg/bot/botdb"
	"github.com/aiku/matrix-linkbot/pkg/matrixgw"
)

// These are filled at build time with -ldflags.
var (
	Tag       = "unknown"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	writeExample := flag.Bool("generate-config", false, "write the example config to stdout and exit")
	flag.Parse()

	if *writeExample {
		fmt.Print(bot.ExampleConfig)
		return
	}

	// Optional; real deployments set the token via the environment.
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.StampMilli}).
		With().Timestamp().Logger()
	log.Info().
		Str("tag", Tag).Str("commit", Commit).Str("built", BuildTime).
		Msg("Starting linkbot")

	if err := run(log, *configPath); err != nil {
		log.Fatal().Err(err).Msg("Fatal error")
	}
}

func run(log zerolog.Logger, configPath string) error {
	cfg, err := bot.LoadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rawDB, err := dbutil.NewWithDialect(cfg.DatabasePath, "sqlite3-fk-wal")
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	rawDB.Log = dbutil.ZeroLogger(log.With().Str("component", "database").Logger())
	defer rawDB.Close()

	db := botdb.New(rawDB)
	if err = db.Upgrade(ctx); err != nil {
		return fmt.Errorf("failed to upgrade database schema: %w", err)
	}

	gw, err := matrixgw.NewGateway(cfg.Homeserver, cfg.UserID, cfg.AccessToken, db, log)
	if err != nil {
		return err
	}
	engine := bot.NewEngine(cfg, db, gw, log)
	gw.OnEvent(engine)

	if cfg.AdminAPIAddr != "" {
		srv := &http.Server{
			Addr:         cfg.AdminAPIAddr,
			Handler:      api.NewHandler(db, engine.Sessions(), log).Router(),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.AdminAPIAddr).Msg("Ops API listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Ops API server failed")
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	err = gw.Run(ctx)
	log.Info().Msg("Shutting down")
	return err
}
