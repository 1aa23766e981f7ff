package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/poker-io/server/server/game"
	"github.com/poker-io/server/server/notify"
	"github.com/poker-io/server/server/store"
)

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func mustEnv(logger *log.Logger, k string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		logger.Fatal("missing required env", "key", k)
	}
	return v
}

func atoiDef(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func asBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func main() {
	_ = godotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
	if asBool(os.Getenv("DEBUG")) {
		logger.SetLevel(log.DebugLevel)
	}

	var migrate bool
	for _, a := range os.Args[1:] {
		if a == "--migrate" {
			migrate = true
		}
	}

	dsn := mustEnv(logger, "DATABASE_URL")
	db, err := store.Open(dsn)
	if err != nil {
		logger.Fatal("open store", "err", err)
	}
	defer db.Close(context.Background())

	if migrate || asBool(os.Getenv("AUTO_MIGRATE")) {
		if err := store.Migrate(context.Background(), db); err != nil {
			logger.Fatal("migrate", "err", err)
		}
		logger.Info("migrated")
		if migrate {
			return
		}
	}

	if err := db.Ping(context.Background()); err != nil {
		logger.Fatal("store unreachable", "err", err)
	}

	// OPEN_TABLES=0 requires a registered websocket session before any
	// gameplay action is accepted.
	hub := notify.NewHub(logger, asBool(getenv("OPEN_TABLES", "1")))
	eng := game.NewEngine(db, hub, logger)

	port := getenv("PORT", "42069")
	timeout := time.Duration(atoiDef(os.Getenv("HTTP_TIMEOUT_SECONDS"), 15)) * time.Second
	rateLimit := atoiDef(os.Getenv("RATE_LIMIT_PER_MINUTE"), 60)
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      Router(eng, hub, hub.Handler(), logger, rateLimit),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		<-c
		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Info("listening", "port", port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("serve", "err", err)
	}
}
