package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"healthmate/backend/internal/agent"
	"healthmate/backend/internal/config"
	"healthmate/backend/internal/db"
	"healthmate/backend/internal/server"
	"healthmate/backend/internal/store"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("database ping failed: %v", err)
	}
	if err := store.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("database schema setup failed: %v", err)
	}

	app := server.New(cfg, store.NewPostgres(pool), newInvoker(cfg))
	httpServer := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("healthmate api listening on http://localhost:%s", cfg.AppPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}

func newInvoker(cfg config.Config) agent.Invoker {
	if strings.EqualFold(strings.TrimSpace(cfg.AIProvider), "mock") {
		log.Printf("AI_PROVIDER=mock: agent responses are canned")
		return agent.MockInvoker{}
	}
	if strings.TrimSpace(cfg.GroqAPIKey) == "" {
		log.Printf("GROQ_API_KEY is empty: falling back to mock agent responses")
		return agent.MockInvoker{}
	}
	return agent.NewGroqClient(cfg)
}
