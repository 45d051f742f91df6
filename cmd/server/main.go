package main

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	coachwebui "github.com/tradepsych/coach-web-ui"
	"github.com/tradepsych/coach-web-ui/internal/api"
	"github.com/tradepsych/coach-web-ui/internal/handlers"
	"github.com/tradepsych/coach-web-ui/internal/services"
	"github.com/tradepsych/coach-web-ui/internal/telemetry"
)

func main() {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatal(fmt.Errorf("error getting user config dir: %w", err))
	}
	cfgPath := filepath.Join(cfgDir, "tradecoach")
	if err := os.MkdirAll(cfgPath, 0755); err != nil {
		log.Fatal(fmt.Errorf("error creating config directory: %w", err))
	}

	cfg, err := loadConfig(filepath.Join(cfgPath, "config.yaml"))
	if err != nil {
		log.Fatal(err)
	}

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = filepath.Join(cfgPath, "logs")
	}
	logger, err := telemetry.InitLogger(logDir, cfg.logLevel())
	if err != nil {
		log.Fatal(err)
	}

	tracer, meter, telemetryShutdown, err := telemetry.Init(context.Background(), logDir)
	if err != nil {
		log.Fatal(err)
	}
	defer telemetryShutdown()

	boltDB, err := services.NewBoltDB(filepath.Join(cfgPath, "store.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer boltDB.Close()

	tokenFn := func() string {
		token, err := boltDB.State(services.StateAccessToken)
		if err != nil {
			logger.Error("Failed to read access token", slog.String("err", err.Error()))
			return ""
		}
		return token
	}
	client := api.NewClient(cfg.BackendURL, cfg.RequestTimeout, tokenFn, logger)

	auth := services.NewAuthSession(boltDB, client, logger)
	auth.Init(context.Background())

	locale, err := services.NewLocaleStore(boltDB, cfg.DefaultLocale)
	if err != nil {
		log.Fatal(err)
	}
	projects := services.NewProjectStore(boltDB)

	m, err := handlers.NewMain(client, auth, locale, projects, boltDB, logger)
	if err != nil {
		log.Fatal(err)
	}

	// Serve static files
	staticFS, err := fs.Sub(coachwebui.StaticFS, "static")
	if err != nil {
		log.Fatal(err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	mux := http.NewServeMux()
	mux.Handle("/static/", http.StripPrefix("/static/", fileServer))
	mux.HandleFunc("/", m.HandleHome)
	mux.HandleFunc("/login", m.HandleLogin)
	mux.HandleFunc("/register", m.HandleRegister)
	mux.HandleFunc("/logout", m.HandleLogout)
	mux.HandleFunc("/coaches", m.HandleCoaches)
	mux.HandleFunc("/chat", m.HandleChat)
	mux.HandleFunc("/chat/sessions", m.HandleCreateSession)
	mux.HandleFunc("/chat/sessions/delete", m.HandleDeleteSession)
	mux.HandleFunc("/chat/messages", m.HandleChatMessage)
	mux.HandleFunc("/journal", m.HandleJournal)
	mux.HandleFunc("/journal/new", m.HandleJournalNew)
	mux.HandleFunc("/journal/import", m.HandleJournalImport)
	mux.HandleFunc("/journal/", m.HandleJournalEntry)
	mux.HandleFunc("/knowledge", m.HandleKnowledge)
	mux.HandleFunc("/knowledge/ingest", m.HandleKnowledgeIngest)
	mux.HandleFunc("/knowledge/delete", m.HandleKnowledgeDelete)
	mux.HandleFunc("/settings", m.HandleSettings)
	mux.HandleFunc("/sse/messages", m.HandleSSE)

	handler, err := telemetry.Middleware(tracer, meter, mux)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	srv.RegisterOnShutdown(func() {
		if err := m.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shutdown sse server", slog.String("err", err.Error()))
		}
	})

	// Channel to listen for errors coming from the listener
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Blocking select waiting for either interrupt or server error
	select {
	case err := <-serverErrors:
		logger.Error("Server error", slog.String("err", err.Error()))

	case sig := <-shutdown:
		logger.Info("Start shutdown", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Graceful shutdown failed", slog.String("err", err.Error()))
			if err := srv.Close(); err != nil {
				logger.Error("Forcing server close", slog.String("err", err.Error()))
			}
		}
	}
}
