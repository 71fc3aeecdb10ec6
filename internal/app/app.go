package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"gorm.io/gorm"

	"github.com/clinect/clinect-backend/internal/data/db"
	httpServer "github.com/clinect/clinect-backend/internal/http"
	"github.com/clinect/clinect-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpServer.Server
	Cfg      Config
	Clients  Clients
	Services Services
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	clientset, err := wireClients(log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}

	var accountsDB *gorm.DB
	if cfg.PostgresEnabled {
		pg, err := db.NewPostgresService(log)
		if err != nil {
			log.Warn("Postgres init failed, patient sync disabled", "error", err)
		} else if err := pg.AutoMigrateAll(); err != nil {
			log.Warn("Postgres automigrate failed, patient sync disabled", "error", err)
		} else {
			accountsDB = pg.DB()
		}
	}

	serviceset := wireServices(log, clientset, accountsDB)
	handlerset := wireHandlers(log, serviceset)
	server := wireServer(log, handlerset)

	return &App{
		Log:      log,
		DB:       accountsDB,
		Server:   server,
		Cfg:      cfg,
		Clients:  clientset,
		Services: serviceset,
	}, nil
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(":" + a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Server.Shutdown(ctx); err != nil && a.Log != nil {
		a.Log.Warn("Server shutdown failed", "error", err)
	}
	a.Clients.Close(ctx)
	if a.Log != nil {
		a.Log.Sync()
	}
}
