package main // Entry point package

import (
	"context"
	"errors"
	"log" // startup and fatal messages before echo's logger is configured
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/retentionai/internal/config"
	"github.com/iliyamo/retentionai/internal/database"
	"github.com/iliyamo/retentionai/internal/handler"
	"github.com/iliyamo/retentionai/internal/middleware"
	"github.com/iliyamo/retentionai/internal/queue"
	"github.com/iliyamo/retentionai/internal/repository"
	"github.com/iliyamo/retentionai/internal/router"
	"github.com/iliyamo/retentionai/internal/service"
	"github.com/iliyamo/retentionai/internal/session"
)

func main() {
	cfg := config.Load() // Load environment config
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.Use(echomw.RequestID())
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		log.Fatalf("database: %v", err)
	}
	cancelMigrate()

	// Redis is mandatory for the redis session backend and optional for
	// rate limiting; without it the limiter lets every request through.
	var rdb *redis.Client
	if cfg.Session.Backend == config.SessionBackendRedis || cfg.RateLimit.Enabled {
		rdb, err = config.NewRedisClient()
		if err != nil {
			if cfg.Session.Backend == config.SessionBackendRedis {
				log.Fatalf("redis: %v", err)
			}
			e.Logger.Warnf("redis unavailable, rate limiting disabled: %v", err)
		} else {
			defer rdb.Close()
		}
	}

	sessions := repository.NewSessionRepo(db)
	store, err := session.NewStore(cfg.Session, rdb, sessions)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if cfg.Session.Backend == config.SessionBackendMemory {
		e.Logger.Warn("memory session backend: sessions are lost on restart and not shared between instances")
	}
	if cfg.Demo.Enabled {
		e.Logger.Warnf("DEMO LOGIN ENABLED: %s signs in as Admin without a stored account", cfg.Demo.Email)
	}
	gate := session.NewGate(store, cfg.Session, cfg.Demo)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Session.Backend == config.SessionBackendMySQL {
		go purgeSessions(ctx, sessions, e.Logger)
	}

	opts := []service.Option{service.WithLogger(e.Logger)}
	if cfg.Activity.Enabled {
		opts = append(opts, service.WithPublisher(service.NewAMQPPublisher(cfg.Activity.URL, e.Logger)))
		go func() {
			if err := queue.StartActivityConsumer(ctx, cfg.Activity.URL, cfg.Activity.LogDir, e.Logger); err != nil && !errors.Is(err, context.Canceled) {
				e.Logger.Errorf("activity consumer stopped: %v", err)
			}
		}()
	}
	creds := service.NewCredentialStore(repository.NewUserRepo(db), cfg.BcryptCost, opts...)

	router.RegisterRoutes(e, &handler.HealthHandler{DB: db, Redis: rdb, Version: cfg.Version})
	router.RegisterAuth(e, gate, handler.NewAuthHandler(cfg, creds, gate), middleware.NewTokenBucket(cfg.RateLimit, rdb))
	router.RegisterAccount(e, gate, handler.NewProfileHandler(gate), handler.NewAccountHandler(creds, gate))

	addr := ":" + cfg.Port // Address string with port
	log.Printf("listening on %s (env=%s, sessions=%s)", addr, cfg.Env, cfg.Session.Backend)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err) // Log and exit if server fails
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		e.Logger.Errorf("shutdown: %v", err)
	}
	creds.Wait()
}

// purgeSessions deletes dead session rows once an hour until ctx ends.
func purgeSessions(ctx context.Context, repo *repository.SessionRepo, logger echo.Logger) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := repo.PurgeExpired(ctx, time.Now().Add(-time.Hour))
			if err != nil {
				logger.Warnf("session purge: %v", err)
				continue
			}
			logger.Debugf("session purge: %d rows removed", n)
		}
	}
}

func logLevel(s string) glog.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return glog.DEBUG
	case "warn":
		return glog.WARN
	case "error":
		return glog.ERROR
	case "off":
		return glog.OFF
	default:
		return glog.INFO
	}
}
