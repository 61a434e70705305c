package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hkpodravka/klub/auth"
	"github.com/hkpodravka/klub/internal/config"
	"github.com/hkpodravka/klub/internal/db"
	"github.com/hkpodravka/klub/internal/handlers"
	"github.com/hkpodravka/klub/internal/metrics"
	"github.com/hkpodravka/klub/internal/uploads"
	"github.com/hkpodravka/klub/view"
	"github.com/sirupsen/logrus"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	log := logrus.New()
	cfg, warnings, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	configureLogger(log, cfg.Log)
	for _, w := range warnings {
		log.Warn(w)
	}

	dbConn, err := db.Connect(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn, cfg.App.Migrations); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn, cfg.Club); err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
		log.Info("seeding completed successfully")
		return
	}

	// Migrate and seed the club row on every start; both are idempotent.
	if err := db.Init(dbConn, cfg); err != nil {
		log.WithError(err).Fatal("database init failed")
	}

	store := uploads.New(cfg.Uploads.Root, log)
	if n, err := store.Sweep(cfg.Uploads.StagingTTL); err != nil {
		log.WithError(err).Warn("sweep staging uploads")
	} else if n > 0 {
		log.WithField("removed", n).Info("removed stale staged uploads")
	}

	auth.SetSecret(cfg.App.SessionSecret)
	view.SetDevMode(cfg.App.Dev)
	handlers.SetLogger(log)

	app := NewApp(dbConn, cfg, store, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(log, withRecover(log, metrics.Middleware(app))),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Server.Port, "dev": cfg.App.Dev}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	log.Info("server stopped gracefully")
}

func configureLogger(log *logrus.Logger, cfg config.LogConfig) {
	if lvl, err := logrus.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.WithField("level", cfg.Level).Warn("unknown log level, using info")
	}
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// withLogging adds request logging middleware.
func withLogging(log *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := metrics.NewStatusRecorder(w)
		next.ServeHTTP(rec, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.Status(),
			"duration": time.Since(start),
		}).Debug("request")
	})
}

// withRecover turns a handler panic into a 500.
func withRecover(log *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.WithFields(logrus.Fields{"panic": rec, "path": r.URL.Path}).Error("handler panic")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
