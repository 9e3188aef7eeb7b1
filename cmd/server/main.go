package main

import (
	"context"
	"errors"
	"karmafeed/internal/cache"
	"karmafeed/internal/config"
	"karmafeed/internal/db"
	"karmafeed/internal/router"
	"karmafeed/internal/services"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.SetupLogging()
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	conn, err := db.Open(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close(conn)
	if err := db.Migrate(conn); err != nil {
		log.WithError(err).Fatal("Failed to migrate database")
	}

	store, err := cache.New(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize cache")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("Failed to close cache")
		}
	}()

	svc := services.New(conn, store, cfg)

	if cfg.SeedDemo {
		if _, err := services.SeedDemo(ctx, svc, rand.New(rand.NewSource(time.Now().UnixNano()))); err != nil {
			log.WithError(err).Fatal("Failed to seed demo data")
		}
	}

	// 启动排行榜后台刷新
	if err := svc.Refresher.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start leaderboard refresher")
	}
	defer svc.Refresher.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.New(cfg, conn, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("karmafeed server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Server exited with error")
	}
	stop()
	log.Info("Server stopped")
}
