package main

import (
	"context"
	"flag"
	"karmafeed/internal/cache"
	"karmafeed/internal/config"
	"karmafeed/internal/db"
	"karmafeed/internal/services"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
)

func main() {
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed used to pick authors")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	cfg.SetupLogging()

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
	summary, err := services.SeedDemo(context.Background(), svc, rand.New(rand.NewSource(*seed)))
	if err != nil {
		log.WithError(err).Fatal("Seeding failed")
	}
	if summary.Skipped {
		log.Info("Database already contains posts, nothing to do")
	}
}
