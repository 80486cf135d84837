package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"stallpick-be/internal/bootstrap"
	"stallpick-be/internal/config"
	"stallpick-be/internal/seed"
	"stallpick-be/internal/server"
	"stallpick-be/internal/tracer"
	"stallpick-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	shutdownTracer := tracer.InitTracer("stallpick-be")
	defer shutdownTracer(context.Background())

	cfg := config.Load()

	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, cfg.App.Environment != "production")
		if err != nil {
			log.Panicf("Unable to connect to GORM DB: %v", err)
		}
		gormDB = db
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	// Without a database nothing is provisioned; SEED_FILE fills the
	// in-memory store at startup.
	if path := os.Getenv("SEED_FILE"); path != "" {
		fixture, err := seed.Load(path)
		if err != nil {
			log.Fatalf("Unable to load seed file: %v", err)
		}
		res, err := seed.Apply(context.Background(), container.UowFactory, fixture)
		if err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		for _, s := range res.Sessions {
			log.Printf("Session %s ready at /buyer/%s", s.Id, s.Code)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.Start(ctx); err != nil {
		log.Fatalf("Unable to start change relay: %v", err)
	}

	srv := server.New(cfg, container)
	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		_ = srv.Shutdown()
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
