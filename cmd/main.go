package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"firewatch/internal/drive"
	"firewatch/internal/mirror"
	"firewatch/internal/models"
	"firewatch/internal/resize"
	"firewatch/internal/server"
	"firewatch/internal/storage"
)

func main() {
	cfg, err := models.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := storage.NewStorage(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init storage: %v", err)
	}
	defer db.Close()

	resizer := resize.New(cfg.Resize)

	// Drive mirroring is optional: without credentials the service runs with
	// the database-backed endpoints only.
	var uploader *drive.Uploader
	if cfg.Drive.CredentialsFile != "" {
		uploader, err = drive.NewUploader(cfg.Drive.CredentialsFile, &drive.FileTokenStore{Path: cfg.Drive.TokenFile}, cfg.Drive.FolderID)
		if err != nil {
			log.Fatalf("failed to init drive uploader: %v", err)
		}
		slog.Info("authorize this app by visiting this URL", "url", uploader.AuthURL())
	}

	ctx, cancel := context.WithCancel(context.Background())

	var publisher *mirror.Publisher
	if cfg.MirrorEnabled && uploader != nil {
		publisher = mirror.NewPublisher(cfg.KafkaBroker, cfg.KafkaTopic)

		// Consume mirror jobs in the background.
		worker := mirror.NewWorker(cfg.KafkaBroker, cfg.KafkaTopic, db, uploader)
		go worker.Run(ctx)
	}

	// Assign through typed variables so a nil *T never becomes a non-nil
	// interface.
	var pub server.Publisher
	if publisher != nil {
		pub = publisher
	}
	var up server.DriveUploader
	if uploader != nil {
		up = uploader
	}
	srv := server.NewServer(cfg, db, resizer, pub, up)

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	cancel()
	srv.Stop()
	if publisher != nil {
		publisher.Close()
	}
}
