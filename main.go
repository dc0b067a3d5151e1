package main

import (
	"context"
	"log"

	"gorm.io/gorm"

	"github.com/pyrooka/mail2mp3/config"
	"github.com/pyrooka/mail2mp3/internal/database"
	"github.com/pyrooka/mail2mp3/server"
	"github.com/pyrooka/mail2mp3/services/downloader"
)

func main() {
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Config initialization failed: %v", err)
	}

	// Missing yt-dlp or ffmpeg is fatal at startup, not on the first job
	if err := downloader.Preflight(context.Background(), cfg.DownloaderConfig); err != nil {
		log.Fatalf("Downloader preflight failed: %v", err)
	}

	// Setup the processed-message ledger when configured
	var ledgerDB *gorm.DB
	if cfg.LedgerConfig.Enabled() {
		ledgerDB, err = database.InitLedgerDatabase(cfg.LedgerConfig)
		if err != nil {
			log.Fatalf("Ledger database initialization failed: %v", err)
		}
	}

	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("mail2mp3 starting up...")

	srv, err := server.NewServer(cfg, ledgerDB)
	if err != nil {
		log.Fatalf("Server setup failed: %v", err)
	}

	if err := srv.Run(); err != nil {
		log.Fatalf("Server startup failed: %v", err)
	}
}
