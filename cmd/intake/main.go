package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"hackfinity-intake/internal/blob"
	blobdrive "hackfinity-intake/internal/blob/drive"
	bloblocal "hackfinity-intake/internal/blob/local"
	"hackfinity-intake/internal/config"
	"hackfinity-intake/internal/payments"
	"hackfinity-intake/internal/server"
	"hackfinity-intake/internal/store"
	storesheets "hackfinity-intake/internal/store/sheets"
	storesqlite "hackfinity-intake/internal/store/sqlite"
	"hackfinity-intake/internal/submit"
	"hackfinity-intake/internal/tgbot"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	var rows store.RowStore
	var shots blob.Store
	if cfg.UseGoogle() {
		sheetsClient, err := storesheets.New(cfg.GoogleServiceAccountJSON, cfg.SpreadsheetID, cfg.SheetName)
		if err != nil {
			log.Fatalf("sheets: %v", err)
		}
		driveStore, err := blobdrive.New(cfg.GoogleServiceAccountJSON, cfg.DriveFolderName)
		if err != nil {
			log.Fatalf("drive: %v", err)
		}
		rows, shots = sheetsClient, driveStore
	} else {
		db, err := sql.Open("sqlite", cfg.SQLitePath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
		if err != nil {
			log.Fatalf("sqlite: %v", err)
		}
		defer db.Close()
		rows = storesqlite.New(db)
		shots = bloblocal.New(cfg.ScreenshotDir, cfg.BasePublicURL)
		log.Printf("no Google credentials, storing registrations in %s", cfg.SQLitePath)
	}

	if err := rows.EnsureHeader(context.Background()); err != nil {
		log.Fatalf("row store: %v", err)
	}

	payProvider, err := payments.NewProvider(cfg)
	if err != nil {
		log.Fatalf("payments: %v", err)
	}

	adapter := submit.New(cfg.IntakeURL)

	var botApp *tgbot.App
	if cfg.TelegramToken != "" {
		botApp, err = tgbot.New(cfg, rows, payProvider, adapter)
		if err != nil {
			log.Fatalf("telegram: %v", err)
		}
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set, wizard bot disabled")
	}

	httpSrv := server.New(cfg, rows, shots, payProvider, botApp)

	// Start HTTP server
	go func() {
		log.Printf("HTTP listening on %s (store=%s, screenshots=%s)", cfg.HTTPAddr, rows.Name(), shots.Name())
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Start Telegram wizard
	ctx, cancel := context.WithCancel(context.Background())
	if botApp != nil {
		go func() {
			if err := botApp.Run(ctx); err != nil {
				log.Printf("bot stopped: %v", err)
				cancel()
			}
		}()
	}

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	cancel()
	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = httpSrv.Shutdown(ctxTimeout)

	log.Println("bye")
}
