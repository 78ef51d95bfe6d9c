package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/itemdeck/itemdeck/internal/api"
	"github.com/itemdeck/itemdeck/internal/auth"
	"github.com/itemdeck/itemdeck/internal/engine"
	"github.com/itemdeck/itemdeck/internal/vault"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	addr := envOr("ITEMDECK_ADDR", ":7310")
	dataDir := envOr("ITEMDECK_DATA_DIR", "./data")
	useTLS := os.Getenv("ITEMDECK_TLS") == "true"
	importDir := os.Getenv("ITEMDECK_IMPORT_DIR")

	persister, err := engine.NewPersistence(dataDir)
	if err != nil {
		log.Fatalf("Failed to initialize persistence: %v", err)
	}

	snap, err := persister.LoadAll()
	if err != nil {
		log.Printf("Warning: could not load existing data: %v", err)
	}
	store := engine.NewMemStore(snap, persister)
	log.Printf("Engine started. %d accounts loaded from %s.", len(snap.Users), dataDir)

	if importDir != "" {
		if err := importData(importDir, store); err != nil {
			log.Fatalf("Import from %s failed: %v", importDir, err)
		}
		log.Printf("Imported data from %s.", importDir)
	}

	handler := &api.Handler{Store: store, Mailer: auth.LogMailer{}}
	router := api.NewRouter(handler)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	if useTLS {
		log.Println("Generating self-signed certificate for TLS...")
		cert, err := vault.GenerateSelfSignedCert()
		if err != nil {
			log.Fatalf("Failed to generate TLS certificate: %v", err)
		}
		srv.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutdown signal received. Finalizing disk writes...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		store.Wait()
		log.Println("Persistence complete. Exiting.")
	}()

	log.Printf("itemdeckd listening on %s (tls=%v)", addr, useTLS)
	if useTLS {
		err = srv.ListenAndServeTLS("", "")
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
	store.Wait()
}

// importData loads another data dir read-only and merges it into the live store.
func importData(dir string, dst *engine.MemStore) error {
	persister, err := engine.NewPersistence(dir)
	if err != nil {
		return err
	}
	snap, err := persister.LoadAll()
	if err != nil {
		return err
	}
	src := engine.NewMemStore(snap, nil)
	return engine.Migrate(src, dst)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
