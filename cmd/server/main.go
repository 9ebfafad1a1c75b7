package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	gcsstorage "cloud.google.com/go/storage"
	"github.com/castlemilk/budgetsync/internal/api"
	"github.com/castlemilk/budgetsync/internal/auth"
	"github.com/castlemilk/budgetsync/internal/backup"
	"github.com/castlemilk/budgetsync/internal/config"
	"github.com/castlemilk/budgetsync/internal/localcache"
	"github.com/castlemilk/budgetsync/internal/remote"
	"github.com/castlemilk/budgetsync/internal/session"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var docs remote.DocumentStore
	var firebaseAuth *auth.FirebaseAuth

	if cfg.UseMemoryStore {
		log.Println("Using in-memory document store for local development")
		docs = remote.NewMemoryStore()

		// No Firebase locally; every request runs as the local dev user
		log.Println("✅ Using mock authentication for local development")
	} else {
		firestoreClient, err := firestore.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()

		if cfg.SkipAuth {
			log.Println("⚠️  SKIP_AUTH enabled - using mock authentication with Firestore (for testing only)")
		} else {
			firebaseAuth, err = auth.NewFirebaseAuth(ctx, cfg.ProjectID)
			if err != nil {
				log.Fatalf("Failed to initialize Firebase Auth: %v", err)
			}
		}

		docs = remote.NewFirestoreStore(firestoreClient)
	}

	var cache localcache.Cache
	switch cfg.LocalCache {
	case "sqlite":
		sqliteCache, err := localcache.NewSQLiteCache(cfg.SQLiteDBPath)
		if err != nil {
			log.Fatalf("Failed to open local cache: %v", err)
		}
		defer sqliteCache.Close()
		log.Printf("Using SQLite local cache at %s", cfg.SQLiteDBPath)
		cache = sqliteCache
	default:
		cache = localcache.NewMemoryCache()
	}

	archiveOpt, closeArchive := archiveOption(ctx, cfg)
	defer closeArchive()

	// Remote writes run detached from the signal context so Close can flush them.
	sess := session.New(session.Config{
		Remote: remote.NewClient(docs,
			remote.WithCollections(cfg.CanonicalCollection, cfg.LegacyCollection),
			remote.WithTimeout(cfg.RemoteTimeout),
		),
		Local:        localcache.NewManager(cache, cfg.CacheKeyPrefix, logger),
		LogoutPolicy: session.LogoutPolicy(cfg.LogoutPolicy),
		Logger:       logger,
		Background:   context.Background(),
	})

	srv := api.NewServer(sess, archiveOpt, api.WithLogger(logger))

	var handler http.Handler = srv.Routes()
	if firebaseAuth != nil {
		handler = auth.Middleware(firebaseAuth)(handler)
	} else {
		handler = auth.LocalDevMiddleware()(handler)
	}
	// Debug impersonation runs first so it can short-circuit token checks
	handler = auth.DebugMiddleware(cfg.SkipAuth || cfg.UseMemoryStore)(handler)

	// NOTE: Frontend runs on port 1234
	c := cors.New(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:1234",
			"http://127.0.0.1:1234",
		},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"User-Agent",
			"X-Debug-Impersonate-User",
		},
		ExposedHeaders: []string{
			"Content-Disposition",
			"Retry-After",
		},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: h2c.NewHandler(c.Handler(handler), &http2.Server{}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP shutdown: %v", err)
		}
		if err := sess.Close(shutdownCtx); err != nil {
			log.Printf("Pending remote writes not flushed: %v", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

// archiveOption picks the Cloud Storage bucket when one is configured and
// the local export directory otherwise.
func archiveOption(ctx context.Context, cfg *config.Config) (api.Option, func()) {
	if cfg.ExportBucket != "" {
		client, err := gcsstorage.NewClient(ctx)
		if err != nil {
			log.Fatalf("Failed to create Storage client: %v", err)
		}
		log.Printf("Writing export archives to gs://%s/exports/", cfg.ExportBucket)
		bucket := backup.NewBucket(client.Bucket(cfg.ExportBucket), "exports/")
		return api.WithArchive(bucket, bucket), func() { client.Close() }
	}

	dir, err := backup.NewDir(cfg.ExportDir)
	if err != nil {
		log.Fatalf("Failed to prepare export directory: %v", err)
	}
	log.Printf("Writing export archives to %s", cfg.ExportDir)
	return api.WithArchive(dir, dir), func() {}
}
