package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/docgen"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/yourkin666/community/internal/activity"
	"github.com/yourkin666/community/internal/article"
	"github.com/yourkin666/community/internal/auth"
	"github.com/yourkin666/community/internal/config"
	"github.com/yourkin666/community/internal/logging"
	"github.com/yourkin666/community/internal/password"
	"github.com/yourkin666/community/internal/server"
	"github.com/yourkin666/community/internal/store"
	"github.com/yourkin666/community/internal/user"
)

const shutdownTimeout = 10 * time.Second

func main() {
	routes := flag.Bool("routes", false, "print route documentation and exit")
	flag.Parse()

	cfg := config.Load()
	log, err := logging.New(!cfg.IsProd())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if *routes {
		printRoutes(cfg)
		return
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("postgres connect: %w", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping: %w", err)
	}
	if cfg.DBMigrate {
		if err := pgStore.Migrate(ctx); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
		log.Info("migrations applied")
	}

	// ── Sessions ─────────────────────────────────────────────
	var sessions auth.SessionStore
	switch cfg.SessionBackend {
	case config.SessionBackendMemory:
		sessions = auth.NewMemorySessionStore(cfg.SessionMemorySize, cfg.SessionTTL)
	default:
		rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer rdb.Close()
		sessions = auth.NewRedisSessionStore(rdb, cfg.SessionTTL)
	}
	log.Info("session store ready", zap.String("backend", cfg.SessionBackend))

	// ── MinIO (optional) ─────────────────────────────────────
	var files user.FileStore
	if cfg.MinioEndpoint != "" {
		minioStore, err := store.NewMinioStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio connect: %w", err)
		}
		files = minioStore
		log.Info("avatar storage enabled", zap.String("bucket", cfg.MinioBucket))
	}

	// ── MongoDB (optional) ───────────────────────────────────
	var (
		events  activity.Recorder = activity.Nop{}
		history user.ActivityReader
	)
	if cfg.MongoURI != "" {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		defer mongoClient.Disconnect(context.Background())
		activityStore := store.NewMongoActivityStore(mongoClient.Database(cfg.MongoDB), log)
		if err := activityStore.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("mongo indexes: %w", err)
		}
		events, history = activityStore, activityStore
		log.Info("activity log enabled", zap.String("db", cfg.MongoDB))
	}

	// ── Services ─────────────────────────────────────────────
	hasher, err := newHasher(cfg)
	if err != nil {
		return err
	}
	users := user.NewService(pgStore, hasher, files, events, log.Named("user"))
	articles := article.NewService(pgStore, events, log.Named("article"))

	// ── Router ───────────────────────────────────────────────
	r := server.NewRouter(server.Deps{
		Log:        log,
		Users:      users,
		Articles:   articles,
		Sessions:   sessions,
		Cookie:     auth.CookieConfig{Secure: cfg.SessionCookieSecure, TTL: cfg.SessionTTL},
		History:    history,
		DB:         pgStore,
		CORSOrigin: cfg.CORSOrigin,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

func newHasher(cfg *config.Config) (*password.Hasher, error) {
	var opts []password.Option
	if cfg.PasswordAllowLegacyMD5 {
		opts = append(opts, password.WithLegacyMD5())
	}
	h, err := password.New(password.Scheme(cfg.PasswordScheme), opts...)
	if err != nil {
		return nil, fmt.Errorf("password hasher: %w", err)
	}
	return h, nil
}

// printRoutes renders the route tree without connecting to any backend.
func printRoutes(cfg *config.Config) {
	r := server.NewRouter(server.Deps{
		Users:      user.NewService(nil, nil, nil, nil, nil),
		Articles:   article.NewService(nil, nil, nil),
		Sessions:   auth.NewMemorySessionStore(1, cfg.SessionTTL),
		CORSOrigin: cfg.CORSOrigin,
	})
	fmt.Println(docgen.MarkdownRoutesDoc(r, docgen.MarkdownOpts{
		ProjectPath: "github.com/yourkin666/community",
		Intro:       "Routes served by the community forum API.",
	}))
}
