package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/commerce"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/events"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/middleware"
	"storefront/internal/querycache"
	"storefront/internal/retry"
	"storefront/internal/shopstate"
	"storefront/web"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addr, envFile string

	cmd := &cobra.Command{
		Use:          "storefront",
		Short:        "Server-rendered storefront for the commerce API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, envErr := config.Load(envFile)
			if addr != "" {
				cfg.Addr = addr
			}

			log, err := logger.New(logger.Options{Service: "storefront", Env: cfg.AppEnv, Level: cfg.LogLevel})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if envErr != nil {
				log.Debug("no env file loaded", zap.String("file", envFile), zap.Error(envErr))
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			return run(ctx, cfg, log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides PORT")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load")
	return cmd
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	log.Info("storefront starting", cfg.Fields()...)

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = uuid.NewString()
		log.Warn("SESSION_SECRET not set, sessions will not survive a restart")
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	publisher, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		publisher.Close(closeCtx)
	}()

	client, err := commerce.NewClient(cfg.CommerceAPIURL, cfg.CommerceAPITimeout, log)
	if err != nil {
		return err
	}

	policy := retry.Default()
	policy.ShouldRetry = commerce.Retryable
	products := catalog.NewService(client, querycache.Options{
		StaleTime:    cfg.StaleTime,
		FetchTimeout: cfg.CommerceAPITimeout * time.Duration(policy.MaxAttempts),
		Retry:        policy,
	}, log)
	defer products.Close()

	router, err := newRouter(cfg, log, &handlers.Deps{
		Catalog:          products,
		Store:            store,
		Events:           publisher,
		Log:              log.Named("handlers"),
		SiteName:         cfg.SiteName,
		LoadingThreshold: cfg.LoadingThreshold,
		PageSize:         cfg.PageSize,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("storefront shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", zap.Error(err))
	}
	log.Info("storefront stopped")
	return nil
}

func newRouter(cfg config.Config, log *zap.Logger, deps *handlers.Deps) (*gin.Engine, error) {
	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	handlers.RegisterValidation()

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.Use(
		middleware.RequestLogger(log.Named("http")),
		middleware.Boundary(cfg.SiteName, log.Named("boundary")),
		middleware.Session(middleware.SessionOptions{
			Secret: cfg.SessionSecret,
			TTL:    cfg.SessionTTL,
			Secure: cfg.AppEnv != "dev",
		}, log.Named("session")),
	)

	handlers.Register(r, deps)
	return r, nil
}

// openStore picks MongoDB when MONGO_URI is set and memory otherwise.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (shopstate.Store, func(), error) {
	if cfg.MongoURI == "" {
		log.Info("cart and wishlist kept in memory")
		return shopstate.NewMemoryStore(cfg.SessionTTL), func() {}, nil
	}

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	db := client.Database(cfg.DBName)
	log.Info("MongoDB connected", zap.String("db", db.Name()))

	if err := database.EnsureSessionIndexes(db, cfg.SessionTTL, log,
		shopstate.CartsCollection, shopstate.WishlistsCollection); err != nil {
		log.Warn("session index warning", zap.Error(err))
	}

	return shopstate.NewMongoStore(db), disconnect(client, log), nil
}

func disconnect(client *mongo.Client, log *zap.Logger) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Error("MongoDB disconnect failed", zap.Error(err))
		}
	}
}

func openPublisher(cfg config.Config, log *zap.Logger) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.NopPublisher{}, nil
	}

	p, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic, log)
	if err != nil {
		return nil, err
	}
	log.Info("shopper events enabled", zap.String("topic", cfg.EventsTopic))
	return p, nil
}
