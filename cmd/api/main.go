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
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/harentsoaR/medico-api/internal/config"
	"github.com/harentsoaR/medico-api/internal/handlers"
	"github.com/harentsoaR/medico-api/internal/logger"
	"github.com/harentsoaR/medico-api/internal/response"
	"github.com/harentsoaR/medico-api/internal/services"
	"github.com/harentsoaR/medico-api/internal/store"
	"github.com/harentsoaR/medico-api/internal/store/memstore"
	"github.com/harentsoaR/medico-api/internal/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medico-api",
		Short: "Healthcare directory API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(indexesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if driver, _ := cmd.Flags().GetString("store"); driver != "" {
				cfg.StoreDriver = driver
			}
			return runServer(cfg)
		},
	}
	cmd.Flags().String("store", "", "Store driver, mongo or memory (overrides STORE_DRIVER)")
	return cmd
}

func indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB unique and 2dsphere indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.MongoURI == "" {
				return errors.New("MONGO_URI is required")
			}
			log := logger.Init(cfg.Env, cfg.Debug)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			client, err := store.Connect(ctx, cfg.MongoURI)
			if err != nil {
				return err
			}
			defer client.Disconnect(context.Background())

			if err := store.EnsureIndexes(ctx, client.Database(cfg.MongoDatabase)); err != nil {
				return fmt.Errorf("create indexes: %w", err)
			}
			log.Info().Str("database", cfg.MongoDatabase).Msg("indexes created")
			return nil
		},
	}
}

func runServer(cfg *config.Config) error {
	log := logger.Init(cfg.Env, cfg.Debug)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	response.Debug = cfg.Debug
	if err := utils.SetPasswordCost(cfg.BcryptCost); err != nil {
		log.Fatal().Err(err).Msg("invalid bcrypt cost")
	}

	ctx := context.Background()

	repos, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	revocations, closeRevocations, err := openRevocations(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer closeRevocations()

	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create token issuer")
	}

	var uploader services.ImageUploader
	if cfg.S3Bucket != "" {
		client, err := services.NewS3Client(ctx, cfg.S3Endpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create S3 client")
		}
		uploader = services.NewS3Uploader(client, cfg.S3Bucket, cfg.S3PublicBaseURL)
		log.Info().Str("bucket", cfg.S3Bucket).Msg("image uploads enabled")
	}

	h := handlers.NewHandler(handlers.Deps{
		Repos:        repos,
		Tokens:       tokens,
		Revocations:  revocations,
		Nutrition:    services.NewNutritionClient(cfg.NutritionixURL, cfg.NutritionixAppID, cfg.NutritionixAPIKey),
		Uploader:     uploader,
		Notifier:     services.NewNotificationService(cfg.TextbeltURL, cfg.TextbeltAPIKey),
		CookieSecure: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store.Repositories, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("using in-memory store: data is lost on restart")
		return memstore.NewRepositories(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := store.Connect(connectCtx, cfg.MongoURI)
	if err != nil {
		return nil, nil, err
	}
	db := client.Database(cfg.MongoDatabase)
	if err := store.EnsureIndexes(connectCtx, db); err != nil {
		log.Warn().Err(err).Msg("failed to ensure indexes")
	}
	log.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")

	closeFn := func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}
	return store.NewMongoRepositories(db), closeFn, nil
}

func openRevocations(ctx context.Context, cfg *config.Config, log zerolog.Logger) (services.Revocations, func(), error) {
	if cfg.RedisURL == "" {
		m := services.NewMemoryRevocations(time.Minute)
		log.Info().Msg("token revocations kept in memory")
		return m, m.Close, nil
	}

	client, err := services.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Msg("token revocations kept in redis")
	return services.NewRedisRevocations(client), func() { _ = client.Close() }, nil
}
