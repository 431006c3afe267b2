package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"server/internal/generator"
	"server/internal/http/handlers"
	"server/internal/http/httpapi"
	"server/internal/infra"
	"server/internal/jobstore"
	"server/internal/metrics"
	imageprovider "server/internal/providers/image"
	"server/internal/providers/title"
	"server/internal/providers/vision"
	"server/internal/storage"
	"server/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)
	metrics.MustRegister()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Job store, selected by driver.
	var store jobstore.Store
	switch cfg.JobStoreDriver {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer client.Close()
		store = jobstore.NewRedisStore(client, cfg.JobRetention)
	case "postgres":
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		pg := jobstore.NewPostgresStore(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to prepare job schema")
		}
		store = pg
	default:
		mem := jobstore.NewMemoryStore()
		go mem.StartJanitor(ctx, cfg.JobRetention, time.Minute)
		store = mem
	}

	blobs, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare storage")
	}

	images := imageprovider.NewOpenAIGenerator(imageprovider.OpenAIOptions{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIImageModel,
		BaseURL: cfg.OpenAIBaseURL,
	})

	var titles title.Refiner = title.NewStaticRefiner()
	var describer vision.Describer
	if cfg.OpenAIAPIKey != "" {
		refiner, err := title.NewOpenAIRefiner(title.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIChatModel,
			BaseURL: cfg.OpenAIBaseURL,
			OnFallback: func(reason string, err error) {
				logger.Warn().Err(err).Str("reason", reason).Msg("title refinement degraded")
			},
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build title refiner")
		}
		titles = refiner

		describer, err = vision.NewOpenAIDescriber(vision.OpenAIOptions{
			APIKey:  cfg.OpenAIAPIKey,
			Model:   cfg.OpenAIChatModel,
			BaseURL: cfg.OpenAIBaseURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to build vision describer")
		}
	} else {
		logger.Warn().Msg("OPENAI_API_KEY not set, image generation will fail and titles fall back to local refinement")
	}

	pool := worker.NewPool(cfg.WorkerCount, logger)
	pool.Start(ctx)
	defer pool.Stop()

	svc := generator.New(generator.Options{
		Store:    store,
		Pool:     pool,
		Images:   images,
		Blobs:    blobs,
		Titles:   titles,
		Vision:   describer,
		Logger:   logger,
		Deadline: cfg.GenerationDeadline,
	})

	app := handlers.NewApp(svc, store, titles, logger)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
