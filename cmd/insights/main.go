package main

import (
	"calbook/internal/insights/handler"
	"calbook/internal/insights/repository"
	"calbook/internal/insights/service"
	"calbook/internal/insights/validator"
	"calbook/internal/insights/view"
	"calbook/pkg/app"
	"calbook/pkg/cache"
	"calbook/pkg/client"
	"calbook/pkg/config"
)

const ServiceName = "insights"

func main() {
	cfg := config.Load(ServiceName)

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid configuration", "error", err)
	}

	cfg.LogConfiguration()
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Insights service")
	insightsService := initServices(cfg)

	// The feedback card reads through the public API.
	insightsClient := client.NewInsightsClient(cfg.InsightsBaseURL, client.DefaultStaleTime)
	card := view.NewRecentFeedback(insightsClient, view.DefaultRenderBudget, cfg.Log)

	serverApp := app.NewApplication(cfg)
	serverApp.OnShutdown(insightsClient.Close)
	serverApp.SetApp(handler.NewInsightsHandler(insightsService, card, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.InsightsService {
	var ratingsCache cache.Cache
	if cfg.Client.Redis != nil {
		ratingsCache = cache.NewRedisCache(cfg.Client.Redis, service.RatingsCachePrefix, cfg.InsightsCacheTTL)
	}

	insightsService := service.NewInsightsService(
		repository.NewMongoRatingsRepository(cfg),
		ratingsCache,
		validator.NewRatingsValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Insights service initialized", "database", cfg.MongoDatabaseName, "cache", ratingsCache != nil)
	return insightsService
}
