package service

import (
	"context"
	"errors"

	"calbook/internal/insights/repository"
	"calbook/internal/insights/validator"
	"calbook/pkg/cache"
	"calbook/pkg/config"
	apperrors "calbook/pkg/errors"
	"calbook/pkg/logger"
	"calbook/pkg/model"
)

// RatingsCachePrefix namespaces recent-ratings entries in the shared cache.
const RatingsCachePrefix = "insights:recent_ratings"

type InsightsService interface {
	RecentRatings(ctx context.Context, scope *model.RatingsScope) ([]model.RatingRow, error)
}

type insightsService struct {
	repo      repository.RatingsRepository
	cache     cache.Cache
	validator *validator.RatingsValidator
	cfg       *config.Config
}

// NewInsightsService wires the service. A nil cache reads straight from storage.
func NewInsightsService(
	repo repository.RatingsRepository,
	c cache.Cache,
	validator *validator.RatingsValidator,
	cfg *config.Config,
) InsightsService {
	return &insightsService{
		repo:      repo,
		cache:     c,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *insightsService) RecentRatings(ctx context.Context, scope *model.RatingsScope) ([]model.RatingRow, error) {
	log := logger.FromContext(ctx, s.cfg.Log)

	if err := s.validator.Validate(scope); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation(verrs.Error(), map[string]any{"fields": verrs})
		}
		return nil, apperrors.InvalidInput(err.Error())
	}

	key := scope.CacheKey()
	if s.cache != nil {
		var rows []model.RatingRow
		found, err := s.cache.Get(ctx, key, &rows)
		if err != nil {
			log.Warn("Recent ratings cache read failed, falling back to storage", "error", err)
		} else if found {
			log.Debug("Recent ratings served from cache", "key", key)
			return rows, nil
		}
	}

	rows, err := s.repo.RecentRatings(ctx, *scope, s.limit())
	if err != nil {
		log.Error("Failed to load recent ratings", "team_id", scope.TeamID, "user_id", scope.UserID, "error", err)
		return nil, apperrors.Internal("Failed to load recent ratings", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rows); err != nil {
			log.Warn("Recent ratings cache write failed", "error", err)
		}
	}

	return rows, nil
}

func (s *insightsService) limit() int {
	if s.cfg.InsightsRatingsLimit > 0 {
		return s.cfg.InsightsRatingsLimit
	}
	return config.DefaultInsightsRatingsLimit
}
