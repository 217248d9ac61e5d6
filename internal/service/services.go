package service

import (
	"log/slog"

	"github.com/dom/phim-stream/internal/auth"
	"github.com/dom/phim-stream/internal/config"
	"github.com/dom/phim-stream/internal/metrics"
	"github.com/dom/phim-stream/internal/repository"
)

type Services struct {
	Auth    *AuthService
	Profile *ProfileService
	Catalog *CatalogService
}

// NewServices wires the services over repos. cache may be nil.
func NewServices(repos *repository.Repositories, cfg *config.Config, m *metrics.Metrics, cache CatalogCache, logger *slog.Logger) (*Services, error) {
	hasher, err := auth.NewBcryptHasher(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	tokens := auth.NewTokenService(cfg.JWTSecret)

	return &Services{
		Auth:    NewAuthService(repos.Account, hasher, tokens, m, cfg.DefaultAvatar),
		Profile: NewProfileService(repos.Account, hasher, tokens, m, cfg.DefaultAvatar),
		Catalog: NewCatalogService(CatalogOptions{
			BaseURL:  cfg.CatalogBaseURL,
			Timeout:  cfg.CatalogTimeout,
			Cache:    cache,
			CacheTTL: cfg.CatalogCacheTTL,
			Logger:   logger,
		}),
	}, nil
}
