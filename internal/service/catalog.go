package service

import (
	"context"
	"fmt"
	"strings"

	"salon/internal/domain"
	"salon/internal/models"

	"github.com/rs/zerolog"
)

type CatalogService struct {
	repo   domain.ServiceRepository
	logger *zerolog.Logger
}

func NewCatalogService(repo domain.ServiceRepository, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{repo: repo, logger: logger}
}

// Seed upserts the services declared in config. Entries marked inactive are
// stored and then hidden.
func (s *CatalogService) Seed(ctx context.Context, services []models.Service) error {
	for i := range services {
		svc := services[i]
		if err := s.repo.UpsertService(ctx, &svc); err != nil {
			return err
		}
		if !svc.IsActive {
			if err := s.repo.DeactivateService(ctx, svc.ID); err != nil {
				return err
			}
		}
	}
	s.logger.Info().Int("count", len(services)).Msg("service catalog seeded")
	return nil
}

func (s *CatalogService) ListServices(ctx context.Context) ([]*models.Service, error) {
	services, err := s.repo.ListActiveServices(ctx)
	if err != nil {
		return nil, err
	}
	if services == nil {
		services = []*models.Service{}
	}
	return services, nil
}

func (s *CatalogService) GetService(ctx context.Context, id int64) (*models.Service, error) {
	return s.repo.GetService(ctx, id)
}

func (s *CatalogService) CreateService(ctx context.Context, svc *models.Service) error {
	if err := validateService(svc); err != nil {
		return err
	}
	if err := s.repo.CreateService(ctx, svc); err != nil {
		return err
	}
	s.logger.Info().Int64("service_id", svc.ID).Str("name", svc.Name).Msg("service created")
	return nil
}

func (s *CatalogService) UpdateService(ctx context.Context, svc *models.Service) error {
	if err := validateService(svc); err != nil {
		return err
	}
	if err := s.repo.UpdateService(ctx, svc); err != nil {
		return err
	}
	s.logger.Info().Int64("service_id", svc.ID).Msg("service updated")
	return nil
}

func (s *CatalogService) DeactivateService(ctx context.Context, id int64) error {
	if err := s.repo.DeactivateService(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("service_id", id).Msg("service deactivated")
	return nil
}

func validateService(svc *models.Service) error {
	if svc == nil {
		return invalid("service is required")
	}
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" {
		return invalid("name is required")
	}
	if svc.DurationMinutes <= 0 {
		return invalid("duration_minutes must be positive")
	}
	if svc.PriceCents < 0 {
		return invalid("price_cents must not be negative")
	}
	if len(svc.Description) > 2000 {
		return fmt.Errorf("%w: description is too long", ErrInvalidRequest)
	}
	return nil
}
