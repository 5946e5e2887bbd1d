package service

import (
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"slotbook/internal/apperr"
	"slotbook/internal/db"
	"slotbook/internal/entities"
	"slotbook/internal/repository"
)

// CatalogService is the admin-facing service catalog management plus the
// public listing the booking UI reads prices from.
type CatalogService struct {
	repo *repository.ServiceRepository
}

func NewCatalogService(repo *repository.ServiceRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) ListActive() ([]entities.ServiceResponse, error) {
	services, err := s.repo.ListActive()
	if err != nil {
		return nil, apperr.Upstream("error listing services", err)
	}
	out := make([]entities.ServiceResponse, 0, len(services))
	for _, svc := range services {
		out = append(out, toServiceResponse(&svc))
	}
	return out, nil
}

func (s *CatalogService) Create(req entities.ServiceResponse) (*entities.ServiceResponse, error) {
	if err := validateService(req); err != nil {
		return nil, err
	}
	svc := &db.Service{
		ID:                uuid.NewString(),
		Name:              req.Name,
		Description:       req.Description,
		BasePriceCents:    req.BasePriceCents,
		PricePerHourCents: req.PricePerHourCents,
		Active:            req.Active,
	}
	if err := s.repo.Create(svc); err != nil {
		return nil, apperr.Upstream("error creating service", err)
	}
	resp := toServiceResponse(svc)
	return &resp, nil
}

func (s *CatalogService) Update(id string, req entities.ServiceResponse) (*entities.ServiceResponse, error) {
	if err := validateService(req); err != nil {
		return nil, err
	}
	svc := &db.Service{
		ID:                id,
		Name:              req.Name,
		Description:       req.Description,
		BasePriceCents:    req.BasePriceCents,
		PricePerHourCents: req.PricePerHourCents,
		Active:            req.Active,
	}
	if err := s.repo.Update(svc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("service not found")
		}
		return nil, apperr.Upstream("error updating service", err)
	}
	resp := toServiceResponse(svc)
	return &resp, nil
}

func validateService(req entities.ServiceResponse) error {
	if req.Name == "" {
		return apperr.Validation("name", "name is required")
	}
	if req.BasePriceCents < 0 {
		return apperr.Validation("base_price_cents", "base price cannot be negative")
	}
	if req.PricePerHourCents < 0 {
		return apperr.Validation("price_per_hour_cents", "hourly price cannot be negative")
	}
	return nil
}

func toServiceResponse(svc *db.Service) entities.ServiceResponse {
	return entities.ServiceResponse{
		ID:                svc.ID,
		Name:              svc.Name,
		Description:       svc.Description,
		BasePriceCents:    svc.BasePriceCents,
		PricePerHourCents: svc.PricePerHourCents,
		Active:            svc.Active,
	}
}
