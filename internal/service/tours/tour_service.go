package tours

import (
	"context"

	"github.com/awesome-academy/booking-tour/internal/domain"
	"github.com/awesome-academy/booking-tour/internal/repository"
)

type TourUseCase interface {
	ListDepartures(ctx context.Context) ([]domain.DepartureDetail, error)
	GetDeparture(ctx context.Context, id int64) (*domain.DepartureDetail, error)
}

type Cache interface {
	GetDepartures(ctx context.Context) ([]domain.DepartureDetail, error)
	SetDepartures(ctx context.Context, departures []domain.DepartureDetail) error
}

type TourService struct {
	repo  repository.DepartureRepository
	cache Cache
}

func NewTourService(repo repository.DepartureRepository, cache Cache) *TourService {
	return &TourService{repo: repo, cache: cache}
}

func (s *TourService) ListDepartures(ctx context.Context) ([]domain.DepartureDetail, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetDepartures(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	departures, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetDepartures(ctx, departures)
	}
	return departures, nil
}

func (s *TourService) GetDeparture(ctx context.Context, id int64) (*domain.DepartureDetail, error) {
	return s.repo.GetDetailByID(ctx, id)
}

var _ TourUseCase = (*TourService)(nil)
