package service

import (
	"context"
	"errors"

	"github.com/fjellogfjord/booking-service/internal/models"
	"github.com/fjellogfjord/booking-service/internal/repository"
	"gorm.io/gorm"
)

var ErrInvalidCapacity = errors.New("total_seats must be at least 1")

type TourService interface {
	CreateTour(ctx context.Context, tour *models.Tour) error
	UpdateTour(ctx context.Context, tour *models.Tour) (*models.Tour, error)
	DeleteTour(ctx context.Context, id uint) error
	GetTour(ctx context.Context, id uint) (*models.Tour, error)
	ListPublished(ctx context.Context) ([]models.Tour, error)
}

type tourService struct {
	repo repository.TourRepository
}

func NewTourService(repo repository.TourRepository) TourService {
	return &tourService{repo: repo}
}

func (s *tourService) CreateTour(ctx context.Context, tour *models.Tour) error {
	if tour.TotalSeats < 1 {
		return ErrInvalidCapacity
	}
	if tour.Status == "" {
		tour.Status = models.TourDraft
	}
	// Seed the counter; from here on only the capacity recompute writes it.
	tour.SeatsAvailable = tour.TotalSeats
	return s.repo.Create(ctx, tour)
}

func (s *tourService) UpdateTour(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	if tour.TotalSeats < 1 {
		return nil, ErrInvalidCapacity
	}

	existing, err := s.repo.FindByID(ctx, tour.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}

	// seats_available is never operator input.
	tour.SeatsAvailable = existing.SeatsAvailable
	tour.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, tour); err != nil {
		return nil, err
	}
	return tour, nil
}

func (s *tourService) DeleteTour(ctx context.Context, id uint) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTourNotFound
		}
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *tourService) GetTour(ctx context.Context, id uint) (*models.Tour, error) {
	tour, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return tour, nil
}

func (s *tourService) ListPublished(ctx context.Context) ([]models.Tour, error) {
	return s.repo.FindPublished(ctx)
}
