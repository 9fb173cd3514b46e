package service

import (
	"context"
	"errors"

	"github.com/fjellogfjord/booking-service/internal/models"
	"github.com/fjellogfjord/booking-service/internal/repository"
	"gorm.io/gorm"
)

var ErrTourNotFound = errors.New("tour not found")

// Availability is the computed seat picture for one tour. RemainingSeats
// is derived from confirmed bookings, never read back from the cached
// column (except for the zero-confirmed fallback below).
type Availability struct {
	TotalSeats     int `json:"totalSeats"`
	ConfirmedSeats int `json:"confirmedSeats"`
	RemainingSeats int `json:"remainingSeats"`
}

type CapacityService interface {
	Availability(ctx context.Context, tourID uint) (*Availability, error)
	AvailabilityBatch(ctx context.Context, tourIDs []uint) (map[uint]Availability, error)
	// AvailabilityTx computes availability for an already-loaded (and,
	// on mutation paths, row-locked) tour inside the caller's transaction.
	AvailabilityTx(ctx context.Context, tx *gorm.DB, tour *models.Tour) (*Availability, error)
	// Recompute overwrites the tour's denormalized seats_available with a
	// fresh derivation and returns the new remaining count. Every entry
	// point that mutates booking state calls this before committing.
	Recompute(ctx context.Context, tx *gorm.DB, tour *models.Tour) (int, error)
}

type capacityService struct {
	tourRepo    repository.TourRepository
	bookingRepo repository.BookingRepository
}

func NewCapacityService(tourRepo repository.TourRepository, bookingRepo repository.BookingRepository) CapacityService {
	return &capacityService{tourRepo: tourRepo, bookingRepo: bookingRepo}
}

// derive applies the capacity rule: participants of confirmed bookings
// consume seats. A tour with no confirmed bookings yet keeps its stored
// counter, so manually seeded values survive until the first payment.
func derive(tour *models.Tour, counts repository.ConfirmedCounts) Availability {
	a := Availability{
		TotalSeats:     tour.TotalSeats,
		ConfirmedSeats: int(counts.Participants),
	}
	if counts.Bookings == 0 {
		a.RemainingSeats = tour.SeatsAvailable
		return a
	}
	remaining := tour.TotalSeats - int(counts.Participants)
	if remaining < 0 {
		remaining = 0
	}
	a.RemainingSeats = remaining
	return a
}

func (s *capacityService) Availability(ctx context.Context, tourID uint) (*Availability, error) {
	tour, err := s.tourRepo.FindByID(ctx, tourID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTourNotFound
		}
		return nil, err
	}
	return s.AvailabilityTx(ctx, nil, tour)
}

func (s *capacityService) AvailabilityTx(ctx context.Context, tx *gorm.DB, tour *models.Tour) (*Availability, error) {
	counts, err := s.bookingRepo.ConfirmedCounts(ctx, tx, tour.ID)
	if err != nil {
		return nil, err
	}
	a := derive(tour, counts)
	return &a, nil
}

// AvailabilityBatch computes availability for many tours in two queries.
// The sweep uses it to avoid per-tour round trips.
func (s *capacityService) AvailabilityBatch(ctx context.Context, tourIDs []uint) (map[uint]Availability, error) {
	result := make(map[uint]Availability, len(tourIDs))
	if len(tourIDs) == 0 {
		return result, nil
	}

	tours, err := s.tourRepo.FindByIDs(ctx, tourIDs)
	if err != nil {
		return nil, err
	}
	counts, err := s.bookingRepo.ConfirmedCountsByTour(ctx, tourIDs)
	if err != nil {
		return nil, err
	}
	for i := range tours {
		tour := &tours[i]
		result[tour.ID] = derive(tour, counts[tour.ID])
	}
	return result, nil
}

func (s *capacityService) Recompute(ctx context.Context, tx *gorm.DB, tour *models.Tour) (int, error) {
	a, err := s.AvailabilityTx(ctx, tx, tour)
	if err != nil {
		return 0, err
	}
	if err := s.tourRepo.UpdateSeatsAvailable(ctx, tx, tour.ID, a.RemainingSeats); err != nil {
		return 0, err
	}
	tour.SeatsAvailable = a.RemainingSeats
	return a.RemainingSeats, nil
}
