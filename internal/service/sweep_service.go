package service

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/fjellogfjord/booking-service/internal/monitoring"
	"github.com/fjellogfjord/booking-service/internal/repository"
	"gorm.io/gorm"
)

type TourPromotions struct {
	TourID   uint `json:"tourId"`
	Promoted int  `json:"promoted"`
}

type SweepSummary struct {
	ExpiredReservationsDeleted int              `json:"expiredReservationsDeleted"`
	TotalPromoted              int              `json:"totalPromoted"`
	ToursTouched               []uint           `json:"toursTouched"`
	PerTour                    []TourPromotions `json:"perTour"`
}

// SweepService releases expired waitlist reservations back into the seat
// pool and refills the freed capacity from the waitlist. Running it again
// with no new expirations is a no-op.
type SweepService interface {
	Run(ctx context.Context) (*SweepSummary, error)
}

type sweepService struct {
	tourRepo    repository.TourRepository
	bookingRepo repository.BookingRepository
	capacity    CapacityService
	promotion   PromotionService
}

func NewSweepService(
	tourRepo repository.TourRepository,
	bookingRepo repository.BookingRepository,
	capacity CapacityService,
	promotion PromotionService,
) SweepService {
	return &sweepService{
		tourRepo:    tourRepo,
		bookingRepo: bookingRepo,
		capacity:    capacity,
		promotion:   promotion,
	}
}

func (s *sweepService) Run(ctx context.Context) (*SweepSummary, error) {
	summary := &SweepSummary{}
	now := time.Now()

	expired, err := s.bookingRepo.FindExpiredReservations(ctx, now)
	if err != nil {
		return nil, err
	}

	// Hard delete: an expired belop=0 hold was never paid for, so the row
	// and its participants are just a released slot.
	touched := make(map[uint]bool)
	for _, booking := range expired {
		b := booking
		err := s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
			return s.bookingRepo.DeleteWithParticipants(ctx, tx, b.ID)
		})
		if err != nil {
			log.Printf("[Sweep] failed to delete expired reservation %d: %v", b.ID, err)
			continue
		}
		summary.ExpiredReservationsDeleted++
		if b.TourID != nil {
			touched[*b.TourID] = true
		}
	}

	touchedIDs := sortedKeys(touched)
	if len(touchedIDs) > 0 {
		avail, err := s.capacity.AvailabilityBatch(ctx, touchedIDs)
		if err != nil {
			return nil, err
		}
		for id, a := range avail {
			if err := s.tourRepo.UpdateSeatsAvailable(ctx, nil, id, a.RemainingSeats); err != nil {
				log.Printf("[Sweep] failed to persist seat count for tour %d: %v", id, err)
			}
		}
	}

	// Freed seats can serve waitlists on tours beyond those touched above,
	// so drain every tour that currently has waitlist entries too.
	waitlisted, err := s.bookingRepo.TourIDsWithWaitlist(ctx)
	if err != nil {
		return nil, err
	}
	drainSet := make(map[uint]bool, len(touched)+len(waitlisted))
	for id := range touched {
		drainSet[id] = true
	}
	for _, id := range waitlisted {
		drainSet[id] = true
	}

	summary.ToursTouched = sortedKeys(drainSet)
	for _, tourID := range summary.ToursTouched {
		promoted, err := s.promotion.Drain(ctx, tourID)
		if err != nil {
			log.Printf("[Sweep] drain failed for tour %d: %v", tourID, err)
			continue
		}
		summary.TotalPromoted += promoted
		summary.PerTour = append(summary.PerTour, TourPromotions{TourID: tourID, Promoted: promoted})
	}

	monitoring.TrackSweep(summary.ExpiredReservationsDeleted)
	log.Printf("[Sweep] deleted %d expired reservations, promoted %d across %d tours",
		summary.ExpiredReservationsDeleted, summary.TotalPromoted, len(summary.ToursTouched))
	return summary, nil
}

func sortedKeys(set map[uint]bool) []uint {
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
