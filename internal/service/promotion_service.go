package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fjellogfjord/booking-service/internal/models"
	"github.com/fjellogfjord/booking-service/internal/monitoring"
	"github.com/fjellogfjord/booking-service/internal/notification"
	"github.com/fjellogfjord/booking-service/internal/repository"
	"gorm.io/gorm"
)

// maxPromotionsPerDrain bounds a single drain pass so a pathological
// backlog can never keep a request handler looping.
const maxPromotionsPerDrain = 50

const (
	ReasonNoRemainingSeats = "no_remaining_seats"
	ReasonNoWaitlist       = "no_waitlist"
)

type PromotionResult struct {
	Promoted            bool
	Reason              string
	Booking             *models.Booking
	RemainingSeatsAfter int
}

type PromotionService interface {
	// PromoteOnce moves the head of the tour's waitlist into a held, unpaid
	// reservation with an expiry window. The hold does not consume capacity;
	// only payment does.
	PromoteOnce(ctx context.Context, tourID uint) (*PromotionResult, error)
	// Drain repeats PromoteOnce until no seats remain, the waitlist is
	// empty, or the per-pass bound is reached. Returns promotions performed.
	Drain(ctx context.Context, tourID uint) (int, error)
}

type promotionService struct {
	tourRepo       repository.TourRepository
	bookingRepo    repository.BookingRepository
	capacity       CapacityService
	notifier       notification.Notifier
	reservationTTL time.Duration
}

func NewPromotionService(
	tourRepo repository.TourRepository,
	bookingRepo repository.BookingRepository,
	capacity CapacityService,
	notifier notification.Notifier,
	reservationTTL time.Duration,
) PromotionService {
	return &promotionService{
		tourRepo:       tourRepo,
		bookingRepo:    bookingRepo,
		capacity:       capacity,
		notifier:       notifier,
		reservationTTL: reservationTTL,
	}
}

func (s *promotionService) PromoteOnce(ctx context.Context, tourID uint) (*PromotionResult, error) {
	result := &PromotionResult{}
	var tour *models.Tour
	var nextHead *models.Booking

	err := s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		tour, err = s.tourRepo.FindByIDForUpdate(ctx, tx, tourID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTourNotFound
			}
			return err
		}

		avail, err := s.capacity.AvailabilityTx(ctx, tx, tour)
		if err != nil {
			return err
		}
		if avail.RemainingSeats <= 0 {
			result.Reason = ReasonNoRemainingSeats
			return nil
		}

		head, err := s.bookingRepo.FindFirstWaitlisted(ctx, tx, tourID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				result.Reason = ReasonNoWaitlist
				return nil
			}
			return err
		}

		now := time.Now()
		expires := now.Add(s.reservationTTL)
		affected, err := s.bookingRepo.Promote(ctx, tx, head.ID, expires, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			// The row left the waitlist between the read and the update.
			result.Reason = ReasonNoWaitlist
			return nil
		}

		head.Status = models.StatusIkkeBetalt
		head.ReservationExpiresAt = &expires
		head.ReservationNotifiedAt = &now

		// Promotion itself does not change confirmed capacity, but every
		// booking-state mutation recomputes the cached counter anyway.
		remaining, err := s.capacity.Recompute(ctx, tx, tour)
		if err != nil {
			return err
		}

		result.Promoted = true
		result.Booking = head
		result.RemainingSeatsAfter = remaining

		if nh, err := s.bookingRepo.FindFirstWaitlisted(ctx, tx, tourID); err == nil {
			nextHead = nh
		}
		return nil
	})
	if err != nil {
		monitoring.TrackPromotion("error")
		return nil, err
	}

	if result.Promoted {
		monitoring.TrackPromotion("promoted")
		s.notifyPromoted(ctx, tour, result.Booking)
		if nextHead != nil {
			s.notifyFirstInLine(ctx, tour, nextHead)
		}
	} else {
		monitoring.TrackPromotion(result.Reason)
	}

	return result, nil
}

func (s *promotionService) Drain(ctx context.Context, tourID uint) (int, error) {
	promoted := 0
	for i := 0; i < maxPromotionsPerDrain; i++ {
		result, err := s.PromoteOnce(ctx, tourID)
		if err != nil {
			return promoted, err
		}
		if !result.Promoted {
			break
		}
		promoted++
	}
	if promoted > 0 {
		log.Printf("[Promotion] tour %d: promoted %d from waitlist", tourID, promoted)
	}
	return promoted, nil
}

func (s *promotionService) notifyPromoted(ctx context.Context, tour *models.Tour, booking *models.Booking) {
	deadline := booking.ReservationExpiresAt.Format("02.01.2006 15:04")
	subject := fmt.Sprintf("Det er ledig plass på %s!", tour.Title)
	body := fmt.Sprintf(
		"<p>Hei %s,</p><p>Det har blitt ledig plass på <strong>%s</strong>, og plassen er nå reservert for deg.</p>"+
			"<p>Fullfør betalingen innen <strong>%s</strong>, ellers går plassen videre til nestemann på ventelisten.</p>",
		booking.ContactName, tour.Title, deadline,
	)
	notification.BestEffort(ctx, s.notifier, booking.ContactEmail, subject, body)
}

func (s *promotionService) notifyFirstInLine(ctx context.Context, tour *models.Tour, booking *models.Booking) {
	subject := fmt.Sprintf("Du er nå først i køen for %s", tour.Title)
	body := fmt.Sprintf(
		"<p>Hei %s,</p><p>Du er nå først på ventelisten for <strong>%s</strong>. "+
			"Du får beskjed så snart det blir ledig plass.</p>",
		booking.ContactName, tour.Title,
	)
	notification.BestEffort(ctx, s.notifier, booking.ContactEmail, subject, body)
}
