package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fjellogfjord/booking-service/internal/models"
	"github.com/fjellogfjord/booking-service/internal/monitoring"
	"github.com/fjellogfjord/booking-service/internal/notification"
	"github.com/fjellogfjord/booking-service/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTourNotBookable  = errors.New("tour is not open for booking")
	ErrBookingNotFound  = errors.New("booking not found")
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	ErrNoParticipants   = errors.New("at least one participant is required")
	ErrTourSoldOut      = errors.New("tour is sold out")
	ErrInvalidStatus    = errors.New("invalid booking status")
)

// NotEnoughSeatsError is returned when the tour still has seats, just fewer
// than requested. Handlers use it to tell "only N left" apart from sold out.
type NotEnoughSeatsError struct {
	Requested int
	Remaining int
}

func (e *NotEnoughSeatsError) Error() string {
	return fmt.Sprintf("not enough seats: requested %d, only %d left", e.Requested, e.Remaining)
}

type ParticipantInput struct {
	Name           string
	Email          string
	Phone          string
	EmergencyName  string
	EmergencyPhone string
}

type CreateBookingInput struct {
	TourID       uint
	ContactName  string
	ContactEmail string
	ContactPhone string
	Participants []ParticipantInput
}

// AdminBookingInput is trusted operator input: the status is chosen
// directly and the seat check is skipped.
type AdminBookingInput struct {
	TourID       *uint
	Type         models.BookingType
	Status       models.BookingStatus
	ContactName  string
	ContactEmail string
	ContactPhone string
	Belop        float64
	Participants []ParticipantInput
}

type BookingService interface {
	CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error)
	CreateAdminBooking(ctx context.Context, in AdminBookingInput) (*models.Booking, error)
	JoinWaitlist(ctx context.Context, in CreateBookingInput) (*models.Booking, int, error)
	// ConfirmPayment marks a booking paid and recomputes its tour's seat
	// counter. Idempotent: replaying the same completed payment changes
	// nothing after the first call.
	ConfirmPayment(ctx context.Context, bookingID uint, transactionID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID uint) (*models.Booking, error)
	GetBooking(ctx context.Context, id uint) (*models.Booking, error)
	ListBookings(ctx context.Context, tourID uint, status *models.BookingStatus) ([]models.Booking, error)
	// ListWaitlist returns a tour's waitlist in promotion order.
	ListWaitlist(ctx context.Context, tourID uint) ([]models.Booking, error)
}

type bookingService struct {
	tourRepo    repository.TourRepository
	bookingRepo repository.BookingRepository
	capacity    CapacityService
	promotion   PromotionService
	notifier    notification.Notifier
}

func NewBookingService(
	tourRepo repository.TourRepository,
	bookingRepo repository.BookingRepository,
	capacity CapacityService,
	promotion PromotionService,
	notifier notification.Notifier,
) BookingService {
	return &bookingService{
		tourRepo:    tourRepo,
		bookingRepo: bookingRepo,
		capacity:    capacity,
		promotion:   promotion,
		notifier:    notifier,
	}
}

func toParticipants(inputs []ParticipantInput) []models.Participant {
	participants := make([]models.Participant, len(inputs))
	for i, p := range inputs {
		participants[i] = models.Participant{
			Name:           p.Name,
			Email:          p.Email,
			Phone:          p.Phone,
			EmergencyName:  p.EmergencyName,
			EmergencyPhone: p.EmergencyPhone,
		}
	}
	return participants
}

func (s *bookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*models.Booking, error) {
	if len(in.Participants) == 0 {
		return nil, ErrNoParticipants
	}

	var booking *models.Booking
	var tour *models.Tour

	err := s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
		// The row lock serializes concurrent bookings for the same tour, so
		// the availability check and the insert are atomic: two requests
		// racing for the last seat cannot both pass the check.
		var err error
		tour, err = s.tourRepo.FindByIDForUpdate(ctx, tx, in.TourID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTourNotFound
			}
			return err
		}
		if tour.Status != models.TourPublished {
			return ErrTourNotBookable
		}

		avail, err := s.capacity.AvailabilityTx(ctx, tx, tour)
		if err != nil {
			return err
		}
		requested := len(in.Participants)
		if avail.RemainingSeats <= 0 {
			return ErrTourSoldOut
		}
		if requested > avail.RemainingSeats {
			return &NotEnoughSeatsError{Requested: requested, Remaining: avail.RemainingSeats}
		}

		booking = &models.Booking{
			TourID:       &tour.ID,
			Type:         models.TypeTur,
			Status:       models.StatusIkkeBetalt,
			ContactName:  in.ContactName,
			ContactEmail: in.ContactEmail,
			ContactPhone: in.ContactPhone,
			Belop:        tour.Price * float64(requested),
			Participants: toParticipants(in.Participants),
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return err
		}

		_, err = s.capacity.Recompute(ctx, tx, tour)
		return err
	})
	if err != nil {
		return nil, err
	}

	monitoring.TrackBookingCreated(string(models.TypeTur), "public")
	s.notifyBookingReceived(ctx, tour, booking)
	return booking, nil
}

func (s *bookingService) CreateAdminBooking(ctx context.Context, in AdminBookingInput) (*models.Booking, error) {
	if !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if in.Type == "" {
		in.Type = models.TypeTur
	}

	booking := &models.Booking{
		TourID:       in.TourID,
		Type:         in.Type,
		Status:       in.Status,
		ContactName:  in.ContactName,
		ContactEmail: in.ContactEmail,
		ContactPhone: in.ContactPhone,
		Belop:        in.Belop,
		Participants: toParticipants(in.Participants),
	}

	err := s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
		if in.TourID == nil {
			return s.bookingRepo.Create(ctx, tx, booking)
		}

		tour, err := s.tourRepo.FindByIDForUpdate(ctx, tx, *in.TourID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTourNotFound
			}
			return err
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return err
		}
		_, err = s.capacity.Recompute(ctx, tx, tour)
		return err
	})
	if err != nil {
		return nil, err
	}

	monitoring.TrackBookingCreated(string(booking.Type), "admin")
	return booking, nil
}

func (s *bookingService) JoinWaitlist(ctx context.Context, in CreateBookingInput) (*models.Booking, int, error) {
	if len(in.Participants) == 0 {
		return nil, 0, ErrNoParticipants
	}

	var booking *models.Booking
	var tour *models.Tour
	position := 0

	err := s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		tour, err = s.tourRepo.FindByIDForUpdate(ctx, tx, in.TourID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTourNotFound
			}
			return err
		}
		if tour.Status != models.TourPublished {
			return ErrTourNotBookable
		}

		// Waitlist entries carry belop=0: that is what later marks a
		// promoted-but-never-paid hold as safe to delete.
		booking = &models.Booking{
			TourID:       &tour.ID,
			Type:         models.TypeTur,
			Status:       models.StatusVenteliste,
			ContactName:  in.ContactName,
			ContactEmail: in.ContactEmail,
			ContactPhone: in.ContactPhone,
			Belop:        0,
			Participants: toParticipants(in.Participants),
		}
		if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
			return err
		}

		ahead, err := s.bookingRepo.CountWaitlistAhead(ctx, tx, booking)
		if err != nil {
			return err
		}
		position = int(ahead) + 1

		_, err = s.capacity.Recompute(ctx, tx, tour)
		return err
	})
	if err != nil {
		return nil, 0, err
	}

	monitoring.TrackWaitlistJoin()
	s.notifyWaitlistJoined(ctx, tour, booking, position)
	return booking, position, nil
}

func (s *bookingService) ConfirmPayment(ctx context.Context, bookingID uint, transactionID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	alreadyPaid := booking.Status == models.StatusBetalt
	if err := s.bookingRepo.MarkPaid(ctx, bookingID, transactionID); err != nil {
		return nil, err
	}
	booking.Status = models.StatusBetalt
	if transactionID != "" {
		booking.TransactionID = transactionID
	}

	if booking.TourID != nil && booking.Type == models.TypeTur {
		err = s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
			tour, err := s.tourRepo.FindByIDForUpdate(ctx, tx, *booking.TourID)
			if err != nil {
				return err
			}
			_, err = s.capacity.Recompute(ctx, tx, tour)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	if !alreadyPaid {
		monitoring.TrackPaymentConfirmed()
	}
	return booking, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.Status == models.StatusKansellert {
		return nil, ErrAlreadyCancelled
	}

	freedSeats := booking.CountsTowardCapacity()

	err = s.bookingRepo.Transaction(ctx, func(tx *gorm.DB) error {
		var tour *models.Tour
		if booking.TourID != nil {
			var err error
			tour, err = s.tourRepo.FindByIDForUpdate(ctx, tx, *booking.TourID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if err := s.bookingRepo.UpdateStatus(ctx, tx, bookingID, models.StatusKansellert); err != nil {
			return err
		}
		if tour != nil {
			if _, err := s.capacity.Recompute(ctx, tx, tour); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	booking.Status = models.StatusKansellert

	// A cancelled confirmed booking frees seats, which is exactly what the
	// waitlist is queued up for.
	if freedSeats {
		if _, err := s.promotion.Drain(ctx, *booking.TourID); err != nil {
			return nil, err
		}
	}

	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return booking, nil
}

func (s *bookingService) ListBookings(ctx context.Context, tourID uint, status *models.BookingStatus) ([]models.Booking, error) {
	return s.bookingRepo.FindByTourID(ctx, tourID, status)
}

func (s *bookingService) ListWaitlist(ctx context.Context, tourID uint) ([]models.Booking, error) {
	return s.bookingRepo.FindWaitlist(ctx, tourID)
}

func (s *bookingService) notifyBookingReceived(ctx context.Context, tour *models.Tour, booking *models.Booking) {
	subject := fmt.Sprintf("Vi har mottatt din bestilling for %s", tour.Title)
	body := fmt.Sprintf(
		"<p>Hei %s,</p><p>Takk for din bestilling av <strong>%s</strong> for %d deltaker(e).</p>"+
			"<p>Bestillingen er registrert og plassen(e) bekreftes når betalingen er gjennomført.</p>",
		booking.ContactName, tour.Title, len(booking.Participants),
	)
	notification.BestEffort(ctx, s.notifier, booking.ContactEmail, subject, body)
}

func (s *bookingService) notifyWaitlistJoined(ctx context.Context, tour *models.Tour, booking *models.Booking, position int) {
	subject := fmt.Sprintf("Du står på venteliste for %s", tour.Title)
	body := fmt.Sprintf(
		"<p>Hei %s,</p><p>Du står nå på venteliste for <strong>%s</strong>. Din plass i køen: <strong>%d</strong>.</p>",
		booking.ContactName, tour.Title, position,
	)
	notification.BestEffort(ctx, s.notifier, booking.ContactEmail, subject, body)

	if position == 1 {
		subject = fmt.Sprintf("Du er først i køen for %s", tour.Title)
		body = fmt.Sprintf(
			"<p>Hei %s,</p><p>Du er først på ventelisten for <strong>%s</strong> og får beskjed så snart det blir ledig plass.</p>",
			booking.ContactName, tour.Title,
		)
		notification.BestEffort(ctx, s.notifier, booking.ContactEmail, subject, body)
	}
}
