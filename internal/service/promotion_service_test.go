package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjellogfjord/booking-service/internal/models"
	"github.com/fjellogfjord/booking-service/internal/repository"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func waitlistEntry(id uint, tourID uint, name, email string, createdAt time.Time) models.Booking {
	tid := tourID
	return models.Booking{
		ID:           id,
		TourID:       &tid,
		Type:         models.TypeTur,
		Status:       models.StatusVenteliste,
		ContactName:  name,
		ContactEmail: email,
		Belop:        0,
		CreatedAt:    createdAt,
	}
}

func TestPromoteOnce_Success(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	head := waitlistEntry(5, 1, "Kari Nordmann", "kari@example.no", base)
	next := waitlistEntry(6, 1, "Ola Nordmann", "ola@example.no", base.Add(time.Hour))
	queue := []models.Booking{head, next}

	var promotedID uint
	var stampedExpiry time.Time

	tourRepo := &mockTourRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Tour, error) {
			return fjordTour(1, 2, 1), nil
		},
	}
	bookingRepo := &mockBookingRepo{
		confirmedCountsFn: func(ctx context.Context, tourID uint) (repository.ConfirmedCounts, error) {
			return repository.ConfirmedCounts{Bookings: 1, Participants: 1}, nil
		},
		findFirstWaitlistedFn: func(ctx context.Context, tourID uint) (*models.Booking, error) {
			if len(queue) == 0 {
				return nil, gorm.ErrRecordNotFound
			}
			b := queue[0]
			return &b, nil
		},
		promoteFn: func(ctx context.Context, id uint, expiresAt, notifiedAt time.Time) (int64, error) {
			promotedID = id
			stampedExpiry = expiresAt
			queue = queue[1:]
			return 1, nil
		},
	}
	notifier := &recordingNotifier{}

	svc := NewPromotionService(tourRepo, bookingRepo, NewCapacityService(tourRepo, bookingRepo), notifier, 48*time.Hour)
	result, err := svc.PromoteOnce(context.Background(), 1)

	assert.NoError(t, err)
	assert.True(t, result.Promoted)
	assert.Equal(t, uint(5), result.Booking.ID)
	assert.Equal(t, models.StatusIkkeBetalt, result.Booking.Status)
	assert.Equal(t, uint(5), promotedID)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), stampedExpiry, 5*time.Second)
	assert.NotNil(t, result.Booking.ReservationExpiresAt)
	assert.NotNil(t, result.Booking.ReservationNotifiedAt)

	// Promoted entrant gets the reservation mail, the new head gets the
	// first-in-line mail.
	assert.Len(t, notifier.sent, 2)
	assert.Equal(t, "kari@example.no", notifier.sent[0].To)
	assert.Equal(t, "ola@example.no", notifier.sent[1].To)
}

func TestPromoteOnce_SelectsEarliestCreated(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	oldest := waitlistEntry(9, 1, "Første", "forste@example.no", base)

	var promotedID uint
	tourRepo := &mockTourRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Tour, error) {
			return fjordTour(1, 5, 5), nil
		},
	}
	bookingRepo := &mockBookingRepo{
		confirmedCountsFn: func(ctx context.Context, tourID uint) (repository.ConfirmedCounts, error) {
			return repository.ConfirmedCounts{Bookings: 1, Participants: 2}, nil
		},
		findFirstWaitlistedFn: func(ctx context.Context, tourID uint) (*models.Booking, error) {
			// The accessor is responsible for FIFO order; the engine must
			// take whatever it returns as the head.
			b := oldest
			return &b, nil
		},
		promoteFn: func(ctx context.Context, id uint, expiresAt, notifiedAt time.Time) (int64, error) {
			promotedID = id
			return 1, nil
		},
	}

	svc := NewPromotionService(tourRepo, bookingRepo, NewCapacityService(tourRepo, bookingRepo), &recordingNotifier{}, 48*time.Hour)
	result, err := svc.PromoteOnce(context.Background(), 1)

	assert.NoError(t, err)
	assert.True(t, result.Promoted)
	assert.Equal(t, uint(9), promotedID)
}

func TestPromoteOnce_NoRemainingSeats(t *testing.T) {
	tourRepo := &mockTourRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Tour, error) {
			return fjordTour(1, 2, 0), nil
		},
	}
	bookingRepo := &mockBookingRepo{
		confirmedCountsFn: func(ctx context.Context, tourID uint) (repository.ConfirmedCounts, error) {
			return repository.ConfirmedCounts{Bookings: 2, Participants: 2}, nil
		},
		findFirstWaitlistedFn: func(ctx context.Context, tourID uint) (*models.Booking, error) {
			t.Fatal("waitlist must not be read when no seats remain")
			return nil, nil
		},
	}

	svc := NewPromotionService(tourRepo, bookingRepo, NewCapacityService(tourRepo, bookingRepo), &recordingNotifier{}, 48*time.Hour)
	result, err := svc.PromoteOnce(context.Background(), 1)

	assert.NoError(t, err)
	assert.False(t, result.Promoted)
	assert.Equal(t, ReasonNoRemainingSeats, result.Reason)
}

func TestPromoteOnce_EmptyWaitlist(t *testing.T) {
	tourRepo := &mockTourRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Tour, error) {
			return fjordTour(1, 10, 10), nil
		},
	}
	bookingRepo := &mockBookingRepo{
		confirmedCountsFn: func(ctx context.Context, tourID uint) (repository.ConfirmedCounts, error) {
			return repository.ConfirmedCounts{Bookings: 1, Participants: 2}, nil
		},
		findFirstWaitlistedFn: func(ctx context.Context, tourID uint) (*models.Booking, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}

	svc := NewPromotionService(tourRepo, bookingRepo, NewCapacityService(tourRepo, bookingRepo), &recordingNotifier{}, 48*time.Hour)
	result, err := svc.PromoteOnce(context.Background(), 1)

	assert.NoError(t, err)
	assert.False(t, result.Promoted)
	assert.Equal(t, ReasonNoWaitlist, result.Reason)
}

func TestPromoteOnce_HeadGoneBeforeUpdate(t *testing.T) {
	// The conditional UPDATE touches zero rows when the head entry left the
	// waitlist between the read and the write.
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	head := waitlistEntry(5, 1, "Kari", "kari@example.no", base)

	tourRepo := &mockTourRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Tour, error) {
			return fjordTour(1, 5, 5), nil
		},
	}
	bookingRepo := &mockBookingRepo{
		confirmedCountsFn: func(ctx context.Context, tourID uint) (repository.ConfirmedCounts, error) {
			return repository.ConfirmedCounts{Bookings: 1, Participants: 1}, nil
		},
		findFirstWaitlistedFn: func(ctx context.Context, tourID uint) (*models.Booking, error) {
			b := head
			return &b, nil
		},
		promoteFn: func(ctx context.Context, id uint, expiresAt, notifiedAt time.Time) (int64, error) {
			return 0, nil
		},
	}
	notifier := &recordingNotifier{}

	svc := NewPromotionService(tourRepo, bookingRepo, NewCapacityService(tourRepo, bookingRepo), notifier, 48*time.Hour)
	result, err := svc.PromoteOnce(context.Background(), 1)

	assert.NoError(t, err)
	assert.False(t, result.Promoted)
	assert.Equal(t, ReasonNoWaitlist, result.Reason)
	assert.Empty(t, notifier.sent)
}

func TestPromoteOnce_TourNotFound(t *testing.T) {
	tourRepo := &mockTourRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Tour, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	bookingRepo := &mockBookingRepo{}

	svc := NewPromotionService(tourRepo, bookingRepo, NewCapacityService(tourRepo, bookingRepo), &recordingNotifier{}, 48*time.Hour)
	_, err := svc.PromoteOnce(context.Background(), 99)

	assert.ErrorIs(t, err, ErrTourNotFound)
}

func TestPromoteOnce_NotificationFailureDoesNotRollBack(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	head := waitlistEntry(5, 1, "Kari", "kari@example.no", base)

	tourRepo := &mockTourRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Tour, error) {
			return fjordTour(1, 5, 5), nil
		},
	}
	bookingRepo := &mockBookingRepo{
		confirmedCountsFn: func(ctx context.Context, tourID uint) (repository.ConfirmedCounts, error) {
			return repository.ConfirmedCounts{Bookings: 1, Participants: 1}, nil
		},
		findFirstWaitlistedFn: func(ctx context.Context, tourID uint) (*models.Booking, error) {
			b := head
			return &b, nil
		},
	}
	notifier := &recordingNotifier{err: errors.New("smtp relay down")}

	svc := NewPromotionService(tourRepo, bookingRepo, NewCapacityService(tourRepo, bookingRepo), notifier, 48*time.Hour)
	result, err := svc.PromoteOnce(context.Background(), 1)

	assert.NoError(t, err)
	assert.True(t, result.Promoted)
}

func TestDrain_StopsWhenWaitlistEmpties(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	queue := []models.Booking{
		waitlistEntry(1, 1, "A", "a@example.no", base),
		waitlistEntry(2, 1, "B", "b@example.no", base.Add(time.Minute)),
		waitlistEntry(3, 1, "C", "c@example.no", base.Add(2*time.Minute)),
	}

	var order []uint
	tourRepo := &mockTourRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Tour, error) {
			return fjordTour(1, 10, 10), nil
		},
	}
	bookingRepo := &mockBookingRepo{
		confirmedCountsFn: func(ctx context.Context, tourID uint) (repository.ConfirmedCounts, error) {
			return repository.ConfirmedCounts{Bookings: 1, Participants: 4}, nil
		},
		findFirstWaitlistedFn: func(ctx context.Context, tourID uint) (*models.Booking, error) {
			if len(queue) == 0 {
				return nil, gorm.ErrRecordNotFound
			}
			b := queue[0]
			return &b, nil
		},
		promoteFn: func(ctx context.Context, id uint, expiresAt, notifiedAt time.Time) (int64, error) {
			order = append(order, id)
			queue = queue[1:]
			return 1, nil
		},
	}

	svc := NewPromotionService(tourRepo, bookingRepo, NewCapacityService(tourRepo, bookingRepo), &recordingNotifier{}, 48*time.Hour)
	promoted, err := svc.Drain(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 3, promoted)
	assert.Equal(t, []uint{1, 2, 3}, order)
}

func TestDrain_BoundedPerPass(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	calls := 0
	tourRepo := &mockTourRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Tour, error) {
			return fjordTour(1, 100, 100), nil
		},
	}
	bookingRepo := &mockBookingRepo{
		confirmedCountsFn: func(ctx context.Context, tourID uint) (repository.ConfirmedCounts, error) {
			return repository.ConfirmedCounts{Bookings: 1, Participants: 1}, nil
		},
		findFirstWaitlistedFn: func(ctx context.Context, tourID uint) (*models.Booking, error) {
			// A pathological backlog that never runs out.
			b := waitlistEntry(uint(calls+1), 1, "X", "x@example.no", base)
			return &b, nil
		},
		promoteFn: func(ctx context.Context, id uint, expiresAt, notifiedAt time.Time) (int64, error) {
			calls++
			return 1, nil
		},
	}

	svc := NewPromotionService(tourRepo, bookingRepo, NewCapacityService(tourRepo, bookingRepo), &recordingNotifier{}, 48*time.Hour)
	promoted, err := svc.Drain(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, maxPromotionsPerDrain, promoted)
}

func TestDrain_NoSeats(t *testing.T) {
	tourRepo := &mockTourRepo{
		findByIDFn: func(ctx context.Context, id uint) (*models.Tour, error) {
			return fjordTour(1, 1, 0), nil
		},
	}
	bookingRepo := &mockBookingRepo{
		confirmedCountsFn: func(ctx context.Context, tourID uint) (repository.ConfirmedCounts, error) {
			return repository.ConfirmedCounts{Bookings: 1, Participants: 1}, nil
		},
	}

	svc := NewPromotionService(tourRepo, bookingRepo, NewCapacityService(tourRepo, bookingRepo), &recordingNotifier{}, 48*time.Hour)
	promoted, err := svc.Drain(context.Background(), 1)

	assert.NoError(t, err)
	assert.Equal(t, 0, promoted)
}
