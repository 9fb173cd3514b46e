package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjellogfjord/booking-service/internal/models"
	"github.com/fjellogfjord/booking-service/internal/repository"
	"gorm.io/gorm"
)

// --- Mock TourRepository ---

type mockTourRepo struct {
	createFn        func(ctx context.Context, tour *models.Tour) error
	updateFn        func(ctx context.Context, tour *models.Tour) error
	deleteFn        func(ctx context.Context, id uint) error
	findByIDFn      func(ctx context.Context, id uint) (*models.Tour, error)
	findByIDsFn     func(ctx context.Context, ids []uint) ([]models.Tour, error)
	findPublishedFn func(ctx context.Context) ([]models.Tour, error)
	updateSeatsFn   func(ctx context.Context, id uint, seats int) error
}

func (m *mockTourRepo) Create(ctx context.Context, tour *models.Tour) error {
	if m.createFn != nil {
		return m.createFn(ctx, tour)
	}
	return nil
}

func (m *mockTourRepo) Update(ctx context.Context, tour *models.Tour) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, tour)
	}
	return nil
}

func (m *mockTourRepo) Delete(ctx context.Context, id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockTourRepo) FindByID(ctx context.Context, id uint) (*models.Tour, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockTourRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Tour, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockTourRepo) FindByIDs(ctx context.Context, ids []uint) ([]models.Tour, error) {
	return m.findByIDsFn(ctx, ids)
}

func (m *mockTourRepo) FindPublished(ctx context.Context) ([]models.Tour, error) {
	return m.findPublishedFn(ctx)
}

func (m *mockTourRepo) UpdateSeatsAvailable(ctx context.Context, tx *gorm.DB, id uint, seats int) error {
	if m.updateSeatsFn != nil {
		return m.updateSeatsFn(ctx, id, seats)
	}
	return nil
}

// --- Mock BookingRepository ---

type mockBookingRepo struct {
	createFn              func(ctx context.Context, booking *models.Booking) error
	findByIDFn            func(ctx context.Context, id uint) (*models.Booking, error)
	findByTourIDFn        func(ctx context.Context, tourID uint, status *models.BookingStatus) ([]models.Booking, error)
	updateStatusFn        func(ctx context.Context, id uint, status models.BookingStatus) error
	confirmedCountsFn     func(ctx context.Context, tourID uint) (repository.ConfirmedCounts, error)
	confirmedByTourFn     func(ctx context.Context, tourIDs []uint) (map[uint]repository.ConfirmedCounts, error)
	findWaitlistFn        func(ctx context.Context, tourID uint) ([]models.Booking, error)
	findFirstWaitlistedFn func(ctx context.Context, tourID uint) (*models.Booking, error)
	countWaitlistAheadFn  func(ctx context.Context, booking *models.Booking) (int64, error)
	promoteFn             func(ctx context.Context, id uint, expiresAt, notifiedAt time.Time) (int64, error)
	markPaidFn            func(ctx context.Context, id uint, transactionID string) error
	findExpiredFn         func(ctx context.Context, now time.Time) ([]models.Booking, error)
	deleteFn              func(ctx context.Context, id uint) error
	tourIDsWithWaitlistFn func(ctx context.Context) ([]uint, error)
}

func (m *mockBookingRepo) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (m *mockBookingRepo) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	if m.createFn != nil {
		return m.createFn(ctx, booking)
	}
	return nil
}

func (m *mockBookingRepo) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	return m.findByIDFn(ctx, id)
}

func (m *mockBookingRepo) FindByTourID(ctx context.Context, tourID uint, status *models.BookingStatus) ([]models.Booking, error) {
	return m.findByTourIDFn(ctx, tourID, status)
}

func (m *mockBookingRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.BookingStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockBookingRepo) ConfirmedCounts(ctx context.Context, tx *gorm.DB, tourID uint) (repository.ConfirmedCounts, error) {
	if m.confirmedCountsFn != nil {
		return m.confirmedCountsFn(ctx, tourID)
	}
	return repository.ConfirmedCounts{}, nil
}

func (m *mockBookingRepo) ConfirmedCountsByTour(ctx context.Context, tourIDs []uint) (map[uint]repository.ConfirmedCounts, error) {
	if m.confirmedByTourFn != nil {
		return m.confirmedByTourFn(ctx, tourIDs)
	}
	return map[uint]repository.ConfirmedCounts{}, nil
}

func (m *mockBookingRepo) FindWaitlist(ctx context.Context, tourID uint) ([]models.Booking, error) {
	return m.findWaitlistFn(ctx, tourID)
}

func (m *mockBookingRepo) FindFirstWaitlisted(ctx context.Context, tx *gorm.DB, tourID uint) (*models.Booking, error) {
	if m.findFirstWaitlistedFn != nil {
		return m.findFirstWaitlistedFn(ctx, tourID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockBookingRepo) CountWaitlistAhead(ctx context.Context, tx *gorm.DB, booking *models.Booking) (int64, error) {
	if m.countWaitlistAheadFn != nil {
		return m.countWaitlistAheadFn(ctx, booking)
	}
	return 0, nil
}

func (m *mockBookingRepo) Promote(ctx context.Context, tx *gorm.DB, id uint, expiresAt, notifiedAt time.Time) (int64, error) {
	if m.promoteFn != nil {
		return m.promoteFn(ctx, id, expiresAt, notifiedAt)
	}
	return 1, nil
}

func (m *mockBookingRepo) MarkPaid(ctx context.Context, id uint, transactionID string) error {
	if m.markPaidFn != nil {
		return m.markPaidFn(ctx, id, transactionID)
	}
	return nil
}

func (m *mockBookingRepo) FindExpiredReservations(ctx context.Context, now time.Time) ([]models.Booking, error) {
	if m.findExpiredFn != nil {
		return m.findExpiredFn(ctx, now)
	}
	return nil, nil
}

func (m *mockBookingRepo) DeleteWithParticipants(ctx context.Context, tx *gorm.DB, id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockBookingRepo) TourIDsWithWaitlist(ctx context.Context) ([]uint, error) {
	if m.tourIDsWithWaitlistFn != nil {
		return m.tourIDsWithWaitlistFn(ctx)
	}
	return nil, nil
}

// --- Mock PromotionService ---

type mockPromotionService struct {
	promoteOnceFn func(ctx context.Context, tourID uint) (*PromotionResult, error)
	drainFn       func(ctx context.Context, tourID uint) (int, error)
}

func (m *mockPromotionService) PromoteOnce(ctx context.Context, tourID uint) (*PromotionResult, error) {
	return m.promoteOnceFn(ctx, tourID)
}

func (m *mockPromotionService) Drain(ctx context.Context, tourID uint) (int, error) {
	if m.drainFn != nil {
		return m.drainFn(ctx, tourID)
	}
	return 0, nil
}

// --- Recording notifier ---

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{To: to, Subject: subject, Body: htmlBody})
	return nil
}
