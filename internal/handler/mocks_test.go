package handler

import (
	"context"

	"github.com/fjellogfjord/booking-service/internal/models"
	"github.com/fjellogfjord/booking-service/internal/service"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// --- Mock BookingService ---

type mockBookingService struct {
	createFn         func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error)
	createAdminFn    func(ctx context.Context, in service.AdminBookingInput) (*models.Booking, error)
	joinWaitlistFn   func(ctx context.Context, in service.CreateBookingInput) (*models.Booking, int, error)
	confirmPaymentFn func(ctx context.Context, bookingID uint, transactionID string) (*models.Booking, error)
	cancelFn         func(ctx context.Context, bookingID uint) (*models.Booking, error)
	getFn            func(ctx context.Context, id uint) (*models.Booking, error)
	listFn           func(ctx context.Context, tourID uint, status *models.BookingStatus) ([]models.Booking, error)
	listWaitlistFn   func(ctx context.Context, tourID uint) ([]models.Booking, error)
}

func (m *mockBookingService) CreateBooking(ctx context.Context, in service.CreateBookingInput) (*models.Booking, error) {
	return m.createFn(ctx, in)
}
func (m *mockBookingService) CreateAdminBooking(ctx context.Context, in service.AdminBookingInput) (*models.Booking, error) {
	return m.createAdminFn(ctx, in)
}
func (m *mockBookingService) JoinWaitlist(ctx context.Context, in service.CreateBookingInput) (*models.Booking, int, error) {
	return m.joinWaitlistFn(ctx, in)
}
func (m *mockBookingService) ConfirmPayment(ctx context.Context, bookingID uint, transactionID string) (*models.Booking, error) {
	return m.confirmPaymentFn(ctx, bookingID, transactionID)
}
func (m *mockBookingService) CancelBooking(ctx context.Context, bookingID uint) (*models.Booking, error) {
	return m.cancelFn(ctx, bookingID)
}
func (m *mockBookingService) GetBooking(ctx context.Context, id uint) (*models.Booking, error) {
	return m.getFn(ctx, id)
}
func (m *mockBookingService) ListBookings(ctx context.Context, tourID uint, status *models.BookingStatus) ([]models.Booking, error) {
	return m.listFn(ctx, tourID, status)
}
func (m *mockBookingService) ListWaitlist(ctx context.Context, tourID uint) ([]models.Booking, error) {
	return m.listWaitlistFn(ctx, tourID)
}

// --- Mock TourService ---

type mockTourService struct {
	createFn        func(ctx context.Context, tour *models.Tour) error
	updateFn        func(ctx context.Context, tour *models.Tour) (*models.Tour, error)
	deleteFn        func(ctx context.Context, id uint) error
	getFn           func(ctx context.Context, id uint) (*models.Tour, error)
	listPublishedFn func(ctx context.Context) ([]models.Tour, error)
}

func (m *mockTourService) CreateTour(ctx context.Context, tour *models.Tour) error {
	return m.createFn(ctx, tour)
}
func (m *mockTourService) UpdateTour(ctx context.Context, tour *models.Tour) (*models.Tour, error) {
	return m.updateFn(ctx, tour)
}
func (m *mockTourService) DeleteTour(ctx context.Context, id uint) error {
	return m.deleteFn(ctx, id)
}
func (m *mockTourService) GetTour(ctx context.Context, id uint) (*models.Tour, error) {
	return m.getFn(ctx, id)
}
func (m *mockTourService) ListPublished(ctx context.Context) ([]models.Tour, error) {
	return m.listPublishedFn(ctx)
}

// --- Mock CapacityService ---

type mockCapacityService struct {
	availabilityFn func(ctx context.Context, tourID uint) (*service.Availability, error)
}

func (m *mockCapacityService) Availability(ctx context.Context, tourID uint) (*service.Availability, error) {
	return m.availabilityFn(ctx, tourID)
}
func (m *mockCapacityService) AvailabilityBatch(ctx context.Context, tourIDs []uint) (map[uint]service.Availability, error) {
	return nil, nil
}
func (m *mockCapacityService) AvailabilityTx(ctx context.Context, tx *gorm.DB, tour *models.Tour) (*service.Availability, error) {
	return m.availabilityFn(ctx, tour.ID)
}
func (m *mockCapacityService) Recompute(ctx context.Context, tx *gorm.DB, tour *models.Tour) (int, error) {
	return 0, nil
}

// --- Mock PromotionService ---

type mockPromotionService struct {
	promoteOnceFn func(ctx context.Context, tourID uint) (*service.PromotionResult, error)
}

func (m *mockPromotionService) PromoteOnce(ctx context.Context, tourID uint) (*service.PromotionResult, error) {
	return m.promoteOnceFn(ctx, tourID)
}
func (m *mockPromotionService) Drain(ctx context.Context, tourID uint) (int, error) {
	return 0, nil
}

// --- Mock SweepService ---

type mockSweepService struct {
	runFn func(ctx context.Context) (*service.SweepSummary, error)
}

func (m *mockSweepService) Run(ctx context.Context) (*service.SweepSummary, error) {
	return m.runFn(ctx)
}
