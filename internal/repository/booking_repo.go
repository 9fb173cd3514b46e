package repository

import (
	"context"
	"time"

	"github.com/fjellogfjord/booking-service/internal/models"
	"gorm.io/gorm"
)

// ConfirmedCounts carries the confirmed booking and participant tallies for
// one tour. Bookings is needed separately from Participants because a tour
// with zero confirmed bookings falls back to its stored seat counter.
type ConfirmedCounts struct {
	Bookings     int64
	Participants int64
}

type BookingRepository interface {
	// Transaction runs fn inside a single database transaction. Booking and
	// participant writes share it, so a failed participant insert rolls the
	// booking back with it.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	FindByID(ctx context.Context, id uint) (*models.Booking, error)
	FindByTourID(ctx context.Context, tourID uint, status *models.BookingStatus) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.BookingStatus) error

	ConfirmedCounts(ctx context.Context, tx *gorm.DB, tourID uint) (ConfirmedCounts, error)
	ConfirmedCountsByTour(ctx context.Context, tourIDs []uint) (map[uint]ConfirmedCounts, error)

	FindWaitlist(ctx context.Context, tourID uint) ([]models.Booking, error)
	FindFirstWaitlisted(ctx context.Context, tx *gorm.DB, tourID uint) (*models.Booking, error)
	CountWaitlistAhead(ctx context.Context, tx *gorm.DB, booking *models.Booking) (int64, error)

	// Promote flips a waitlist entry into a held, unpaid reservation. The
	// status predicate makes it a no-op if the row is no longer waitlisted.
	Promote(ctx context.Context, tx *gorm.DB, id uint, expiresAt, notifiedAt time.Time) (int64, error)
	// MarkPaid records a completed payment. Re-running it for an already
	// paid booking changes nothing, which is what makes webhook replays safe.
	MarkPaid(ctx context.Context, id uint, transactionID string) error

	FindExpiredReservations(ctx context.Context, now time.Time) ([]models.Booking, error)
	DeleteWithParticipants(ctx context.Context, tx *gorm.DB, id uint) error
	TourIDsWithWaitlist(ctx context.Context) ([]uint, error)
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// dbOr returns the transaction handle when one is given, the root handle
// otherwise. Read paths outside a transaction pass nil.
func (r *bookingRepository) dbOr(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *bookingRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return r.dbOr(tx).WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).
		Preload("Participants").
		First(&booking, id).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByTourID(ctx context.Context, tourID uint, status *models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking
	q := r.db.WithContext(ctx).Preload("Participants").Where("tour_id = ?", tourID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	if err := q.Order("created_at ASC, id ASC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.BookingStatus) error {
	return r.dbOr(tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *bookingRepository) ConfirmedCounts(ctx context.Context, tx *gorm.DB, tourID uint) (ConfirmedCounts, error) {
	db := r.dbOr(tx).WithContext(ctx)
	var counts ConfirmedCounts

	err := db.Model(&models.Booking{}).
		Where("tour_id = ? AND type = ? AND status IN ?", tourID, models.TypeTur, models.ConfirmedStatuses).
		Count(&counts.Bookings).Error
	if err != nil {
		return counts, err
	}
	if counts.Bookings == 0 {
		return counts, nil
	}

	err = db.Model(&models.Participant{}).
		Joins("JOIN bookings ON bookings.id = participants.booking_id").
		Where("bookings.tour_id = ? AND bookings.type = ? AND bookings.status IN ?",
			tourID, models.TypeTur, models.ConfirmedStatuses).
		Count(&counts.Participants).Error
	return counts, err
}

// ConfirmedCountsByTour is the batch form used by the sweep to avoid N+1
// queries across touched tours.
func (r *bookingRepository) ConfirmedCountsByTour(ctx context.Context, tourIDs []uint) (map[uint]ConfirmedCounts, error) {
	result := make(map[uint]ConfirmedCounts, len(tourIDs))
	if len(tourIDs) == 0 {
		return result, nil
	}

	type row struct {
		TourID uint
		N      int64
	}

	var bookingRows []row
	err := r.db.WithContext(ctx).Model(&models.Booking{}).
		Select("tour_id, COUNT(*) AS n").
		Where("tour_id IN ? AND type = ? AND status IN ?", tourIDs, models.TypeTur, models.ConfirmedStatuses).
		Group("tour_id").
		Scan(&bookingRows).Error
	if err != nil {
		return nil, err
	}
	for _, b := range bookingRows {
		c := result[b.TourID]
		c.Bookings = b.N
		result[b.TourID] = c
	}

	var participantRows []row
	err = r.db.WithContext(ctx).Model(&models.Participant{}).
		Select("bookings.tour_id AS tour_id, COUNT(*) AS n").
		Joins("JOIN bookings ON bookings.id = participants.booking_id").
		Where("bookings.tour_id IN ? AND bookings.type = ? AND bookings.status IN ?",
			tourIDs, models.TypeTur, models.ConfirmedStatuses).
		Group("bookings.tour_id").
		Scan(&participantRows).Error
	if err != nil {
		return nil, err
	}
	for _, p := range participantRows {
		c := result[p.TourID]
		c.Participants = p.N
		result[p.TourID] = c
	}

	return result, nil
}

func (r *bookingRepository) FindWaitlist(ctx context.Context, tourID uint) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Preload("Participants").
		Where("tour_id = ? AND status = ?", tourID, models.StatusVenteliste).
		Order("created_at ASC, id ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindFirstWaitlisted returns the head of the waitlist queue. Ties on
// created_at break by id, so ordering is deterministic.
func (r *bookingRepository) FindFirstWaitlisted(ctx context.Context, tx *gorm.DB, tourID uint) (*models.Booking, error) {
	var booking models.Booking
	err := r.dbOr(tx).WithContext(ctx).
		Where("tour_id = ? AND status = ?", tourID, models.StatusVenteliste).
		Order("created_at ASC, id ASC").
		First(&booking).Error
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) CountWaitlistAhead(ctx context.Context, tx *gorm.DB, booking *models.Booking) (int64, error) {
	var count int64
	err := r.dbOr(tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("tour_id = ? AND status = ?", booking.TourID, models.StatusVenteliste).
		Where("created_at < ? OR (created_at = ? AND id < ?)",
			booking.CreatedAt, booking.CreatedAt, booking.ID).
		Count(&count).Error
	return count, err
}

func (r *bookingRepository) Promote(ctx context.Context, tx *gorm.DB, id uint, expiresAt, notifiedAt time.Time) (int64, error) {
	res := r.dbOr(tx).WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, models.StatusVenteliste).
		Updates(map[string]any{
			"status":                  models.StatusIkkeBetalt,
			"reservation_expires_at":  expiresAt,
			"reservation_notified_at": notifiedAt,
		})
	return res.RowsAffected, res.Error
}

func (r *bookingRepository) MarkPaid(ctx context.Context, id uint, transactionID string) error {
	updates := map[string]any{"status": models.StatusBetalt}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// FindExpiredReservations matches released-pool candidates only: unpaid
// holds (belop = 0) on a tour whose reservation window has passed. Genuine
// pending payments carry belop > 0 and are never returned.
func (r *bookingRepository) FindExpiredReservations(ctx context.Context, now time.Time) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND belop = 0 AND tour_id IS NOT NULL AND reservation_expires_at < ?",
			models.StatusIkkeBetalt, now).
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) DeleteWithParticipants(ctx context.Context, tx *gorm.DB, id uint) error {
	db := r.dbOr(tx).WithContext(ctx)
	if err := db.Where("booking_id = ?", id).Delete(&models.Participant{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Booking{}, id).Error
}

func (r *bookingRepository) TourIDsWithWaitlist(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Distinct("tour_id").
		Where("status = ? AND tour_id IS NOT NULL", models.StatusVenteliste).
		Pluck("tour_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
