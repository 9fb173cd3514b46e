package repository

import (
	"context"

	"github.com/fjellogfjord/booking-service/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type TourRepository interface {
	Create(ctx context.Context, tour *models.Tour) error
	Update(ctx context.Context, tour *models.Tour) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*models.Tour, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Tour, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Tour, error)
	FindPublished(ctx context.Context) ([]models.Tour, error)
	UpdateSeatsAvailable(ctx context.Context, tx *gorm.DB, id uint, seats int) error
}

type tourRepository struct {
	db *gorm.DB
}

func NewTourRepository(db *gorm.DB) TourRepository {
	return &tourRepository{db: db}
}

func (r *tourRepository) Create(ctx context.Context, tour *models.Tour) error {
	return r.db.WithContext(ctx).Create(tour).Error
}

func (r *tourRepository) Update(ctx context.Context, tour *models.Tour) error {
	return r.db.WithContext(ctx).Save(tour).Error
}

func (r *tourRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Tour{}, id).Error
}

func (r *tourRepository) FindByID(ctx context.Context, id uint) (*models.Tour, error) {
	var tour models.Tour
	if err := r.db.WithContext(ctx).First(&tour, id).Error; err != nil {
		return nil, err
	}
	return &tour, nil
}

// FindByIDForUpdate acquires a row-level lock on the tour within the given
// transaction. All capacity-sensitive mutations take this lock first, which
// serializes concurrent bookings for the same tour.
func (r *tourRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint) (*models.Tour, error) {
	var tour models.Tour
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tour, id).Error; err != nil {
		return nil, err
	}
	return &tour, nil
}

func (r *tourRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Tour, error) {
	var tours []models.Tour
	if len(ids) == 0 {
		return tours, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

func (r *tourRepository) FindPublished(ctx context.Context) ([]models.Tour, error) {
	var tours []models.Tour
	err := r.db.WithContext(ctx).
		Where("status = ?", models.TourPublished).
		Order("start_date ASC").
		Find(&tours).Error
	if err != nil {
		return nil, err
	}
	return tours, nil
}

// UpdateSeatsAvailable overwrites the denormalized seat counter. Only the
// capacity recompute calls this; nothing else writes the column.
func (r *tourRepository) UpdateSeatsAvailable(ctx context.Context, tx *gorm.DB, id uint, seats int) error {
	db := tx
	if db == nil {
		db = r.db
	}
	return db.WithContext(ctx).
		Model(&models.Tour{}).
		Where("id = ?", id).
		Update("seats_available", seats).Error
}
