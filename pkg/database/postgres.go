package database

import (
	"log"

	"github.com/fjellogfjord/booking-service/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewPostgresDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Tour{}, &models.Booking{}, &models.Participant{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Waitlist reads are always "oldest venteliste entry for a tour"
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_waitlist_order
		ON bookings (tour_id, created_at, id)
		WHERE status = 'venteliste'
	`)

	// The sweep scans for expired unpaid holds
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_expired_reservations
		ON bookings (reservation_expires_at)
		WHERE status = 'ikke_betalt' AND belop = 0
	`)

	return db
}
