package models

import "time"

type TourStatus string

const (
	TourDraft     TourStatus = "draft"
	TourPublished TourStatus = "published"
)

type Tour struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Status      TourStatus `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Price       float64    `gorm:"not null" json:"price"`
	StartDate   time.Time  `gorm:"not null" json:"start_date"`
	EndDate     time.Time  `gorm:"not null" json:"end_date"`

	// TotalSeats is the tour's capacity, at least 1.
	TotalSeats int `gorm:"not null" json:"total_seats"`
	// SeatsAvailable is a denormalized cache of remaining capacity. It is
	// overwritten by the capacity recompute after every booking mutation and
	// must never be edited directly.
	SeatsAvailable int `gorm:"not null" json:"seats_available"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
