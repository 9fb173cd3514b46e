package models

import "time"

type BookingStatus string

// Booking statuses kept in Norwegian to match the payment provider and the
// admin dashboard vocabulary.
const (
	StatusBetalt       BookingStatus = "betalt"        // paid, consumes seats
	StatusDelvisBetalt BookingStatus = "delvis_betalt" // deposit paid, consumes seats
	StatusIkkeBetalt   BookingStatus = "ikke_betalt"   // unpaid / pending / held reservation
	StatusVenteliste   BookingStatus = "venteliste"    // waitlisted, FIFO by created_at
	StatusKansellert   BookingStatus = "kansellert"    // cancelled
)

// ConfirmedStatuses are the statuses whose participants consume capacity.
var ConfirmedStatuses = []BookingStatus{StatusBetalt, StatusDelvisBetalt}

func (s BookingStatus) Confirmed() bool {
	return s == StatusBetalt || s == StatusDelvisBetalt
}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusBetalt, StatusDelvisBetalt, StatusIkkeBetalt, StatusVenteliste, StatusKansellert:
		return true
	}
	return false
}

type BookingType string

const (
	TypeTur      BookingType = "tur"      // tour booking, counts against tour capacity
	TypeGavekort BookingType = "gavekort" // gift card purchase, no tour attached
)

type Booking struct {
	ID     uint          `gorm:"primaryKey" json:"id"`
	TourID *uint         `gorm:"index" json:"tour_id,omitempty"`
	Type   BookingType   `gorm:"type:varchar(20);not null;default:'tur'" json:"type"`
	Status BookingStatus `gorm:"type:varchar(20);not null;default:'ikke_betalt'" json:"status"`

	ContactName  string `gorm:"not null" json:"navn"`
	ContactEmail string `gorm:"not null" json:"epost"`
	ContactPhone string `json:"telefon"`

	Belop         float64 `gorm:"not null;default:0" json:"belop"`
	TransactionID string  `json:"transaction_id,omitempty"`

	// ReservationExpiresAt is set only when a waitlist entry is promoted into
	// a held, unpaid reservation. Expired belop=0 holds are released by the
	// sweep.
	ReservationExpiresAt  *time.Time `json:"reservation_expires_at,omitempty"`
	ReservationNotifiedAt *time.Time `json:"reservation_notified_at,omitempty"`

	// CreatedAt defines waitlist and promotion order.
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Participants []Participant `gorm:"constraint:OnDelete:CASCADE" json:"participants,omitempty"`
	Tour         *Tour         `gorm:"foreignKey:TourID" json:"tour,omitempty"`
}

// CountsTowardCapacity reports whether this booking's participants consume
// seats on its tour.
func (b *Booking) CountsTowardCapacity() bool {
	return b.TourID != nil && b.Type == TypeTur && b.Status.Confirmed()
}

// Participant is one seat on a tour. Each participant row consumes exactly
// one seat; the booking row itself consumes none.
type Participant struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	BookingID uint   `gorm:"not null;index" json:"booking_id"`
	Name      string `gorm:"not null" json:"navn"`
	Email     string `json:"epost"`
	Phone     string `json:"telefon"`

	EmergencyName  string `json:"nodkontakt_navn"`
	EmergencyPhone string `json:"nodkontakt_telefon"`

	CreatedAt time.Time `json:"created_at"`
}
