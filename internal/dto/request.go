package dto

import (
	"time"

	"github.com/fjellogfjord/booking-service/internal/models"
	"github.com/fjellogfjord/booking-service/internal/service"
)

type ParticipantRequest struct {
	Name           string `json:"navn" validate:"required"`
	Email          string `json:"epost" validate:"omitempty,email"`
	Phone          string `json:"telefon"`
	EmergencyName  string `json:"nodkontakt_navn"`
	EmergencyPhone string `json:"nodkontakt_telefon"`
}

// CreateBookingRequest is used by both public booking and waitlist join;
// the endpoint decides which queue the entry lands in.
type CreateBookingRequest struct {
	Name         string               `json:"navn" validate:"required"`
	Email        string               `json:"epost" validate:"required,email"`
	Phone        string               `json:"telefon"`
	Participants []ParticipantRequest `json:"participants" validate:"required,min=1,dive"`
}

func (r *CreateBookingRequest) ToInput(tourID uint) service.CreateBookingInput {
	return service.CreateBookingInput{
		TourID:       tourID,
		ContactName:  r.Name,
		ContactEmail: r.Email,
		ContactPhone: r.Phone,
		Participants: toParticipantInputs(r.Participants),
	}
}

type AdminBookingRequest struct {
	TourID       *uint                `json:"tour_id"`
	Type         string               `json:"type" validate:"omitempty,oneof=tur gavekort"`
	Status       string               `json:"status" validate:"required"`
	Name         string               `json:"navn" validate:"required"`
	Email        string               `json:"epost" validate:"required,email"`
	Phone        string               `json:"telefon"`
	Belop        float64              `json:"belop" validate:"gte=0"`
	Participants []ParticipantRequest `json:"participants" validate:"dive"`
}

func (r *AdminBookingRequest) ToInput() service.AdminBookingInput {
	return service.AdminBookingInput{
		TourID:       r.TourID,
		Type:         models.BookingType(r.Type),
		Status:       models.BookingStatus(r.Status),
		ContactName:  r.Name,
		ContactEmail: r.Email,
		ContactPhone: r.Phone,
		Belop:        r.Belop,
		Participants: toParticipantInputs(r.Participants),
	}
}

type TourRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Status      string    `json:"status" validate:"omitempty,oneof=draft published"`
	Price       float64   `json:"price" validate:"gte=0"`
	StartDate   time.Time `json:"start_date" validate:"required"`
	EndDate     time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
	TotalSeats  int       `json:"total_seats" validate:"required,gte=1"`
}

func (r *TourRequest) ToModel() *models.Tour {
	return &models.Tour{
		Title:       r.Title,
		Description: r.Description,
		Status:      models.TourStatus(r.Status),
		Price:       r.Price,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		TotalSeats:  r.TotalSeats,
	}
}

// PaymentWebhookRequest tolerates both reference id spellings the provider
// has used over time.
type PaymentWebhookRequest struct {
	ReferenceID      string `json:"reference_id"`
	ReferenceIDAlt   string `json:"referenceId"`
	Status           string `json:"status"`
	TransactionID    string `json:"transaction_id"`
	TransactionIDAlt string `json:"transactionId"`
}

func (r *PaymentWebhookRequest) Reference() string {
	if r.ReferenceID != "" {
		return r.ReferenceID
	}
	return r.ReferenceIDAlt
}

func (r *PaymentWebhookRequest) Transaction() string {
	if r.TransactionID != "" {
		return r.TransactionID
	}
	return r.TransactionIDAlt
}

func toParticipantInputs(reqs []ParticipantRequest) []service.ParticipantInput {
	inputs := make([]service.ParticipantInput, len(reqs))
	for i, p := range reqs {
		inputs[i] = service.ParticipantInput{
			Name:           p.Name,
			Email:          p.Email,
			Phone:          p.Phone,
			EmergencyName:  p.EmergencyName,
			EmergencyPhone: p.EmergencyPhone,
		}
	}
	return inputs
}
