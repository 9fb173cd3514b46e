package dto

import (
	"time"

	"github.com/fjellogfjord/booking-service/internal/models"
	"github.com/fjellogfjord/booking-service/internal/service"
)

type BookingResponse struct {
	ID                   uint                 `json:"id"`
	TourID               *uint                `json:"tour_id,omitempty"`
	Type                 models.BookingType   `json:"type"`
	Status               models.BookingStatus `json:"status"`
	Name                 string               `json:"navn"`
	Email                string               `json:"epost"`
	Phone                string               `json:"telefon,omitempty"`
	Belop                float64              `json:"belop"`
	ParticipantCount     int                  `json:"participant_count"`
	ReservationExpiresAt *time.Time           `json:"reservation_expires_at,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:                   b.ID,
		TourID:               b.TourID,
		Type:                 b.Type,
		Status:               b.Status,
		Name:                 b.ContactName,
		Email:                b.ContactEmail,
		Phone:                b.ContactPhone,
		Belop:                b.Belop,
		ParticipantCount:     len(b.Participants),
		ReservationExpiresAt: b.ReservationExpiresAt,
		CreatedAt:            b.CreatedAt,
	}
}

type WaitlistJoinResponse struct {
	Booking  BookingResponse `json:"booking"`
	Position int             `json:"position"`
}

type PromotionResponse struct {
	Promoted  bool   `json:"promoted"`
	BookingID uint   `json:"bookingId,omitempty"`
	Name      string `json:"navn,omitempty"`
	Email     string `json:"epost,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func ToPromotionResponse(r *service.PromotionResult) PromotionResponse {
	resp := PromotionResponse{Promoted: r.Promoted, Reason: r.Reason}
	if r.Booking != nil {
		resp.BookingID = r.Booking.ID
		resp.Name = r.Booking.ContactName
		resp.Email = r.Booking.ContactEmail
	}
	return resp
}

type SweepResponse struct {
	OK                         bool                     `json:"ok"`
	ExpiredReservationsDeleted int                      `json:"expiredReservationsDeleted"`
	TotalPromoted              int                      `json:"totalPromoted"`
	ToursTouched               []uint                   `json:"toursTouched"`
	PerTour                    []service.TourPromotions `json:"perTour"`
}

func ToSweepResponse(s *service.SweepSummary) SweepResponse {
	return SweepResponse{
		OK:                         true,
		ExpiredReservationsDeleted: s.ExpiredReservationsDeleted,
		TotalPromoted:              s.TotalPromoted,
		ToursTouched:               s.ToursTouched,
		PerTour:                    s.PerTour,
	}
}

type WebhookResponse struct {
	Received bool `json:"received"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}
