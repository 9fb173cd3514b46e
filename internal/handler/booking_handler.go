package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/fjellogfjord/booking-service/internal/dto"
	"github.com/fjellogfjord/booking-service/internal/service"
	"github.com/labstack/echo/v4"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(e *echo.Echo) {
	tours := e.Group("/api/v1/tours")
	tours.POST("/:id/bookings", h.CreateBooking)
	tours.POST("/:id/waitlist", h.JoinWaitlist)
	tours.GET("/:id/waitlist", h.ListWaitlist)
	tours.GET("/:id/bookings", h.ListBookings)

	e.GET("/api/v1/bookings/:id", h.GetBooking)
	e.DELETE("/api/v1/bookings/:id", h.CancelBooking)

	e.POST("/api/v1/admin/bookings", h.CreateAdminBooking)
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	tourID, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), req.ToInput(tourID))
	if err != nil {
		var notEnough *service.NotEnoughSeatsError
		switch {
		case errors.Is(err, service.ErrTourNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Turen finnes ikke")
		case errors.Is(err, service.ErrTourNotBookable):
			return echo.NewHTTPError(http.StatusBadRequest, "Turen er ikke åpen for bestilling")
		case errors.Is(err, service.ErrTourSoldOut):
			// Sold out gets its own message so the client can offer the
			// waitlist instead.
			return echo.NewHTTPError(http.StatusConflict, "Turen er fullbooket. Du kan sette deg på venteliste.")
		case errors.As(err, &notEnough):
			return echo.NewHTTPError(http.StatusConflict,
				fmt.Sprintf("Det er kun %d plass(er) igjen på denne turen", notEnough.Remaining))
		case errors.Is(err, service.ErrNoParticipants):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Noe gikk galt, prøv igjen senere")
		}
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) JoinWaitlist(c echo.Context) error {
	tourID, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	booking, position, err := h.svc.JoinWaitlist(c.Request().Context(), req.ToInput(tourID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTourNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Turen finnes ikke")
		case errors.Is(err, service.ErrTourNotBookable):
			return echo.NewHTTPError(http.StatusBadRequest, "Turen er ikke åpen for bestilling")
		case errors.Is(err, service.ErrNoParticipants):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Noe gikk galt, prøv igjen senere")
		}
	}

	return c.JSON(http.StatusCreated, dto.WaitlistJoinResponse{
		Booking:  dto.ToBookingResponse(booking),
		Position: position,
	})
}

func (h *BookingHandler) CreateAdminBooking(c echo.Context) error {
	var req dto.AdminBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	booking, err := h.svc.CreateAdminBooking(c.Request().Context(), req.ToInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTourNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Turen finnes ikke")
		case errors.Is(err, service.ErrInvalidStatus):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Bestillingen finnes ikke")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	booking, err := h.svc.CancelBooking(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBookingNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Bestillingen finnes ikke")
		case errors.Is(err, service.ErrAlreadyCancelled):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

// ListWaitlist exposes the queue in promotion order, with each entry's
// position.
func (h *BookingHandler) ListWaitlist(c echo.Context) error {
	tourID, err := parseID(c)
	if err != nil {
		return err
	}

	entries, err := h.svc.ListWaitlist(c.Request().Context(), tourID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.WaitlistJoinResponse, len(entries))
	for i, b := range entries {
		resp[i] = dto.WaitlistJoinResponse{
			Booking:  dto.ToBookingResponse(&b),
			Position: i + 1,
		}
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) ListBookings(c echo.Context) error {
	tourID, err := parseID(c)
	if err != nil {
		return err
	}

	bookings, err := h.svc.ListBookings(c.Request().Context(), tourID, parseStatus(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}
	return c.JSON(http.StatusOK, resp)
}
