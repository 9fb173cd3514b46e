package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fjellogfjord/booking-service/internal/dto"
	"github.com/fjellogfjord/booking-service/internal/service"
	"github.com/labstack/echo/v4"
)

// paymentStatusCompleted is the only provider event we act on; everything
// else is acknowledged and ignored.
const paymentStatusCompleted = "COMPLETED"

type PaymentHandler struct {
	svc service.BookingService
}

func NewPaymentHandler(svc service.BookingService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/v1/payments/webhook", h.HandleWebhook)
}

func (h *PaymentHandler) HandleWebhook(c echo.Context) error {
	var req dto.PaymentWebhookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid webhook payload")
	}

	reference := req.Reference()
	if reference == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing reference id")
	}

	if req.Status != paymentStatusCompleted {
		return c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
	}

	bookingID, err := strconv.ParseUint(reference, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid reference id")
	}

	if _, err := h.svc.ConfirmPayment(c.Request().Context(), uint(bookingID), req.Transaction()); err != nil {
		if errors.Is(err, service.ErrBookingNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to process payment event")
	}

	return c.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}
