package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/fjellogfjord/booking-service/internal/dto"
	"github.com/fjellogfjord/booking-service/internal/models"
	"github.com/fjellogfjord/booking-service/internal/service"
	"github.com/labstack/echo/v4"
)

type TourHandler struct {
	tours     service.TourService
	capacity  service.CapacityService
	promotion service.PromotionService
}

func NewTourHandler(tours service.TourService, capacity service.CapacityService, promotion service.PromotionService) *TourHandler {
	return &TourHandler{tours: tours, capacity: capacity, promotion: promotion}
}

func (h *TourHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/tours", h.ListTours)
	e.GET("/api/v1/tours/:id", h.GetTour)
	e.GET("/api/v1/tours/:id/availability", h.GetAvailability)

	admin := e.Group("/api/v1/admin")
	admin.POST("/tours", h.CreateTour)
	admin.PUT("/tours/:id", h.UpdateTour)
	admin.DELETE("/tours/:id", h.DeleteTour)
	admin.POST("/tours/:id/promote", h.PromoteOnce)
}

func (h *TourHandler) ListTours(c echo.Context) error {
	tours, err := h.tours.ListPublished(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tours)
}

func (h *TourHandler) GetTour(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	tour, err := h.tours.GetTour(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTourNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Turen finnes ikke")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, tour)
}

func (h *TourHandler) GetAvailability(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	avail, err := h.capacity.Availability(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTourNotFound) {
			return echo.NewHTTPError(http.StatusBadRequest, "Turen finnes ikke")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, avail)
}

func (h *TourHandler) CreateTour(c echo.Context) error {
	var req dto.TourRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tour := req.ToModel()
	if err := h.tours.CreateTour(c.Request().Context(), tour); err != nil {
		if errors.Is(err, service.ErrInvalidCapacity) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, tour)
}

func (h *TourHandler) UpdateTour(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req dto.TourRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tour := req.ToModel()
	tour.ID = id
	updated, err := h.tours.UpdateTour(c.Request().Context(), tour)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTourNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Turen finnes ikke")
		case errors.Is(err, service.ErrInvalidCapacity):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *TourHandler) DeleteTour(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.tours.DeleteTour(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrTourNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Turen finnes ikke")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// PromoteOnce is the manual promotion trigger: a single attempt to move the
// head of the waitlist into a held reservation.
func (h *TourHandler) PromoteOnce(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	result, err := h.promotion.PromoteOnce(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrTourNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Turen finnes ikke")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, dto.ToPromotionResponse(result))
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func parseStatus(c echo.Context) *models.BookingStatus {
	if s := c.QueryParam("status"); s != "" {
		bs := models.BookingStatus(s)
		return &bs
	}
	return nil
}
