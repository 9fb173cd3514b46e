package main

import (
	"log"

	"github.com/fjellogfjord/booking-service/config"
	"github.com/fjellogfjord/booking-service/internal/handler"
	"github.com/fjellogfjord/booking-service/internal/middleware"
	"github.com/fjellogfjord/booking-service/internal/notification"
	"github.com/fjellogfjord/booking-service/internal/repository"
	"github.com/fjellogfjord/booking-service/internal/service"
	"github.com/fjellogfjord/booking-service/pkg/database"
	"github.com/fjellogfjord/booking-service/pkg/rabbitmq"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	db := database.NewPostgresDB(cfg.DSN())

	// Email goes out through RabbitMQ; without a broker the notifier is a
	// no-op and booking flows run unchanged.
	var notifier notification.Notifier = notification.NoopNotifier{}
	if cfg.RabbitURL != "" {
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Printf("RabbitMQ unavailable, notifications disabled: %v", err)
		} else {
			defer publisher.Close()
			notifier = notification.NewQueueNotifier(publisher)
		}
	}

	// Repositories
	tourRepo := repository.NewTourRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	// Services
	capacitySvc := service.NewCapacityService(tourRepo, bookingRepo)
	promotionSvc := service.NewPromotionService(tourRepo, bookingRepo, capacitySvc, notifier, cfg.ReservationTTL)
	bookingSvc := service.NewBookingService(tourRepo, bookingRepo, capacitySvc, promotionSvc, notifier)
	tourSvc := service.NewTourService(tourRepo)
	sweepSvc := service.NewSweepService(tourRepo, bookingRepo, capacitySvc, promotionSvc)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = handler.NewValidator()
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "tur-booking"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	handler.NewTourHandler(tourSvc, capacitySvc, promotionSvc).RegisterRoutes(e)
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e)
	handler.NewPaymentHandler(bookingSvc).RegisterRoutes(e)
	handler.NewSweepHandler(sweepSvc, handler.SweepAuth{
		Secret:              cfg.CronSecret,
		TrustPlatformHeader: cfg.TrustPlatformHeader,
	}).RegisterRoutes(e)

	log.Printf("Tour booking service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
