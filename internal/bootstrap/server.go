package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/awesome-academy/booking-tour/api"
	"github.com/awesome-academy/booking-tour/config"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Bookings *api.BookingHandler
	Payments *api.PaymentHandler
	Tours    *api.TourHandler
}

// Run starts the HTTP server and blocks until ctx is canceled or the server
// fails.
func Run(ctx context.Context, cfg *config.Config, handlers Handlers) error {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	handlers.Bookings.Register(v1.Group("/bookings"))
	handlers.Payments.Register(v1.Group("/payments"))
	handlers.Tours.Register(v1.Group("/departures"))

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFS("/swagger", http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/booking-tour.swagger.json"),
		)))
	}

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
