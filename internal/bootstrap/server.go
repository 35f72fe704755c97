package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dkravets/airreserve/api"
	"github.com/dkravets/airreserve/config"
	"github.com/dkravets/airreserve/internal/service/booking"
	"github.com/dkravets/airreserve/internal/service/offers"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Run assembles the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, offerSvc offers.OfferUseCase, bookingSvc booking.BookingUseCase) error {
	router := gin.New()
	router.Use(gin.Recovery())

	api.NewOfferHandler(offerSvc).Register(router.Group("/offers"))
	api.NewBookingHandler(bookingSvc).Register(router.Group("/bookings"))

	if cfg.HTTP.SwaggerDir != "" {
		fs := http.FileServer(http.Dir(cfg.HTTP.SwaggerDir))
		router.GET("/swagger/*filepath", gin.WrapH(http.StripPrefix("/swagger/", fs)))
		router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/api.swagger.json"),
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
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
