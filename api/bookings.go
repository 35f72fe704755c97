package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dkravets/airreserve/internal/domain"
	"github.com/dkravets/airreserve/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	TravelerID    int64  `json:"traveler_id"`
	TravelerEmail string `json:"traveler_email"`
	PassengerName string `json:"passenger_name"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	TravelClass   string `json:"travel_class"`
	Date          string `json:"date"`
	Adults        int    `json:"adults"`
	Children      int    `json:"children"`
	Infants       int    `json:"infants"`
	AsPending     bool   `json:"as_pending"`
}

type bookingResponse struct {
	ID               int64  `json:"id"`
	ConfirmationCode string `json:"confirmation_code"`
	Status           string `json:"status"`
	OfferID          int64  `json:"offer_id"`
	TravelerID       int64  `json:"traveler_id"`
	PassengerName    string `json:"passenger_name"`
	Adults           int    `json:"adults"`
	Children         int    `json:"children"`
	Infants          int    `json:"infants"`
	TotalPrice       int64  `json:"total_price"`
	BookingDate      string `json:"booking_date"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/code/:code", h.getByCode)
	router.GET("/traveler/:travelerID", h.listByTraveler)
	router.PUT("/:id/confirm", h.confirm)
	router.PUT("/:id/cancel", h.cancel)
	router.PUT("/:id/complete", h.complete)
	router.DELETE("/:id", h.remove)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		TravelerID:    req.TravelerID,
		TravelerEmail: req.TravelerEmail,
		PassengerName: req.PassengerName,
		Origin:        req.Origin,
		Destination:   req.Destination,
		Class:         domain.TravelClass(req.TravelClass),
		Date:          date,
		Adults:        req.Adults,
		Children:      req.Children,
		Infants:       req.Infants,
		AsPending:     req.AsPending,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) getByCode(c *gin.Context) {
	found, err := h.service.GetByConfirmationCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(found))
}

func (h *BookingHandler) listByTraveler(c *gin.Context) {
	travelerID, err := strconv.ParseInt(c.Param("travelerID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid traveler id"})
		return
	}

	bookings, err := h.service.ListByTraveler(c.Request.Context(), travelerID)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	h.mutate(c, h.service.ConfirmBooking)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	h.mutate(c, h.service.CancelBooking)
}

func (h *BookingHandler) complete(c *gin.Context) {
	h.mutate(c, h.service.CompleteBooking)
}

func (h *BookingHandler) mutate(c *gin.Context, op func(context.Context, int64) (*domain.Booking, error)) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	updated, err := op(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(updated))
}

func (h *BookingHandler) remove(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.DeleteBooking(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		ID:               b.ID,
		ConfirmationCode: b.ConfirmationCode,
		Status:           string(b.Status),
		OfferID:          b.OfferID,
		TravelerID:       b.TravelerID,
		PassengerName:    b.PassengerName,
		Adults:           b.Adults,
		Children:         b.Children,
		Infants:          b.Infants,
		TotalPrice:       b.TotalPrice,
		BookingDate:      b.BookingDate.Format("2006-01-02"),
	}
}
