package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dkravets/airreserve/internal/domain"
	"github.com/dkravets/airreserve/internal/service/offers"
	"github.com/gin-gonic/gin"
)

type OfferHandler struct {
	service offers.OfferUseCase
}

type offerRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	DepartureTime string `json:"departure_time"`
	TravelClass   string `json:"travel_class"`
	UnitPrice     int64  `json:"unit_price"`
	Capacity      int    `json:"capacity"`
	Active        *bool  `json:"active"`
}

type offerResponse struct {
	ID            int64  `json:"id"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	DepartureTime string `json:"departure_time"`
	TravelClass   string `json:"travel_class"`
	UnitPrice     int64  `json:"unit_price"`
	Capacity      int    `json:"capacity"`
	Active        bool   `json:"active"`
}

func NewOfferHandler(service offers.OfferUseCase) *OfferHandler {
	return &OfferHandler{service: service}
}

func (h *OfferHandler) Register(router *gin.RouterGroup) {
	router.GET("/", h.list)
	router.GET("/search", h.search)
	router.GET("/:id", h.get)
	router.POST("/", h.create)
	router.PUT("/:id", h.update)
	router.DELETE("/:id", h.deactivate)
}

func (h *OfferHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponses(list))
}

func (h *OfferHandler) search(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	list, err := h.service.Search(c.Request.Context(),
		c.Query("origin"), c.Query("destination"),
		domain.TravelClass(c.Query("travel_class")), date)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponses(list))
}

func (h *OfferHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	offer, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

func (h *OfferHandler) create(c *gin.Context) {
	offer, ok := h.bindOffer(c)
	if !ok {
		return
	}

	if err := h.service.Create(c.Request.Context(), offer); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOfferResponse(offer))
}

func (h *OfferHandler) update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	offer, ok := h.bindOffer(c)
	if !ok {
		return
	}
	offer.ID = id

	if err := h.service.Update(c.Request.Context(), offer); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

func (h *OfferHandler) deactivate(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OfferHandler) bindOffer(c *gin.Context) (*domain.FlightOffer, bool) {
	var req offerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	date, err := time.Parse("2006-01-02", req.DepartureDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "departure_date must be YYYY-MM-DD"})
		return nil, false
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	return &domain.FlightOffer{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: date,
		DepartureTime: req.DepartureTime,
		Class:         domain.TravelClass(req.TravelClass),
		UnitPrice:     req.UnitPrice,
		Capacity:      req.Capacity,
		Active:        active,
	}, true
}

func toOfferResponse(o *domain.FlightOffer) offerResponse {
	return offerResponse{
		ID:            o.ID,
		Origin:        o.Origin,
		Destination:   o.Destination,
		DepartureDate: o.DepartureDate.Format("2006-01-02"),
		DepartureTime: o.DepartureTime,
		TravelClass:   string(o.Class),
		UnitPrice:     o.UnitPrice,
		Capacity:      o.Capacity,
		Active:        o.Active,
	}
}

func toOfferResponses(list []domain.FlightOffer) []offerResponse {
	resp := make([]offerResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOfferResponse(&list[i]))
	}
	return resp
}
