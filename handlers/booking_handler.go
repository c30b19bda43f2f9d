package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"parking-system/models"
	"parking-system/services"
)

type BookingHandler struct {
	ledger   *services.LedgerService
	bookings *services.BookingService
}

func NewBookingHandler(ledger *services.LedgerService, bookings *services.BookingService) *BookingHandler {
	return &BookingHandler{
		ledger:   ledger,
		bookings: bookings,
	}
}

// Reserve - Check capacity and create a pending booking
func (h *BookingHandler) Reserve(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		ResourceID string    `json:"resource_id"`
		VehicleID  string    `json:"vehicle_id"`
		Starts     time.Time `json:"starts"`
		Ends       time.Time `json:"ends"`
		Units      int       `json:"units"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Units == 0 {
		req.Units = 1
	}

	booking, err := h.ledger.CheckAndReserve(e.Request.Context(), services.ReserveRequest{
		Consumer: e.Auth.Id,
		Resource: req.ResourceID,
		Vehicle:  req.VehicleID,
		Interval: models.Interval{Starts: req.Starts, Ends: req.Ends},
		Units:    req.Units,
	})
	if err != nil {
		return apiError(err)
	}

	return e.JSON(http.StatusCreated, booking)
}

// Get - Fetch one booking (consumer or resource owner only)
func (h *BookingHandler) Get(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	booking, err := h.bookings.Get(e.Request.Context(), e.Request.PathValue("bookingId"), e.Auth.Id)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, booking)
}

// History - The caller's bookings, newest first
func (h *BookingHandler) History(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	bookings, err := h.bookings.History(e.Request.Context(), e.Auth.Id, 50)
	if err != nil {
		return apiError(err)
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return e.JSON(http.StatusOK, bookings)
}

// Cancel - Cancel a pending or not-yet-started confirmed booking
func (h *BookingHandler) Cancel(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	bookingID := e.Request.PathValue("bookingId")
	if err := h.bookings.Cancel(e.Request.Context(), bookingID, e.Auth.Id); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"message":    "Booking cancelled",
		"booking_id": bookingID,
	})
}
