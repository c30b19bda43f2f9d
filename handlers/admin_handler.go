package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"

	"parking-system/models"
	"parking-system/services"
	"parking-system/store"
)

// AdminHandler exposes the operator surface. Routes are bound behind
// superuser auth.
type AdminHandler struct {
	store    store.Store
	bookings *services.BookingService
	ledger   *services.LedgerService
	redis    *redis.Client
}

func NewAdminHandler(st store.Store, bookings *services.BookingService, ledger *services.LedgerService, redisClient *redis.Client) *AdminHandler {
	return &AdminHandler{
		store:    st,
		bookings: bookings,
		ledger:   ledger,
		redis:    redisClient,
	}
}

// Occupancy - Live occupancy snapshot for one resource
func (h *AdminHandler) Occupancy(e *core.RequestEvent) error {
	resourceID := e.Request.URL.Query().Get("resource_id")
	if resourceID == "" {
		return apis.NewBadRequestError("resource_id required", nil)
	}
	ctx := e.Request.Context()

	resource, err := h.store.ResourceByID(ctx, resourceID)
	if err != nil {
		return apiError(err)
	}

	now := time.Now().UTC()
	iv := models.Interval{Starts: now, Ends: now.Add(time.Minute)}
	demand, err := h.store.OverlapDemand(ctx, resourceID, iv)
	if err != nil {
		return apiError(err)
	}
	blackout, err := h.store.BlackoutDemand(ctx, resourceID, iv)
	if err != nil {
		return apiError(err)
	}

	livePins, _ := h.redis.SCard(ctx, "pins:"+resourceID).Result()

	free := resource.TotalUnits - demand - blackout
	if free < 0 {
		free = 0
	}
	return e.JSON(http.StatusOK, map[string]any{
		"resource_id":     resourceID,
		"name":            resource.Name,
		"total_units":     resource.TotalUnits,
		"booked_units":    demand,
		"blackout_units":  blackout,
		"available_units": free,
		"live_pins":       livePins,
		"active":          resource.Active,
	})
}

// ForceSweep - Manually trigger the time-driven transition sweep
func (h *AdminHandler) ForceSweep(e *core.RequestEvent) error {
	var req struct {
		ResourceID string `json:"resource_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	go h.bookings.AdvanceResource(context.Background(), req.ResourceID, time.Now().UTC())
	return e.JSON(http.StatusOK, map[string]any{"message": "Sweep triggered"})
}
