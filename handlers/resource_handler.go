package handlers

import (
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"parking-system/internal/status"
	"parking-system/models"
	"parking-system/services"
	"parking-system/store"
)

type ResourceHandler struct {
	store  store.Store
	ledger *services.LedgerService
}

func NewResourceHandler(st store.Store, ledger *services.LedgerService) *ResourceHandler {
	return &ResourceHandler{
		store:  st,
		ledger: ledger,
	}
}

// Create - Register a new parking resource owned by the caller
func (h *ResourceHandler) Create(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Name         string  `json:"name"`
		TotalUnits   int     `json:"total_units"`
		Lat          float64 `json:"lat"`
		Lng          float64 `json:"lng"`
		PricePerHour float64 `json:"price_per_hour"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Name == "" || req.TotalUnits < 1 || req.PricePerHour <= 0 {
		return apis.NewBadRequestError("name, total_units and price_per_hour are required", nil)
	}

	resource := &models.Resource{
		Owner:        e.Auth.Id,
		Name:         req.Name,
		TotalUnits:   req.TotalUnits,
		Lat:          req.Lat,
		Lng:          req.Lng,
		PricePerHour: req.PricePerHour,
		Active:       true,
	}
	if err := h.store.CreateResource(e.Request.Context(), resource); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, resource)
}

// SetActive - Open or close a resource for new bookings
func (h *ResourceHandler) SetActive(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	resourceID := e.Request.PathValue("resourceId")
	if err := h.requireOwner(e, resourceID); err != nil {
		return err
	}

	if err := h.store.SetResourceActive(e.Request.Context(), resourceID, req.Active); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"resource_id": resourceID,
		"active":      req.Active,
	})
}

// CreateBlackout - Withdraw units for a maintenance window
func (h *ResourceHandler) CreateBlackout(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Starts        time.Time `json:"starts"`
		Ends          time.Time `json:"ends"`
		UnitsAffected int       `json:"units_affected"`
		Reason        string    `json:"reason"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	iv := models.Interval{Starts: req.Starts, Ends: req.Ends}
	if err := iv.Validate(); err != nil {
		return apiError(err)
	}
	if req.UnitsAffected < 1 {
		return apis.NewBadRequestError("units_affected must be at least 1", nil)
	}

	resourceID := e.Request.PathValue("resourceId")
	if err := h.requireOwner(e, resourceID); err != nil {
		return err
	}

	blackout := &models.BlackoutWindow{
		Resource:      resourceID,
		Starts:        req.Starts,
		Ends:          req.Ends,
		UnitsAffected: req.UnitsAffected,
		Reason:        req.Reason,
	}
	if err := h.store.CreateBlackout(e.Request.Context(), blackout); err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, blackout)
}

// Availability - Free units for a window, without reserving
func (h *ResourceHandler) Availability(e *core.RequestEvent) error {
	query := e.Request.URL.Query()
	starts, err := time.Parse(time.RFC3339, query.Get("starts"))
	if err != nil {
		return apis.NewBadRequestError("starts must be RFC3339", err)
	}
	ends, err := time.Parse(time.RFC3339, query.Get("ends"))
	if err != nil {
		return apis.NewBadRequestError("ends must be RFC3339", err)
	}

	resourceID := e.Request.PathValue("resourceId")
	free, err := h.ledger.Quote(e.Request.Context(), resourceID, models.Interval{Starts: starts, Ends: ends})
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"resource_id":     resourceID,
		"starts":          starts,
		"ends":            ends,
		"available_units": free,
	})
}

func (h *ResourceHandler) requireOwner(e *core.RequestEvent, resourceID string) error {
	resource, err := h.store.ResourceByID(e.Request.Context(), resourceID)
	if err != nil {
		return apiError(err)
	}
	if resource.Owner != e.Auth.Id {
		return apiError(status.ErrNotAuthorized)
	}
	return nil
}
