package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"parking-system/services"
)

// GateHandler serves the barrier terminal. It authenticates by credential
// pair, not by user session, so its route carries no auth middleware.
type GateHandler struct {
	gate *services.GateService
}

func NewGateHandler(gate *services.GateService) *GateHandler {
	return &GateHandler{gate: gate}
}

// CheckIn - Validate a (code, PIN) pair and admit the driver
func (h *GateHandler) CheckIn(e *core.RequestEvent) error {
	var req struct {
		Code string `json:"code"`
		Pin  string `json:"pin"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Code == "" || req.Pin == "" {
		return apis.NewBadRequestError("code and pin are required", nil)
	}

	booking, err := h.gate.CheckIn(e.Request.Context(), req.Code, req.Pin)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"admitted":   true,
		"booking_id": booking.ID,
		"resource":   booking.Resource,
		"ends":       booking.Ends,
	})
}
