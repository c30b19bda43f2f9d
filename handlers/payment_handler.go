package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"parking-system/models"
	"parking-system/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// SubmitProof - Attach the transfer slip to a pending booking
func (h *PaymentHandler) SubmitProof(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		ImageRef string `json:"image_ref"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	proof, err := h.payments.SubmitProof(e.Request.Context(), e.Request.PathValue("bookingId"), e.Auth.Id, req.ImageRef)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, proof)
}

// ResolveProof - Owner accepts or rejects the submitted slip
func (h *PaymentHandler) ResolveProof(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Decision string `json:"decision"`
		Notes    string `json:"notes"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	bookingID := e.Request.PathValue("bookingId")
	err := h.payments.ResolveProof(e.Request.Context(), bookingID, e.Auth.Id, models.PaymentStatus(req.Decision), req.Notes)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusOK, map[string]any{
		"booking_id": bookingID,
		"decision":   req.Decision,
	})
}
