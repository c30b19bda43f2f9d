package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"parking-system/services"
)

type ReviewHandler struct {
	reviews *services.ReviewService
}

func NewReviewHandler(reviews *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Submit - One review per completed booking
func (h *ReviewHandler) Submit(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	var req struct {
		Rating    int    `json:"rating"`
		Comment   string `json:"comment"`
		Anonymous bool   `json:"anonymous"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	review, err := h.reviews.SubmitReview(e.Request.Context(), e.Request.PathValue("bookingId"), e.Auth.Id, req.Rating, req.Comment, req.Anonymous)
	if err != nil {
		return apiError(err)
	}
	return e.JSON(http.StatusCreated, review)
}
