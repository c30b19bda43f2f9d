package services

import (
	"context"
	"errors"
	"fmt"

	"parking-system/internal/status"
	"parking-system/models"
	"parking-system/store"
)

// ReviewService admits at most one review per booking, and only once the
// booking has completed.
type ReviewService struct {
	store    store.Store
	bookings *BookingService
	clock    Clock
}

func NewReviewService(st store.Store, bookings *BookingService, clock Clock) *ReviewService {
	return &ReviewService{
		store:    st,
		bookings: bookings,
		clock:    clock,
	}
}

func (s *ReviewService) SubmitReview(ctx context.Context, bookingID, actorID string, rating int, comment string, anonymous bool) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", status.ErrValidation)
	}

	// Lazy advance: a booking whose interval has elapsed may not have been
	// swept yet.
	b, err := s.bookings.AdvanceTime(ctx, bookingID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if b.Consumer != actorID {
		return nil, status.ErrNotAuthorized
	}
	if b.Status != models.BookingCompleted {
		return nil, status.ErrInvalidTransition
	}

	if _, err := s.store.ReviewByBooking(ctx, bookingID); err == nil {
		return nil, status.ErrAlreadyExists
	} else if !errors.Is(err, status.ErrNotFound) {
		return nil, err
	}

	review := &models.Review{
		Booking:   bookingID,
		Reviewer:  actorID,
		Rating:    rating,
		Comment:   comment,
		Anonymous: anonymous,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}
