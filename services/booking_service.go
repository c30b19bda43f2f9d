package services

import (
	"context"
	"log"
	"time"

	"parking-system/internal/status"
	"parking-system/models"
	"parking-system/monitoring"
	"parking-system/store"
)

// BookingService owns the booking lifecycle. Time-driven transitions
// (confirmed->active at start, active->completed at end) run both lazily on
// read and from the background sweep; both paths share the same guarded
// transition, so re-evaluation is a no-op.
type BookingService struct {
	store         store.Store
	issuer        *CodeIssuer
	locks         *KeyedMutex
	clock         Clock
	notifier      Notifier
	SweepInterval time.Duration
}

func NewBookingService(st store.Store, issuer *CodeIssuer, locks *KeyedMutex, clock Clock, notifier Notifier, sweepInterval time.Duration) *BookingService {
	return &BookingService{
		store:         st,
		issuer:        issuer,
		locks:         locks,
		clock:         clock,
		notifier:      notifier,
		SweepInterval: sweepInterval,
	}
}

// Get returns a booking, lazily advanced against now. Only the consumer or
// the resource owner may read it; anyone else gets not-found so the lookup
// does not leak existence.
func (s *BookingService) Get(ctx context.Context, bookingID, actorID string) (*models.Booking, error) {
	b, err := s.AdvanceTime(ctx, bookingID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	if b.Consumer != actorID {
		resource, err := s.store.ResourceByID(ctx, b.Resource)
		if err != nil || resource.Owner != actorID {
			return nil, status.ErrNotFound
		}
	}
	return b, nil
}

// History lists the consumer's bookings, each advanced against the clock.
func (s *BookingService) History(ctx context.Context, consumerID string, limit int) ([]*models.Booking, error) {
	bookings, err := s.store.BookingsByConsumer(ctx, consumerID, limit)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	for i, b := range bookings {
		advanced, err := s.AdvanceTime(ctx, b.ID, now)
		if err != nil {
			continue
		}
		bookings[i] = advanced
	}
	return bookings, nil
}

// Cancel moves a booking to cancelled on behalf of its consumer or the
// resource owner. Allowed from pending, and from confirmed strictly before
// the interval starts. Cancellation frees ledger capacity implicitly:
// demand is a pure function of current booking statuses.
func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID string) error {
	unlock := s.locks.Lock("booking:" + bookingID)
	defer unlock()

	b, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		return err
	}

	resource, err := s.store.ResourceByID(ctx, b.Resource)
	if err != nil {
		return err
	}
	if actorID != b.Consumer && actorID != resource.Owner {
		return status.ErrNotAuthorized
	}

	now := s.clock.Now()
	b, err = s.advanceLocked(ctx, b, now)
	if err != nil {
		return err
	}

	switch b.Status {
	case models.BookingPending:
		// always cancellable
	case models.BookingConfirmed:
		if !now.Before(b.Starts) {
			return status.ErrInvalidTransition
		}
	default:
		return status.ErrInvalidTransition
	}

	if err := s.store.TransitionBooking(ctx, b.ID, b.Status, models.BookingCancelled, nil); err != nil {
		return err
	}
	monitoring.TrackTransition(string(b.Status), string(models.BookingCancelled))

	s.issuer.Release(ctx, b)
	s.notifier.Publish("user-"+b.Consumer, map[string]any{
		"type":       "booking_cancelled",
		"booking_id": b.ID,
	})
	return nil
}

// AdvanceTime evaluates the time-driven transitions for one booking against
// now and returns the refreshed record. Calling it again with the same or a
// later time changes nothing.
func (s *BookingService) AdvanceTime(ctx context.Context, bookingID string, now time.Time) (*models.Booking, error) {
	unlock := s.locks.Lock("booking:" + bookingID)
	defer unlock()

	b, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.advanceLocked(ctx, b, now)
}

// AdvanceResource evaluates time-driven transitions for every due booking,
// optionally restricted to one resource. Used by the sweep and the admin
// surface.
func (s *BookingService) AdvanceResource(ctx context.Context, resourceID string, now time.Time) error {
	due, err := s.store.DueBookings(ctx, now)
	if err != nil {
		return err
	}

	for _, b := range due {
		if resourceID != "" && b.Resource != resourceID {
			continue
		}
		if _, err := s.AdvanceTime(ctx, b.ID, now); err != nil {
			log.Printf("booking: advancing %s failed: %v", b.ID, err)
		}
	}
	return nil
}

// advanceLocked applies due transitions to b. Callers hold the booking lock.
func (s *BookingService) advanceLocked(ctx context.Context, b *models.Booking, now time.Time) (*models.Booking, error) {
	if b.Status == models.BookingConfirmed && !now.Before(b.Starts) {
		if err := s.transition(ctx, b, models.BookingActive); err != nil {
			return nil, err
		}
	}
	if b.Status == models.BookingActive && !now.Before(b.Ends) {
		if err := s.transition(ctx, b, models.BookingCompleted); err != nil {
			return nil, err
		}
		s.issuer.Release(ctx, b)
		s.notifier.Publish("user-"+b.Consumer, map[string]any{
			"type":       "booking_completed",
			"booking_id": b.ID,
		})
	}
	return b, nil
}

func (s *BookingService) transition(ctx context.Context, b *models.Booking, to models.BookingStatus) error {
	if !models.CanTransition(b.Status, to) {
		return status.ErrInvalidTransition
	}
	if err := s.store.TransitionBooking(ctx, b.ID, b.Status, to, nil); err != nil {
		return err
	}
	monitoring.TrackTransition(string(b.Status), string(to))
	b.Status = to
	return nil
}

// SweepLoop periodically advances due bookings so transitions fire even
// when nobody reads the records.
func (s *BookingService) SweepLoop(ctx context.Context) {
	ticker := time.NewTicker(s.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.AdvanceResource(ctx, "", s.clock.Now()); err != nil {
				log.Printf("booking: sweep failed: %v", err)
			}
		}
	}
}
