package services

import (
	"context"
	"crypto/subtle"

	"parking-system/internal/status"
	"parking-system/models"
	"parking-system/monitoring"
	"parking-system/store"
	"parking-system/utils"
)

// GateService verifies an entry credential presentation at the barrier.
// A valid (code, PIN) pair inside the booked window admits the driver and
// applies the confirmed->active transition through the same guarded path
// the sweep uses.
type GateService struct {
	store    store.Store
	issuer   *CodeIssuer
	bookings *BookingService
	clock    Clock
}

func NewGateService(st store.Store, issuer *CodeIssuer, bookings *BookingService, clock Clock) *GateService {
	return &GateService{
		store:    st,
		issuer:   issuer,
		bookings: bookings,
		clock:    clock,
	}
}

func (s *GateService) CheckIn(ctx context.Context, code, pin string) (*models.Booking, error) {
	var bookingID string
	var pinOK bool

	if id, pinHash, cached := s.issuer.GateLookup(ctx, code); cached {
		bookingID = id
		pinOK = utils.CheckPin(pinHash, pin)
	} else {
		b, err := s.store.BookingByCode(ctx, code)
		if err != nil {
			monitoring.TrackGateCheckin("unknown_code")
			return nil, status.ErrNotFound
		}
		bookingID = b.ID
		pinOK = subtle.ConstantTimeCompare([]byte(b.Pin), []byte(pin)) == 1
	}

	if !pinOK {
		monitoring.TrackGateCheckin("bad_pin")
		// Wrong PIN reads the same as an unknown code.
		return nil, status.ErrNotFound
	}

	now := s.clock.Now()
	b, err := s.bookings.AdvanceTime(ctx, bookingID, now)
	if err != nil {
		return nil, err
	}

	if b.Status != models.BookingActive || !b.Interval().Contains(now) {
		monitoring.TrackGateCheckin("outside_window")
		return nil, status.ErrInvalidTransition
	}

	monitoring.TrackGateCheckin("admitted")
	return b, nil
}
