package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"parking-system/internal/status"
	"parking-system/models"
	"parking-system/monitoring"
	"parking-system/store"
)

// LedgerService is the capacity ledger: it answers whether N units of a
// resource can be held for an interval and commits the hold atomically.
// The read-demand/compare/insert section is serialized per resource through
// the keyed mutex, so concurrent overlapping requests can never oversell.
type LedgerService struct {
	store     store.Store
	issuer    *CodeIssuer
	locks     *KeyedMutex
	clock     Clock
	notifier  Notifier
	maxWindow time.Duration
}

func NewLedgerService(st store.Store, issuer *CodeIssuer, locks *KeyedMutex, clock Clock, notifier Notifier, maxWindow time.Duration) *LedgerService {
	return &LedgerService{
		store:     st,
		issuer:    issuer,
		locks:     locks,
		clock:     clock,
		notifier:  notifier,
		maxWindow: maxWindow,
	}
}

type ReserveRequest struct {
	Consumer string
	Resource string
	Vehicle  string
	Interval models.Interval
	Units    int
}

func (s *LedgerService) CheckAndReserve(ctx context.Context, req ReserveRequest) (*models.Booking, error) {
	if err := req.Interval.Validate(); err != nil {
		monitoring.TrackReservation("invalid")
		return nil, err
	}
	if req.Units < 1 {
		monitoring.TrackReservation("invalid")
		return nil, fmt.Errorf("%w: units must be at least 1", status.ErrValidation)
	}
	if s.maxWindow > 0 && req.Interval.Ends.Sub(req.Interval.Starts) > s.maxWindow {
		monitoring.TrackReservation("invalid")
		return nil, fmt.Errorf("%w: booking window too long", status.ErrValidation)
	}

	if req.Vehicle != "" {
		vehicle, err := s.store.VehicleByID(ctx, req.Vehicle)
		if err != nil {
			return nil, err
		}
		if vehicle.Owner != req.Consumer {
			return nil, status.ErrNotAuthorized
		}
	}

	began := time.Now()
	unlock := s.locks.Lock("resource:" + req.Resource)
	defer unlock()
	defer func() { monitoring.TrackReservationDuration(time.Since(began)) }()

	resource, err := s.store.ResourceByID(ctx, req.Resource)
	if err != nil {
		return nil, err
	}
	if !resource.Active {
		monitoring.TrackReservation("inactive")
		return nil, status.ErrResourceInactive
	}

	available, err := s.availableUnits(ctx, resource, req.Interval)
	if err != nil {
		return nil, err
	}
	if available < req.Units {
		monitoring.TrackReservation("capacity_exhausted")
		return nil, status.ErrCapacityExhausted
	}

	creds, err := s.issuer.Issue(ctx, req.Resource)
	if err != nil {
		monitoring.TrackReservation("issuance_failure")
		return nil, err
	}

	cost, err := totalCost(resource.PricePerHour, req.Interval, req.Units)
	if err != nil {
		monitoring.TrackReservation("invalid")
		return nil, err
	}

	booking := &models.Booking{
		Consumer:  req.Consumer,
		Resource:  req.Resource,
		Vehicle:   req.Vehicle,
		Starts:    req.Interval.Starts,
		Ends:      req.Interval.Ends,
		Units:     req.Units,
		TotalCost: cost,
		Status:    models.BookingPending,
		Payment:   models.PaymentPending,
		Code:      creds.Code,
		Pin:       creds.Pin,
		CreatedAt: s.clock.Now(),
	}

	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.issuer.Register(ctx, booking)

	monitoring.TrackReservation("granted")
	s.notifier.Publish("owner-"+resource.Owner, map[string]any{
		"type":       "booking_created",
		"booking_id": booking.ID,
		"resource":   resource.ID,
		"starts":     booking.Starts,
		"ends":       booking.Ends,
	})

	return booking, nil
}

// Quote reports how many units remain free for the interval, without
// reserving anything.
func (s *LedgerService) Quote(ctx context.Context, resourceID string, iv models.Interval) (int, error) {
	if err := iv.Validate(); err != nil {
		return 0, err
	}

	resource, err := s.store.ResourceByID(ctx, resourceID)
	if err != nil {
		return 0, err
	}
	if !resource.Active {
		return 0, status.ErrResourceInactive
	}

	return s.availableUnits(ctx, resource, iv)
}

func (s *LedgerService) availableUnits(ctx context.Context, resource *models.Resource, iv models.Interval) (int, error) {
	bookingDemand, err := s.store.OverlapDemand(ctx, resource.ID, iv)
	if err != nil {
		return 0, err
	}
	blackoutDemand, err := s.store.BlackoutDemand(ctx, resource.ID, iv)
	if err != nil {
		return 0, err
	}

	available := resource.TotalUnits - bookingDemand - blackoutDemand
	if available < 0 {
		available = 0
	}
	return available, nil
}

func totalCost(pricePerHour float64, iv models.Interval, units int) (float64, error) {
	cost := decimal.NewFromFloat(pricePerHour).
		Mul(decimal.NewFromFloat(iv.Hours())).
		Mul(decimal.NewFromInt(int64(units)))

	if !cost.IsPositive() {
		return 0, fmt.Errorf("%w: total cost must be positive", status.ErrValidation)
	}
	cost = cost.Round(2)

	f, _ := cost.Float64()
	return f, nil
}
