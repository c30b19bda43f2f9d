package store

import (
	"context"
	"time"

	"parking-system/models"
)

// ProofResolution carries the outcome of an owner decision. Proof and
// Booking are saved in one transaction; From is the booking status the
// transaction asserts before writing (compare-and-set).
type ProofResolution struct {
	Proof   *models.PaymentProof
	Booking *models.Booking
	From    models.BookingStatus
}

// Store is the persistence surface the booking engine needs. The PocketBase
// implementation lives in pb.go; tests substitute an in-memory fake.
type Store interface {
	ResourceByID(ctx context.Context, id string) (*models.Resource, error)
	CreateResource(ctx context.Context, r *models.Resource) error
	SetResourceActive(ctx context.Context, id string, active bool) error
	CreateBlackout(ctx context.Context, bw *models.BlackoutWindow) error

	// OverlapDemand sums the units of all non-terminal bookings on the
	// resource whose interval overlaps iv (half-open semantics).
	OverlapDemand(ctx context.Context, resourceID string, iv models.Interval) (int, error)
	// BlackoutDemand sums units_affected of blackout windows overlapping iv.
	BlackoutDemand(ctx context.Context, resourceID string, iv models.Interval) (int, error)

	CreateBooking(ctx context.Context, b *models.Booking) error
	BookingByID(ctx context.Context, id string) (*models.Booking, error)
	BookingByCode(ctx context.Context, code string) (*models.Booking, error)
	BookingsByConsumer(ctx context.Context, consumerID string, limit int) ([]*models.Booking, error)
	// DueBookings returns confirmed bookings whose start has passed and
	// active bookings whose end has passed, relative to now.
	DueBookings(ctx context.Context, now time.Time) ([]*models.Booking, error)
	// TransitionBooking moves a booking from -> to, failing with
	// status.ErrInvalidTransition when the stored status is not `from`.
	TransitionBooking(ctx context.Context, id string, from, to models.BookingStatus, confirmedAt *time.Time) error
	CodeInUse(ctx context.Context, code string) (bool, error)
	// PinInUse reports whether a non-terminal booking on the resource
	// already carries this PIN.
	PinInUse(ctx context.Context, resourceID, pin string) (bool, error)

	ProofByBooking(ctx context.Context, bookingID string) (*models.PaymentProof, error)
	// SubmitProof saves the proof (create or in-place replacement of a
	// rejected one) and resets the booking's payment_status to pending, in
	// one transaction.
	SubmitProof(ctx context.Context, proof *models.PaymentProof) error
	ResolveProof(ctx context.Context, res *ProofResolution) error

	ReviewByBooking(ctx context.Context, bookingID string) (*models.Review, error)
	CreateReview(ctx context.Context, rv *models.Review) error

	VehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
}
