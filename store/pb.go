package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"parking-system/internal/status"
	"parking-system/models"
)

// PB persists the booking engine state in PocketBase collections. Demand
// sums go through raw dbx queries; multi-record writes run in a single
// transaction.
type PB struct {
	app core.App
}

func New(app core.App) *PB {
	return &PB{app: app}
}

func dtString(t time.Time) string {
	dt, _ := types.ParseDateTime(t.UTC())
	return dt.String()
}

func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ---------- resources ----------

func (s *PB) ResourceByID(ctx context.Context, id string) (*models.Resource, error) {
	rec, err := s.app.FindRecordById("resources", id)
	if err != nil {
		if notFound(err) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find resource: %w", err)
	}
	return recordToResource(rec), nil
}

func (s *PB) CreateResource(ctx context.Context, r *models.Resource) error {
	collection, err := s.app.FindCollectionByNameOrId("resources")
	if err != nil {
		return fmt.Errorf("resources collection: %w", err)
	}

	rec := core.NewRecord(collection)
	rec.Set("owner", r.Owner)
	rec.Set("name", r.Name)
	rec.Set("total_units", r.TotalUnits)
	rec.Set("lat", r.Lat)
	rec.Set("lng", r.Lng)
	rec.Set("price_per_hour", r.PricePerHour)
	rec.Set("active", r.Active)

	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save resource: %w", err)
	}

	r.ID = rec.Id
	return nil
}

func (s *PB) SetResourceActive(ctx context.Context, id string, active bool) error {
	rec, err := s.app.FindRecordById("resources", id)
	if err != nil {
		if notFound(err) {
			return status.ErrNotFound
		}
		return fmt.Errorf("find resource: %w", err)
	}

	rec.Set("active", active)
	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save resource: %w", err)
	}
	return nil
}

func (s *PB) CreateBlackout(ctx context.Context, bw *models.BlackoutWindow) error {
	collection, err := s.app.FindCollectionByNameOrId("blackout_windows")
	if err != nil {
		return fmt.Errorf("blackout_windows collection: %w", err)
	}

	rec := core.NewRecord(collection)
	rec.Set("resource", bw.Resource)
	rec.Set("starts", bw.Starts)
	rec.Set("ends", bw.Ends)
	rec.Set("units_affected", bw.UnitsAffected)
	rec.Set("reason", bw.Reason)

	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save blackout: %w", err)
	}

	bw.ID = rec.Id
	return nil
}

// ---------- demand ----------

func (s *PB) OverlapDemand(ctx context.Context, resourceID string, iv models.Interval) (int, error) {
	var total int
	err := s.app.DB().NewQuery(
		"SELECT COALESCE(SUM(units), 0) FROM bookings " +
			"WHERE resource = {:resource} " +
			"AND status IN ('pending', 'confirmed', 'active') " +
			"AND starts < {:ends} AND ends > {:starts}",
	).Bind(dbx.Params{
		"resource": resourceID,
		"starts":   dtString(iv.Starts),
		"ends":     dtString(iv.Ends),
	}).Row(&total)
	if err != nil {
		return 0, fmt.Errorf("overlap demand: %w", err)
	}
	return total, nil
}

func (s *PB) BlackoutDemand(ctx context.Context, resourceID string, iv models.Interval) (int, error) {
	var total int
	err := s.app.DB().NewQuery(
		"SELECT COALESCE(SUM(units_affected), 0) FROM blackout_windows " +
			"WHERE resource = {:resource} " +
			"AND starts < {:ends} AND ends > {:starts}",
	).Bind(dbx.Params{
		"resource": resourceID,
		"starts":   dtString(iv.Starts),
		"ends":     dtString(iv.Ends),
	}).Row(&total)
	if err != nil {
		return 0, fmt.Errorf("blackout demand: %w", err)
	}
	return total, nil
}

// ---------- bookings ----------

func (s *PB) CreateBooking(ctx context.Context, b *models.Booking) error {
	collection, err := s.app.FindCollectionByNameOrId("bookings")
	if err != nil {
		return fmt.Errorf("bookings collection: %w", err)
	}

	rec := core.NewRecord(collection)
	setBookingFields(rec, b)

	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save booking: %w", err)
	}

	b.ID = rec.Id
	b.CreatedAt = rec.GetDateTime("created").Time()
	return nil
}

func (s *PB) BookingByID(ctx context.Context, id string) (*models.Booking, error) {
	rec, err := s.app.FindRecordById("bookings", id)
	if err != nil {
		if notFound(err) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return recordToBooking(rec), nil
}

func (s *PB) BookingByCode(ctx context.Context, code string) (*models.Booking, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"bookings",
		"code = {:code} && status != 'completed' && status != 'cancelled'",
		dbx.Params{"code": code},
	)
	if err != nil {
		if notFound(err) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find booking by code: %w", err)
	}
	return recordToBooking(rec), nil
}

func (s *PB) BookingsByConsumer(ctx context.Context, consumerID string, limit int) ([]*models.Booking, error) {
	recs, err := s.app.FindRecordsByFilter(
		"bookings",
		"consumer = {:consumer}",
		"-created",
		limit,
		0,
		dbx.Params{"consumer": consumerID},
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	bookings := make([]*models.Booking, 0, len(recs))
	for _, rec := range recs {
		bookings = append(bookings, recordToBooking(rec))
	}
	return bookings, nil
}

func (s *PB) DueBookings(ctx context.Context, now time.Time) ([]*models.Booking, error) {
	recs, err := s.app.FindRecordsByFilter(
		"bookings",
		"(status = 'confirmed' && starts <= {:now}) || (status = 'active' && ends <= {:now})",
		"starts",
		500,
		0,
		dbx.Params{"now": dtString(now)},
	)
	if err != nil {
		return nil, fmt.Errorf("due bookings: %w", err)
	}

	bookings := make([]*models.Booking, 0, len(recs))
	for _, rec := range recs {
		bookings = append(bookings, recordToBooking(rec))
	}
	return bookings, nil
}

func (s *PB) TransitionBooking(ctx context.Context, id string, from, to models.BookingStatus, confirmedAt *time.Time) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		rec, err := txApp.FindRecordById("bookings", id)
		if err != nil {
			if notFound(err) {
				return status.ErrNotFound
			}
			return fmt.Errorf("find booking: %w", err)
		}

		if models.BookingStatus(rec.GetString("status")) != from {
			return status.ErrInvalidTransition
		}

		rec.Set("status", string(to))
		if confirmedAt != nil && rec.GetDateTime("confirmed_at").IsZero() {
			rec.Set("confirmed_at", *confirmedAt)
		}

		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save booking: %w", err)
		}
		return nil
	})
}

func (s *PB) CodeInUse(ctx context.Context, code string) (bool, error) {
	_, err := s.app.FindFirstRecordByFilter(
		"bookings",
		"code = {:code} && status != 'completed' && status != 'cancelled'",
		dbx.Params{"code": code},
	)
	if err != nil {
		if notFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("code lookup: %w", err)
	}
	return true, nil
}

func (s *PB) PinInUse(ctx context.Context, resourceID, pin string) (bool, error) {
	_, err := s.app.FindFirstRecordByFilter(
		"bookings",
		"resource = {:resource} && pin = {:pin} && status != 'completed' && status != 'cancelled'",
		dbx.Params{"resource": resourceID, "pin": pin},
	)
	if err != nil {
		if notFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("pin lookup: %w", err)
	}
	return true, nil
}

// ---------- payment proofs ----------

func (s *PB) ProofByBooking(ctx context.Context, bookingID string) (*models.PaymentProof, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"payment_proofs",
		"booking = {:booking}",
		dbx.Params{"booking": bookingID},
	)
	if err != nil {
		if notFound(err) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find proof: %w", err)
	}
	return recordToProof(rec), nil
}

func (s *PB) SubmitProof(ctx context.Context, proof *models.PaymentProof) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		var rec *core.Record

		if proof.ID == "" {
			collection, err := txApp.FindCollectionByNameOrId("payment_proofs")
			if err != nil {
				return fmt.Errorf("payment_proofs collection: %w", err)
			}
			rec = core.NewRecord(collection)
		} else {
			var err error
			rec, err = txApp.FindRecordById("payment_proofs", proof.ID)
			if err != nil {
				if notFound(err) {
					return status.ErrNotFound
				}
				return fmt.Errorf("find proof: %w", err)
			}
		}

		setProofFields(rec, proof)
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save proof: %w", err)
		}
		proof.ID = rec.Id

		booking, err := txApp.FindRecordById("bookings", proof.Booking)
		if err != nil {
			if notFound(err) {
				return status.ErrNotFound
			}
			return fmt.Errorf("find booking: %w", err)
		}
		booking.Set("payment_status", string(models.PaymentPending))
		if err := txApp.Save(booking); err != nil {
			return fmt.Errorf("save booking: %w", err)
		}
		return nil
	})
}

func (s *PB) ResolveProof(ctx context.Context, res *ProofResolution) error {
	return s.app.RunInTransaction(func(txApp core.App) error {
		booking, err := txApp.FindRecordById("bookings", res.Booking.ID)
		if err != nil {
			if notFound(err) {
				return status.ErrNotFound
			}
			return fmt.Errorf("find booking: %w", err)
		}

		if models.BookingStatus(booking.GetString("status")) != res.From {
			return status.ErrInvalidTransition
		}

		rec, err := txApp.FindRecordById("payment_proofs", res.Proof.ID)
		if err != nil {
			if notFound(err) {
				return status.ErrNotFound
			}
			return fmt.Errorf("find proof: %w", err)
		}

		setProofFields(rec, res.Proof)
		if err := txApp.Save(rec); err != nil {
			return fmt.Errorf("save proof: %w", err)
		}

		booking.Set("status", string(res.Booking.Status))
		booking.Set("payment_status", string(res.Booking.Payment))
		if res.Booking.ConfirmedAt != nil && booking.GetDateTime("confirmed_at").IsZero() {
			booking.Set("confirmed_at", *res.Booking.ConfirmedAt)
		}
		if err := txApp.Save(booking); err != nil {
			return fmt.Errorf("save booking: %w", err)
		}
		return nil
	})
}

// ---------- reviews ----------

func (s *PB) ReviewByBooking(ctx context.Context, bookingID string) (*models.Review, error) {
	rec, err := s.app.FindFirstRecordByFilter(
		"reviews",
		"booking = {:booking}",
		dbx.Params{"booking": bookingID},
	)
	if err != nil {
		if notFound(err) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return recordToReview(rec), nil
}

func (s *PB) CreateReview(ctx context.Context, rv *models.Review) error {
	collection, err := s.app.FindCollectionByNameOrId("reviews")
	if err != nil {
		return fmt.Errorf("reviews collection: %w", err)
	}

	rec := core.NewRecord(collection)
	rec.Set("booking", rv.Booking)
	rec.Set("reviewer", rv.Reviewer)
	rec.Set("rating", rv.Rating)
	rec.Set("comment", rv.Comment)
	rec.Set("anonymous", rv.Anonymous)

	if err := s.app.Save(rec); err != nil {
		return fmt.Errorf("save review: %w", err)
	}

	rv.ID = rec.Id
	return nil
}

// ---------- vehicles ----------

func (s *PB) VehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	rec, err := s.app.FindRecordById("vehicles", id)
	if err != nil {
		if notFound(err) {
			return nil, status.ErrNotFound
		}
		return nil, fmt.Errorf("find vehicle: %w", err)
	}
	return &models.Vehicle{
		ID:    rec.Id,
		Owner: rec.GetString("owner"),
		Plate: rec.GetString("plate"),
		Model: rec.GetString("model"),
	}, nil
}

// ---------- record mapping ----------

func recordToResource(rec *core.Record) *models.Resource {
	return &models.Resource{
		ID:           rec.Id,
		Owner:        rec.GetString("owner"),
		Name:         rec.GetString("name"),
		TotalUnits:   rec.GetInt("total_units"),
		Lat:          rec.GetFloat("lat"),
		Lng:          rec.GetFloat("lng"),
		PricePerHour: rec.GetFloat("price_per_hour"),
		Active:       rec.GetBool("active"),
	}
}

func setBookingFields(rec *core.Record, b *models.Booking) {
	rec.Set("consumer", b.Consumer)
	rec.Set("resource", b.Resource)
	rec.Set("vehicle", b.Vehicle)
	rec.Set("starts", b.Starts)
	rec.Set("ends", b.Ends)
	rec.Set("units", b.Units)
	rec.Set("total_cost", b.TotalCost)
	rec.Set("status", string(b.Status))
	rec.Set("payment_status", string(b.Payment))
	rec.Set("code", b.Code)
	rec.Set("pin", b.Pin)
}

func recordToBooking(rec *core.Record) *models.Booking {
	b := &models.Booking{
		ID:        rec.Id,
		Consumer:  rec.GetString("consumer"),
		Resource:  rec.GetString("resource"),
		Vehicle:   rec.GetString("vehicle"),
		Starts:    rec.GetDateTime("starts").Time(),
		Ends:      rec.GetDateTime("ends").Time(),
		Units:     rec.GetInt("units"),
		TotalCost: rec.GetFloat("total_cost"),
		Status:    models.BookingStatus(rec.GetString("status")),
		Payment:   models.PaymentStatus(rec.GetString("payment_status")),
		Code:      rec.GetString("code"),
		Pin:       rec.GetString("pin"),
		CreatedAt: rec.GetDateTime("created").Time(),
	}
	if dt := rec.GetDateTime("confirmed_at"); !dt.IsZero() {
		t := dt.Time()
		b.ConfirmedAt = &t
	}
	return b
}

func setProofFields(rec *core.Record, p *models.PaymentProof) {
	rec.Set("booking", p.Booking)
	rec.Set("image_ref", p.ImageRef)
	rec.Set("status", string(p.Status))
	rec.Set("attempts", p.Attempts)
	rec.Set("verified_by", p.VerifiedBy)
	rec.Set("notes", p.Notes)
	if p.VerifiedAt != nil {
		rec.Set("verified_at", *p.VerifiedAt)
	} else {
		rec.Set("verified_at", nil)
	}
}

func recordToProof(rec *core.Record) *models.PaymentProof {
	p := &models.PaymentProof{
		ID:         rec.Id,
		Booking:    rec.GetString("booking"),
		ImageRef:   rec.GetString("image_ref"),
		Status:     models.PaymentStatus(rec.GetString("status")),
		Attempts:   rec.GetInt("attempts"),
		VerifiedBy: rec.GetString("verified_by"),
		Notes:      rec.GetString("notes"),
		CreatedAt:  rec.GetDateTime("created").Time(),
	}
	if dt := rec.GetDateTime("verified_at"); !dt.IsZero() {
		t := dt.Time()
		p.VerifiedAt = &t
	}
	return p
}

func recordToReview(rec *core.Record) *models.Review {
	return &models.Review{
		ID:        rec.Id,
		Booking:   rec.GetString("booking"),
		Reviewer:  rec.GetString("reviewer"),
		Rating:    rec.GetInt("rating"),
		Comment:   rec.GetString("comment"),
		Anonymous: rec.GetBool("anonymous"),
		CreatedAt: rec.GetDateTime("created").Time(),
	}
}
