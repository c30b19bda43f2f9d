package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redismock/v9"

	"parking-system/internal/status"
	"parking-system/models"
	"parking-system/store"
)

// fakeStore is an in-memory store.Store with the same compare-and-set
// semantics as the PocketBase implementation. Safe for concurrent use.
type fakeStore struct {
	mu        sync.Mutex
	seq       int
	resources map[string]*models.Resource
	vehicles  map[string]*models.Vehicle
	blackouts []*models.BlackoutWindow
	bookings  map[string]*models.Booking
	proofs    map[string]*models.PaymentProof // keyed by booking ID
	reviews   map[string]*models.Review       // keyed by booking ID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		resources: make(map[string]*models.Resource),
		vehicles:  make(map[string]*models.Vehicle),
		bookings:  make(map[string]*models.Booking),
		proofs:    make(map[string]*models.PaymentProof),
		reviews:   make(map[string]*models.Review),
	}
}

func (f *fakeStore) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%03d", prefix, f.seq)
}

func (f *fakeStore) ResourceByID(_ context.Context, id string) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resources[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) CreateResource(_ context.Context, r *models.Resource) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == "" {
		r.ID = f.nextID("res")
	}
	cp := *r
	f.resources[r.ID] = &cp
	return nil
}

func (f *fakeStore) SetResourceActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.resources[id]
	if !ok {
		return status.ErrNotFound
	}
	r.Active = active
	return nil
}

func (f *fakeStore) CreateBlackout(_ context.Context, bw *models.BlackoutWindow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if bw.ID == "" {
		bw.ID = f.nextID("blk")
	}
	cp := *bw
	f.blackouts = append(f.blackouts, &cp)
	return nil
}

func (f *fakeStore) OverlapDemand(_ context.Context, resourceID string, iv models.Interval) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, b := range f.bookings {
		if b.Resource != resourceID || b.Status.Terminal() {
			continue
		}
		if b.Interval().Overlaps(iv) {
			total += b.Units
		}
	}
	return total, nil
}

func (f *fakeStore) BlackoutDemand(_ context.Context, resourceID string, iv models.Interval) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, bw := range f.blackouts {
		if bw.Resource != resourceID {
			continue
		}
		if (models.Interval{Starts: bw.Starts, Ends: bw.Ends}).Overlaps(iv) {
			total += bw.UnitsAffected
		}
	}
	return total, nil
}

func (f *fakeStore) CreateBooking(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID == "" {
		b.ID = f.nextID("bkg")
	}
	cp := *b
	f.bookings[b.ID] = &cp
	return nil
}

func (f *fakeStore) BookingByID(_ context.Context, id string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeStore) BookingByCode(_ context.Context, code string) (*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.Code == code && !b.Status.Terminal() {
			cp := *b
			return &cp, nil
		}
	}
	return nil, status.ErrNotFound
}

func (f *fakeStore) BookingsByConsumer(_ context.Context, consumerID string, limit int) ([]*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Booking
	for _, b := range f.bookings {
		if b.Consumer != consumerID {
			continue
		}
		cp := *b
		out = append(out, &cp)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) DueBookings(_ context.Context, now time.Time) ([]*models.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Booking
	for _, b := range f.bookings {
		due := (b.Status == models.BookingConfirmed && !now.Before(b.Starts)) ||
			(b.Status == models.BookingActive && !now.Before(b.Ends))
		if due {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) TransitionBooking(_ context.Context, id string, from, to models.BookingStatus, confirmedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return status.ErrNotFound
	}
	if b.Status != from {
		return status.ErrInvalidTransition
	}
	b.Status = to
	if confirmedAt != nil && b.ConfirmedAt == nil {
		t := *confirmedAt
		b.ConfirmedAt = &t
	}
	return nil
}

func (f *fakeStore) CodeInUse(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.Code == code && !b.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) PinInUse(_ context.Context, resourceID, pin string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.Resource == resourceID && b.Pin == pin && !b.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) ProofByBooking(_ context.Context, bookingID string) (*models.PaymentProof, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proofs[bookingID]
	if !ok {
		return nil, status.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) SubmitProof(_ context.Context, proof *models.PaymentProof) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[proof.Booking]
	if !ok {
		return status.ErrNotFound
	}
	if proof.ID == "" {
		proof.ID = f.nextID("prf")
	}
	cp := *proof
	f.proofs[proof.Booking] = &cp
	b.Payment = models.PaymentPending
	return nil
}

func (f *fakeStore) ResolveProof(_ context.Context, res *store.ProofResolution) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[res.Booking.ID]
	if !ok {
		return status.ErrNotFound
	}
	if b.Status != res.From {
		return status.ErrInvalidTransition
	}
	pcp := *res.Proof
	f.proofs[res.Proof.Booking] = &pcp
	bcp := *res.Booking
	if b.ConfirmedAt != nil {
		bcp.ConfirmedAt = b.ConfirmedAt
	}
	f.bookings[b.ID] = &bcp
	return nil
}

func (f *fakeStore) ReviewByBooking(_ context.Context, bookingID string) (*models.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rv, ok := f.reviews[bookingID]
	if !ok {
		return nil, status.ErrNotFound
	}
	cp := *rv
	return &cp, nil
}

func (f *fakeStore) CreateReview(_ context.Context, rv *models.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.reviews[rv.Booking]; exists {
		return status.ErrAlreadyExists
	}
	if rv.ID == "" {
		rv.ID = f.nextID("rvw")
	}
	cp := *rv
	f.reviews[rv.Booking] = &cp
	return nil
}

func (f *fakeStore) VehicleByID(_ context.Context, id string) (*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, status.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeStore) addVehicle(v *models.Vehicle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v.ID == "" {
		v.ID = f.nextID("veh")
	}
	cp := *v
	f.vehicles[v.ID] = &cp
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type notifierEvent struct {
	Channel string
	Message map[string]any
}

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notifierEvent
}

func (n *recordingNotifier) Publish(channel string, message map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notifierEvent{Channel: channel, Message: message})
}

func (n *recordingNotifier) byType(t string) []notifierEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notifierEvent
	for _, ev := range n.events {
		if ev.Message["type"] == t {
			out = append(out, ev)
		}
	}
	return out
}

// rig bundles the service graph over the fakes. The redis client comes from
// redismock with no expectations set: the gate cache is best effort, so
// every cache call fails and the services fall through to the store.
type rig struct {
	store    *fakeStore
	clock    *fakeClock
	notifier *recordingNotifier
	issuer   *CodeIssuer
	ledger   *LedgerService
	bookings *BookingService
	payments *PaymentService
	reviews  *ReviewService
	gate     *GateService
}

func newRig() *rig {
	st := newFakeStore()
	clock := newFakeClock(time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC))
	notifier := &recordingNotifier{}
	redisClient, _ := redismock.NewClientMock()
	locks := NewKeyedMutex()
	issuer := NewCodeIssuer(st, redisClient, 5, 48*time.Hour)
	bookings := NewBookingService(st, issuer, locks, clock, notifier, time.Minute)

	return &rig{
		store:    st,
		clock:    clock,
		notifier: notifier,
		issuer:   issuer,
		ledger:   NewLedgerService(st, issuer, locks, clock, notifier, 30*24*time.Hour),
		bookings: bookings,
		payments: NewPaymentService(st, locks, clock, notifier),
		reviews:  NewReviewService(st, bookings, clock),
		gate:     NewGateService(st, issuer, bookings, clock),
	}
}

func (r *rig) addResource(owner string, units int, price float64) *models.Resource {
	res := &models.Resource{
		Owner:        owner,
		Name:         "Riverside Lot",
		TotalUnits:   units,
		PricePerHour: price,
		Active:       true,
	}
	if err := r.store.CreateResource(context.Background(), res); err != nil {
		panic(err)
	}
	return res
}

func (r *rig) reserve(consumer, resourceID string, iv models.Interval, units int) (*models.Booking, error) {
	return r.ledger.CheckAndReserve(context.Background(), ReserveRequest{
		Consumer: consumer,
		Resource: resourceID,
		Interval: iv,
		Units:    units,
	})
}

// confirm walks a pending booking through proof submission and a verified
// resolution by the resource owner.
func (r *rig) confirm(bookingID, consumer, owner string) error {
	ctx := context.Background()
	if _, err := r.payments.SubmitProof(ctx, bookingID, consumer, "receipts/slip.jpg"); err != nil {
		return err
	}
	return r.payments.ResolveProof(ctx, bookingID, owner, models.PaymentVerified, "")
}

func window(clock *fakeClock, startIn, length time.Duration) models.Interval {
	start := clock.Now().Add(startIn)
	return models.Interval{Starts: start, Ends: start.Add(length)}
}
