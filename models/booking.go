package models

import (
	"time"

	"parking-system/internal/status"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// NonTerminalStatuses are the statuses that hold capacity and own a live
// entry code.
var NonTerminalStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingActive}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

// allowedTransitions is the full state machine. Time-driven edges
// (confirmed->active, active->completed) are additionally guarded by the
// clock in the booking service.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingActive, BookingCancelled},
	BookingActive:    {BookingCompleted},
}

func CanTransition(from, to BookingStatus) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Interval is a half-open time range [Starts, Ends).
type Interval struct {
	Starts time.Time `json:"starts"`
	Ends   time.Time `json:"ends"`
}

func (iv Interval) Validate() error {
	if iv.Starts.IsZero() || iv.Ends.IsZero() || !iv.Ends.After(iv.Starts) {
		return status.ErrInvalidInterval
	}
	return nil
}

// Overlaps reports whether two half-open intervals intersect. Adjacent
// intervals (one ending exactly where the other starts) do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Starts.Before(other.Ends) && iv.Ends.After(other.Starts)
}

func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Starts) && t.Before(iv.Ends)
}

func (iv Interval) Hours() float64 {
	return iv.Ends.Sub(iv.Starts).Hours()
}

type Booking struct {
	ID          string        `json:"id"`
	Consumer    string        `json:"consumer"`
	Resource    string        `json:"resource"`
	Vehicle     string        `json:"vehicle,omitempty"`
	Starts      time.Time     `json:"starts"`
	Ends        time.Time     `json:"ends"`
	Units       int           `json:"units"`
	TotalCost   float64       `json:"total_cost"`
	Status      BookingStatus `json:"status"`
	Payment     PaymentStatus `json:"payment_status"`
	Code        string        `json:"code"`
	Pin         string        `json:"pin"`
	ConfirmedAt *time.Time    `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

func (b *Booking) Interval() Interval {
	return Interval{Starts: b.Starts, Ends: b.Ends}
}
