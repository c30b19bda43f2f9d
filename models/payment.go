package models

import (
	"time"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

// PaymentProof is the consumer-uploaded evidence of an out-of-band payment.
// Exactly one proof row exists per booking; a rejected proof is replaced in
// place by the next submission.
type PaymentProof struct {
	ID         string        `json:"id"`
	Booking    string        `json:"booking"`
	ImageRef   string        `json:"image_ref"`
	Status     PaymentStatus `json:"status"`
	Attempts   int           `json:"attempts"`
	VerifiedBy string        `json:"verified_by,omitempty"`
	VerifiedAt *time.Time    `json:"verified_at,omitempty"`
	Notes      string        `json:"notes,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}
