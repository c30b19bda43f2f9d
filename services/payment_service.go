package services

import (
	"context"
	"errors"
	"fmt"

	"parking-system/internal/status"
	"parking-system/models"
	"parking-system/monitoring"
	"parking-system/store"
)

// PaymentService links exactly one proof-of-payment to a booking and drives
// the owner's accept/reject decision. Rejected proofs are replaced in
// place by the next submission; the booking stays pending throughout.
// Resolution and cancellation contend on the same per-booking lock, so they
// are mutually exclusive.
type PaymentService struct {
	store    store.Store
	locks    *KeyedMutex
	clock    Clock
	notifier Notifier
}

func NewPaymentService(st store.Store, locks *KeyedMutex, clock Clock, notifier Notifier) *PaymentService {
	return &PaymentService{
		store:    st,
		locks:    locks,
		clock:    clock,
		notifier: notifier,
	}
}

func (s *PaymentService) SubmitProof(ctx context.Context, bookingID, actorID, imageRef string) (*models.PaymentProof, error) {
	if imageRef == "" {
		return nil, fmt.Errorf("%w: image_ref is required", status.ErrValidation)
	}

	unlock := s.locks.Lock("booking:" + bookingID)
	defer unlock()

	b, err := s.store.BookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Consumer != actorID {
		return nil, status.ErrNotAuthorized
	}
	if b.Status != models.BookingPending {
		return nil, status.ErrInvalidTransition
	}

	proof, err := s.store.ProofByBooking(ctx, bookingID)
	switch {
	case errors.Is(err, status.ErrNotFound):
		proof = &models.PaymentProof{
			Booking:   bookingID,
			ImageRef:  imageRef,
			Status:    models.PaymentPending,
			Attempts:  1,
			CreatedAt: s.clock.Now(),
		}
	case err != nil:
		return nil, err
	case proof.Status == models.PaymentRejected:
		// Replacement: same row, fresh image, back to pending.
		proof.ImageRef = imageRef
		proof.Status = models.PaymentPending
		proof.Attempts++
		proof.VerifiedBy = ""
		proof.VerifiedAt = nil
		proof.Notes = ""
	default:
		return nil, status.ErrAlreadyExists
	}

	if err := s.store.SubmitProof(ctx, proof); err != nil {
		return nil, err
	}

	resource, err := s.store.ResourceByID(ctx, b.Resource)
	if err == nil {
		s.notifier.Publish("owner-"+resource.Owner, map[string]any{
			"type":       "proof_submitted",
			"booking_id": b.ID,
			"attempts":   proof.Attempts,
		})
	}

	return proof, nil
}

// ResolveProof records the owner's decision. A verified decision confirms
// the booking in the same transaction; a rejected one leaves it pending and
// waits for a replacement submission.
func (s *PaymentService) ResolveProof(ctx context.Context, bookingID, verifierID string, decision models.PaymentStatus, notes string) error {
	if decision != models.PaymentVerified && decision != models.PaymentRejected {
		return fmt.Errorf("%w: decision must be verified or rejected", status.ErrValidation)
	}

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
	if resource.Owner != verifierID {
		return status.ErrNotAuthorized
	}

	proof, err := s.store.ProofByBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if proof.Status != models.PaymentPending {
		return status.ErrInvalidTransition
	}
	if b.Status != models.BookingPending {
		return status.ErrInvalidTransition
	}

	now := s.clock.Now()
	proof.Status = decision
	proof.VerifiedBy = verifierID
	proof.VerifiedAt = &now
	proof.Notes = notes

	updated := *b
	updated.Payment = decision
	if decision == models.PaymentVerified {
		updated.Status = models.BookingConfirmed
		updated.ConfirmedAt = &now
	}

	if err := s.store.ResolveProof(ctx, &store.ProofResolution{
		Proof:   proof,
		Booking: &updated,
		From:    models.BookingPending,
	}); err != nil {
		return err
	}

	monitoring.TrackProofResolution(string(decision))
	if decision == models.PaymentVerified {
		monitoring.TrackTransition(string(models.BookingPending), string(models.BookingConfirmed))
	}

	s.notifier.Publish("user-"+b.Consumer, map[string]any{
		"type":       "proof_resolved",
		"booking_id": b.ID,
		"decision":   string(decision),
	})
	return nil
}
