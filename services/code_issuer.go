package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"parking-system/internal/status"
	"parking-system/models"
	"parking-system/monitoring"
	"parking-system/store"
	"parking-system/utils"
)

// Credentials is the (code, PIN) pair granting gate access once a booking
// is confirmed.
type Credentials struct {
	Code string
	Pin  string
}

// CodeIssuer generates collision-free entry credentials. Codes are 16
// random bytes hex-encoded, unique among non-terminal bookings (backstopped
// by a partial unique index). PINs are 4 digits, unique among the
// resource's live bookings. Both checks run inside the ledger's serialized
// section, so issuance races only with itself across resources.
type CodeIssuer struct {
	store      store.Store
	redis      *redis.Client
	retryLimit int
	gateTTL    time.Duration
}

func NewCodeIssuer(st store.Store, redisClient *redis.Client, retryLimit int, gateTTL time.Duration) *CodeIssuer {
	return &CodeIssuer{
		store:      st,
		redis:      redisClient,
		retryLimit: retryLimit,
		gateTTL:    gateTTL,
	}
}

func (ci *CodeIssuer) Issue(ctx context.Context, resourceID string) (*Credentials, error) {
	code, err := ci.issueCode(ctx)
	if err != nil {
		return nil, err
	}

	pin, err := ci.issuePin(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	return &Credentials{Code: code, Pin: pin}, nil
}

func (ci *CodeIssuer) issueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < ci.retryLimit; attempt++ {
		code, err := utils.GenerateCode(16)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}

		inUse, err := ci.store.CodeInUse(ctx, code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
		monitoring.TrackIssuanceRetry()
	}
	return "", status.ErrIssuanceFailure
}

func (ci *CodeIssuer) issuePin(ctx context.Context, resourceID string) (string, error) {
	for attempt := 0; attempt < ci.retryLimit; attempt++ {
		pin, err := utils.GenerateOTP(4)
		if err != nil {
			return "", fmt.Errorf("generate pin: %w", err)
		}

		inUse, err := ci.store.PinInUse(ctx, resourceID, pin)
		if err != nil {
			return "", err
		}
		if !inUse {
			return pin, nil
		}
		monitoring.TrackIssuanceRetry()
	}
	return "", status.ErrIssuanceFailure
}

// Register warms the gate cache for a freshly created booking. The cache
// holds a bcrypt hash of the PIN, never the plaintext. Best effort: a cache
// failure never fails the reservation, the gate falls back to the store.
func (ci *CodeIssuer) Register(ctx context.Context, b *models.Booking) {
	pinHash, err := utils.HashPin(b.Pin)
	if err != nil {
		log.Printf("issuer: hashing pin for %s failed: %v", b.ID, err)
		return
	}

	gateKey := "gate:" + b.Code
	if err := ci.redis.HSet(ctx, gateKey,
		"booking", b.ID,
		"resource", b.Resource,
		"pin_hash", pinHash,
	).Err(); err != nil {
		log.Printf("issuer: gate cache for %s failed: %v", b.ID, err)
		return
	}
	ci.redis.Expire(ctx, gateKey, ci.gateTTL)
	ci.redis.SAdd(ctx, "pins:"+b.Resource, b.Pin)
}

// Release drops a booking's credentials once it reaches a terminal state.
// Safe to call more than once.
func (ci *CodeIssuer) Release(ctx context.Context, b *models.Booking) {
	ci.redis.SRem(ctx, "pins:"+b.Resource, b.Pin)
	ci.redis.Del(ctx, "gate:"+b.Code)
}

// GateLookup resolves a code to (bookingID, pinHash) from the gate cache.
// A miss is not an error; the gate falls back to the store.
func (ci *CodeIssuer) GateLookup(ctx context.Context, code string) (bookingID, pinHash string, ok bool) {
	data, err := ci.redis.HGetAll(ctx, "gate:"+code).Result()
	if err != nil || len(data) == 0 {
		return "", "", false
	}
	return data["booking"], data["pin_hash"], true
}
