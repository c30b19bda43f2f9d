package models

import (
	"time"
)

type Review struct {
	ID        string    `json:"id"`
	Booking   string    `json:"booking"`
	Reviewer  string    `json:"reviewer"`
	Rating    int       `json:"rating"` // 1..5
	Comment   string    `json:"comment,omitempty"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
}
