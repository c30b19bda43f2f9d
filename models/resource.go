package models

import (
	"time"
)

type Resource struct {
	ID           string  `json:"id"`
	Owner        string  `json:"owner"`
	Name         string  `json:"name"`
	TotalUnits   int     `json:"total_units"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	PricePerHour float64 `json:"price_per_hour"`
	Active       bool    `json:"active"`
}

// BlackoutWindow removes UnitsAffected units of a resource for [Starts, Ends).
type BlackoutWindow struct {
	ID            string    `json:"id"`
	Resource      string    `json:"resource"`
	Starts        time.Time `json:"starts"`
	Ends          time.Time `json:"ends"`
	UnitsAffected int       `json:"units_affected"`
	Reason        string    `json:"reason"`
}

type Vehicle struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
	Plate string `json:"plate"`
	Model string `json:"model"`
}
