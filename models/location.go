package models

import "time"

type Location struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	// HourlyFee is charged in credits per booked hour.
	HourlyFee int     `json:"hourly_fee"`
	Capacity  int     `json:"capacity"`
	Outdoor   bool    `json:"outdoor"`
	Active    bool    `json:"active"`
	PhotoKey  *string `json:"-"`
	PhotoURL  *string `json:"photo_url,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
