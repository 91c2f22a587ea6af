package models

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed        BookingStatus = "confirmed"
	BookingStatusCancelled        BookingStatus = "cancelled"
	BookingStatusWeatherCancelled BookingStatus = "weather_cancelled"
)

type LocationBooking struct {
	ID         int    `json:"id"`
	Reference  string `json:"reference"`
	LocationID int    `json:"location_id"`
	UserID     int    `json:"user_id"`

	StartsAt time.Time     `json:"starts_at"`
	EndsAt   time.Time     `json:"ends_at"`
	FeePaid  int           `json:"fee_paid"`
	Status   BookingStatus `json:"status"`

	CancelReason *string   `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	Location *Location `json:"location,omitempty"`
}
