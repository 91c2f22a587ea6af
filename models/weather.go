package models

import "time"

// WeatherForecast is the normalized slice of an upstream forecast the
// platform cares about for playability decisions.
type WeatherForecast struct {
	LocationID    int       `json:"location_id"`
	Condition     string    `json:"condition"`
	TemperatureC  float64   `json:"temperature_c"`
	WindSpeedMS   float64   `json:"wind_speed_ms"`
	PrecipitateMM float64   `json:"precipitation_mm"`
	FetchedAt     time.Time `json:"fetched_at"`
}
