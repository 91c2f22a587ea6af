package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/footballinvestment/lfa-legacy-go/models"
)

func TestHTTPWeatherClientForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "47.497900", r.URL.Query().Get("lat"))
		assert.Equal(t, "19.040200", r.URL.Query().Get("lon"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))

		json.NewEncoder(w).Encode(models.WeatherForecast{
			Condition:     "rain",
			TemperatureC:  9.5,
			WindSpeedMS:   6.0,
			PrecipitateMM: 12.0,
		})
	}))
	defer srv.Close()

	client := NewHTTPWeatherClient(srv.URL, "secret")
	forecast, err := client.Forecast(context.Background(), 47.4979, 19.0402)
	require.NoError(t, err)

	assert.Equal(t, "rain", forecast.Condition)
	assert.InDelta(t, 12.0, forecast.PrecipitateMM, 0.001)
	assert.False(t, forecast.FetchedAt.IsZero())
}

func TestHTTPWeatherClientNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewHTTPWeatherClient(srv.URL, "")
	_, err := client.Forecast(context.Background(), 0, 0)
	assert.Error(t, err)
}

func TestIsUnplayable(t *testing.T) {
	tests := []struct {
		name     string
		forecast models.WeatherForecast
		want     bool
	}{
		{"clear", models.WeatherForecast{Condition: "clear", PrecipitateMM: 0, WindSpeedMS: 3}, false},
		{"light rain", models.WeatherForecast{Condition: "rain", PrecipitateMM: 4, WindSpeedMS: 5}, false},
		{"heavy rain", models.WeatherForecast{Condition: "rain", PrecipitateMM: 8, WindSpeedMS: 5}, true},
		{"storm wind", models.WeatherForecast{Condition: "storm", PrecipitateMM: 1, WindSpeedMS: 20}, true},
		{"both", models.WeatherForecast{Condition: "storm", PrecipitateMM: 15, WindSpeedMS: 25}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnplayable(&tt.forecast))
		})
	}
}
