package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

// Playability thresholds. A forecast at or above either one cancels outdoor
// bookings in the window.
const (
	maxPrecipitationMM = 8.0
	maxWindSpeedMS     = 17.0
)

// weatherSweepWindow is how far ahead of a booking's start the sweep looks.
const weatherSweepWindow = 24 * time.Hour

type WeatherClient interface {
	Forecast(ctx context.Context, latitude, longitude float64) (*models.WeatherForecast, error)
}

type httpWeatherClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPWeatherClient talks to the upstream forecast API. The endpoint is
// expected to answer GET {baseURL}?lat=..&lon=..&key=.. with a JSON body
// carrying condition, temperature_c, wind_speed_ms and precipitation_mm.
func NewHTTPWeatherClient(baseURL, apiKey string) WeatherClient {
	return &httpWeatherClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpWeatherClient) Forecast(ctx context.Context, latitude, longitude float64) (*models.WeatherForecast, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid weather API URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("lat", strconv.FormatFloat(latitude, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(longitude, 'f', 6, 64))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather API returned status %d", resp.StatusCode)
	}

	var forecast models.WeatherForecast
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	forecast.FetchedAt = time.Now()
	return &forecast, nil
}

type WeatherService interface {
	// SweepBookings checks the forecast for every outdoor location with
	// confirmed bookings in the next 24 hours and cancels the unplayable
	// ones with a refund.
	SweepBookings(ctx context.Context, now time.Time) error
}

type weatherService struct {
	client         WeatherClient
	bookingRepo    repositories.BookingRepository
	locationRepo   repositories.LocationRepository
	bookingService BookingService
	logger         *slog.Logger
}

func NewWeatherService(
	client WeatherClient,
	bookingRepo repositories.BookingRepository,
	locationRepo repositories.LocationRepository,
	bookingService BookingService,
	logger *slog.Logger,
) WeatherService {
	return &weatherService{
		client:         client,
		bookingRepo:    bookingRepo,
		locationRepo:   locationRepo,
		bookingService: bookingService,
		logger:         logger,
	}
}

func (s *weatherService) SweepBookings(ctx context.Context, now time.Time) error {
	bookings, err := s.bookingRepo.ListUpcomingOutdoor(ctx, now, now.Add(weatherSweepWindow))
	if err != nil {
		return fmt.Errorf("failed to list upcoming outdoor bookings: %w", err)
	}
	if len(bookings) == 0 {
		return nil
	}

	byLocation := make(map[int][]*models.LocationBooking)
	for _, b := range bookings {
		byLocation[b.LocationID] = append(byLocation[b.LocationID], b)
	}

	// One forecast fetch per location, in parallel.
	var mu sync.Mutex
	unplayable := make(map[int]*models.WeatherForecast)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for locationID := range byLocation {
		locationID := locationID
		g.Go(func() error {
			location, err := s.locationRepo.GetByID(gCtx, locationID)
			if err != nil {
				return fmt.Errorf("failed to load location %d: %w", locationID, err)
			}
			forecast, err := s.client.Forecast(gCtx, location.Latitude, location.Longitude)
			if err != nil {
				// An unreachable forecast never cancels a booking.
				s.logger.Warn("weather fetch failed, keeping bookings",
					slog.Int("location_id", locationID), slog.Any("error", err))
				return nil
			}
			if isUnplayable(forecast) {
				mu.Lock()
				unplayable[locationID] = forecast
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for locationID, forecast := range unplayable {
		reason := fmt.Sprintf("unplayable weather forecast: %s (%.1f mm precipitation, %.1f m/s wind)",
			forecast.Condition, forecast.PrecipitateMM, forecast.WindSpeedMS)
		for _, booking := range byLocation[locationID] {
			if err := s.bookingService.CancelForWeather(ctx, booking, reason); err != nil {
				s.logger.Error("failed to weather-cancel booking",
					slog.Int("booking_id", booking.ID), slog.Any("error", err))
				continue
			}
			s.logger.Info("booking cancelled for weather",
				slog.Int("booking_id", booking.ID),
				slog.Int("location_id", locationID),
				slog.String("condition", forecast.Condition))
		}
	}
	return nil
}

func isUnplayable(f *models.WeatherForecast) bool {
	return f.PrecipitateMM >= maxPrecipitationMM || f.WindSpeedMS >= maxWindSpeedMS
}
