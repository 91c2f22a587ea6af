package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
	"github.com/footballinvestment/lfa-legacy-go/storage"
)

type LocationInput struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	HourlyFee int     `json:"hourly_fee"`
	Capacity  int     `json:"capacity"`
	Outdoor   bool    `json:"outdoor"`
}

type LocationService interface {
	Create(ctx context.Context, input LocationInput, actor Actor) (*models.Location, error)
	GetByID(ctx context.Context, id int) (*models.Location, error)
	List(ctx context.Context, onlyActive bool) ([]models.Location, error)
	Update(ctx context.Context, id int, input LocationInput, actor Actor) (*models.Location, error)
	SetActive(ctx context.Context, id int, active bool, actor Actor) error
	UploadPhoto(ctx context.Context, id int, contentType string, reader io.Reader, actor Actor) (*models.Location, error)
}

type locationService struct {
	locationRepo repositories.LocationRepository
	uploader     storage.FileUploader
	logger       *slog.Logger
}

func NewLocationService(locationRepo repositories.LocationRepository, uploader storage.FileUploader, logger *slog.Logger) LocationService {
	return &locationService{locationRepo: locationRepo, uploader: uploader, logger: logger}
}

func validateLocationInput(input LocationInput) error {
	if input.Name == "" || input.Address == "" || input.City == "" {
		return ErrValidationFailed
	}
	if input.Latitude < -90 || input.Latitude > 90 || input.Longitude < -180 || input.Longitude > 180 {
		return ErrValidationFailed
	}
	if input.HourlyFee < 0 || input.Capacity < 1 {
		return ErrValidationFailed
	}
	return nil
}

func (s *locationService) Create(ctx context.Context, input LocationInput, actor Actor) (*models.Location, error) {
	if !actor.IsStaff() {
		return nil, ErrForbiddenOperation
	}
	if err := validateLocationInput(input); err != nil {
		return nil, err
	}

	location := &models.Location{
		Name:      input.Name,
		Address:   input.Address,
		City:      input.City,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		HourlyFee: input.HourlyFee,
		Capacity:  input.Capacity,
		Outdoor:   input.Outdoor,
		Active:    true,
	}
	if err := s.locationRepo.Create(ctx, location); err != nil {
		if errors.Is(err, repositories.ErrLocationNameConflict) {
			return nil, ErrValidationFailed
		}
		return nil, fmt.Errorf("failed to create location: %w", err)
	}

	s.logger.Info("location created",
		slog.Int("location_id", location.ID),
		slog.String("name", location.Name))
	return location, nil
}

func (s *locationService) GetByID(ctx context.Context, id int) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrLocationNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	s.populatePhotoURL(location)
	return location, nil
}

func (s *locationService) List(ctx context.Context, onlyActive bool) ([]models.Location, error) {
	locations, err := s.locationRepo.List(ctx, onlyActive)
	if err != nil {
		return nil, err
	}
	for i := range locations {
		s.populatePhotoURL(&locations[i])
	}
	return locations, nil
}

func (s *locationService) Update(ctx context.Context, id int, input LocationInput, actor Actor) (*models.Location, error) {
	if !actor.IsStaff() {
		return nil, ErrForbiddenOperation
	}
	if err := validateLocationInput(input); err != nil {
		return nil, err
	}

	location, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	location.Name = input.Name
	location.Address = input.Address
	location.City = input.City
	location.Latitude = input.Latitude
	location.Longitude = input.Longitude
	location.HourlyFee = input.HourlyFee
	location.Capacity = input.Capacity
	location.Outdoor = input.Outdoor

	if err := s.locationRepo.Update(ctx, location); err != nil {
		return nil, err
	}
	return location, nil
}

func (s *locationService) SetActive(ctx context.Context, id int, active bool, actor Actor) error {
	if !actor.IsStaff() {
		return ErrForbiddenOperation
	}
	err := s.locationRepo.SetActive(ctx, id, active)
	if errors.Is(err, repositories.ErrLocationNotFound) {
		return ErrLocationNotFound
	}
	return err
}

func (s *locationService) UploadPhoto(ctx context.Context, id int, contentType string, reader io.Reader, actor Actor) (*models.Location, error) {
	if !actor.IsStaff() {
		return nil, ErrForbiddenOperation
	}
	if s.uploader == nil {
		return nil, ErrStorageNotConfigured
	}

	location, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ext, err := extensionForImage(contentType)
	if err != nil {
		return nil, ErrValidationFailed
	}

	key := fmt.Sprintf("locations/%d%s", id, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload location photo: %w", err)
	}
	if err := s.locationRepo.UpdatePhotoKey(ctx, id, &key); err != nil {
		return nil, err
	}

	location.PhotoKey = &key
	s.populatePhotoURL(location)
	return location, nil
}

func (s *locationService) populatePhotoURL(location *models.Location) {
	if location.PhotoKey == nil || *location.PhotoKey == "" || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*location.PhotoKey); url != "" {
		location.PhotoURL = &url
	}
}
