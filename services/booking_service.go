package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

type CreateBookingInput struct {
	LocationID int       `json:"location_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
}

type BookingService interface {
	Create(ctx context.Context, userID int, input CreateBookingInput) (*models.LocationBooking, error)
	GetByID(ctx context.Context, id int, actor Actor) (*models.LocationBooking, error)
	Cancel(ctx context.Context, id int, actor Actor) error
	ListForUser(ctx context.Context, userID int) ([]*models.LocationBooking, error)

	// CancelForWeather voids a confirmed booking with a full refund; used by
	// the weather sweep when a forecast makes the slot unplayable.
	CancelForWeather(ctx context.Context, booking *models.LocationBooking, reason string) error
}

type bookingService struct {
	db           *sql.DB
	bookingRepo  repositories.BookingRepository
	locationRepo repositories.LocationRepository
	userRepo     repositories.UserRepository
	creditRepo   repositories.CreditRepository
	emailService *EmailService
	logger       *slog.Logger
}

func NewBookingService(
	db *sql.DB,
	bookingRepo repositories.BookingRepository,
	locationRepo repositories.LocationRepository,
	userRepo repositories.UserRepository,
	creditRepo repositories.CreditRepository,
	emailService *EmailService,
	logger *slog.Logger,
) BookingService {
	return &bookingService{
		db:           db,
		bookingRepo:  bookingRepo,
		locationRepo: locationRepo,
		userRepo:     userRepo,
		creditRepo:   creditRepo,
		emailService: emailService,
		logger:       logger,
	}
}

// Create reserves the slot, charging HourlyFee per started hour. Overlap is
// checked inside the transaction so two racing requests cannot both book.
func (s *bookingService) Create(ctx context.Context, userID int, input CreateBookingInput) (*models.LocationBooking, error) {
	if !input.EndsAt.After(input.StartsAt) {
		return nil, ErrBookingInvalidRange
	}
	if input.StartsAt.Before(time.Now()) {
		return nil, ErrBookingInPast
	}

	location, err := s.locationRepo.GetByID(ctx, input.LocationID)
	if err != nil {
		if errors.Is(err, repositories.ErrLocationNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	if !location.Active {
		return nil, ErrLocationInactive
	}

	hours := int(math.Ceil(input.EndsAt.Sub(input.StartsAt).Hours()))
	fee := location.HourlyFee * hours

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	overlapping, err := s.bookingRepo.CountOverlapping(ctx, tx, input.LocationID, input.StartsAt, input.EndsAt)
	if err != nil {
		return nil, err
	}
	if overlapping > 0 {
		return nil, ErrBookingSlotTaken
	}

	booking := &models.LocationBooking{
		Reference:  uuid.NewString(),
		LocationID: input.LocationID,
		UserID:     userID,
		StartsAt:   input.StartsAt,
		EndsAt:     input.EndsAt,
		FeePaid:    fee,
		Status:     models.BookingStatusConfirmed,
	}
	if err := s.bookingRepo.Create(ctx, tx, booking); err != nil {
		return nil, err
	}

	if fee > 0 {
		desc := fmt.Sprintf("booking fee: %s", location.Name)
		_, err := applyCreditMovement(ctx, tx, s.userRepo, s.creditRepo, creditMovement{
			UserID:      userID,
			Amount:      -fee,
			Type:        models.CreditTxBookingFee,
			Description: &desc,
			BookingID:   &booking.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit booking: %w", err)
	}

	s.logger.Info("booking created",
		slog.Int("booking_id", booking.ID),
		slog.Int("location_id", input.LocationID),
		slog.Int("user_id", userID),
		slog.Int("fee", fee))
	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id int, actor Actor) (*models.LocationBooking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.UserID != actor.ID && !actor.IsStaff() {
		return nil, ErrForbiddenOperation
	}
	return booking, nil
}

// Cancel voids a confirmed booking before its start and refunds the fee.
func (s *bookingService) Cancel(ctx context.Context, id int, actor Actor) error {
	booking, err := s.GetByID(ctx, id, actor)
	if err != nil {
		return err
	}
	if booking.Status != models.BookingStatusConfirmed {
		return ErrValidationFailed
	}
	if !booking.StartsAt.After(time.Now()) {
		return ErrBookingInPast
	}

	return s.cancelAndRefund(ctx, booking, models.BookingStatusCancelled, "cancelled by user")
}

func (s *bookingService) CancelForWeather(ctx context.Context, booking *models.LocationBooking, reason string) error {
	if booking.Status != models.BookingStatusConfirmed {
		return ErrValidationFailed
	}
	return s.cancelAndRefund(ctx, booking, models.BookingStatusWeatherCancelled, reason)
}

func (s *bookingService) cancelAndRefund(ctx context.Context, booking *models.LocationBooking, status models.BookingStatus, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.bookingRepo.UpdateStatus(ctx, tx, booking.ID, status, &reason); err != nil {
		return err
	}

	if booking.FeePaid > 0 {
		desc := fmt.Sprintf("booking refund: %s", reason)
		_, err := applyCreditMovement(ctx, tx, s.userRepo, s.creditRepo, creditMovement{
			UserID:      booking.UserID,
			Amount:      booking.FeePaid,
			Type:        models.CreditTxRefund,
			Description: &desc,
			BookingID:   &booking.ID,
		})
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking cancellation: %w", err)
	}

	booking.Status = status
	booking.CancelReason = &reason

	s.logger.Info("booking cancelled",
		slog.Int("booking_id", booking.ID),
		slog.String("status", string(status)),
		slog.String("reason", reason))

	s.notifyCancelled(ctx, booking, reason)
	return nil
}

func (s *bookingService) notifyCancelled(ctx context.Context, booking *models.LocationBooking, reason string) {
	if s.emailService == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, booking.UserID)
	if err != nil {
		s.logger.Warn("could not load user for booking cancellation email",
			slog.Int("booking_id", booking.ID), slog.Any("error", err))
		return
	}
	locationName := ""
	if location, err := s.locationRepo.GetByID(ctx, booking.LocationID); err == nil {
		locationName = location.Name
	}

	go func() {
		if err := s.emailService.SendBookingCancelledEmail(user.Email, booking.Reference, locationName, reason); err != nil {
			s.logger.Error("failed to send booking cancellation email",
				slog.Int("booking_id", booking.ID), slog.Any("error", err))
		}
	}()
}

func (s *bookingService) ListForUser(ctx context.Context, userID int) ([]*models.LocationBooking, error) {
	return s.bookingRepo.ListByUser(ctx, userID)
}
