package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

type FriendService interface {
	SendRequest(ctx context.Context, requesterID, addresseeID int) (*models.Friendship, error)
	Respond(ctx context.Context, friendshipID, userID int, accept bool) (*models.Friendship, error)
	Remove(ctx context.Context, friendshipID, userID int) error
	ListFriends(ctx context.Context, userID int) ([]*models.Friendship, error)
	ListPending(ctx context.Context, userID int) ([]*models.Friendship, error)
	AreFriends(ctx context.Context, userA, userB int) (bool, error)
}

type friendService struct {
	friendshipRepo repositories.FriendshipRepository
	userRepo       repositories.UserRepository
	logger         *slog.Logger
}

func NewFriendService(friendshipRepo repositories.FriendshipRepository, userRepo repositories.UserRepository, logger *slog.Logger) FriendService {
	return &friendService{friendshipRepo: friendshipRepo, userRepo: userRepo, logger: logger}
}

func (s *friendService) SendRequest(ctx context.Context, requesterID, addresseeID int) (*models.Friendship, error) {
	if requesterID == addresseeID {
		return nil, ErrSelfFriendship
	}

	if _, err := s.userRepo.GetByID(ctx, addresseeID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	friendship := &models.Friendship{
		RequesterID: requesterID,
		AddresseeID: addresseeID,
		Status:      models.FriendshipStatusPending,
	}
	if err := s.friendshipRepo.Create(ctx, friendship); err != nil {
		if errors.Is(err, repositories.ErrFriendshipConflict) {
			return nil, ErrFriendshipConflict
		}
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	s.logger.Info("friend request sent",
		slog.Int("requester_id", requesterID),
		slog.Int("addressee_id", addresseeID))
	return friendship, nil
}

func (s *friendService) Respond(ctx context.Context, friendshipID, userID int, accept bool) (*models.Friendship, error) {
	friendship, err := s.friendshipRepo.GetByID(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			return nil, ErrFriendshipNotFound
		}
		return nil, err
	}
	if friendship.AddresseeID != userID {
		return nil, ErrForbiddenOperation
	}
	if friendship.Status != models.FriendshipStatusPending {
		return nil, ErrValidationFailed
	}

	status := models.FriendshipStatusDeclined
	if accept {
		status = models.FriendshipStatusAccepted
	}
	if err := s.friendshipRepo.UpdateStatus(ctx, friendshipID, status); err != nil {
		return nil, err
	}

	friendship.Status = status
	now := time.Now()
	friendship.RespondedAt = &now
	return friendship, nil
}

func (s *friendService) Remove(ctx context.Context, friendshipID, userID int) error {
	friendship, err := s.friendshipRepo.GetByID(ctx, friendshipID)
	if err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			return ErrFriendshipNotFound
		}
		return err
	}
	if friendship.RequesterID != userID && friendship.AddresseeID != userID {
		return ErrForbiddenOperation
	}
	return s.friendshipRepo.Delete(ctx, friendshipID)
}

func (s *friendService) ListFriends(ctx context.Context, userID int) ([]*models.Friendship, error) {
	accepted := models.FriendshipStatusAccepted
	return s.friendshipRepo.ListForUser(ctx, userID, &accepted)
}

func (s *friendService) ListPending(ctx context.Context, userID int) ([]*models.Friendship, error) {
	pending := models.FriendshipStatusPending
	return s.friendshipRepo.ListForUser(ctx, userID, &pending)
}

func (s *friendService) AreFriends(ctx context.Context, userA, userB int) (bool, error) {
	friendship, err := s.friendshipRepo.GetByPair(ctx, userA, userB)
	if err != nil {
		if errors.Is(err, repositories.ErrFriendshipNotFound) {
			return false, nil
		}
		return false, err
	}
	return friendship.Status == models.FriendshipStatusAccepted, nil
}
