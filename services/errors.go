package services

import "errors"

// Service-level errors shared across services and the HTTP error mapping.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Validation and business rules
	ErrValidationFailed    = errors.New("validation failed")
	ErrPasswordTooShort    = errors.New("password is too short")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrRegistrationNotOpen = errors.New("tournament registration is not open")
	ErrTournamentFull      = errors.New("tournament registration is full")
	ErrNotEnoughPlayers    = errors.New("at least 2 registered participants are required")
	ErrAlreadySeeded       = errors.New("bracket has already been generated for this tournament")
	ErrBracketNotGenerated = errors.New("bracket has not been generated yet")

	ErrTournamentNotInProgress   = errors.New("tournament is not in progress")
	ErrTournamentNotModifiable   = errors.New("tournament can no longer be modified")
	ErrConcurrentMutationRejected = errors.New("a conflicting tournament mutation is in progress")

	// Credits
	ErrInsufficientBalance = errors.New("insufficient credit balance")
	ErrInvalidAmount       = errors.New("amount must be positive")

	// Social
	ErrSelfFriendship       = errors.New("cannot send a friend request to yourself")
	ErrNotFriends           = errors.New("users are not friends")
	ErrChallengeNotPending  = errors.New("challenge is not awaiting a response")
	ErrChallengeNotAccepted = errors.New("challenge has not been accepted")
	ErrChallengeTied        = errors.New("tied challenge scores are not supported")

	// Bookings
	ErrBookingSlotTaken    = errors.New("the requested slot is already booked")
	ErrBookingInPast       = errors.New("booking window is in the past")
	ErrBookingInvalidRange = errors.New("booking end must be after start")
	ErrLocationInactive    = errors.New("location is not open for bookings")

	// Authentication and authorization
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrUserBanned           = errors.New("user account is banned")
	ErrStorageNotConfigured = errors.New("file storage is not configured")

	// Entity-specific not-found (more context than the generic ErrNotFound)
	ErrUserNotFound        = errors.New("user not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrLocationNotFound    = errors.New("location not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrChallengeNotFound   = errors.New("challenge not found")
	ErrFriendshipNotFound  = errors.New("friendship not found")

	// Conflicts
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserNicknameConflict   = errors.New("nickname is already in use")
	ErrRegistrationConflict   = errors.New("user is already registered for this tournament")
	ErrFriendshipConflict     = errors.New("a friendship or pending request already exists")
	ErrTournamentNameConflict = errors.New("tournament name already exists")

	// Tournament dates
	ErrTournamentDatesRequired   = errors.New("tournament dates are required")
	ErrTournamentInvalidRegDate  = errors.New("registration open date must not be after start date")
	ErrTournamentInvalidCapacity = errors.New("tournament max participants must be at least 2")
	ErrTournamentInvalidFormat   = errors.New("unsupported tournament format")
)
