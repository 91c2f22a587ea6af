package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

type fakeUserRepo struct {
	byID      map[int]*models.User
	byEmail   map[string]*models.User
	nextID    int
	lastLogin map[int]bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:      make(map[int]*models.User),
		byEmail:   make(map[string]*models.User),
		nextID:    1,
		lastLogin: make(map[int]bool),
	}
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return repositories.ErrUserEmailConflict
	}
	for _, u := range f.byID {
		if u.Nickname == user.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	user.ID = f.nextID
	f.nextID++
	cp := *user
	f.byID[user.ID] = &cp
	f.byEmail[user.Email] = &cp
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	return nil, 0, nil
}

func (f *fakeUserRepo) Update(_ context.Context, user *models.User) error {
	if _, ok := f.byID[user.ID]; !ok {
		return repositories.ErrUserNotFound
	}
	cp := *user
	f.byID[user.ID] = &cp
	f.byEmail[user.Email] = &cp
	return nil
}

func (f *fakeUserRepo) UpdateBalance(_ context.Context, _ repositories.SQLExecutor, userID, newBalance int) error {
	u, ok := f.byID[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.CreditBalance = newBalance
	return nil
}

func (f *fakeUserRepo) GetBalanceForUpdate(_ context.Context, _ repositories.SQLExecutor, userID int) (int, error) {
	u, ok := f.byID[userID]
	if !ok {
		return 0, repositories.ErrUserNotFound
	}
	return u.CreditBalance, nil
}

func (f *fakeUserRepo) SetBanned(_ context.Context, userID int, banned bool, reason *string) error {
	u, ok := f.byID[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.Banned = banned
	u.BanReason = reason
	return nil
}

func (f *fakeUserRepo) SetEmailConfirmed(_ context.Context, userID int) error {
	u, ok := f.byID[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.EmailConfirmed = true
	return nil
}

func (f *fakeUserRepo) UpdateAvatarKey(_ context.Context, userID int, key *string) error {
	u, ok := f.byID[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	u.AvatarKey = key
	return nil
}

func (f *fakeUserRepo) TouchLastLogin(_ context.Context, userID int) error {
	f.lastLogin[userID] = true
	return nil
}

func (f *fakeUserRepo) Delete(_ context.Context, userID int) error {
	u, ok := f.byID[userID]
	if !ok {
		return repositories.ErrUserNotFound
	}
	delete(f.byEmail, u.Email)
	delete(f.byID, userID)
	return nil
}

const testSecret = "test-secret"

func validRegisterInput() RegisterInput {
	return RegisterInput{
		FirstName: "Anna",
		LastName:  "Kiss",
		Nickname:  "annak",
		Email:     "anna@example.com",
		Password:  "password123",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, testSecret)

	user, confirmToken, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, confirmToken)
	assert.Equal(t, models.RolePlayer, user.Role)
	assert.Empty(t, user.PasswordHash, "hash must never leave the service")

	logged, token, err := svc.Login(context.Background(), LoginInput{
		Email:    "Anna@Example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)
	assert.True(t, repo.lastLogin[user.ID])
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testSecret)

	input := validRegisterInput()
	input.Password = "short"
	_, _, err := svc.Register(context.Background(), input)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testSecret)

	_, _, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	dup := validRegisterInput()
	dup.Nickname = "other"
	_, _, err = svc.Register(context.Background(), dup)
	assert.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testSecret)

	_, _, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), LoginInput{Email: "anna@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmailSameErrorAsWrongPassword(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testSecret)

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginBannedUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, testSecret)

	user, _, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	reason := "abuse"
	require.NoError(t, repo.SetBanned(context.Background(), user.ID, true, &reason))

	_, _, err = svc.Login(context.Background(), LoginInput{Email: "anna@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrUserBanned)
}

func TestConfirmEmailRoundTrip(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, testSecret)

	user, confirmToken, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	require.NoError(t, svc.ConfirmEmail(context.Background(), confirmToken))

	stored, err := repo.GetByID(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, stored.EmailConfirmed)
}

func TestConfirmEmailRejectsAccessToken(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewAuthService(repo, testSecret)

	_, _, err := svc.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)

	_, accessToken, err := svc.Login(context.Background(), LoginInput{Email: "anna@example.com", Password: "password123"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ConfirmEmail(context.Background(), accessToken), ErrAuthenticationFailed)
}

func TestConfirmEmailRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo(), testSecret)
	assert.ErrorIs(t, svc.ConfirmEmail(context.Background(), "not-a-token"), ErrAuthenticationFailed)
}
