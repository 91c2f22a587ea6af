package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Update(ctx context.Context, user *models.User) error
	UpdateBalance(ctx context.Context, exec SQLExecutor, userID, newBalance int) error
	GetBalanceForUpdate(ctx context.Context, exec SQLExecutor, userID int) (int, error)
	SetBanned(ctx context.Context, userID int, banned bool, reason *string) error
	SetEmailConfirmed(ctx context.Context, userID int) error
	UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error
	TouchLastLogin(ctx context.Context, userID int) error
	Delete(ctx context.Context, userID int) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const userColumns = `
	id, first_name, last_name, nickname, email, password_hash, role,
	credit_balance, email_confirmed, banned, ban_reason, avatar_key,
	created_at, last_login_at`

func (r *postgresUserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (first_name, last_name, nickname, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, credit_balance, created_at`

	err := r.db.QueryRowContext(ctx, query,
		u.FirstName, u.LastName, u.Nickname, u.Email, u.PasswordHash, u.Role,
	).Scan(&u.ID, &u.CreditBalance, &u.CreatedAt)

	return r.handleUserError(err)
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	return r.getOne(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *postgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT`+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *postgresUserRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return u, nil
}

func (r *postgresUserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.Search != nil && *filter.Search != "" {
		where += fmt.Sprintf(" AND (nickname ILIKE $%d OR email ILIKE $%d)", argID, argID)
		args = append(args, "%"+*filter.Search+"%")
		argID++
	}
	if filter.Role != nil {
		where += fmt.Sprintf(" AND role = $%d", argID)
		args = append(args, *filter.Role)
		argID++
	}
	if filter.Banned != nil {
		where += fmt.Sprintf(" AND banned = $%d", argID)
		args = append(args, *filter.Banned)
		argID++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}
	query := `SELECT` + userColumns + ` FROM users` + where +
		fmt.Sprintf(" ORDER BY id ASC LIMIT $%d OFFSET $%d", argID, argID+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, scanErr := scanUser(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("failed to scan user row: %w", scanErr)
		}
		users = append(users, *u)
	}
	return users, total, rows.Err()
}

func (r *postgresUserRepository) Update(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users SET first_name = $1, last_name = $2, nickname = $3, password_hash = $4
		WHERE id = $5`
	result, err := r.db.ExecContext(ctx, query, u.FirstName, u.LastName, u.Nickname, u.PasswordHash, u.ID)
	if err != nil {
		return r.handleUserError(err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

// GetBalanceForUpdate reads the balance with a row lock so credit movements
// inside a transaction cannot race.
func (r *postgresUserRepository) GetBalanceForUpdate(ctx context.Context, exec SQLExecutor, userID int) (int, error) {
	var balance int
	err := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT credit_balance FROM users WHERE id = $1 FOR UPDATE`, userID,
	).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to read balance for user %d: %w", userID, err)
	}
	return balance, nil
}

func (r *postgresUserRepository) UpdateBalance(ctx context.Context, exec SQLExecutor, userID, newBalance int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE users SET credit_balance = $1 WHERE id = $2`, newBalance, userID)
	if err != nil {
		return fmt.Errorf("failed to update balance for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetBanned(ctx context.Context, userID int, banned bool, reason *string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET banned = $1, ban_reason = $2 WHERE id = $3`, banned, reason, userID)
	if err != nil {
		return fmt.Errorf("failed to update ban state for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) SetEmailConfirmed(ctx context.Context, userID int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET email_confirmed = TRUE WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to confirm email for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) UpdateAvatarKey(ctx context.Context, userID int, avatarKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET avatar_key = $1 WHERE id = $2`, avatarKey, userID)
	if err != nil {
		return fmt.Errorf("failed to update avatar for user %d: %w", userID, err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func (r *postgresUserRepository) TouchLastLogin(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = now() WHERE id = $1`, userID)
	return err
}

func (r *postgresUserRepository) Delete(ctx context.Context, userID int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.Email, &u.PasswordHash, &u.Role,
		&u.CreditBalance, &u.EmailConfirmed, &u.Banned, &u.BanReason, &u.AvatarKey,
		&u.CreatedAt, &u.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *postgresUserRepository) handleUserError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "users_email_key":
			return ErrUserEmailConflict
		case "users_nickname_key":
			return ErrUserNicknameConflict
		}
	}
	return err
}
