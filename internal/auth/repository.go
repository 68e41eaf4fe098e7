package auth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mockround/mockround/internal/platform/db"
	"github.com/mockround/mockround/internal/shared"
)

// Repository defines credential persistence.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	Create(ctx context.Context, user User) (User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// UserColumns is the column list ScanUser expects.
const UserColumns = `id, username, email, password_hash, role, created_at, updated_at`

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+UserColumns+` FROM users WHERE lower(email) = lower($1)`, email)
	return scanUser(row)
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+UserColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Create inserts a new user and returns the stored row.
func (r *PGRepository) Create(ctx context.Context, user User) (User, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO users (id, username, email, password_hash, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+UserColumns, user.ID, user.Username, user.Email, user.PasswordHash, string(user.Role))
	created, err := scanUser(row)
	if err != nil && db.IsUniqueViolation(err) {
		switch db.ConstraintName(err) {
		case "users_email_key":
			return User{}, fmt.Errorf("%w: email already registered", shared.ErrDuplicate)
		case "users_username_key":
			return User{}, fmt.Errorf("%w: username already taken", shared.ErrDuplicate)
		}
		return User{}, fmt.Errorf("%w: user already exists", shared.ErrDuplicate)
	}
	return created, err
}

// ScanUser reads a users row in UserColumns order.
func ScanUser(row pgx.Row) (User, error) {
	return scanUser(row)
}

func scanUser(row pgx.Row) (User, error) {
	var (
		u    User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if db.IsNotFound(err) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	u.Role = Role(role)
	return u, nil
}
