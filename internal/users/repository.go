package users

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/mockround/mockround/internal/auth"
	"github.com/mockround/mockround/internal/platform/db"
	"github.com/mockround/mockround/internal/shared"
)

// Repository defines data access for user administration.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]auth.User, int, error)
	Get(ctx context.Context, id string) (auth.User, error)
	UpdateRole(ctx context.Context, id string, role auth.Role) (auth.User, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters ListFilters) ([]auth.User, int, error) {
	var where db.Filter
	if filters.Role != "" {
		where.Where("role = ?", string(filters.Role))
	}
	if filters.Search != "" {
		where.Where("(username ILIKE ? OR email ILIKE ?)", "%"+filters.Search+"%")
	}

	var (
		total int
		users []auth.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM users`+where.SQL(), where.Args()...).Scan(&total)
	})
	g.Go(func() error {
		page, args := where.Page(filters.Limit(), filters.Offset())
		rows, err := r.pool.Query(gctx, `SELECT `+auth.UserColumns+` FROM users`+where.SQL()+` ORDER BY created_at, id`+page, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			u, err := auth.ScanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *repository) Get(ctx context.Context, id string) (auth.User, error) {
	return auth.ScanUser(r.pool.QueryRow(ctx, `SELECT `+auth.UserColumns+` FROM users WHERE id = $1`, id))
}

func (r *repository) UpdateRole(ctx context.Context, id string, role auth.Role) (auth.User, error) {
	row := r.pool.QueryRow(ctx, `UPDATE users SET role = $1, updated_at = NOW() WHERE id = $2 RETURNING `+auth.UserColumns, string(role), id)
	return auth.ScanUser(row)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
