package submissions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/mockround/mockround/internal/platform/db"
	"github.com/mockround/mockround/internal/shared"
)

// Repository defines submission persistence.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]SubmissionWithDetails, int, error)
	Get(ctx context.Context, id string) (SubmissionWithDetails, error)
	Create(ctx context.Context, s Submission) (Submission, error)
	Update(ctx context.Context, s Submission) (Submission, error)
	Delete(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const submissionColumns = `id, user_id, problem_id, language, code, status, score, time_spent, created_at, updated_at`

const detailSelect = `SELECT s.id, s.user_id, s.problem_id, s.language, s.code, s.status, s.score, s.time_spent, s.created_at, s.updated_at,
COALESCE(p.title, ''), COALESCE(u.username, '')
FROM submissions s
LEFT JOIN problems p ON p.id = s.problem_id
LEFT JOIN users u ON u.id = s.user_id`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]SubmissionWithDetails, int, error) {
	var where db.Filter
	if filters.UserID != "" {
		where.Where("s.user_id = ?", filters.UserID)
	}
	if filters.ProblemID != "" {
		where.Where("s.problem_id = ?", filters.ProblemID)
	}
	if filters.Status != "" {
		where.Where("s.status = ?", string(filters.Status))
	}

	var (
		total int
		items []SubmissionWithDetails
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM submissions s`+where.SQL(), where.Args()...).Scan(&total)
	})
	g.Go(func() error {
		page, args := where.Page(filters.Limit(), filters.Offset())
		rows, err := r.pool.Query(gctx, detailSelect+where.SQL()+` ORDER BY s.created_at DESC, s.id`+page, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			d, err := scanDetails(rows)
			if err != nil {
				return err
			}
			items = append(items, d)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) Get(ctx context.Context, id string) (SubmissionWithDetails, error) {
	return scanDetails(r.pool.QueryRow(ctx, detailSelect+` WHERE s.id = $1`, id))
}

func (r *repository) Create(ctx context.Context, s Submission) (Submission, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO submissions (id, user_id, problem_id, language, code, status, score, time_spent)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+submissionColumns,
		s.ID, s.UserID, s.ProblemID, s.Language, s.Code, string(s.Status), s.Score, s.TimeSpent)
	created, err := scanSubmission(row)
	if err != nil && db.IsForeignKeyViolation(err) {
		return Submission{}, fmt.Errorf("%w: problem does not exist", shared.ErrValidation)
	}
	return created, err
}

func (r *repository) Update(ctx context.Context, s Submission) (Submission, error) {
	row := r.pool.QueryRow(ctx, `UPDATE submissions SET status = $1, score = $2, time_spent = $3, updated_at = NOW()
WHERE id = $4
RETURNING `+submissionColumns, string(s.Status), s.Score, s.TimeSpent, s.ID)
	return scanSubmission(row)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanSubmission(row pgx.Row) (Submission, error) {
	var (
		s      Submission
		status string
	)
	err := row.Scan(&s.ID, &s.UserID, &s.ProblemID, &s.Language, &s.Code, &status, &s.Score, &s.TimeSpent, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return Submission{}, shared.ErrNotFound
		}
		return Submission{}, err
	}
	s.Status = Status(status)
	return s, nil
}

func scanDetails(row pgx.Row) (SubmissionWithDetails, error) {
	var (
		d      SubmissionWithDetails
		status string
	)
	err := row.Scan(&d.ID, &d.UserID, &d.ProblemID, &d.Language, &d.Code, &status, &d.Score, &d.TimeSpent,
		&d.CreatedAt, &d.UpdatedAt, &d.ProblemTitle, &d.Username)
	if err != nil {
		if db.IsNotFound(err) {
			return SubmissionWithDetails{}, shared.ErrNotFound
		}
		return SubmissionWithDetails{}, err
	}
	d.Status = Status(status)
	return d, nil
}
