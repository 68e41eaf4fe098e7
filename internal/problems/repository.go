package problems

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/mockround/mockround/internal/platform/db"
	"github.com/mockround/mockround/internal/shared"
)

// Repository defines persistence for problems and their tags.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Problem, int, error)
	Get(ctx context.Context, id string) (Problem, error)
	Update(ctx context.Context, p Problem) (Problem, error)
	Delete(ctx context.Context, id string) error
	SetApproved(ctx context.Context, id string, approved bool) (Problem, error)
	ListTags(ctx context.Context, problemID string) ([]Tag, error)
	AddTag(ctx context.Context, problemID, tag string) (Tag, error)
	RemoveTag(ctx context.Context, problemID, tag string) error
	TagCounts(ctx context.Context) ([]TagCount, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes operations that run inside one transaction.
type TxRepository interface {
	CreateProblem(ctx context.Context, p Problem) (Problem, error)
	InsertTag(ctx context.Context, problemID, tag string) (Tag, error)
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const problemColumns = `p.id, p.title, p.description, p.difficulty, p.creator_id, p.approved,
COALESCE((SELECT array_agg(t.tag ORDER BY t.tag) FROM problem_tags t WHERE t.problem_id = p.id), '{}'),
p.created_at, p.updated_at`

// WithTx runs fn inside a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *PGRepository) List(ctx context.Context, filters ListFilters) ([]Problem, int, error) {
	var where db.Filter
	if !filters.IncludeUnapproved {
		where.Where("(p.approved OR p.creator_id = ?)", filters.ViewerID)
	}
	if filters.Difficulty != "" {
		where.Where("p.difficulty = ?", string(filters.Difficulty))
	}
	if filters.Approved != nil {
		where.Where("p.approved = ?", *filters.Approved)
	}
	if filters.Tag != "" {
		where.Where("EXISTS (SELECT 1 FROM problem_tags t WHERE t.problem_id = p.id AND t.tag = ?)", filters.Tag)
	}
	if filters.Search != "" {
		where.Where("(p.title ILIKE ? OR p.description ILIKE ?)", "%"+filters.Search+"%")
	}

	var (
		total int
		items []Problem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM problems p`+where.SQL(), where.Args()...).Scan(&total)
	})
	g.Go(func() error {
		page, args := where.Page(filters.Limit(), filters.Offset())
		rows, err := r.pool.Query(gctx, `SELECT `+problemColumns+` FROM problems p`+where.SQL()+` ORDER BY p.created_at DESC, p.id`+page, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			p, err := scanProblem(rows)
			if err != nil {
				return err
			}
			items = append(items, p)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PGRepository) Get(ctx context.Context, id string) (Problem, error) {
	return getProblem(ctx, r.pool, id)
}

func (r *PGRepository) Update(ctx context.Context, p Problem) (Problem, error) {
	_, err := r.pool.Exec(ctx, `UPDATE problems SET title = $1, description = $2, difficulty = $3, updated_at = NOW() WHERE id = $4`,
		p.Title, p.Description, string(p.Difficulty), p.ID)
	if err != nil {
		return Problem{}, err
	}
	return r.Get(ctx, p.ID)
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM problems WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) SetApproved(ctx context.Context, id string, approved bool) (Problem, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE problems SET approved = $1, updated_at = NOW() WHERE id = $2`, approved, id)
	if err != nil {
		return Problem{}, err
	}
	if tag.RowsAffected() == 0 {
		return Problem{}, shared.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *PGRepository) ListTags(ctx context.Context, problemID string) ([]Tag, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, problem_id, tag, created_at FROM problem_tags WHERE problem_id = $1 ORDER BY tag`, problemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.ProblemID, &t.Tag, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (r *PGRepository) AddTag(ctx context.Context, problemID, tag string) (Tag, error) {
	return insertTag(ctx, r.pool, problemID, tag)
}

func (r *PGRepository) RemoveTag(ctx context.Context, problemID, tag string) error {
	res, err := r.pool.Exec(ctx, `DELETE FROM problem_tags WHERE problem_id = $1 AND tag = $2`, problemID, tag)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("tag %q: %w", tag, shared.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) TagCounts(ctx context.Context) ([]TagCount, error) {
	rows, err := r.pool.Query(ctx, `SELECT tag, COUNT(*) FROM problem_tags GROUP BY tag ORDER BY COUNT(*) DESC, tag`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := []TagCount{}
	for rows.Next() {
		var c TagCount
		if err := rows.Scan(&c.Tag, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) CreateProblem(ctx context.Context, p Problem) (Problem, error) {
	_, err := t.tx.Exec(ctx, `INSERT INTO problems (id, title, description, difficulty, creator_id, approved) VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.Title, p.Description, string(p.Difficulty), p.CreatorID, p.Approved)
	if err != nil {
		return Problem{}, err
	}
	return getProblem(ctx, t.tx, p.ID)
}

func (t *txRepo) InsertTag(ctx context.Context, problemID, tag string) (Tag, error) {
	return insertTag(ctx, t.tx, problemID, tag)
}

func getProblem(ctx context.Context, q querier, id string) (Problem, error) {
	return scanProblem(q.QueryRow(ctx, `SELECT `+problemColumns+` FROM problems p WHERE p.id = $1`, id))
}

func insertTag(ctx context.Context, q querier, problemID, tag string) (Tag, error) {
	var t Tag
	err := q.QueryRow(ctx, `INSERT INTO problem_tags (id, problem_id, tag) VALUES ($1, $2, $3) RETURNING id, problem_id, tag, created_at`,
		uuid.NewString(), problemID, tag).Scan(&t.ID, &t.ProblemID, &t.Tag, &t.CreatedAt)
	switch {
	case err == nil:
		return t, nil
	case db.IsUniqueViolation(err):
		return Tag{}, fmt.Errorf("%w: tag %q already exists on problem", shared.ErrDuplicate, tag)
	case db.IsForeignKeyViolation(err):
		return Tag{}, fmt.Errorf("problem %s: %w", problemID, shared.ErrNotFound)
	default:
		return Tag{}, err
	}
}

func scanProblem(row pgx.Row) (Problem, error) {
	var (
		p          Problem
		difficulty string
	)
	err := row.Scan(&p.ID, &p.Title, &p.Description, &difficulty, &p.CreatorID, &p.Approved, &p.Tags, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return Problem{}, shared.ErrNotFound
		}
		return Problem{}, err
	}
	p.Difficulty = Difficulty(difficulty)
	return p, nil
}

var _ Repository = (*PGRepository)(nil)
