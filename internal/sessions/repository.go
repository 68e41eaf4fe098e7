package sessions

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/mockround/mockround/internal/platform/db"
	"github.com/mockround/mockround/internal/shared"
)

// Repository defines persistence for sessions and their questions.
type Repository interface {
	List(ctx context.Context, filters ListFilters) ([]Session, int, error)
	Get(ctx context.Context, id string) (Session, error)
	Create(ctx context.Context, s Session) (Session, error)
	Update(ctx context.Context, s Session) (Session, error)
	Delete(ctx context.Context, id string) error

	ListQuestions(ctx context.Context, sessionID string) ([]Question, error)
	GetQuestion(ctx context.Context, id string) (Question, error)
	CreateQuestion(ctx context.Context, q Question) (Question, error)
	UpdateQuestion(ctx context.Context, q Question) (Question, error)
	DeleteQuestion(ctx context.Context, id string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository returns a PostgreSQL Repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const sessionColumns = `id, user_id, interviewer_id, title, status, start_time, end_time, feedback, last_updated_by, created_at, updated_at`

const questionColumns = `id, session_id, problem_id, prompt, submitted_answer, feedback, created_at, updated_at`

func (r *repository) List(ctx context.Context, filters ListFilters) ([]Session, int, error) {
	var where db.Filter
	if filters.UserID != "" {
		where.Where("user_id = ?", filters.UserID)
	}
	if filters.Status != "" {
		where.Where("status = ?", string(filters.Status))
	}

	var (
		total int
		items []Session
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return r.pool.QueryRow(gctx, `SELECT COUNT(*) FROM interview_sessions`+where.SQL(), where.Args()...).Scan(&total)
	})
	g.Go(func() error {
		page, args := where.Page(filters.Limit(), filters.Offset())
		rows, err := r.pool.Query(gctx, `SELECT `+sessionColumns+` FROM interview_sessions`+where.SQL()+` ORDER BY start_time DESC, id`+page, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanSession(rows)
			if err != nil {
				return err
			}
			items = append(items, s)
		}
		return rows.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repository) Get(ctx context.Context, id string) (Session, error) {
	return scanSession(r.pool.QueryRow(ctx, `SELECT `+sessionColumns+` FROM interview_sessions WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, s Session) (Session, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO interview_sessions (id, user_id, interviewer_id, title, status, start_time, end_time, last_updated_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+sessionColumns,
		s.ID, s.UserID, s.InterviewerID, s.Title, string(s.Status), s.StartTime, s.EndTime, s.LastUpdatedBy)
	created, err := scanSession(row)
	return created, mapWriteError(err, "interviewer")
}

func (r *repository) Update(ctx context.Context, s Session) (Session, error) {
	row := r.pool.QueryRow(ctx, `UPDATE interview_sessions
SET interviewer_id = $1, title = $2, status = $3, start_time = $4, end_time = $5, feedback = $6, last_updated_by = $7, updated_at = NOW()
WHERE id = $8
RETURNING `+sessionColumns,
		s.InterviewerID, s.Title, string(s.Status), s.StartTime, s.EndTime, s.Feedback, s.LastUpdatedBy, s.ID)
	updated, err := scanSession(row)
	return updated, mapWriteError(err, "interviewer")
}

func (r *repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM interview_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListQuestions(ctx context.Context, sessionID string) ([]Question, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+questionColumns+` FROM interview_questions WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	questions := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *repository) GetQuestion(ctx context.Context, id string) (Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM interview_questions WHERE id = $1`, id))
}

func (r *repository) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO interview_questions (id, session_id, problem_id, prompt)
VALUES ($1, $2, $3, $4)
RETURNING `+questionColumns, q.ID, q.SessionID, q.ProblemID, q.Prompt)
	created, err := scanQuestion(row)
	return created, mapWriteError(err, "problem")
}

func (r *repository) UpdateQuestion(ctx context.Context, q Question) (Question, error) {
	row := r.pool.QueryRow(ctx, `UPDATE interview_questions
SET prompt = $1, submitted_answer = $2, feedback = $3, updated_at = NOW()
WHERE id = $4
RETURNING `+questionColumns, q.Prompt, q.SubmittedAnswer, q.Feedback, q.ID)
	return scanQuestion(row)
}

func (r *repository) DeleteQuestion(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM interview_questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// mapWriteError turns a dangling reference into a validation failure.
func mapWriteError(err error, ref string) error {
	if err != nil && db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: %s does not exist", shared.ErrValidation, ref)
	}
	return err
}

func scanSession(row pgx.Row) (Session, error) {
	var (
		s      Session
		status string
	)
	err := row.Scan(&s.ID, &s.UserID, &s.InterviewerID, &s.Title, &status, &s.StartTime, &s.EndTime,
		&s.Feedback, &s.LastUpdatedBy, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return Session{}, shared.ErrNotFound
		}
		return Session{}, err
	}
	s.Status = Status(status)
	return s, nil
}

func scanQuestion(row pgx.Row) (Question, error) {
	var q Question
	err := row.Scan(&q.ID, &q.SessionID, &q.ProblemID, &q.Prompt, &q.SubmittedAnswer, &q.Feedback, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if db.IsNotFound(err) {
			return Question{}, shared.ErrNotFound
		}
		return Question{}, err
	}
	return q, nil
}
