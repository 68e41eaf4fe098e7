package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mockround/mockround/internal/platform/db"
	"github.com/mockround/mockround/internal/shared"
)

// Repository defines user statistics persistence.
type Repository interface {
	Get(ctx context.Context, userID string) (Stats, error)
	UpdateStudyPlan(ctx context.Context, userID string, plan []string) (Stats, error)
	RecordSolve(ctx context.Context, userID string, score, timeSpent int) (Stats, error)
	RecordSubmissionSolve(ctx context.Context, solve Solve) (Stats, bool, error)
	Leaderboard(ctx context.Context, sortBy SortBy, limit int) ([]LeaderboardEntry, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const statsColumns = `user_id, problems_solved, average_score, time_spent, study_plan, updated_at`

// Get returns the stats row, creating an empty one on first access.
func (r *PGRepository) Get(ctx context.Context, userID string) (Stats, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO user_stats (user_id) VALUES ($1)
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING `+statsColumns, userID)
	return scanStats(row)
}

func (r *PGRepository) UpdateStudyPlan(ctx context.Context, userID string, plan []string) (Stats, error) {
	if plan == nil {
		plan = []string{}
	}
	row := r.pool.QueryRow(ctx, `INSERT INTO user_stats (user_id, study_plan) VALUES ($1, $2)
ON CONFLICT (user_id) DO UPDATE SET study_plan = EXCLUDED.study_plan, updated_at = NOW()
RETURNING `+statsColumns, userID, plan)
	return scanStats(row)
}

// RecordSolve folds one solve into the running totals in a single statement
// so concurrent solves for the same user never lose updates.
func (r *PGRepository) RecordSolve(ctx context.Context, userID string, score, timeSpent int) (Stats, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO user_stats AS s (user_id, problems_solved, average_score, time_spent)
VALUES ($1, 1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET
    average_score   = (s.average_score * s.problems_solved + EXCLUDED.average_score) / (s.problems_solved + 1),
    problems_solved = s.problems_solved + 1,
    time_spent      = s.time_spent + EXCLUDED.time_spent,
    updated_at      = NOW()
RETURNING `+statsColumns, userID, float64(score), int64(timeSpent))
	return scanStats(row)
}

// RecordSubmissionSolve claims solve.SubmissionID in stats_solves and folds
// the solve in the same statement. It reports false, with the current stats,
// when the submission was already counted.
func (r *PGRepository) RecordSubmissionSolve(ctx context.Context, solve Solve) (Stats, bool, error) {
	row := r.pool.QueryRow(ctx, `WITH claimed AS (
    INSERT INTO stats_solves (submission_id, user_id) VALUES ($4, $1)
    ON CONFLICT (submission_id) DO NOTHING
    RETURNING user_id
)
INSERT INTO user_stats AS s (user_id, problems_solved, average_score, time_spent)
SELECT user_id, 1, $2::double precision, $3::bigint FROM claimed
ON CONFLICT (user_id) DO UPDATE SET
    average_score   = (s.average_score * s.problems_solved + EXCLUDED.average_score) / (s.problems_solved + 1),
    problems_solved = s.problems_solved + 1,
    time_spent      = s.time_spent + EXCLUDED.time_spent,
    updated_at      = NOW()
RETURNING `+statsColumns, solve.UserID, float64(solve.Score), int64(solve.TimeSpent), solve.SubmissionID)
	var st Stats
	err := row.Scan(&st.UserID, &st.ProblemsSolved, &st.AverageScore, &st.TimeSpent, &st.StudyPlan, &st.UpdatedAt)
	switch {
	case err == nil:
		return st, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		st, err = r.Get(ctx, solve.UserID)
		return st, false, err
	default:
		return Stats{}, false, mapStatsErr(err)
	}
}

func (r *PGRepository) Leaderboard(ctx context.Context, sortBy SortBy, limit int) ([]LeaderboardEntry, error) {
	if !sortBy.Valid() {
		return nil, fmt.Errorf("%w: unknown sort %q", shared.ErrValidation, sortBy)
	}
	rows, err := r.pool.Query(ctx, `SELECT s.user_id, u.username, s.problems_solved, s.average_score, s.time_spent
FROM user_stats s
JOIN users u ON u.id = s.user_id
ORDER BY s.`+string(sortBy)+` DESC, s.problems_solved DESC, u.username
LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.ProblemsSolved, &e.AverageScore, &e.TimeSpent); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanStats(row pgx.Row) (Stats, error) {
	var s Stats
	err := row.Scan(&s.UserID, &s.ProblemsSolved, &s.AverageScore, &s.TimeSpent, &s.StudyPlan, &s.UpdatedAt)
	if err != nil {
		return Stats{}, mapStatsErr(err)
	}
	return s, nil
}

func mapStatsErr(err error) error {
	if db.IsNotFound(err) || db.IsForeignKeyViolation(err) {
		return fmt.Errorf("user: %w", shared.ErrNotFound)
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
