package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/angling-league/models"
)

var (
	ErrResultNotFound     = errors.New("result not found")
	ErrResultMatchInvalid = errors.New("result match conflict or invalid")
)

// PositionUpdate carries the derived positions of one angler in a match.
type PositionUpdate struct {
	UserID          string
	Position        *int
	SectionPosition *int
}

type ResultRepository interface {
	// Upsert writes the result for (MatchID, UserID). The last write wins.
	Upsert(ctx context.Context, exec SQLExecutor, result *models.Result) error
	GetByMatchAndAngler(ctx context.Context, matchID, userID string) (*models.Result, error)
	ListByMatch(ctx context.Context, matchID string) ([]*models.Result, error)
	ListBySeries(ctx context.Context, seriesID string) ([]*models.Result, error)
	UpdatePositions(ctx context.Context, matchID string, updates []PositionUpdate) error
}

type sqlResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) ResultRepository {
	return &sqlResultRepository{db: db}
}

func (r *sqlResultRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

var resultConstraintErrors = map[string]error{
	"results_match_id_fkey": ErrResultMatchInvalid,
}

const resultColumns = `id, match_id, series_id, club_id, user_id, user_name, peg, section, weight,
		status, position, section_position, updated_at`

func (r *sqlResultRepository) Upsert(ctx context.Context, exec SQLExecutor, result *models.Result) error {
	executor := r.getExecutor(exec)
	result.UpdatedAt = time.Now().UTC()

	query := `
		INSERT INTO results (` + resultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (match_id, user_id) DO UPDATE SET
			series_id = excluded.series_id,
			club_id = excluded.club_id,
			user_name = excluded.user_name,
			peg = excluded.peg,
			section = excluded.section,
			weight = excluded.weight,
			status = excluded.status,
			updated_at = excluded.updated_at
		RETURNING id`
	err := executor.QueryRowContext(ctx, query,
		result.ID, result.MatchID, result.SeriesID, result.ClubID, result.UserID, result.UserName,
		result.Peg, result.Section, result.Weight, result.Status, result.Position,
		result.SectionPosition, result.UpdatedAt,
	).Scan(&result.ID)
	if err != nil {
		return constraintError(fmt.Errorf("failed to upsert result for %s in match %s: %w", result.UserID, result.MatchID, err), resultConstraintErrors)
	}
	return nil
}

func (r *sqlResultRepository) scanResult(row rowScanner) (*models.Result, error) {
	var res models.Result
	err := row.Scan(
		&res.ID, &res.MatchID, &res.SeriesID, &res.ClubID, &res.UserID, &res.UserName, &res.Peg,
		&res.Section, &res.Weight, &res.Status, &res.Position, &res.SectionPosition, &res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *sqlResultRepository) GetByMatchAndAngler(ctx context.Context, matchID, userID string) (*models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE match_id = $1 AND user_id = $2`
	res, err := r.scanResult(r.db.QueryRowContext(ctx, query, matchID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to scan result for %s in match %s: %w", userID, matchID, err)
	}
	return res, nil
}

func (r *sqlResultRepository) list(ctx context.Context, query string, arg string) ([]*models.Result, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := make([]*models.Result, 0)
	for rows.Next() {
		res, scanErr := r.scanResult(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", scanErr)
		}
		results = append(results, res)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during result rows iteration: %w", err)
	}
	return results, nil
}

func (r *sqlResultRepository) ListByMatch(ctx context.Context, matchID string) ([]*models.Result, error) {
	query := `SELECT ` + resultColumns + ` FROM results WHERE match_id = $1 ORDER BY user_id ASC`
	return r.list(ctx, query, matchID)
}

// ListBySeries reads through the matches table so results whose own
// series_id is stale still follow the match they belong to.
func (r *sqlResultRepository) ListBySeries(ctx context.Context, seriesID string) ([]*models.Result, error) {
	query := `
		SELECT r.id, r.match_id, m.series_id, r.club_id, r.user_id, r.user_name, r.peg, r.section, r.weight,
		       r.status, r.position, r.section_position, r.updated_at
		FROM results r
		JOIN matches m ON m.id = r.match_id
		WHERE m.series_id = $1
		ORDER BY r.match_id ASC, r.user_id ASC`
	return r.list(ctx, query, seriesID)
}

func (r *sqlResultRepository) UpdatePositions(ctx context.Context, matchID string, updates []PositionUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			UPDATE results SET position = $1, section_position = $2
			WHERE match_id = $3 AND user_id = $4`)
		if err != nil {
			return fmt.Errorf("UpdatePositions failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, u := range updates {
			if _, err := stmt.ExecContext(ctx, u.Position, u.SectionPosition, matchID, u.UserID); err != nil {
				return fmt.Errorf("UpdatePositions failed for %s in match %s: %w", u.UserID, matchID, err)
			}
		}
		return nil
	})
}
