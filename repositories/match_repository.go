package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/angling-league/models"
)

var (
	ErrMatchNotFound       = errors.New("match not found")
	ErrMatchStatusConflict = errors.New("match status changed concurrently")
	ErrAnglerAlreadyOnList = errors.New("angler already registered for match")
	ErrAnglerNotOnList     = errors.New("angler not registered for match")
	ErrMatchRosterFull     = errors.New("match roster is full")
)

type MatchFilter struct {
	SeriesID *string
	ClubID   *string
	Statuses []models.MatchStatus
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	List(ctx context.Context, filter MatchFilter) ([]*models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	// UpdateStatus changes the status only if it still equals from.
	UpdateStatus(ctx context.Context, id string, from, to models.MatchStatus) error
	AddAngler(ctx context.Context, exec SQLExecutor, matchID, anglerID string) error
	// RegisterAngler adds the angler while the roster is below capacity.
	RegisterAngler(ctx context.Context, matchID, anglerID string) error
	RemoveAngler(ctx context.Context, exec SQLExecutor, matchID, anglerID string) error
}

type sqlMatchRepository struct {
	db *sql.DB
}

func NewMatchRepository(db *sql.DB) MatchRepository {
	return &sqlMatchRepository{db: db}
}

func (r *sqlMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

var matchConstraintErrors = map[string]error{
	"match_anglers_pkey":          ErrAnglerAlreadyOnList,
	"match_anglers_match_id_fkey": ErrMatchNotFound,
}

const matchColumns = `id, series_id, club_id, name, venue, match_date, draw_time, start_time, end_time,
		capacity, paid_places, status, created_at, updated_at`

func (r *sqlMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	now := time.Now().UTC()
	if match.CreatedAt.IsZero() {
		match.CreatedAt = now
	}
	match.UpdatedAt = now

	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := executor.ExecContext(ctx, query,
		match.ID, match.SeriesID, match.ClubID, match.Name, match.Venue, match.Date,
		match.DrawTime, match.StartTime, match.EndTime, match.Capacity, match.PaidPlaces,
		match.Status, match.CreatedAt, match.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert match %s: %w", match.ID, err)
	}

	for _, anglerID := range match.RegisteredAnglers {
		if err := r.AddAngler(ctx, executor, match.ID, anglerID); err != nil {
			return err
		}
	}
	return nil
}

func (r *sqlMatchRepository) scanMatch(row rowScanner) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.SeriesID, &m.ClubID, &m.Name, &m.Venue, &m.Date, &m.DrawTime, &m.StartTime,
		&m.EndTime, &m.Capacity, &m.PaidPlaces, &m.Status, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.RegisteredAnglers = []string{}
	return &m, nil
}

func (r *sqlMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	match, err := r.scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %s: %w", id, err)
	}
	if err := r.loadRosters(ctx, []*models.Match{match}); err != nil {
		return nil, err
	}
	return match, nil
}

func (r *sqlMatchRepository) List(ctx context.Context, filter MatchFilter) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE 1 = 1`)

	args := []interface{}{}
	placeholder := func() string {
		return "$" + strconv.Itoa(len(args))
	}

	if filter.SeriesID != nil {
		args = append(args, *filter.SeriesID)
		queryBuilder.WriteString(" AND series_id = " + placeholder())
	}
	if filter.ClubID != nil {
		args = append(args, *filter.ClubID)
		queryBuilder.WriteString(" AND club_id = " + placeholder())
	}
	if len(filter.Statuses) > 0 {
		marks := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			args = append(args, s)
			marks = append(marks, placeholder())
		}
		queryBuilder.WriteString(" AND status IN (" + strings.Join(marks, ", ") + ")")
	}
	queryBuilder.WriteString(" ORDER BY match_date ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	rows.Close()

	if err := r.loadRosters(ctx, matches); err != nil {
		return nil, err
	}
	return matches, nil
}

// loadRosters fills RegisteredAnglers for the given matches with one query.
func (r *sqlMatchRepository) loadRosters(ctx context.Context, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}
	byID := make(map[string]*models.Match, len(matches))
	args := make([]interface{}, 0, len(matches))
	marks := make([]string, 0, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
		args = append(args, m.ID)
		marks = append(marks, "$"+strconv.Itoa(len(args)))
	}

	query := `SELECT match_id, angler_id FROM match_anglers
		WHERE match_id IN (` + strings.Join(marks, ", ") + `)
		ORDER BY match_id ASC, angler_id ASC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query match rosters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var matchID, anglerID string
		if err := rows.Scan(&matchID, &anglerID); err != nil {
			return fmt.Errorf("failed to scan match roster row: %w", err)
		}
		if m, ok := byID[matchID]; ok {
			m.RegisteredAnglers = append(m.RegisteredAnglers, anglerID)
		}
	}
	return rows.Err()
}

func (r *sqlMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	match.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE matches SET
			series_id = $1, club_id = $2, name = $3, venue = $4, match_date = $5, draw_time = $6,
			start_time = $7, end_time = $8, capacity = $9, paid_places = $10, status = $11, updated_at = $12
		WHERE id = $13`
	result, err := executor.ExecContext(ctx, query,
		match.SeriesID, match.ClubID, match.Name, match.Venue, match.Date, match.DrawTime,
		match.StartTime, match.EndTime, match.Capacity, match.PaidPlaces, match.Status, match.UpdatedAt,
		match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %s: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *sqlMatchRepository) UpdateStatus(ctx context.Context, id string, from, to models.MatchStatus) error {
	query := `UPDATE matches SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update status of match %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchStatusConflict)
}

func (r *sqlMatchRepository) AddAngler(ctx context.Context, exec SQLExecutor, matchID, anglerID string) error {
	executor := r.getExecutor(exec)
	query := `INSERT INTO match_anglers (match_id, angler_id, registered_at) VALUES ($1, $2, $3)`
	_, err := executor.ExecContext(ctx, query, matchID, anglerID, time.Now().UTC())
	if err != nil {
		return constraintError(err, matchConstraintErrors)
	}
	return nil
}

func (r *sqlMatchRepository) RegisterAngler(ctx context.Context, matchID, anglerID string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		// Touching the row serializes registrations for the same match.
		lock, err := tx.ExecContext(ctx, `UPDATE matches SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), matchID)
		if err != nil {
			return fmt.Errorf("failed to lock match %s: %w", matchID, err)
		}
		if err := checkAffectedRows(lock, ErrMatchNotFound); err != nil {
			return err
		}

		var capacity, registered, already int
		err = tx.QueryRowContext(ctx, `
			SELECT m.capacity,
				(SELECT COUNT(*) FROM match_anglers a WHERE a.match_id = m.id),
				(SELECT COUNT(*) FROM match_anglers a WHERE a.match_id = m.id AND a.angler_id = $1)
			FROM matches m WHERE m.id = $2`, anglerID, matchID).Scan(&capacity, &registered, &already)
		if err != nil {
			return fmt.Errorf("failed to read roster of match %s: %w", matchID, err)
		}
		if already > 0 {
			return ErrAnglerAlreadyOnList
		}
		if registered >= capacity {
			return ErrMatchRosterFull
		}
		return r.AddAngler(ctx, tx, matchID, anglerID)
	})
}

func (r *sqlMatchRepository) RemoveAngler(ctx context.Context, exec SQLExecutor, matchID, anglerID string) error {
	executor := r.getExecutor(exec)
	query := `DELETE FROM match_anglers WHERE match_id = $1 AND angler_id = $2`
	result, err := executor.ExecContext(ctx, query, matchID, anglerID)
	if err != nil {
		return fmt.Errorf("failed to remove angler %s from match %s: %w", anglerID, matchID, err)
	}
	return checkAffectedRows(result, ErrAnglerNotOnList)
}
