package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/angling-league/models"
)

var ErrSeriesNotFound = errors.New("series not found")

type SeriesRepository interface {
	Create(ctx context.Context, series *models.Series) error
	GetByID(ctx context.Context, id string) (*models.Series, error)
	ListByClub(ctx context.Context, clubID string) ([]*models.Series, error)
	SetCompleted(ctx context.Context, id string, completed bool) error
}

type sqlSeriesRepository struct {
	db *sql.DB
}

func NewSeriesRepository(db *sql.DB) SeriesRepository {
	return &sqlSeriesRepository{db: db}
}

func (r *sqlSeriesRepository) Create(ctx context.Context, series *models.Series) error {
	if series.CreatedAt.IsZero() {
		series.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO series (id, club_id, name, is_completed, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := r.db.ExecContext(ctx, query, series.ID, series.ClubID, series.Name, series.IsCompleted, series.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert series %s: %w", series.ID, err)
	}
	return nil
}

func (r *sqlSeriesRepository) GetByID(ctx context.Context, id string) (*models.Series, error) {
	var s models.Series
	query := `SELECT id, club_id, name, is_completed, created_at FROM series WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.ClubID, &s.Name, &s.IsCompleted, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSeriesNotFound
		}
		return nil, fmt.Errorf("failed to scan series by id %s: %w", id, err)
	}
	return &s, nil
}

func (r *sqlSeriesRepository) ListByClub(ctx context.Context, clubID string) ([]*models.Series, error) {
	query := `SELECT id, club_id, name, is_completed, created_at FROM series WHERE club_id = $1 ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to query series for club %s: %w", clubID, err)
	}
	defer rows.Close()

	list := make([]*models.Series, 0)
	for rows.Next() {
		var s models.Series
		if err := rows.Scan(&s.ID, &s.ClubID, &s.Name, &s.IsCompleted, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}

func (r *sqlSeriesRepository) SetCompleted(ctx context.Context, id string, completed bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE series SET is_completed = $1 WHERE id = $2`, completed, id)
	if err != nil {
		return fmt.Errorf("failed to update series %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrSeriesNotFound)
}
