package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TrickRepository handles trick catalog database operations.
type TrickRepository struct {
	pool *pgxpool.Pool
}

// List retrieves the whole catalog ordered by difficulty, then name.
func (r *TrickRepository) List(ctx context.Context) ([]Trick, error) {
	query := `
		SELECT id, name, obstacle, stance, difficulty
		FROM tricks
		ORDER BY difficulty ASC, name ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying tricks: %w", err)
	}
	defer rows.Close()

	var tricks []Trick
	for rows.Next() {
		var t Trick
		if err := rows.Scan(&t.ID, &t.Name, &t.Obstacle, &t.Stance, &t.Difficulty); err != nil {
			return nil, fmt.Errorf("scanning trick: %w", err)
		}
		tricks = append(tricks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tricks: %w", err)
	}
	return tricks, nil
}

// Upsert inserts or updates catalog entries efficiently.
// Entries must be unique on (name, obstacle, stance).
func (r *TrickRepository) Upsert(ctx context.Context, tricks []Trick) (int, error) {
	if len(tricks) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO tricks (name, obstacle, stance, difficulty)
		SELECT * FROM unnest($1::text[], $2::text[], $3::text[], $4::int[])
		ON CONFLICT (name, obstacle, stance) DO UPDATE SET
			difficulty = EXCLUDED.difficulty
	`

	names := make([]string, len(tricks))
	obstacles := make([]string, len(tricks))
	stances := make([]string, len(tricks))
	difficulties := make([]int32, len(tricks))
	for i, t := range tricks {
		names[i] = t.Name
		obstacles[i] = t.Obstacle
		stances[i] = t.Stance
		difficulties[i] = int32(t.Difficulty)
	}

	result, err := r.pool.Exec(ctx, query, names, obstacles, stances, difficulties)
	if err != nil {
		return 0, fmt.Errorf("upserting tricks: %w", err)
	}
	return int(result.RowsAffected()), nil
}
