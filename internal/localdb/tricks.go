package localdb

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justestif/skate-sessions/internal/db"
)

type trickRepo struct {
	gorm *gorm.DB
}

func (r *trickRepo) List(ctx context.Context) ([]db.Trick, error) {
	var rows []trickRow
	if err := r.gorm.WithContext(ctx).Order("difficulty ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying tricks: %w", err)
	}

	tricks := make([]db.Trick, len(rows))
	for i, row := range rows {
		tricks[i] = toTrick(row)
	}
	return tricks, nil
}

func (r *trickRepo) Upsert(ctx context.Context, tricks []db.Trick) (int, error) {
	if len(tricks) == 0 {
		return 0, nil
	}

	rows := make([]trickRow, len(tricks))
	for i, t := range tricks {
		rows[i] = trickRow{
			Name:       t.Name,
			Obstacle:   t.Obstacle,
			Stance:     t.Stance,
			Difficulty: t.Difficulty,
		}
	}

	result := r.gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "obstacle"}, {Name: "stance"}},
		DoUpdates: clause.AssignmentColumns([]string{"difficulty"}),
	}).Create(&rows)
	if result.Error != nil {
		return 0, fmt.Errorf("upserting tricks: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}
