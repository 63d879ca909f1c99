package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flowclash/battle-system/models"
	"github.com/google/uuid"
)

type RubricRepository interface {
	ListByRound(ctx context.Context, roundID uuid.UUID) ([]models.RubricCriterion, error)
}

type postgresRubricRepository struct {
	db *sql.DB
}

func NewPostgresRubricRepository(db *sql.DB) RubricRepository {
	return &postgresRubricRepository{db: db}
}

func (r *postgresRubricRepository) ListByRound(ctx context.Context, roundID uuid.UUID) ([]models.RubricCriterion, error) {
	query := `
		SELECT round_id, key, name, position, weight, min, max
		FROM round_rubric_criteria
		WHERE round_id = $1
		ORDER BY position ASC, key ASC`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rubric criteria for round %s: %w", roundID, err)
	}
	defer rows.Close()

	criteria := make([]models.RubricCriterion, 0)
	for rows.Next() {
		var c models.RubricCriterion
		if scanErr := rows.Scan(&c.RoundID, &c.Key, &c.Name, &c.Position, &c.Weight, &c.Min, &c.Max); scanErr != nil {
			return nil, fmt.Errorf("failed to scan rubric criterion row: %w", scanErr)
		}
		criteria = append(criteria, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rubric criterion rows iteration: %w", err)
	}
	return criteria, nil
}
