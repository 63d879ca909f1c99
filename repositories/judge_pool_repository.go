package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrJudgePoolTournamentInvalid = errors.New("judge pool tournament conflict or invalid")
	ErrJudgePoolUserInvalid       = errors.New("judge pool user conflict or invalid")
)

// JudgePoolRepository — членство в пуле судей турнира, источник истины
// для допуска: член пула может судить любой матч внутри турнира.
type JudgePoolRepository interface {
	Add(ctx context.Context, tournamentID, userID uuid.UUID) error
	Remove(ctx context.Context, tournamentID, userID uuid.UUID) error
	IsMember(ctx context.Context, tournamentID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, tournamentID uuid.UUID) ([]uuid.UUID, error)
}

type postgresJudgePoolRepository struct {
	db *sql.DB
}

func NewPostgresJudgePoolRepository(db *sql.DB) JudgePoolRepository {
	return &postgresJudgePoolRepository{db: db}
}

func (r *postgresJudgePoolRepository) Add(ctx context.Context, tournamentID, userID uuid.UUID) error {
	query := `
		INSERT INTO judge_pool (tournament_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, tournamentID, userID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "judge_pool_tournament_id_fkey":
				return ErrJudgePoolTournamentInvalid
			case "judge_pool_user_id_fkey":
				return ErrJudgePoolUserInvalid
			}
		}
		return fmt.Errorf("failed to add judge %s to pool of tournament %s: %w", userID, tournamentID, err)
	}
	return nil
}

func (r *postgresJudgePoolRepository) Remove(ctx context.Context, tournamentID, userID uuid.UUID) error {
	query := `DELETE FROM judge_pool WHERE tournament_id = $1 AND user_id = $2`
	_, err := r.db.ExecContext(ctx, query, tournamentID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove judge %s from pool of tournament %s: %w", userID, tournamentID, err)
	}
	return nil
}

func (r *postgresJudgePoolRepository) IsMember(ctx context.Context, tournamentID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM judge_pool WHERE tournament_id = $1 AND user_id = $2)`
	var member bool
	if err := r.db.QueryRowContext(ctx, query, tournamentID, userID).Scan(&member); err != nil {
		return false, fmt.Errorf("failed to check judge pool membership: %w", err)
	}
	return member, nil
}

func (r *postgresJudgePoolRepository) ListMembers(ctx context.Context, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT user_id FROM judge_pool WHERE tournament_id = $1 ORDER BY user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query judge pool for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	members := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan judge pool row: %w", scanErr)
		}
		members = append(members, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during judge pool rows iteration: %w", err)
	}
	return members, nil
}
