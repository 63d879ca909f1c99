package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/flowclash/battle-system/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrAssignmentNotFound     = errors.New("judge assignment not found")
	ErrAssignmentJudgeInvalid = errors.New("judge assignment judge conflict or invalid")
	ErrAssignmentMatchInvalid = errors.New("judge assignment match conflict or invalid")
)

type AssignmentRepository interface {
	// Upsert создаёт назначение (judge, match) или, при конфликте по
	// уникальной паре, возвращает существующую строку в статус assigned
	// со свежим assigned_at. Повторные и конкурирующие вызовы сходятся
	// к одной логической строке.
	Upsert(ctx context.Context, exec SQLExecutor, judgeID, matchID uuid.UUID) (*models.JudgeAssignment, error)
	GetOldestAssigned(ctx context.Context, judgeID uuid.UUID) (*models.JudgeAssignment, error)
	ListByJudge(ctx context.Context, judgeID uuid.UUID) ([]*models.JudgeAssignment, error)
	UpdateStatus(ctx context.Context, id, judgeID uuid.UUID, status models.AssignmentStatus) (*models.JudgeAssignment, error)
	ExistsForMatch(ctx context.Context, judgeID, matchID uuid.UUID) (bool, error)
}

type postgresAssignmentRepository struct {
	db *sql.DB
}

func NewPostgresAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &postgresAssignmentRepository{db: db}
}

func (r *postgresAssignmentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAssignmentRepository) Upsert(ctx context.Context, exec SQLExecutor, judgeID, matchID uuid.UUID) (*models.JudgeAssignment, error) {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO judge_assignments (id, judge_id, match_id, status, assigned_at)
		VALUES ($1, $2, $3, 'assigned', now())
		ON CONFLICT (judge_id, match_id)
		DO UPDATE SET status = 'assigned', assigned_at = now()
		RETURNING id, judge_id, match_id, status, assigned_at`

	a := &models.JudgeAssignment{}
	err := executor.QueryRowContext(ctx, query, uuid.New(), judgeID, matchID).Scan(
		&a.ID, &a.JudgeID, &a.MatchID, &a.Status, &a.AssignedAt,
	)
	if err != nil {
		return nil, r.handleAssignmentError(err)
	}
	return a, nil
}

func (r *postgresAssignmentRepository) GetOldestAssigned(ctx context.Context, judgeID uuid.UUID) (*models.JudgeAssignment, error) {
	query := `
		SELECT ja.id, ja.judge_id, ja.match_id, ja.status, ja.assigned_at,
		       m.round_id, r.number, m.status, m.starts_at
		FROM judge_assignments ja
		JOIN matches m ON m.id = ja.match_id
		JOIN rounds r ON r.id = m.round_id
		WHERE ja.judge_id = $1 AND ja.status = 'assigned'
		ORDER BY ja.assigned_at ASC, ja.id ASC
		LIMIT 1`

	a := &models.JudgeAssignment{}
	err := r.db.QueryRowContext(ctx, query, judgeID).Scan(
		&a.ID, &a.JudgeID, &a.MatchID, &a.Status, &a.AssignedAt,
		&a.RoundID, &a.RoundNumber, &a.MatchStatus, &a.MatchStartsAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to scan oldest assigned for judge %s: %w", judgeID, err)
	}
	return a, nil
}

func (r *postgresAssignmentRepository) ListByJudge(ctx context.Context, judgeID uuid.UUID) ([]*models.JudgeAssignment, error) {
	query := `
		SELECT ja.id, ja.judge_id, ja.match_id, ja.status, ja.assigned_at,
		       m.round_id, r.number, m.status, m.starts_at
		FROM judge_assignments ja
		JOIN matches m ON m.id = ja.match_id
		JOIN rounds r ON r.id = m.round_id
		WHERE ja.judge_id = $1
		ORDER BY ja.assigned_at DESC`

	rows, err := r.db.QueryContext(ctx, query, judgeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments for judge %s: %w", judgeID, err)
	}
	defer rows.Close()

	assignments := make([]*models.JudgeAssignment, 0)
	for rows.Next() {
		a := &models.JudgeAssignment{}
		if scanErr := rows.Scan(
			&a.ID, &a.JudgeID, &a.MatchID, &a.Status, &a.AssignedAt,
			&a.RoundID, &a.RoundNumber, &a.MatchStatus, &a.MatchStartsAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan assignment row: %w", scanErr)
		}
		assignments = append(assignments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during assignment rows iteration: %w", err)
	}
	return assignments, nil
}

// UpdateStatus обновляет статус только если назначение принадлежит судье.
// Отсутствие строки и чужое назначение намеренно неразличимы для вызывающего.
func (r *postgresAssignmentRepository) UpdateStatus(ctx context.Context, id, judgeID uuid.UUID, status models.AssignmentStatus) (*models.JudgeAssignment, error) {
	query := `
		UPDATE judge_assignments
		SET status = $1
		WHERE id = $2 AND judge_id = $3
		RETURNING id, judge_id, match_id, status, assigned_at`

	a := &models.JudgeAssignment{}
	err := r.db.QueryRowContext(ctx, query, status, id, judgeID).Scan(
		&a.ID, &a.JudgeID, &a.MatchID, &a.Status, &a.AssignedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to update assignment %s status: %w", id, err)
	}
	return a, nil
}

func (r *postgresAssignmentRepository) ExistsForMatch(ctx context.Context, judgeID, matchID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM judge_assignments WHERE judge_id = $1 AND match_id = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, judgeID, matchID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check assignment existence: %w", err)
	}
	return exists, nil
}

func (r *postgresAssignmentRepository) handleAssignmentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "judge_assignments_judge_id_fkey":
			return ErrAssignmentJudgeInvalid
		case "judge_assignments_match_id_fkey":
			return ErrAssignmentMatchInvalid
		}
	}
	return err
}
