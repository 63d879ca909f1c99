package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/flowclash/battle-system/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	ErrEvaluationNotFound     = errors.New("evaluation not found")
	ErrEvaluationJudgeInvalid = errors.New("evaluation judge conflict or invalid")
	ErrEvaluationRoundInvalid = errors.New("evaluation round conflict or invalid")
)

type EvaluationRepository interface {
	// Upsert полностью заменяет оценку по ключу (judge, target_type, target_id).
	// Частичного слияния нет: пересдача перезаписывает pass/score/rubric/comment.
	Upsert(ctx context.Context, exec SQLExecutor, eval *models.Evaluation) error
	GetByJudgeAndMatch(ctx context.Context, judgeID, matchID uuid.UUID) (*models.Evaluation, error)
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID uuid.UUID) ([]*models.Evaluation, error)
}

type postgresEvaluationRepository struct {
	db *sql.DB
}

func NewPostgresEvaluationRepository(db *sql.DB) EvaluationRepository {
	return &postgresEvaluationRepository{db: db}
}

func (r *postgresEvaluationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresEvaluationRepository) Upsert(ctx context.Context, exec SQLExecutor, eval *models.Evaluation) error {
	executor := r.getExecutor(exec)

	var rubricJSON interface{}
	if eval.Rubric != nil {
		data, err := json.Marshal(eval.Rubric)
		if err != nil {
			return fmt.Errorf("failed to marshal rubric: %w", err)
		}
		rubricJSON = data
	}

	query := `
		INSERT INTO evaluations
			(id, judge_id, target_type, target_id, round_id, participant_id,
			 pass, score, rubric, comment, total_score, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		ON CONFLICT (judge_id, target_type, target_id)
		DO UPDATE SET participant_id = EXCLUDED.participant_id,
		              pass           = EXCLUDED.pass,
		              score          = EXCLUDED.score,
		              rubric         = EXCLUDED.rubric,
		              comment        = EXCLUDED.comment,
		              total_score    = EXCLUDED.total_score,
		              updated_at     = now()
		RETURNING id, created_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		uuid.New(),
		eval.JudgeID,
		eval.TargetType,
		eval.TargetID,
		eval.RoundID,
		eval.ParticipantID,
		eval.Pass,
		eval.Score,
		rubricJSON,
		eval.Comment,
		eval.TotalScore,
	).Scan(&eval.ID, &eval.CreatedAt, &eval.UpdatedAt)

	return r.handleEvaluationError(err)
}

func (r *postgresEvaluationRepository) GetByJudgeAndMatch(ctx context.Context, judgeID, matchID uuid.UUID) (*models.Evaluation, error) {
	query := `
		SELECT id, judge_id, target_type, target_id, round_id, participant_id,
		       pass, score, rubric, comment, total_score, created_at, updated_at
		FROM evaluations
		WHERE judge_id = $1 AND target_type = $2 AND target_id = $3`

	row := r.db.QueryRowContext(ctx, query, judgeID, models.EvaluationTargetMatch, matchID)
	eval, err := scanEvaluation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEvaluationNotFound
		}
		return nil, fmt.Errorf("failed to scan evaluation for judge %s match %s: %w", judgeID, matchID, err)
	}
	return eval, nil
}

func (r *postgresEvaluationRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID uuid.UUID) ([]*models.Evaluation, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, judge_id, target_type, target_id, round_id, participant_id,
		       pass, score, rubric, comment, total_score, created_at, updated_at
		FROM evaluations
		WHERE target_type = $1 AND target_id = $2
		ORDER BY created_at ASC`

	rows, err := executor.QueryContext(ctx, query, models.EvaluationTargetMatch, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluations for match %s: %w", matchID, err)
	}
	defer rows.Close()

	evaluations := make([]*models.Evaluation, 0)
	for rows.Next() {
		eval, scanErr := scanEvaluation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan evaluation row: %w", scanErr)
		}
		evaluations = append(evaluations, eval)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during evaluation rows iteration: %w", err)
	}
	return evaluations, nil
}

func scanEvaluation(rowScanner interface{ Scan(...interface{}) error }) (*models.Evaluation, error) {
	eval := &models.Evaluation{}
	var rubricRaw []byte
	err := rowScanner.Scan(
		&eval.ID, &eval.JudgeID, &eval.TargetType, &eval.TargetID, &eval.RoundID,
		&eval.ParticipantID, &eval.Pass, &eval.Score, &rubricRaw, &eval.Comment,
		&eval.TotalScore, &eval.CreatedAt, &eval.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(rubricRaw) > 0 {
		if err := json.Unmarshal(rubricRaw, &eval.Rubric); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rubric for evaluation %s: %w", eval.ID, err)
		}
	}
	return eval, nil
}

func (r *postgresEvaluationRepository) handleEvaluationError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "evaluations_judge_id_fkey":
			return ErrEvaluationJudgeInvalid
		case "evaluations_round_id_fkey":
			return ErrEvaluationRoundInvalid
		}
	}
	return err
}
