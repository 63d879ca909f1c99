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
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchRoundInvalid  = errors.New("match round conflict or invalid")
	ErrMatchWinnerInvalid = errors.New("match winner track conflict or invalid")
)

type MatchRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error)
	// GetByIDForUpdate блокирует строку матча до конца транзакции.
	// Единственная операция ядра, требующая взаимного исключения, —
	// финализация; параллельные вызовы сериализуются на этой блокировке.
	GetByIDForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*models.Match, error)
	ListByRound(ctx context.Context, roundID uuid.UUID) ([]*models.Match, error)
	ListParticipants(ctx context.Context, matchID uuid.UUID) ([]models.MatchParticipant, error)
	// FindJudgeEligibleCandidates возвращает только кандидатов, проходящих
	// предикат допуска на момент запроса, в порядке: номер раунда, затем
	// starts_at (NULLS FIRST), затем id матча. Входы предиката возвращаются
	// вместе с кандидатом для повторной проверки в сервисном слое.
	FindJudgeEligibleCandidates(ctx context.Context, judgeID uuid.UUID, limit int) ([]*models.MatchCandidate, error)
	// SetOutcome выставляет терминальный статус и победителя. Условие по
	// текущему статусу защищает от повторной финализации на уровне строки.
	SetOutcome(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, status models.MatchStatus, winnerTrackID *uuid.UUID) error
	GetTournamentID(ctx context.Context, matchID uuid.UUID) (uuid.UUID, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, round_id, status, starts_at, ends_at, winner_track_id, created_at`

func scanMatch(rowScanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	err := rowScanner.Scan(
		&m.ID, &m.RoundID, &m.Status, &m.StartsAt, &m.EndsAt, &m.WinnerTrackID, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id uuid.UUID) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	m, err := scanMatch(executor.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`

	m, err := scanMatch(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to lock match %s: %w", id, err)
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, roundID uuid.UUID) ([]*models.Match, error) {
	query := `
		SELECT ` + matchColumns + `
		FROM matches
		WHERE round_id = $1
		ORDER BY starts_at ASC NULLS LAST, id ASC`

	rows, err := r.db.QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for round %s: %w", roundID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) ListParticipants(ctx context.Context, matchID uuid.UUID) ([]models.MatchParticipant, error) {
	query := `
		SELECT match_id, participant_id, seed
		FROM match_participants
		WHERE match_id = $1
		ORDER BY seed ASC NULLS LAST, participant_id ASC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for match %s: %w", matchID, err)
	}
	defer rows.Close()

	participants := make([]models.MatchParticipant, 0)
	for rows.Next() {
		var p models.MatchParticipant
		if scanErr := rows.Scan(&p.MatchID, &p.ParticipantID, &p.Seed); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match participant row: %w", scanErr)
		}
		participants = append(participants, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match participant rows iteration: %w", err)
	}
	return participants, nil
}

func (r *postgresMatchRepository) FindJudgeEligibleCandidates(ctx context.Context, judgeID uuid.UUID, limit int) ([]*models.MatchCandidate, error) {
	// Полный предикат допуска применяется уже здесь, до LIMIT: иначе
	// окно выборки забивают матчи, которые судья давно оценил, и
	// подходящий кандидат за его пределами не предлагается никогда.
	// Поля предиката всё равно возвращаются: сервис перепроверяет их
	// на своих часах как страховку от гонок с дедлайном.
	query := `
		SELECT m.id, m.round_id, r.tournament_id, r.number, r.status,
		       r.judging_deadline_at, m.status, m.starts_at,
		       (SELECT COUNT(*) FROM match_tracks mt
		        WHERE mt.match_id = m.id AND mt.status = 'submitted') AS submitted_tracks,
		       EXISTS (SELECT 1 FROM judge_pool jp
		               WHERE jp.tournament_id = r.tournament_id AND jp.user_id = $1) AS in_pool,
		       EXISTS (SELECT 1 FROM judge_assignments ja
		               WHERE ja.judge_id = $1 AND ja.match_id = m.id) AS has_assignment,
		       EXISTS (SELECT 1 FROM evaluations e
		               WHERE e.judge_id = $1 AND e.target_type = 'match' AND e.target_id = m.id) AS has_evaluation
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		WHERE r.status = 'judging'
		  AND (r.judging_deadline_at IS NULL OR r.judging_deadline_at > now())
		  AND m.status NOT IN ('finished', 'tie')
		  AND EXISTS (SELECT 1 FROM match_tracks mt
		              WHERE mt.match_id = m.id AND mt.status = 'submitted')
		  AND EXISTS (SELECT 1 FROM judge_pool jp
		              WHERE jp.tournament_id = r.tournament_id AND jp.user_id = $1)
		  AND NOT EXISTS (SELECT 1 FROM judge_assignments ja
		                  WHERE ja.judge_id = $1 AND ja.match_id = m.id)
		  AND NOT EXISTS (SELECT 1 FROM evaluations e
		                  WHERE e.judge_id = $1 AND e.target_type = 'match' AND e.target_id = m.id)
		ORDER BY r.number ASC, m.starts_at ASC NULLS FIRST, m.id ASC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, judgeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query eligible candidates for judge %s: %w", judgeID, err)
	}
	defer rows.Close()

	candidates := make([]*models.MatchCandidate, 0)
	for rows.Next() {
		c := &models.MatchCandidate{}
		if scanErr := rows.Scan(
			&c.MatchID, &c.RoundID, &c.TournamentID, &c.RoundNumber, &c.RoundStatus,
			&c.JudgingDeadlineAt, &c.MatchStatus, &c.StartsAt,
			&c.SubmittedTrackCount, &c.InJudgePool, &c.HasAssignment, &c.HasEvaluation,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan candidate row: %w", scanErr)
		}
		candidates = append(candidates, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during candidate rows iteration: %w", err)
	}
	return candidates, nil
}

func (r *postgresMatchRepository) SetOutcome(ctx context.Context, exec SQLExecutor, matchID uuid.UUID, status models.MatchStatus, winnerTrackID *uuid.UUID) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches
		SET status = $1, winner_track_id = $2, ends_at = now()
		WHERE id = $3 AND status NOT IN ('finished', 'tie')`

	result, err := executor.ExecContext(ctx, query, status, winnerTrackID, matchID)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) GetTournamentID(ctx context.Context, matchID uuid.UUID) (uuid.UUID, error) {
	query := `
		SELECT r.tournament_id
		FROM matches m
		JOIN rounds r ON r.id = m.round_id
		WHERE m.id = $1`

	var tournamentID uuid.UUID
	err := r.db.QueryRowContext(ctx, query, matchID).Scan(&tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, ErrMatchNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve tournament for match %s: %w", matchID, err)
	}
	return tournamentID, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_round_id_fkey":
			return ErrMatchRoundInvalid
		case "matches_winner_track_id_fkey":
			return ErrMatchWinnerInvalid
		}
	}
	return err
}
