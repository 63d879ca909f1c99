package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/flowclash/battle-system/models"
	"github.com/google/uuid"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, int, error)
	ListRounds(ctx context.Context, tournamentID uuid.UUID) ([]*models.Round, error)
	GetRound(ctx context.Context, roundID uuid.UUID) (*models.Round, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, title, status, registration_open_at, submission_deadline_at,
	judging_deadline_at, public_at, created_at`

func scanTournament(rowScanner interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := rowScanner.Scan(
		&t.ID, &t.Title, &t.Status, &t.RegistrationOpenAt, &t.SubmissionDeadlineAt,
		&t.JudgingDeadlineAt, &t.PublicAt, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %s: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, int, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + tournamentColumns + ` FROM tournaments`)

	args := []interface{}{}
	if status != nil {
		queryBuilder.WriteString(" WHERE status = $1")
		args = append(args, *status)
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")
	queryBuilder.WriteString(" LIMIT $" + strconv.Itoa(len(args)+1))
	args = append(args, limit)
	queryBuilder.WriteString(" OFFSET $" + strconv.Itoa(len(args)+1))
	args = append(args, offset)

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("failed to scan tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error during tournament rows iteration: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM tournaments`
	countArgs := []interface{}{}
	if status != nil {
		countQuery += ` WHERE status = $1`
		countArgs = append(countArgs, *status)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tournaments: %w", err)
	}

	return tournaments, total, nil
}

const roundColumns = `id, tournament_id, number, kind, scoring, status, strategy,
	starts_at, submission_deadline_at, judging_deadline_at`

func scanRound(rowScanner interface{ Scan(...interface{}) error }) (*models.Round, error) {
	rnd := &models.Round{}
	err := rowScanner.Scan(
		&rnd.ID, &rnd.TournamentID, &rnd.Number, &rnd.Kind, &rnd.Scoring, &rnd.Status,
		&rnd.Strategy, &rnd.StartsAt, &rnd.SubmissionDeadlineAt, &rnd.JudgingDeadlineAt,
	)
	if err != nil {
		return nil, err
	}
	return rnd, nil
}

func (r *postgresTournamentRepository) ListRounds(ctx context.Context, tournamentID uuid.UUID) ([]*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE tournament_id = $1 ORDER BY number ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		rnd, scanErr := scanRound(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan round row: %w", scanErr)
		}
		rounds = append(rounds, rnd)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during round rows iteration: %w", err)
	}
	return rounds, nil
}

func (r *postgresTournamentRepository) GetRound(ctx context.Context, roundID uuid.UUID) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`

	rnd, err := scanRound(r.db.QueryRowContext(ctx, query, roundID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan round by id %s: %w", roundID, err)
	}
	return rnd, nil
}
