package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/flowclash/battle-system/models"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// LeaderboardRepository обслуживает производные проекции: средний балл
// трека и число побед участника. Обе пересчитываются целиком из оценок
// и матчей, ядро их никогда не пишет напрямую.
type LeaderboardRepository interface {
	// RefreshAll пересчитывает обе проекции. Безопасен при повторных
	// вызовах и не трогает состояние матчей.
	RefreshAll(ctx context.Context) error
	ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.LeaderboardEntry, error)
	ListTrackScores(ctx context.Context, matchID uuid.UUID) ([]models.TrackScore, error)
}

type postgresLeaderboardRepository struct {
	db *sql.DB
}

func NewPostgresLeaderboardRepository(db *sql.DB) LeaderboardRepository {
	return &postgresLeaderboardRepository{db: db}
}

func (r *postgresLeaderboardRepository) RefreshAll(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if _, err := r.db.ExecContext(gCtx, `REFRESH MATERIALIZED VIEW CONCURRENTLY mv_match_track_scores`); err != nil {
			return fmt.Errorf("failed to refresh mv_match_track_scores: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := r.db.ExecContext(gCtx, `REFRESH MATERIALIZED VIEW CONCURRENTLY mv_tournament_leaderboard`); err != nil {
			return fmt.Errorf("failed to refresh mv_tournament_leaderboard: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func (r *postgresLeaderboardRepository) ListByTournament(ctx context.Context, tournamentID uuid.UUID) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT tournament_id, participant_id, wins
		FROM mv_tournament_leaderboard
		WHERE tournament_id = $1
		ORDER BY wins DESC, participant_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard for tournament %s: %w", tournamentID, err)
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0)
	for rows.Next() {
		var e models.LeaderboardEntry
		if scanErr := rows.Scan(&e.TournamentID, &e.ParticipantID, &e.Wins); scanErr != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", scanErr)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during leaderboard rows iteration: %w", err)
	}
	return entries, nil
}

func (r *postgresLeaderboardRepository) ListTrackScores(ctx context.Context, matchID uuid.UUID) ([]models.TrackScore, error) {
	query := `
		SELECT match_track_id, match_id, avg_total
		FROM mv_match_track_scores
		WHERE match_id = $1
		ORDER BY avg_total DESC`

	rows, err := r.db.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query track scores for match %s: %w", matchID, err)
	}
	defer rows.Close()

	scores := make([]models.TrackScore, 0)
	for rows.Next() {
		var s models.TrackScore
		if scanErr := rows.Scan(&s.MatchTrackID, &s.MatchID, &s.AvgTotal); scanErr != nil {
			return nil, fmt.Errorf("failed to scan track score row: %w", scanErr)
		}
		scores = append(scores, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during track score rows iteration: %w", err)
	}
	return scores, nil
}
