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
	ErrTrackNotFound           = errors.New("match track not found")
	ErrTrackMatchInvalid       = errors.New("match track match conflict or invalid")
	ErrTrackParticipantInvalid = errors.New("match track participant conflict or invalid")
)

type TrackRepository interface {
	// Upsert создаёт трек на пару (match, participant) или обновляет
	// аудио/текст существующего. Статус сбрасывается в draft до submit.
	Upsert(ctx context.Context, exec SQLExecutor, track *models.MatchTrack) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID uuid.UUID) ([]*models.MatchTrack, error)
	MarkSubmitted(ctx context.Context, id, participantID uuid.UUID) (*models.MatchTrack, error)
}

type postgresTrackRepository struct {
	db *sql.DB
}

func NewPostgresTrackRepository(db *sql.DB) TrackRepository {
	return &postgresTrackRepository{db: db}
}

func (r *postgresTrackRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTrackRepository) Upsert(ctx context.Context, exec SQLExecutor, track *models.MatchTrack) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_tracks
			(id, match_id, participant_id, audio_key, lyrics, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'draft', now())
		ON CONFLICT (match_id, participant_id)
		DO UPDATE SET audio_key  = EXCLUDED.audio_key,
		              lyrics     = EXCLUDED.lyrics,
		              status     = 'draft',
		              updated_at = now()
		RETURNING id, status, submitted_at, updated_at`

	err := executor.QueryRowContext(ctx, query,
		uuid.New(), track.MatchID, track.ParticipantID, track.AudioKey, track.Lyrics,
	).Scan(&track.ID, &track.Status, &track.SubmittedAt, &track.UpdatedAt)

	return r.handleTrackError(err)
}

func (r *postgresTrackRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID uuid.UUID) ([]*models.MatchTrack, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, participant_id, audio_key, lyrics, status, submitted_at, updated_at
		FROM match_tracks
		WHERE match_id = $1
		ORDER BY participant_id ASC`

	rows, err := executor.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks for match %s: %w", matchID, err)
	}
	defer rows.Close()

	tracks := make([]*models.MatchTrack, 0)
	for rows.Next() {
		t := &models.MatchTrack{}
		if scanErr := rows.Scan(
			&t.ID, &t.MatchID, &t.ParticipantID, &t.AudioKey, &t.Lyrics,
			&t.Status, &t.SubmittedAt, &t.UpdatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match track row: %w", scanErr)
		}
		tracks = append(tracks, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match track rows iteration: %w", err)
	}
	return tracks, nil
}

// MarkSubmitted фиксирует заявку трека. submitted_at выставляется только при
// первой подаче, повторный вызов его не сдвигает.
func (r *postgresTrackRepository) MarkSubmitted(ctx context.Context, id, participantID uuid.UUID) (*models.MatchTrack, error) {
	query := `
		UPDATE match_tracks
		SET status = 'submitted',
		    submitted_at = COALESCE(submitted_at, now()),
		    updated_at = now()
		WHERE id = $1 AND participant_id = $2
		RETURNING id, match_id, participant_id, audio_key, lyrics, status, submitted_at, updated_at`

	t := &models.MatchTrack{}
	err := r.db.QueryRowContext(ctx, query, id, participantID).Scan(
		&t.ID, &t.MatchID, &t.ParticipantID, &t.AudioKey, &t.Lyrics,
		&t.Status, &t.SubmittedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTrackNotFound
		}
		return nil, fmt.Errorf("failed to mark track %s submitted: %w", id, err)
	}
	return t, nil
}

func (r *postgresTrackRepository) handleTrackError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "match_tracks_match_id_fkey":
			return ErrTrackMatchInvalid
		case "match_tracks_participant_id_fkey":
			return ErrTrackParticipantInvalid
		}
	}
	return err
}
