package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/flowclash/battle-system/models"
	"github.com/flowclash/battle-system/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func submittedTrack(participantID uuid.UUID) *models.MatchTrack {
	return &models.MatchTrack{
		ID:            uuid.New(),
		MatchID:       uuid.New(),
		ParticipantID: participantID,
		AudioKey:      "audio/test.mp3",
		Status:        models.TrackStatusSubmitted,
	}
}

func evaluationFor(participantID uuid.UUID, total float64) *models.Evaluation {
	return &models.Evaluation{
		ID:            uuid.New(),
		JudgeID:       uuid.New(),
		TargetType:    models.EvaluationTargetMatch,
		ParticipantID: &participantID,
		TotalScore:    &total,
	}
}

func TestComputeOutcome(t *testing.T) {
	left := uuid.New()
	right := uuid.New()

	t.Run("higher mean wins", func(t *testing.T) {
		leftTrack := submittedTrack(left)
		rightTrack := submittedTrack(right)

		status, winner := ComputeOutcome(
			[]*models.MatchTrack{leftTrack, rightTrack},
			[]*models.Evaluation{
				evaluationFor(left, 90.0),
				evaluationFor(left, 85.0),
				evaluationFor(right, 81.0),
			},
		)

		assert.Equal(t, models.MatchStatusFinished, status)
		require.NotNil(t, winner)
		assert.Equal(t, leftTrack.ID, *winner)
	})

	t.Run("equal means resolve as tie", func(t *testing.T) {
		status, winner := ComputeOutcome(
			[]*models.MatchTrack{submittedTrack(left), submittedTrack(right)},
			[]*models.Evaluation{
				evaluationFor(left, 90.0),
				evaluationFor(right, 90.0),
			},
		)

		assert.Equal(t, models.MatchStatusTie, status)
		assert.Nil(t, winner)
	})

	t.Run("track without evaluations resolves as tie", func(t *testing.T) {
		status, winner := ComputeOutcome(
			[]*models.MatchTrack{submittedTrack(left), submittedTrack(right)},
			[]*models.Evaluation{
				evaluationFor(left, 95.0),
			},
		)

		assert.Equal(t, models.MatchStatusTie, status)
		assert.Nil(t, winner)
	})

	t.Run("no evaluations at all resolves as tie", func(t *testing.T) {
		status, winner := ComputeOutcome(
			[]*models.MatchTrack{submittedTrack(left), submittedTrack(right)},
			nil,
		)

		assert.Equal(t, models.MatchStatusTie, status)
		assert.Nil(t, winner)
	})

	t.Run("fewer than two submitted tracks resolves as tie", func(t *testing.T) {
		draft := submittedTrack(right)
		draft.Status = models.TrackStatusDraft

		status, winner := ComputeOutcome(
			[]*models.MatchTrack{submittedTrack(left), draft},
			[]*models.Evaluation{evaluationFor(left, 80.0)},
		)

		assert.Equal(t, models.MatchStatusTie, status)
		assert.Nil(t, winner)
	})

	t.Run("draft tracks are excluded from scoring", func(t *testing.T) {
		leftTrack := submittedTrack(left)
		rightTrack := submittedTrack(right)
		ghost := uuid.New()
		draft := submittedTrack(ghost)
		draft.Status = models.TrackStatusDraft

		status, winner := ComputeOutcome(
			[]*models.MatchTrack{leftTrack, rightTrack, draft},
			[]*models.Evaluation{
				evaluationFor(left, 70.0),
				evaluationFor(right, 88.0),
				evaluationFor(ghost, 100.0),
			},
		)

		assert.Equal(t, models.MatchStatusFinished, status)
		require.NotNil(t, winner)
		assert.Equal(t, rightTrack.ID, *winner)
	})

	t.Run("evaluation without participant attribution is ignored", func(t *testing.T) {
		leftTrack := submittedTrack(left)
		rightTrack := submittedTrack(right)
		unattributed := evaluationFor(left, 10.0)
		unattributed.ParticipantID = nil

		status, winner := ComputeOutcome(
			[]*models.MatchTrack{leftTrack, rightTrack},
			[]*models.Evaluation{
				evaluationFor(left, 92.0),
				evaluationFor(right, 60.0),
				unattributed,
			},
		)

		assert.Equal(t, models.MatchStatusFinished, status)
		require.NotNil(t, winner)
		assert.Equal(t, leftTrack.ID, *winner)
	})
}

type fakeTrackRepo struct {
	tracks []*models.MatchTrack
}

func (f *fakeTrackRepo) Upsert(context.Context, repositories.SQLExecutor, *models.MatchTrack) error {
	return nil
}

func (f *fakeTrackRepo) ListByMatch(context.Context, repositories.SQLExecutor, uuid.UUID) ([]*models.MatchTrack, error) {
	return f.tracks, nil
}

func (f *fakeTrackRepo) MarkSubmitted(context.Context, uuid.UUID, uuid.UUID) (*models.MatchTrack, error) {
	return nil, repositories.ErrTrackNotFound
}

type fakeLeaderboardRepo struct {
	refreshes int
}

func (f *fakeLeaderboardRepo) RefreshAll(context.Context) error {
	f.refreshes++
	return nil
}

func (f *fakeLeaderboardRepo) ListByTournament(context.Context, uuid.UUID) ([]models.LeaderboardEntry, error) {
	return nil, nil
}

func (f *fakeLeaderboardRepo) ListTrackScores(context.Context, uuid.UUID) ([]models.TrackScore, error) {
	return nil, nil
}

func newFinalizerUnderTest(matches *fakeMatchRepo, tracks *fakeTrackRepo, evals *fakeEvaluationRepo, leaderboard *fakeLeaderboardRepo) *finalizeService {
	return &finalizeService{
		runTx: func(ctx context.Context, fn func(tx *sql.Tx) error) error {
			return fn(nil)
		},
		matchRepo:       matches,
		trackRepo:       tracks,
		evaluationRepo:  evals,
		leaderboardRepo: leaderboard,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestFinalizeMatchTerminalTransition(t *testing.T) {
	left := uuid.New()
	right := uuid.New()
	match := &models.Match{ID: uuid.New(), RoundID: uuid.New(), Status: models.MatchStatusActive}

	leftTrack := submittedTrack(left)
	rightTrack := submittedTrack(right)

	evals := newFakeEvaluationRepo()
	for _, e := range []*models.Evaluation{
		evaluationFor(left, 90.0),
		evaluationFor(right, 75.0),
	} {
		e.TargetID = match.ID
		require.NoError(t, evals.Upsert(context.Background(), nil, e))
	}

	matches := &fakeMatchRepo{match: match, tournamentID: uuid.New()}
	leaderboard := &fakeLeaderboardRepo{}
	svc := newFinalizerUnderTest(matches, &fakeTrackRepo{tracks: []*models.MatchTrack{leftTrack, rightTrack}}, evals, leaderboard)

	finalized, err := svc.FinalizeMatch(context.Background(), match.ID)
	require.NoError(t, err)
	require.NotNil(t, finalized)
	assert.Equal(t, models.MatchStatusFinished, finalized.Status)
	require.NotNil(t, finalized.WinnerTrackID)
	assert.Equal(t, leftTrack.ID, *finalized.WinnerTrackID)
	assert.Equal(t, 1, leaderboard.refreshes)

	// Переход терминален: повторный вызов не пересчитывает победителя,
	// даже если оценки после закрытия изменились.
	require.NoError(t, evals.Upsert(context.Background(), nil, func() *models.Evaluation {
		e := evaluationFor(right, 100.0)
		e.TargetID = match.ID
		return e
	}()))

	_, err = svc.FinalizeMatch(context.Background(), match.ID)
	assert.ErrorIs(t, err, ErrMatchAlreadyFinalized)
	assert.Equal(t, models.MatchStatusFinished, match.Status)
	require.NotNil(t, match.WinnerTrackID)
	assert.Equal(t, leftTrack.ID, *match.WinnerTrackID)
	assert.Equal(t, 1, leaderboard.refreshes)
}

func TestFinalizeMatchUnknownMatch(t *testing.T) {
	svc := newFinalizerUnderTest(&fakeMatchRepo{}, &fakeTrackRepo{}, newFakeEvaluationRepo(), &fakeLeaderboardRepo{})

	_, err := svc.FinalizeMatch(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrMatchNotFound)
}
