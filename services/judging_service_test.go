package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/flowclash/battle-system/models"
	"github.com/flowclash/battle-system/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAssignmentRepo воспроизводит семантику upsert по (judge, match)
// в памяти, чтобы гонять планировщик без базы.
type fakeAssignmentRepo struct {
	assignments []*models.JudgeAssignment
	clock       time.Time
}

func (f *fakeAssignmentRepo) find(judgeID, matchID uuid.UUID) *models.JudgeAssignment {
	for _, a := range f.assignments {
		if a.JudgeID == judgeID && a.MatchID == matchID {
			return a
		}
	}
	return nil
}

func (f *fakeAssignmentRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, judgeID, matchID uuid.UUID) (*models.JudgeAssignment, error) {
	f.clock = f.clock.Add(time.Second)
	if existing := f.find(judgeID, matchID); existing != nil {
		existing.Status = models.AssignmentStatusAssigned
		existing.AssignedAt = f.clock
		cp := *existing
		return &cp, nil
	}
	a := &models.JudgeAssignment{
		ID:         uuid.New(),
		JudgeID:    judgeID,
		MatchID:    matchID,
		Status:     models.AssignmentStatusAssigned,
		AssignedAt: f.clock,
	}
	f.assignments = append(f.assignments, a)
	cp := *a
	return &cp, nil
}

func (f *fakeAssignmentRepo) GetOldestAssigned(_ context.Context, judgeID uuid.UUID) (*models.JudgeAssignment, error) {
	var oldest *models.JudgeAssignment
	for _, a := range f.assignments {
		if a.JudgeID != judgeID || a.Status != models.AssignmentStatusAssigned {
			continue
		}
		if oldest == nil || a.AssignedAt.Before(oldest.AssignedAt) {
			oldest = a
		}
	}
	if oldest == nil {
		return nil, repositories.ErrAssignmentNotFound
	}
	cp := *oldest
	return &cp, nil
}

func (f *fakeAssignmentRepo) ListByJudge(_ context.Context, judgeID uuid.UUID) ([]*models.JudgeAssignment, error) {
	var out []*models.JudgeAssignment
	for _, a := range f.assignments {
		if a.JudgeID == judgeID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeAssignmentRepo) UpdateStatus(_ context.Context, id, judgeID uuid.UUID, status models.AssignmentStatus) (*models.JudgeAssignment, error) {
	for _, a := range f.assignments {
		if a.ID == id && a.JudgeID == judgeID {
			a.Status = status
			cp := *a
			return &cp, nil
		}
	}
	return nil, repositories.ErrAssignmentNotFound
}

func (f *fakeAssignmentRepo) ExistsForMatch(_ context.Context, judgeID, matchID uuid.UUID) (bool, error) {
	return f.find(judgeID, matchID) != nil, nil
}

// fakeMatchRepo отдаёт заранее подготовленных кандидатов, помечая
// has_assignment по состоянию fakeAssignmentRepo. Как и настоящее
// хранилище, фильтрует по предикату допуска до применения лимита.
type fakeMatchRepo struct {
	candidates  []*models.MatchCandidate
	assignments *fakeAssignmentRepo

	match        *models.Match
	participants []models.MatchParticipant
	tournamentID uuid.UUID
}

func (f *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id uuid.UUID) (*models.Match, error) {
	if f.match != nil && f.match.ID == id {
		cp := *f.match
		return &cp, nil
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) GetByIDForUpdate(_ context.Context, _ *sql.Tx, id uuid.UUID) (*models.Match, error) {
	if f.match != nil && f.match.ID == id {
		cp := *f.match
		return &cp, nil
	}
	return nil, repositories.ErrMatchNotFound
}

func (f *fakeMatchRepo) ListByRound(context.Context, uuid.UUID) ([]*models.Match, error) {
	return nil, nil
}

func (f *fakeMatchRepo) ListParticipants(context.Context, uuid.UUID) ([]models.MatchParticipant, error) {
	return f.participants, nil
}

func (f *fakeMatchRepo) FindJudgeEligibleCandidates(_ context.Context, judgeID uuid.UUID, limit int) ([]*models.MatchCandidate, error) {
	now := time.Now()
	out := make([]*models.MatchCandidate, 0, len(f.candidates))
	for _, c := range f.candidates {
		cp := *c
		cp.HasAssignment = f.assignments.find(judgeID, c.MatchID) != nil
		if !IsEligible(&cp, now) {
			continue
		}
		out = append(out, &cp)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeMatchRepo) SetOutcome(_ context.Context, _ repositories.SQLExecutor, matchID uuid.UUID, status models.MatchStatus, winnerTrackID *uuid.UUID) error {
	// Как и в SQL, терминальная строка не перезаписывается.
	if f.match == nil || f.match.ID != matchID || f.match.Status.IsTerminal() {
		return repositories.ErrMatchNotFound
	}
	f.match.Status = status
	f.match.WinnerTrackID = winnerTrackID
	return nil
}

func (f *fakeMatchRepo) GetTournamentID(_ context.Context, matchID uuid.UUID) (uuid.UUID, error) {
	if f.match != nil && f.match.ID == matchID && f.tournamentID != uuid.Nil {
		return f.tournamentID, nil
	}
	return uuid.Nil, repositories.ErrMatchNotFound
}

func newSchedulerUnderTest(candidates []*models.MatchCandidate) (JudgingService, *fakeAssignmentRepo) {
	assignments := &fakeAssignmentRepo{clock: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
	matches := &fakeMatchRepo{candidates: candidates, assignments: assignments}
	svc := NewJudgingService(matches, assignments, nil, nil, nil, nil, nil)
	return svc, assignments
}

func schedulerCandidate(roundNumber int) *models.MatchCandidate {
	c := eligibleCandidate()
	c.RoundNumber = roundNumber
	return c
}

func TestNextAssignmentPicksFirstEligible(t *testing.T) {
	first := schedulerCandidate(1)
	ineligible := schedulerCandidate(1)
	ineligible.SubmittedTrackCount = 0
	second := schedulerCandidate(2)

	svc, _ := newSchedulerUnderTest([]*models.MatchCandidate{ineligible, first, second})

	judgeID := uuid.New()
	assignment, err := svc.NextAssignment(context.Background(), judgeID)
	require.NoError(t, err)
	require.NotNil(t, assignment)

	assert.Equal(t, first.MatchID, assignment.MatchID)
	assert.Equal(t, judgeID, assignment.JudgeID)
	assert.Equal(t, models.AssignmentStatusAssigned, assignment.Status)
	require.NotNil(t, assignment.RoundNumber)
	assert.Equal(t, 1, *assignment.RoundNumber)
}

func TestNextAssignmentIsIdempotent(t *testing.T) {
	first := schedulerCandidate(1)
	second := schedulerCandidate(2)

	svc, repo := newSchedulerUnderTest([]*models.MatchCandidate{first, second})
	judgeID := uuid.New()

	a1, err := svc.NextAssignment(context.Background(), judgeID)
	require.NoError(t, err)
	require.NotNil(t, a1)

	// Повторный запрос возвращает то же открытое назначение, а не второй матч.
	a2, err := svc.NextAssignment(context.Background(), judgeID)
	require.NoError(t, err)
	require.NotNil(t, a2)

	assert.Equal(t, a1.ID, a2.ID)
	assert.Equal(t, a1.MatchID, a2.MatchID)
	assert.Len(t, repo.assignments, 1)
}

func TestNextAssignmentAdvancesAfterCompletion(t *testing.T) {
	first := schedulerCandidate(1)
	second := schedulerCandidate(2)

	svc, _ := newSchedulerUnderTest([]*models.MatchCandidate{first, second})
	judgeID := uuid.New()

	a1, err := svc.NextAssignment(context.Background(), judgeID)
	require.NoError(t, err)
	require.NotNil(t, a1)

	_, err = svc.UpdateAssignmentStatus(context.Background(), a1.ID, judgeID, models.AssignmentStatusCompleted)
	require.NoError(t, err)

	a2, err := svc.NextAssignment(context.Background(), judgeID)
	require.NoError(t, err)
	require.NotNil(t, a2)
	assert.Equal(t, second.MatchID, a2.MatchID)
}

func TestNextAssignmentOffersMatchBehindEvaluatedBacklog(t *testing.T) {
	// Оценённые матчи не должны вытеснять подходящий кандидат за
	// пределы окна выборки: хранилище отсеивает их до лимита.
	candidates := make([]*models.MatchCandidate, 0, candidateFetchLimit+1)
	for i := 0; i < candidateFetchLimit; i++ {
		evaluated := schedulerCandidate(1)
		evaluated.HasEvaluation = true
		candidates = append(candidates, evaluated)
	}
	eligible := schedulerCandidate(2)
	candidates = append(candidates, eligible)

	svc, _ := newSchedulerUnderTest(candidates)

	assignment, err := svc.NextAssignment(context.Background(), uuid.New())
	require.NoError(t, err)
	require.NotNil(t, assignment)
	assert.Equal(t, eligible.MatchID, assignment.MatchID)
}

func TestNextAssignmentReturnsNilWhenNothingEligible(t *testing.T) {
	stale := schedulerCandidate(1)
	stale.RoundStatus = models.RoundStatusClosed

	svc, repo := newSchedulerUnderTest([]*models.MatchCandidate{stale})

	assignment, err := svc.NextAssignment(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, assignment)
	assert.Empty(t, repo.assignments)
}

func TestUpdateAssignmentStatus(t *testing.T) {
	first := schedulerCandidate(1)
	svc, _ := newSchedulerUnderTest([]*models.MatchCandidate{first})
	judgeID := uuid.New()

	assignment, err := svc.NextAssignment(context.Background(), judgeID)
	require.NoError(t, err)
	require.NotNil(t, assignment)

	t.Run("rejects assigned as a target status", func(t *testing.T) {
		_, err := svc.UpdateAssignmentStatus(context.Background(), assignment.ID, judgeID, models.AssignmentStatusAssigned)
		assert.ErrorIs(t, err, ErrAssignmentInvalidStatus)
	})

	t.Run("foreign judge cannot touch the assignment", func(t *testing.T) {
		_, err := svc.UpdateAssignmentStatus(context.Background(), assignment.ID, uuid.New(), models.AssignmentStatusSkipped)
		assert.ErrorIs(t, err, ErrAssignmentNotFound)
	})

	t.Run("owner can skip", func(t *testing.T) {
		updated, err := svc.UpdateAssignmentStatus(context.Background(), assignment.ID, judgeID, models.AssignmentStatusSkipped)
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStatusSkipped, updated.Status)
	})
}
