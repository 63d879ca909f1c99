package services

import (
	"context"
	"strings"
	"testing"

	"github.com/flowclash/battle-system/models"
	"github.com/flowclash/battle-system/repositories"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRubric() []models.RubricCriterion {
	return []models.RubricCriterion{
		{Key: "flow", Name: "Flow", Position: 1, Weight: 2, Min: 0, Max: 10},
		{Key: "lyrics", Name: "Lyrics", Position: 2, Weight: 1, Min: 0, Max: 10},
		{Key: "delivery", Name: "Delivery", Position: 3, Weight: 1, Min: 1, Max: 5},
	}
}

func TestComputeRubricTotal(t *testing.T) {
	criteria := testRubric()

	t.Run("all maximum values give 100", func(t *testing.T) {
		total, err := ComputeRubricTotal(map[string]float64{
			"flow": 10, "lyrics": 10, "delivery": 5,
		}, criteria)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, total, 1e-9)
	})

	t.Run("all minimum values give 0", func(t *testing.T) {
		total, err := ComputeRubricTotal(map[string]float64{
			"flow": 0, "lyrics": 0, "delivery": 1,
		}, criteria)
		require.NoError(t, err)
		assert.InDelta(t, 0.0, total, 1e-9)
	})

	t.Run("weights shift the total", func(t *testing.T) {
		// flow нормируется в 1.0 с весом 2, lyrics в 0.0 с весом 1,
		// delivery в 0.5 с весом 1: (2*1 + 1*0 + 1*0.5) / 4 * 100 = 62.5.
		total, err := ComputeRubricTotal(map[string]float64{
			"flow": 10, "lyrics": 0, "delivery": 3,
		}, criteria)
		require.NoError(t, err)
		assert.InDelta(t, 62.5, total, 1e-9)
	})

	t.Run("partial rubric averages over provided keys only", func(t *testing.T) {
		total, err := ComputeRubricTotal(map[string]float64{"flow": 5}, criteria)
		require.NoError(t, err)
		assert.InDelta(t, 50.0, total, 1e-9)
	})

	t.Run("unknown key rejects the whole rubric", func(t *testing.T) {
		_, err := ComputeRubricTotal(map[string]float64{
			"flow": 5, "stage_presence": 4,
		}, criteria)
		assert.ErrorIs(t, err, ErrRubricKeyUnknown)
	})

	t.Run("value above max rejects the whole rubric", func(t *testing.T) {
		_, err := ComputeRubricTotal(map[string]float64{"flow": 11}, criteria)
		assert.ErrorIs(t, err, ErrRubricValueOutOfRange)
	})

	t.Run("value below min rejects the whole rubric", func(t *testing.T) {
		_, err := ComputeRubricTotal(map[string]float64{"delivery": 0}, criteria)
		assert.ErrorIs(t, err, ErrRubricValueOutOfRange)
	})

	t.Run("empty rubric yields zero", func(t *testing.T) {
		total, err := ComputeRubricTotal(map[string]float64{}, criteria)
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}

type fakeEvaluationRepo struct {
	byKey map[string]*models.Evaluation
}

func newFakeEvaluationRepo() *fakeEvaluationRepo {
	return &fakeEvaluationRepo{byKey: make(map[string]*models.Evaluation)}
}

func evalKey(judgeID uuid.UUID, targetType string, targetID uuid.UUID) string {
	return judgeID.String() + "/" + targetType + "/" + targetID.String()
}

func (f *fakeEvaluationRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, eval *models.Evaluation) error {
	key := evalKey(eval.JudgeID, eval.TargetType, eval.TargetID)
	if existing, ok := f.byKey[key]; ok {
		eval.ID = existing.ID
	} else if eval.ID == uuid.Nil {
		eval.ID = uuid.New()
	}
	cp := *eval
	f.byKey[key] = &cp
	return nil
}

func (f *fakeEvaluationRepo) GetByJudgeAndMatch(_ context.Context, judgeID, matchID uuid.UUID) (*models.Evaluation, error) {
	if e, ok := f.byKey[evalKey(judgeID, models.EvaluationTargetMatch, matchID)]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, repositories.ErrEvaluationNotFound
}

func (f *fakeEvaluationRepo) ListByMatch(_ context.Context, _ repositories.SQLExecutor, matchID uuid.UUID) ([]*models.Evaluation, error) {
	var out []*models.Evaluation
	for _, e := range f.byKey {
		if e.TargetType == models.EvaluationTargetMatch && e.TargetID == matchID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeRubricRepo struct {
	criteria []models.RubricCriterion
}

func (f *fakeRubricRepo) ListByRound(context.Context, uuid.UUID) ([]models.RubricCriterion, error) {
	return f.criteria, nil
}

func newRecorderUnderTest(match *models.Match, participants []models.MatchParticipant) (EvaluationService, *fakeEvaluationRepo) {
	evaluations := newFakeEvaluationRepo()
	matches := &fakeMatchRepo{match: match, participants: participants}
	rubrics := &fakeRubricRepo{criteria: testRubric()}
	return NewEvaluationService(matches, evaluations, rubrics), evaluations
}

func floatPtr(v float64) *float64 { return &v }

func TestUpsertEvaluation(t *testing.T) {
	participantID := uuid.New()
	match := &models.Match{ID: uuid.New(), RoundID: uuid.New(), Status: models.MatchStatusActive}
	participants := []models.MatchParticipant{
		{MatchID: match.ID, ParticipantID: participantID},
	}

	t.Run("requires at least one scoring field", func(t *testing.T) {
		svc, _ := newRecorderUnderTest(match, participants)
		_, err := svc.UpsertEvaluation(context.Background(), uuid.New(), match.ID, EvaluationInput{})
		assert.ErrorIs(t, err, ErrScoringFieldsMissing)
	})

	t.Run("rejects score outside 0..100", func(t *testing.T) {
		svc, _ := newRecorderUnderTest(match, participants)
		_, err := svc.UpsertEvaluation(context.Background(), uuid.New(), match.ID, EvaluationInput{Score: floatPtr(101)})
		assert.ErrorIs(t, err, ErrScoreOutOfRange)
	})

	t.Run("rejects oversized comment", func(t *testing.T) {
		svc, _ := newRecorderUnderTest(match, participants)
		comment := strings.Repeat("а", maxCommentLength+1)
		_, err := svc.UpsertEvaluation(context.Background(), uuid.New(), match.ID, EvaluationInput{
			Score:   floatPtr(50),
			Comment: &comment,
		})
		assert.ErrorIs(t, err, ErrCommentTooLong)
	})

	t.Run("rejects unknown match", func(t *testing.T) {
		svc, _ := newRecorderUnderTest(match, participants)
		_, err := svc.UpsertEvaluation(context.Background(), uuid.New(), uuid.New(), EvaluationInput{Score: floatPtr(50)})
		assert.ErrorIs(t, err, ErrMatchNotFound)
	})

	t.Run("rejects participant outside the match", func(t *testing.T) {
		svc, _ := newRecorderUnderTest(match, participants)
		stranger := uuid.New()
		_, err := svc.UpsertEvaluation(context.Background(), uuid.New(), match.ID, EvaluationInput{
			ParticipantID: &stranger,
			Score:         floatPtr(50),
		})
		assert.ErrorIs(t, err, ErrParticipantNotInMatch)
	})

	t.Run("invalid rubric value records nothing", func(t *testing.T) {
		svc, repo := newRecorderUnderTest(match, participants)
		judgeID := uuid.New()
		_, err := svc.UpsertEvaluation(context.Background(), judgeID, match.ID, EvaluationInput{
			Rubric: map[string]float64{"flow": 11},
		})
		assert.ErrorIs(t, err, ErrRubricValueOutOfRange)
		assert.Empty(t, repo.byKey)
	})

	t.Run("rubric drives the total score", func(t *testing.T) {
		svc, _ := newRecorderUnderTest(match, participants)
		eval, err := svc.UpsertEvaluation(context.Background(), uuid.New(), match.ID, EvaluationInput{
			ParticipantID: &participantID,
			Rubric:        map[string]float64{"flow": 10, "lyrics": 0, "delivery": 3},
		})
		require.NoError(t, err)
		require.NotNil(t, eval.TotalScore)
		assert.InDelta(t, 62.5, *eval.TotalScore, 1e-9)
		assert.Equal(t, models.EvaluationTargetMatch, eval.TargetType)
		assert.Equal(t, match.RoundID, eval.RoundID)
	})

	t.Run("bare score becomes the total", func(t *testing.T) {
		svc, _ := newRecorderUnderTest(match, participants)
		eval, err := svc.UpsertEvaluation(context.Background(), uuid.New(), match.ID, EvaluationInput{Score: floatPtr(73)})
		require.NoError(t, err)
		require.NotNil(t, eval.TotalScore)
		assert.InDelta(t, 73.0, *eval.TotalScore, 1e-9)
	})

	t.Run("resubmission replaces the previous verdict", func(t *testing.T) {
		svc, repo := newRecorderUnderTest(match, participants)
		judgeID := uuid.New()

		first, err := svc.UpsertEvaluation(context.Background(), judgeID, match.ID, EvaluationInput{Score: floatPtr(40)})
		require.NoError(t, err)

		comment := "пересдача"
		second, err := svc.UpsertEvaluation(context.Background(), judgeID, match.ID, EvaluationInput{
			Score:   floatPtr(88),
			Comment: &comment,
		})
		require.NoError(t, err)

		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, repo.byKey, 1)

		stored, err := repo.GetByJudgeAndMatch(context.Background(), judgeID, match.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.TotalScore)
		assert.InDelta(t, 88.0, *stored.TotalScore, 1e-9)
		require.NotNil(t, stored.Comment)
		assert.Equal(t, comment, *stored.Comment)
	})
}
