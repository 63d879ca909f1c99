package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/flowclash/battle-system/models"
	"github.com/flowclash/battle-system/repositories"
	"github.com/google/uuid"
)

const maxCommentLength = 2000

// EvaluationInput — полезная нагрузка пересдаваемой оценки. Требуется
// хотя бы одно из полей pass/score/rubric; пересдача полностью заменяет
// предыдущую оценку судьи по матчу.
type EvaluationInput struct {
	ParticipantID *uuid.UUID         `json:"participant_id,omitempty"`
	Pass          *bool              `json:"pass,omitempty"`
	Score         *float64           `json:"score,omitempty"`
	Rubric        map[string]float64 `json:"rubric,omitempty"`
	Comment       *string            `json:"comment,omitempty"`
}

type EvaluationService interface {
	UpsertEvaluation(ctx context.Context, judgeID, matchID uuid.UUID, input EvaluationInput) (*models.Evaluation, error)
}

type evaluationService struct {
	matchRepo      repositories.MatchRepository
	evaluationRepo repositories.EvaluationRepository
	rubricRepo     repositories.RubricRepository
}

func NewEvaluationService(
	matchRepo repositories.MatchRepository,
	evaluationRepo repositories.EvaluationRepository,
	rubricRepo repositories.RubricRepository,
) EvaluationService {
	return &evaluationService{
		matchRepo:      matchRepo,
		evaluationRepo: evaluationRepo,
		rubricRepo:     rubricRepo,
	}
}

func (s *evaluationService) UpsertEvaluation(ctx context.Context, judgeID, matchID uuid.UUID, input EvaluationInput) (*models.Evaluation, error) {
	if input.Pass == nil && input.Score == nil && input.Rubric == nil {
		return nil, ErrScoringFieldsMissing
	}
	if input.Score != nil && (*input.Score < 0 || *input.Score > 100) {
		return nil, ErrScoreOutOfRange
	}
	if input.Comment != nil && utf8.RuneCountInString(*input.Comment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}

	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}

	if input.ParticipantID != nil {
		participants, err := s.matchRepo.ListParticipants(ctx, matchID)
		if err != nil {
			return nil, fmt.Errorf("failed to load participants for match %s: %w", matchID, err)
		}
		found := false
		for _, p := range participants {
			if p.ParticipantID == *input.ParticipantID {
				found = true
				break
			}
		}
		if !found {
			return nil, ErrParticipantNotInMatch
		}
	}

	var totalScore *float64
	if input.Rubric != nil {
		criteria, err := s.rubricRepo.ListByRound(ctx, match.RoundID)
		if err != nil {
			return nil, fmt.Errorf("failed to load rubric for round %s: %w", match.RoundID, err)
		}
		total, err := ComputeRubricTotal(input.Rubric, criteria)
		if err != nil {
			return nil, err
		}
		totalScore = &total
	} else if input.Score != nil {
		totalScore = input.Score
	}

	eval := &models.Evaluation{
		JudgeID:       judgeID,
		TargetType:    models.EvaluationTargetMatch,
		TargetID:      matchID,
		RoundID:       match.RoundID,
		ParticipantID: input.ParticipantID,
		Pass:          input.Pass,
		Score:         input.Score,
		Rubric:        input.Rubric,
		Comment:       input.Comment,
		TotalScore:    totalScore,
	}
	if err := s.evaluationRepo.Upsert(ctx, nil, eval); err != nil {
		return nil, fmt.Errorf("failed to upsert evaluation for judge %s match %s: %w", judgeID, matchID, err)
	}
	return eval, nil
}

// ComputeRubricTotal сводит значения рубрики во взвешенный итог 0..100.
// Каждое значение нормируется в [0,1] по границам критерия, взвешенное
// среднее масштабируется к сотне. Неизвестный ключ или значение вне
// [min, max] отклоняют всю оценку, ничего не записывается.
func ComputeRubricTotal(rubric map[string]float64, criteria []models.RubricCriterion) (float64, error) {
	byKey := make(map[string]models.RubricCriterion, len(criteria))
	for _, c := range criteria {
		byKey[c.Key] = c
	}

	var weightedSum, weightTotal float64
	for key, value := range rubric {
		criterion, ok := byKey[key]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrRubricKeyUnknown, key)
		}
		if value < criterion.Min || value > criterion.Max {
			return 0, fmt.Errorf("%w: %q = %v, allowed [%v, %v]",
				ErrRubricValueOutOfRange, key, value, criterion.Min, criterion.Max)
		}
		normalized := 1.0
		if criterion.Max > criterion.Min {
			normalized = (value - criterion.Min) / (criterion.Max - criterion.Min)
		}
		weightedSum += normalized * criterion.Weight
		weightTotal += criterion.Weight
	}
	if weightTotal == 0 {
		return 0, nil
	}
	return weightedSum / weightTotal * 100, nil
}
