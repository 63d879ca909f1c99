package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowclash/battle-system/models"
	"github.com/flowclash/battle-system/repositories"
	"github.com/google/uuid"
)

// candidateFetchLimit ограничивает выборку кандидатов на один запрос судьи.
// Хранилище отдаёт только проходящих предикат допуска, поэтому лимит лишь
// страхует объём выборки: берётся первый кандидат, прошедший перепроверку.
const candidateFetchLimit = 50

// BattleDetails — полный контекст матча для судьи: участники, треки,
// рубрика раунда и его собственная предыдущая оценка, если была.
type BattleDetails struct {
	Match         *models.Match            `json:"battle"`
	Round         *models.Round            `json:"round"`
	Participants  []models.MatchParticipant `json:"participants"`
	Tracks        []*models.MatchTrack     `json:"tracks"`
	Rubric        []models.RubricCriterion `json:"rubric"`
	OwnEvaluation *models.Evaluation       `json:"own_evaluation,omitempty"`
}

type JudgingService interface {
	// NextAssignment возвращает открытое назначение судьи либо создаёт
	// новое по первому подходящему кандидату. (nil, nil) — кандидатов нет.
	NextAssignment(ctx context.Context, judgeID uuid.UUID) (*models.JudgeAssignment, error)
	UpdateAssignmentStatus(ctx context.Context, assignmentID, judgeID uuid.UUID, status models.AssignmentStatus) (*models.JudgeAssignment, error)
	ListAssignments(ctx context.Context, judgeID uuid.UUID) ([]*models.JudgeAssignment, error)
	BattleDetails(ctx context.Context, judgeID, matchID uuid.UUID) (*BattleDetails, error)

	// Управление пулом судей турнира.
	AddToPool(ctx context.Context, tournamentID, userID uuid.UUID) error
	RemoveFromPool(ctx context.Context, tournamentID, userID uuid.UUID) error
	ListPool(ctx context.Context, tournamentID uuid.UUID) ([]uuid.UUID, error)
}

type judgingService struct {
	matchRepo      repositories.MatchRepository
	assignmentRepo repositories.AssignmentRepository
	evaluationRepo repositories.EvaluationRepository
	judgePoolRepo  repositories.JudgePoolRepository
	trackRepo      repositories.TrackRepository
	rubricRepo     repositories.RubricRepository
	tournamentRepo repositories.TournamentRepository
}

func NewJudgingService(
	matchRepo repositories.MatchRepository,
	assignmentRepo repositories.AssignmentRepository,
	evaluationRepo repositories.EvaluationRepository,
	judgePoolRepo repositories.JudgePoolRepository,
	trackRepo repositories.TrackRepository,
	rubricRepo repositories.RubricRepository,
	tournamentRepo repositories.TournamentRepository,
) JudgingService {
	return &judgingService{
		matchRepo:      matchRepo,
		assignmentRepo: assignmentRepo,
		evaluationRepo: evaluationRepo,
		judgePoolRepo:  judgePoolRepo,
		trackRepo:      trackRepo,
		rubricRepo:     rubricRepo,
		tournamentRepo: tournamentRepo,
	}
}

func (s *judgingService) NextAssignment(ctx context.Context, judgeID uuid.UUID) (*models.JudgeAssignment, error) {
	// У судьи может быть не больше одного открытого назначения: повторный
	// запрос возвращает самое старое из них, что делает вызов идемпотентным
	// при ретраях и дублях.
	existing, err := s.assignmentRepo.GetOldestAssigned(ctx, judgeID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repositories.ErrAssignmentNotFound) {
		return nil, fmt.Errorf("failed to load open assignment for judge %s: %w", judgeID, err)
	}

	candidates, err := s.matchRepo.FindJudgeEligibleCandidates(ctx, judgeID, candidateFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates for judge %s: %w", judgeID, err)
	}

	now := time.Now()
	var picked *models.MatchCandidate
	for _, c := range candidates {
		if IsEligible(c, now) {
			picked = c
			break
		}
	}
	if picked == nil {
		return nil, nil
	}

	// Идемпотентный upsert по (judge, match): гонка двух запросов одного
	// судьи сходится к одной строке благодаря уникальному ограничению,
	// проигравший видит ту же строку, а не ошибку.
	assignment, err := s.assignmentRepo.Upsert(ctx, nil, judgeID, picked.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert assignment for judge %s match %s: %w", judgeID, picked.MatchID, err)
	}

	assignment.RoundID = &picked.RoundID
	assignment.RoundNumber = &picked.RoundNumber
	assignment.MatchStatus = &picked.MatchStatus
	assignment.MatchStartsAt = picked.StartsAt
	return assignment, nil
}

func (s *judgingService) UpdateAssignmentStatus(ctx context.Context, assignmentID, judgeID uuid.UUID, status models.AssignmentStatus) (*models.JudgeAssignment, error) {
	if status != models.AssignmentStatusCompleted && status != models.AssignmentStatusSkipped {
		return nil, ErrAssignmentInvalidStatus
	}

	assignment, err := s.assignmentRepo.UpdateStatus(ctx, assignmentID, judgeID, status)
	if err != nil {
		if errors.Is(err, repositories.ErrAssignmentNotFound) {
			// Чужое назначение и несуществующий id неразличимы,
			// чтобы не раскрывать назначения других судей.
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to update assignment %s: %w", assignmentID, err)
	}
	return assignment, nil
}

func (s *judgingService) ListAssignments(ctx context.Context, judgeID uuid.UUID) ([]*models.JudgeAssignment, error) {
	assignments, err := s.assignmentRepo.ListByJudge(ctx, judgeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments for judge %s: %w", judgeID, err)
	}
	return assignments, nil
}

func (s *judgingService) BattleDetails(ctx context.Context, judgeID, matchID uuid.UUID) (*BattleDetails, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}

	hasAssignment, err := s.assignmentRepo.ExistsForMatch(ctx, judgeID, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to check assignment for judge %s: %w", judgeID, err)
	}
	if !hasAssignment {
		tournamentID, err := s.matchRepo.GetTournamentID(ctx, matchID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve tournament for match %s: %w", matchID, err)
		}
		inPool, err := s.judgePoolRepo.IsMember(ctx, tournamentID, judgeID)
		if err != nil {
			return nil, fmt.Errorf("failed to check judge pool membership: %w", err)
		}
		if !inPool {
			return nil, ErrJudgeNotInPool
		}
	}

	round, err := s.tournamentRepo.GetRound(ctx, match.RoundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load round %s: %w", match.RoundID, err)
	}
	participants, err := s.matchRepo.ListParticipants(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants for match %s: %w", matchID, err)
	}
	tracks, err := s.trackRepo.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks for match %s: %w", matchID, err)
	}
	rubric, err := s.rubricRepo.ListByRound(ctx, match.RoundID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rubric for round %s: %w", match.RoundID, err)
	}

	details := &BattleDetails{
		Match:        match,
		Round:        round,
		Participants: participants,
		Tracks:       tracks,
		Rubric:       rubric,
	}

	own, err := s.evaluationRepo.GetByJudgeAndMatch(ctx, judgeID, matchID)
	if err != nil && !errors.Is(err, repositories.ErrEvaluationNotFound) {
		return nil, fmt.Errorf("failed to load own evaluation: %w", err)
	}
	if err == nil {
		details.OwnEvaluation = own
	}

	return details, nil
}

func (s *judgingService) AddToPool(ctx context.Context, tournamentID, userID uuid.UUID) error {
	if err := s.judgePoolRepo.Add(ctx, tournamentID, userID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrJudgePoolTournamentInvalid):
			return ErrTournamentNotFound
		case errors.Is(err, repositories.ErrJudgePoolUserInvalid):
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to add judge %s to pool of tournament %s: %w", userID, tournamentID, err)
	}
	return nil
}

func (s *judgingService) RemoveFromPool(ctx context.Context, tournamentID, userID uuid.UUID) error {
	if err := s.judgePoolRepo.Remove(ctx, tournamentID, userID); err != nil {
		return fmt.Errorf("failed to remove judge %s from pool of tournament %s: %w", userID, tournamentID, err)
	}
	return nil
}

func (s *judgingService) ListPool(ctx context.Context, tournamentID uuid.UUID) ([]uuid.UUID, error) {
	members, err := s.judgePoolRepo.ListMembers(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list judge pool of tournament %s: %w", tournamentID, err)
	}
	return members, nil
}
