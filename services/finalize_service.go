package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/flowclash/battle-system/live"
	"github.com/flowclash/battle-system/models"
	"github.com/flowclash/battle-system/repositories"
	"github.com/google/uuid"
)

// scoreEpsilon — допуск сравнения средних при определении победителя.
// Точное значение в исходных данных не зафиксировано, поэтому константа
// вынесена отдельно.
const scoreEpsilon = 1e-9

type FinalizeService interface {
	// FinalizeMatch закрывает судейство матча, фиксирует исход и
	// обновляет публичные витрины. Переход терминален: повторный вызов
	// возвращает ErrMatchAlreadyFinalized и никогда не пересчитывает
	// победителя по изменившимся оценкам.
	FinalizeMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error)
	// RefreshPublicAggregates пересчитывает публичные проекции.
	// Повторные вызовы безопасны, состояние матчей не меняется.
	RefreshPublicAggregates(ctx context.Context) error
}

// txRunner исполняет fn в транзакции. Вынесен в поле сервиса, чтобы
// терминальный переход можно было гонять на фейках без базы.
type txRunner func(ctx context.Context, fn func(tx *sql.Tx) error) error

type finalizeService struct {
	runTx           txRunner
	matchRepo       repositories.MatchRepository
	trackRepo       repositories.TrackRepository
	evaluationRepo  repositories.EvaluationRepository
	leaderboardRepo repositories.LeaderboardRepository
	hub             *live.Hub
	logger          *slog.Logger
}

func NewFinalizeService(
	db *sql.DB,
	matchRepo repositories.MatchRepository,
	trackRepo repositories.TrackRepository,
	evaluationRepo repositories.EvaluationRepository,
	leaderboardRepo repositories.LeaderboardRepository,
	hub *live.Hub,
	logger *slog.Logger,
) FinalizeService {
	return &finalizeService{
		runTx: func(ctx context.Context, fn func(tx *sql.Tx) error) error {
			return repositories.WithinTransaction(ctx, db, fn)
		},
		matchRepo:       matchRepo,
		trackRepo:       trackRepo,
		evaluationRepo:  evaluationRepo,
		leaderboardRepo: leaderboardRepo,
		hub:             hub,
		logger:          logger,
	}
}

func (s *finalizeService) FinalizeMatch(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	var finalized *models.Match

	err := s.runTx(ctx, func(tx *sql.Tx) error {
		// Блокировка строки матча сериализует параллельные финализации:
		// выигрывает ровно один вызов, остальные видят терминальный статус.
		match, err := s.matchRepo.GetByIDForUpdate(ctx, tx, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if match.Status.IsTerminal() {
			return ErrMatchAlreadyFinalized
		}

		tracks, err := s.trackRepo.ListByMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		evaluations, err := s.evaluationRepo.ListByMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}

		status, winnerTrackID := ComputeOutcome(tracks, evaluations)
		if err := s.matchRepo.SetOutcome(ctx, tx, matchID, status, winnerTrackID); err != nil {
			return err
		}

		match.Status = status
		match.WinnerTrackID = winnerTrackID
		finalized = match
		return nil
	})
	if err != nil {
		return nil, err
	}

	tournamentID, err := s.matchRepo.GetTournamentID(ctx, matchID)
	if err != nil {
		s.logger.Error("failed to resolve tournament after finalize",
			slog.String("match_id", matchID.String()), slog.Any("error", err))
		return finalized, nil
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(tournamentID.String(), live.MessageMatchFinalized, finalized)
	}

	// Витрины обновляются сразу после фиксации исхода. Неудача не
	// откатывает матч: следующий периодический пересчёт её доберёт.
	if err := s.RefreshPublicAggregates(ctx); err != nil {
		s.logger.Error("failed to refresh public aggregates after finalize",
			slog.String("match_id", matchID.String()), slog.Any("error", err))
		return finalized, nil
	}
	if s.hub != nil {
		s.hub.BroadcastToRoom(tournamentID.String(), live.MessageLeaderboardUpdated,
			map[string]string{"tournament_id": tournamentID.String()})
	}

	return finalized, nil
}

func (s *finalizeService) RefreshPublicAggregates(ctx context.Context) error {
	if err := s.leaderboardRepo.RefreshAll(ctx); err != nil {
		return fmt.Errorf("failed to refresh public aggregates: %w", err)
	}
	return nil
}


// ComputeOutcome определяет исход матча по заявленным трекам и оценкам.
// Средний total_score трека берётся по оценкам, отнесённым к его участнику.
// Строго больший средний (за пределами scoreEpsilon) даёт finished и
// победителя; равенство в пределах допуска, трек без единой оценки или
// меньше двух треков дают tie без победителя.
func ComputeOutcome(tracks []*models.MatchTrack, evaluations []*models.Evaluation) (models.MatchStatus, *uuid.UUID) {
	submitted := make([]*models.MatchTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.Status == models.TrackStatusSubmitted {
			submitted = append(submitted, t)
		}
	}
	if len(submitted) < 2 {
		return models.MatchStatusTie, nil
	}

	type trackMean struct {
		track *models.MatchTrack
		mean  float64
		count int
	}
	means := make([]trackMean, 0, len(submitted))
	for _, t := range submitted {
		var sum float64
		var count int
		for _, e := range evaluations {
			if e.ParticipantID == nil || e.TotalScore == nil {
				continue
			}
			if *e.ParticipantID == t.ParticipantID {
				sum += *e.TotalScore
				count++
			}
		}
		if count == 0 {
			return models.MatchStatusTie, nil
		}
		means = append(means, trackMean{track: t, mean: sum / float64(count), count: count})
	}

	best := means[0]
	secondBest := math.Inf(-1)
	for _, m := range means[1:] {
		if m.mean > best.mean {
			secondBest = best.mean
			best = m
		} else if m.mean > secondBest {
			secondBest = m.mean
		}
	}

	if best.mean-secondBest <= scoreEpsilon {
		return models.MatchStatusTie, nil
	}
	winnerID := best.track.ID
	return models.MatchStatusFinished, &winnerID
}
