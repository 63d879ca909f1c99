package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/flowclash/battle-system/models"
	"github.com/flowclash/battle-system/repositories"
	"github.com/google/uuid"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 50
)

// TournamentPage — страница списка турниров для публичной выдачи.
type TournamentPage struct {
	Data  []*models.Tournament `json:"data"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
	Total int                  `json:"total"`
}

type TournamentService interface {
	List(ctx context.Context, status *models.TournamentStatus, page, limit int) (*TournamentPage, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error)
	ListRounds(ctx context.Context, tournamentID uuid.UUID) ([]*models.Round, error)
	ListRoundMatches(ctx context.Context, roundID uuid.UUID) ([]*models.Match, error)
	Leaderboard(ctx context.Context, tournamentID uuid.UUID) ([]models.LeaderboardEntry, error)
	// MatchScores — публичные средние баллы треков матча из витрины.
	MatchScores(ctx context.Context, matchID uuid.UUID) ([]models.TrackScore, error)
}

type tournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	matchRepo       repositories.MatchRepository
	leaderboardRepo repositories.LeaderboardRepository
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	leaderboardRepo repositories.LeaderboardRepository,
) TournamentService {
	return &tournamentService{
		tournamentRepo:  tournamentRepo,
		matchRepo:       matchRepo,
		leaderboardRepo: leaderboardRepo,
	}
}

func normalizePagination(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return page, limit
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus, page, limit int) (*TournamentPage, error) {
	page, limit = normalizePagination(page, limit)
	offset := (page - 1) * limit

	tournaments, total, err := s.tournamentRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return &TournamentPage{Data: tournaments, Page: page, Limit: limit, Total: total}, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id uuid.UUID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %s: %w", id, err)
	}
	return tournament, nil
}

func (s *tournamentService) ListRounds(ctx context.Context, tournamentID uuid.UUID) ([]*models.Round, error) {
	rounds, err := s.tournamentRepo.ListRounds(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds for tournament %s: %w", tournamentID, err)
	}
	return rounds, nil
}

func (s *tournamentService) ListRoundMatches(ctx context.Context, roundID uuid.UUID) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByRound(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for round %s: %w", roundID, err)
	}
	return matches, nil
}

func (s *tournamentService) Leaderboard(ctx context.Context, tournamentID uuid.UUID) ([]models.LeaderboardEntry, error) {
	// Проекция читается как есть: пересчёт выполняет финализация.
	entries, err := s.leaderboardRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard for tournament %s: %w", tournamentID, err)
	}
	return entries, nil
}

func (s *tournamentService) MatchScores(ctx context.Context, matchID uuid.UUID) ([]models.TrackScore, error) {
	if _, err := s.matchRepo.GetByID(ctx, nil, matchID); err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	scores, err := s.leaderboardRepo.ListTrackScores(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores for match %s: %w", matchID, err)
	}
	return scores, nil
}
