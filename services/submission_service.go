package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/flowclash/battle-system/models"
	"github.com/flowclash/battle-system/repositories"
	"github.com/flowclash/battle-system/storage"
	"github.com/google/uuid"
)

// TrackInput — заявка трека участника на матч.
type TrackInput struct {
	AudioKey string  `json:"audio_key"`
	Lyrics   *string `json:"lyrics,omitempty"`
}

type SubmissionService interface {
	// UpsertTrack создаёт или обновляет трек вызывающего участника в матче.
	// На пару (match, participant) существует не больше одного трека.
	UpsertTrack(ctx context.Context, matchID, participantID uuid.UUID, input TrackInput) (*models.MatchTrack, error)
	// SubmitTrack переводит трек из draft в submitted; только заявленные
	// треки видны судьям и участвуют в допуске матча.
	SubmitTrack(ctx context.Context, trackID, participantID uuid.UUID) (*models.MatchTrack, error)
}

type submissionService struct {
	matchRepo repositories.MatchRepository
	trackRepo repositories.TrackRepository
	uploader  storage.FileUploader
}

func NewSubmissionService(
	matchRepo repositories.MatchRepository,
	trackRepo repositories.TrackRepository,
	uploader storage.FileUploader,
) SubmissionService {
	return &submissionService{
		matchRepo: matchRepo,
		trackRepo: trackRepo,
		uploader:  uploader,
	}
}

func (s *submissionService) UpsertTrack(ctx context.Context, matchID, participantID uuid.UUID, input TrackInput) (*models.MatchTrack, error) {
	if input.AudioKey == "" {
		return nil, ErrTrackAudioRequired
	}

	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %s: %w", matchID, err)
	}
	if match.Status.IsTerminal() {
		return nil, ErrMatchAlreadyFinalized
	}

	participants, err := s.matchRepo.ListParticipants(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants for match %s: %w", matchID, err)
	}
	found := false
	for _, p := range participants {
		if p.ParticipantID == participantID {
			found = true
			break
		}
	}
	if !found {
		return nil, ErrParticipantNotInMatch
	}

	var previousKey string
	existing, err := s.trackRepo.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks for match %s: %w", matchID, err)
	}
	for _, t := range existing {
		if t.ParticipantID == participantID {
			previousKey = t.AudioKey
			break
		}
	}

	track := &models.MatchTrack{
		MatchID:       matchID,
		ParticipantID: participantID,
		AudioKey:      input.AudioKey,
		Lyrics:        input.Lyrics,
	}
	if err := s.trackRepo.Upsert(ctx, nil, track); err != nil {
		return nil, fmt.Errorf("failed to upsert track for match %s participant %s: %w", matchID, participantID, err)
	}

	// Заменённое аудио удаляется из хранилища лучшим усилием,
	// неудача не откатывает сам трек.
	if previousKey != "" && previousKey != track.AudioKey && s.uploader != nil {
		if err := s.uploader.Delete(ctx, previousKey); err != nil {
			slog.Warn("failed to delete replaced audio object",
				slog.String("key", previousKey), slog.Any("error", err))
		}
	}

	s.resolveAudioURL(track)
	return track, nil
}

func (s *submissionService) SubmitTrack(ctx context.Context, trackID, participantID uuid.UUID) (*models.MatchTrack, error) {
	track, err := s.trackRepo.MarkSubmitted(ctx, trackID, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrTrackNotFound) {
			// Чужой трек и несуществующий id неразличимы для вызывающего.
			return nil, ErrTrackNotFound
		}
		return nil, fmt.Errorf("failed to submit track %s: %w", trackID, err)
	}
	s.resolveAudioURL(track)
	return track, nil
}

func (s *submissionService) resolveAudioURL(track *models.MatchTrack) {
	if s.uploader != nil && track.AudioKey != "" {
		track.AudioURL = s.uploader.GetPublicURL(track.AudioKey)
	}
}
