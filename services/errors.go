package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrNotFound           = errors.New("requested resource not found")
	ErrMatchNotFound      = errors.New("battle not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTrackNotFound      = errors.New("track not found")
	ErrUserNotFound       = errors.New("user not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrScoringFieldsMissing    = errors.New("at least one of rubric, score or pass is required")
	ErrRubricKeyUnknown        = errors.New("rubric key is not defined for this round")
	ErrRubricValueOutOfRange   = errors.New("rubric value is outside the allowed range")
	ErrScoreOutOfRange         = errors.New("score must be between 0 and 100")
	ErrCommentTooLong          = errors.New("comment is too long")
	ErrParticipantNotInMatch   = errors.New("participant is not part of this battle")
	ErrAssignmentInvalidStatus = errors.New("assignment status must be completed or skipped")
	ErrTrackAudioRequired      = errors.New("audio key is required")
	ErrMatchHasNoTracks        = errors.New("battle has no submitted tracks")

	// Конфликты
	ErrMatchAlreadyFinalized = errors.New("battle is already finalized")
	ErrUserEmailConflict     = errors.New("email address is already in use")

	// Аутентификация и доступ
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrJudgeNotInPool         = errors.New("judge is not a member of the tournament judge pool")
)
