package models

import (
	"time"

	"github.com/google/uuid"
)

// MatchCandidate — типизированная строка запроса кандидатов планировщика.
// Несёт все входы предиката допуска, вычисленные хранилищем для конкретного
// судьи; сам предикат применяется в сервисном слое.
type MatchCandidate struct {
	MatchID             uuid.UUID   `db:"match_id"`
	RoundID             uuid.UUID   `db:"round_id"`
	TournamentID        uuid.UUID   `db:"tournament_id"`
	RoundNumber         int         `db:"round_number"`
	RoundStatus         RoundStatus `db:"round_status"`
	JudgingDeadlineAt   *time.Time  `db:"judging_deadline_at"`
	MatchStatus         MatchStatus `db:"match_status"`
	StartsAt            *time.Time  `db:"starts_at"`
	SubmittedTrackCount int         `db:"submitted_track_count"`
	InJudgePool         bool        `db:"in_judge_pool"`
	HasAssignment       bool        `db:"has_assignment"`
	HasEvaluation       bool        `db:"has_evaluation"`
}
