package models

import (
	"time"

	"github.com/google/uuid"
)

type RoundStatus string

const (
	RoundStatusScheduled  RoundStatus = "scheduled"
	RoundStatusSubmission RoundStatus = "submission"
	RoundStatusJudging    RoundStatus = "judging"
	RoundStatusClosed     RoundStatus = "closed"
)

type RoundKind string

const (
	RoundKindQualifier   RoundKind = "qualifier"
	RoundKindElimination RoundKind = "elimination"
)

// Round — этап турнира. Статус раунда определяет, какие матчи
// доступны судьям для назначения.
type Round struct {
	ID                   uuid.UUID   `json:"id" db:"id"`
	TournamentID         uuid.UUID   `json:"tournament_id" db:"tournament_id"`
	Number               int         `json:"number" db:"number"`
	Kind                 RoundKind   `json:"kind" db:"kind"`
	Scoring              string      `json:"scoring" db:"scoring"`
	Status               RoundStatus `json:"status" db:"status"`
	Strategy             string      `json:"strategy" db:"strategy"`
	StartsAt             *time.Time  `json:"starts_at,omitempty" db:"starts_at"`
	SubmissionDeadlineAt *time.Time  `json:"submission_deadline_at,omitempty" db:"submission_deadline_at"`
	JudgingDeadlineAt    *time.Time  `json:"judging_deadline_at,omitempty" db:"judging_deadline_at"`
}
