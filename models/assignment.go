package models

import (
	"time"

	"github.com/google/uuid"
)

type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusCompleted AssignmentStatus = "completed"
	AssignmentStatusSkipped   AssignmentStatus = "skipped"
)

// JudgeAssignment — привязка судьи к матчу. Уникальна по (judge, match),
// создаётся лениво планировщиком и никогда не удаляется; при повторном
// запросе статус сбрасывается обратно в assigned.
type JudgeAssignment struct {
	ID         uuid.UUID        `json:"id" db:"id"`
	JudgeID    uuid.UUID        `json:"judge_id" db:"judge_id"`
	MatchID    uuid.UUID        `json:"match_id" db:"match_id"`
	Status     AssignmentStatus `json:"status" db:"status"`
	AssignedAt time.Time        `json:"assigned_at" db:"assigned_at"`

	// Контекст раунда/матча для ответа судье.
	RoundID       *uuid.UUID   `json:"round_id,omitempty" db:"-"`
	RoundNumber   *int         `json:"round_number,omitempty" db:"-"`
	MatchStatus   *MatchStatus `json:"match_status,omitempty" db:"-"`
	MatchStartsAt *time.Time   `json:"match_starts_at,omitempty" db:"-"`
}
