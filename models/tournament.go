package models

import (
	"time"

	"github.com/google/uuid"
)

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
type TournamentStatus string

const (
	TournamentStatusRegistration TournamentStatus = "registration"
	TournamentStatusSubmission   TournamentStatus = "submission"
	TournamentStatusJudging      TournamentStatus = "judging"
	TournamentStatusPublished    TournamentStatus = "published"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentStatusRegistration, TournamentStatusSubmission, TournamentStatusJudging, TournamentStatusPublished:
		return true
	}
	return false
}

// Tournament представляет турнир (сезон баттлов).
type Tournament struct {
	ID                   uuid.UUID        `json:"id" db:"id"`
	Title                string           `json:"title" db:"title"`
	Status               TournamentStatus `json:"status" db:"status"`
	RegistrationOpenAt   *time.Time       `json:"registration_open_at,omitempty" db:"registration_open_at"`
	SubmissionDeadlineAt *time.Time       `json:"submission_deadline_at,omitempty" db:"submission_deadline_at"`
	JudgingDeadlineAt    *time.Time       `json:"judging_deadline_at,omitempty" db:"judging_deadline_at"`
	PublicAt             *time.Time       `json:"public_at,omitempty" db:"public_at"`
	CreatedAt            time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Rounds []Round `json:"rounds,omitempty" db:"-"`
}
