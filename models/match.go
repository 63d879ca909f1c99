package models

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchStatusScheduled MatchStatus = "scheduled"
	MatchStatusActive    MatchStatus = "active"
	MatchStatusFinished  MatchStatus = "finished"
	MatchStatusTie       MatchStatus = "tie"
)

// IsTerminal сообщает, завершён ли матч. Терминальный статус
// выставляется ровно один раз, финализатором.
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusFinished || s == MatchStatusTie
}

// Match — очный баттл двух (или более) участников внутри раунда.
// WinnerTrackID заполняется только при переходе в finished.
type Match struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	RoundID       uuid.UUID   `json:"round_id" db:"round_id"`
	Status        MatchStatus `json:"status" db:"status"`
	StartsAt      *time.Time  `json:"starts_at,omitempty" db:"starts_at"`
	EndsAt        *time.Time  `json:"ends_at,omitempty" db:"ends_at"`
	WinnerTrackID *uuid.UUID  `json:"winner_track_id,omitempty" db:"winner_track_id"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`

	Participants []MatchParticipant `json:"participants,omitempty" db:"-"`
	Tracks       []MatchTrack       `json:"tracks,omitempty" db:"-"`
}

// MatchParticipant связывает матч с участником турнира.
// Seed используется только для отображения и порядка, не для допуска.
type MatchParticipant struct {
	MatchID       uuid.UUID `json:"match_id" db:"match_id"`
	ParticipantID uuid.UUID `json:"participant_id" db:"participant_id"`
	Seed          *int      `json:"seed,omitempty" db:"seed"`
}
