package models

import (
	"time"

	"github.com/google/uuid"
)

type TrackStatus string

const (
	TrackStatusDraft     TrackStatus = "draft"
	TrackStatusSubmitted TrackStatus = "submitted"
)

// MatchTrack — трек участника, заявленный на конкретный матч.
// Создаётся один раз на пару (match, participant).
type MatchTrack struct {
	ID            uuid.UUID   `json:"id" db:"id"`
	MatchID       uuid.UUID   `json:"match_id" db:"match_id"`
	ParticipantID uuid.UUID   `json:"participant_id" db:"participant_id"`
	AudioKey      string      `json:"audio_key" db:"audio_key"`
	Lyrics        *string     `json:"lyrics,omitempty" db:"lyrics"`
	Status        TrackStatus `json:"status" db:"status"`
	SubmittedAt   *time.Time  `json:"submitted_at,omitempty" db:"submitted_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`

	AudioURL string `json:"audio_url,omitempty" db:"-"`
}
