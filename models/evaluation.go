package models

import (
	"time"

	"github.com/google/uuid"
)

// EvaluationTargetMatch — единственный тип цели в текущем ядре.
const EvaluationTargetMatch = "match"

// Evaluation — вердикт судьи по матчу. Уникальна по
// (judge, target_type, target_id); при пересдаче полностью перезаписывается.
// ParticipantID указывает, чей трек оценивали — по нему финализатор
// агрегирует средние на трек.
type Evaluation struct {
	ID            uuid.UUID          `json:"id" db:"id"`
	JudgeID       uuid.UUID          `json:"judge_id" db:"judge_id"`
	TargetType    string             `json:"target_type" db:"target_type"`
	TargetID      uuid.UUID          `json:"target_id" db:"target_id"`
	RoundID       uuid.UUID          `json:"round_id" db:"round_id"`
	ParticipantID *uuid.UUID         `json:"participant_id,omitempty" db:"participant_id"`
	Pass          *bool              `json:"pass,omitempty" db:"pass"`
	Score         *float64           `json:"score,omitempty" db:"score"`
	Rubric        map[string]float64 `json:"rubric,omitempty" db:"rubric"`
	Comment       *string            `json:"comment,omitempty" db:"comment"`
	TotalScore    *float64           `json:"total_score,omitempty" db:"total_score"`
	CreatedAt     time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" db:"updated_at"`
}
