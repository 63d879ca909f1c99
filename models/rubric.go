package models

import "github.com/google/uuid"

// RubricCriterion — весовой критерий оценивания, задаётся на раунд.
// Значение судьи по ключу Key валидируется в границах [Min, Max].
type RubricCriterion struct {
	RoundID  uuid.UUID `json:"round_id" db:"round_id"`
	Key      string    `json:"key" db:"key"`
	Name     string    `json:"name" db:"name"`
	Position int       `json:"position" db:"position"`
	Weight   float64   `json:"weight" db:"weight"`
	Min      float64   `json:"min" db:"min"`
	Max      float64   `json:"max" db:"max"`
}
