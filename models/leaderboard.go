package models

import "github.com/google/uuid"

// Производные проекции. Пересчитываются хранилищем при финализации,
// ядро их никогда не мутирует напрямую.

// TrackScore — средний total_score трека по всем судьям
// (строка mv_match_track_scores).
type TrackScore struct {
	MatchTrackID uuid.UUID `json:"match_track_id" db:"match_track_id"`
	MatchID      uuid.UUID `json:"match_id" db:"match_id"`
	AvgTotal     float64   `json:"avg_total" db:"avg_total"`
}

// LeaderboardEntry — число побед участника в турнире
// (строка mv_tournament_leaderboard).
type LeaderboardEntry struct {
	TournamentID  uuid.UUID `json:"tournament_id" db:"tournament_id"`
	ParticipantID uuid.UUID `json:"participant_id" db:"participant_id"`
	Wins          int       `json:"wins" db:"wins"`
}
