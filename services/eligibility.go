package services

import (
	"time"

	"github.com/flowclash/battle-system/models"
)

// IsEligible — чистый предикат допуска судьи к матчу. Все шесть условий
// конъюнктивны; падение любого исключает кандидата:
//  1. раунд в статусе judging и, при наличии дедлайна, now строго раньше него;
//  2. матч не в терминальном статусе;
//  3. в матче есть хотя бы один заявленный трек;
//  4. судья состоит в пуле судей турнира;
//  5. у судьи нет существующего назначения на этот матч;
//  6. судья ещё не сдавал оценку по этому матчу.
func IsEligible(c *models.MatchCandidate, now time.Time) bool {
	if c.RoundStatus != models.RoundStatusJudging {
		return false
	}
	if c.JudgingDeadlineAt != nil && !now.Before(*c.JudgingDeadlineAt) {
		return false
	}
	if c.MatchStatus.IsTerminal() {
		return false
	}
	if c.SubmittedTrackCount < 1 {
		return false
	}
	if !c.InJudgePool {
		return false
	}
	if c.HasAssignment {
		return false
	}
	if c.HasEvaluation {
		return false
	}
	return true
}
