package services

import (
	"testing"
	"time"

	"github.com/flowclash/battle-system/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func eligibleCandidate() *models.MatchCandidate {
	return &models.MatchCandidate{
		MatchID:             uuid.New(),
		RoundID:             uuid.New(),
		TournamentID:        uuid.New(),
		RoundNumber:         1,
		RoundStatus:         models.RoundStatusJudging,
		MatchStatus:         models.MatchStatusActive,
		SubmittedTrackCount: 2,
		InJudgePool:         true,
		HasAssignment:       false,
		HasEvaluation:       false,
	}
}

func TestIsEligible(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(c *models.MatchCandidate)
		want   bool
	}{
		{
			name:   "all conditions met",
			mutate: func(c *models.MatchCandidate) {},
			want:   true,
		},
		{
			name: "round not in judging",
			mutate: func(c *models.MatchCandidate) {
				c.RoundStatus = models.RoundStatusSubmission
			},
			want: false,
		},
		{
			name: "judging deadline passed",
			mutate: func(c *models.MatchCandidate) {
				deadline := now.Add(-time.Hour)
				c.JudgingDeadlineAt = &deadline
			},
			want: false,
		},
		{
			name: "judging deadline exactly now",
			mutate: func(c *models.MatchCandidate) {
				deadline := now
				c.JudgingDeadlineAt = &deadline
			},
			want: false,
		},
		{
			name: "judging deadline in the future",
			mutate: func(c *models.MatchCandidate) {
				deadline := now.Add(time.Hour)
				c.JudgingDeadlineAt = &deadline
			},
			want: true,
		},
		{
			name: "match already finished",
			mutate: func(c *models.MatchCandidate) {
				c.MatchStatus = models.MatchStatusFinished
			},
			want: false,
		},
		{
			name: "match resolved as tie",
			mutate: func(c *models.MatchCandidate) {
				c.MatchStatus = models.MatchStatusTie
			},
			want: false,
		},
		{
			name: "no submitted tracks",
			mutate: func(c *models.MatchCandidate) {
				c.SubmittedTrackCount = 0
			},
			want: false,
		},
		{
			name: "single submitted track is enough",
			mutate: func(c *models.MatchCandidate) {
				c.SubmittedTrackCount = 1
			},
			want: true,
		},
		{
			name: "judge not in pool",
			mutate: func(c *models.MatchCandidate) {
				c.InJudgePool = false
			},
			want: false,
		},
		{
			name: "assignment already exists",
			mutate: func(c *models.MatchCandidate) {
				c.HasAssignment = true
			},
			want: false,
		},
		{
			name: "evaluation already submitted",
			mutate: func(c *models.MatchCandidate) {
				c.HasEvaluation = true
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := eligibleCandidate()
			tt.mutate(c)
			assert.Equal(t, tt.want, IsEligible(c, now))
		})
	}
}
