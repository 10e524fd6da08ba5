package service

import (
	"exam_prep_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileWithCounts(total, correct uint) *model.UserPerformanceProfile {
	p := model.NewUserPerformanceProfile()
	p.TotalQuestions = total
	p.CorrectAnswers = correct
	p.BySubject[1] = &model.Counter{Total: total, Correct: correct}
	p.ByTopic[model.TopicKey{SubjectID: 1, TopicID: 2}] = &model.Counter{Total: total, Correct: correct}
	p.ByDifficulty[3] = &model.Counter{Total: total, Correct: correct}
	return p
}

func TestRetentionTrimAtThreshold(t *testing.T) {
	policy := NewRetentionPolicy(1000, 0.25)
	p := profileWithCounts(1000, 600)

	require.True(t, policy.Apply(p))

	assert.Equal(t, uint(750), p.TotalQuestions)
	assert.Equal(t, uint(450), p.CorrectAnswers)
	assert.Equal(t, uint(750), p.LastCleanupAt)

	// 单键 map：整个移除量落在这一个计数器上，正确率口径不变
	subject := p.BySubject[1]
	assert.Equal(t, uint(750), subject.Total)
	assert.Equal(t, uint(450), subject.Correct)
}

func TestRetentionAccuracyPreserved(t *testing.T) {
	policy := NewRetentionPolicy(1000, 0.25)
	p := profileWithCounts(2000, 1337)
	before := float64(p.CorrectAnswers) / float64(p.TotalQuestions)

	require.True(t, policy.Apply(p))

	after := float64(p.CorrectAnswers) / float64(p.TotalQuestions)
	assert.InDelta(t, before, after, 0.001)
	assert.LessOrEqual(t, p.CorrectAnswers, p.TotalQuestions)
}

func TestRetentionBelowThresholdNoop(t *testing.T) {
	policy := NewRetentionPolicy(1000, 0.25)
	p := profileWithCounts(999, 500)

	assert.False(t, policy.Apply(p))
	assert.Equal(t, uint(999), p.TotalQuestions)
}

func TestRetentionZeroTotalNoop(t *testing.T) {
	policy := NewRetentionPolicy(1000, 0.25)
	p := model.NewUserPerformanceProfile()

	assert.False(t, policy.Apply(p))
}

func TestRetentionDoesNotRefireAtSameCount(t *testing.T) {
	policy := NewRetentionPolicy(1000, 0.25)
	p := profileWithCounts(1000, 600)
	p.LastCleanupAt = 1000

	assert.False(t, policy.Apply(p))
	assert.Equal(t, uint(1000), p.TotalQuestions)
}

func TestRetentionShrinkCapsAtCounterTotal(t *testing.T) {
	policy := NewRetentionPolicy(1000, 0.25)
	p := profileWithCounts(1000, 600)
	// 这个科目只有 5 题，按键均摊的移除份额必须被封顶，不能减成负数
	p.BySubject[2] = &model.Counter{Total: 5, Correct: 3}

	require.True(t, policy.Apply(p))

	small := p.BySubject[2]
	assert.Equal(t, uint(0), small.Total)
	assert.Equal(t, uint(0), small.Correct)
}

func TestRetentionTruncatesRecentOutcomes(t *testing.T) {
	policy := NewRetentionPolicy(1000, 0.25)
	p := profileWithCounts(1000, 600)
	for i := 0; i < 25; i++ {
		p.RecentOutcomes = append(p.RecentOutcomes, i%2 == 0)
	}

	require.True(t, policy.Apply(p))
	assert.Len(t, p.RecentOutcomes, model.RecentOutcomeWindow)
}
