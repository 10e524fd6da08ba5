package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicKeyJSONRoundTrip(t *testing.T) {
	p := NewUserPerformanceProfile()
	p.TotalQuestions = 3
	p.CorrectAnswers = 2
	p.ByTopic[TopicKey{SubjectID: 1, TopicID: 42}] = &Counter{Total: 3, Correct: 2}

	payload, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"1:42"`)

	var restored UserPerformanceProfile
	require.NoError(t, json.Unmarshal(payload, &restored))

	c, ok := restored.ByTopic[TopicKey{SubjectID: 1, TopicID: 42}]
	require.True(t, ok)
	assert.Equal(t, uint(3), c.Total)
	assert.Equal(t, uint(2), c.Correct)
}

func TestCounterAccuracyFallback(t *testing.T) {
	assert.Equal(t, 0.5, Counter{}.Accuracy(0.5))
	assert.InDelta(t, 0.75, Counter{Total: 4, Correct: 3}.Accuracy(0.5), 0.0001)
}

func TestProfileCloneIsDeep(t *testing.T) {
	p := NewUserPerformanceProfile()
	p.TotalQuestions = 10
	p.CorrectAnswers = 6
	p.BySubject[1] = &Counter{Total: 10, Correct: 6}
	p.RecentOutcomes = []bool{true, false, true}

	clone := p.Clone()
	clone.BySubject[1].Correct = 0
	clone.RecentOutcomes[0] = false
	clone.TotalQuestions = 0

	assert.Equal(t, uint(6), p.BySubject[1].Correct)
	assert.True(t, p.RecentOutcomes[0])
	assert.Equal(t, uint(10), p.TotalQuestions)
}

func TestCounterHelpersCreateOnAccess(t *testing.T) {
	p := NewUserPerformanceProfile()

	c := p.SubjectCounter(7)
	c.Total++
	assert.Equal(t, uint(1), p.BySubject[7].Total)

	tc := p.TopicCounter(7, 8)
	tc.Total++
	assert.Equal(t, uint(1), p.ByTopic[TopicKey{SubjectID: 7, TopicID: 8}].Total)

	dc := p.DifficultyCounter(5)
	dc.Total++
	assert.Equal(t, uint(1), p.ByDifficulty[5].Total)
}
