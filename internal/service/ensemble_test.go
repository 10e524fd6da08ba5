package service

import (
	"exam_prep_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsembleWeightsAlwaysNormalized(t *testing.T) {
	for _, subjectTotal := range []uint{0, 5, 9, 10, 15, 29, 30, 500} {
		for _, difficulty := range []int{1, 2, 3, 4, 5, 6} {
			basic, enhanced := ensembleWeights(subjectTotal, difficulty)
			assert.InDelta(t, 1.0, basic+enhanced, 0.0001,
				"subjectTotal=%d difficulty=%d", subjectTotal, difficulty)
			assert.GreaterOrEqual(t, basic, 0.0)
			assert.GreaterOrEqual(t, enhanced, 0.0)
		}
	}
}

func TestEnsembleWeightTiers(t *testing.T) {
	tests := []struct {
		name         string
		subjectTotal uint
		difficulty   int
		wantBasic    float64
		wantEnhanced float64
	}{
		{"novice medium", 5, 3, 0.7, 0.3},
		{"intermediate medium", 15, 3, 0.5, 0.5},
		{"experienced medium", 50, 3, 0.3, 0.7},
		{"novice easy shifts to basic", 5, 1, 0.8, 0.2},
		{"novice hard shifts to enhanced", 5, 6, 0.6, 0.4},
		{"experienced easy", 50, 2, 0.4, 0.6},
		{"experienced hard", 50, 5, 0.2, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			basic, enhanced := ensembleWeights(tt.subjectTotal, tt.difficulty)
			assert.InDelta(t, tt.wantBasic, basic, 0.0001)
			assert.InDelta(t, tt.wantEnhanced, enhanced, 0.0001)
		})
	}
}

func TestCombineZeroHistoryInRange(t *testing.T) {
	e := NewEnsembleCombiner()
	qc := model.QuestionContext{SubjectID: 1, TopicID: 1, Difficulty: 1}

	got := e.Combine(80, 80, model.NewUserPerformanceProfile(), qc)
	assert.GreaterOrEqual(t, got, 0)
	assert.LessOrEqual(t, got, 100)
	assert.Equal(t, 80, got)
}

func TestCombineNilProfileFallsBackToMean(t *testing.T) {
	e := NewEnsembleCombiner()
	got := e.Combine(60, 80, nil, model.QuestionContext{Difficulty: 3})
	assert.Equal(t, 70, got)
}

func TestCombineTopicCorrection(t *testing.T) {
	qc := model.QuestionContext{SubjectID: 1, TopicID: 2, Difficulty: 3}

	makeProfile := func(topicTotal, topicCorrect uint) *model.UserPerformanceProfile {
		p := model.NewUserPerformanceProfile()
		p.TotalQuestions = 50
		p.CorrectAnswers = 25
		p.BySubject[1] = &model.Counter{Total: 50, Correct: 25}
		p.ByTopic[model.TopicKey{SubjectID: 1, TopicID: 2}] = &model.Counter{Total: topicTotal, Correct: topicCorrect}
		return p
	}

	e := NewEnsembleCombiner()

	// 弱知识点 (2/10 = 0.2 < 0.3) 下调 5%
	assert.Equal(t, 76, e.Combine(80, 80, makeProfile(10, 2), qc))

	// 强知识点 (9/10 = 0.9 > 0.7) 上调 5%
	assert.Equal(t, 84, e.Combine(80, 80, makeProfile(10, 9), qc))

	// 样本不足 (5 < 6)，不做修正
	assert.Equal(t, 80, e.Combine(80, 80, makeProfile(5, 0), qc))
}

func TestCombineClampsToHundred(t *testing.T) {
	p := model.NewUserPerformanceProfile()
	p.TotalQuestions = 50
	p.CorrectAnswers = 50
	p.BySubject[1] = &model.Counter{Total: 50, Correct: 50}
	p.ByTopic[model.TopicKey{SubjectID: 1, TopicID: 2}] = &model.Counter{Total: 10, Correct: 10}

	e := NewEnsembleCombiner()
	got := e.Combine(100, 100, p, model.QuestionContext{SubjectID: 1, TopicID: 2, Difficulty: 3})
	assert.Equal(t, 100, got)
}
