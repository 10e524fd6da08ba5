package service

import (
	"errors"
	"exam_prep_backend/internal/model"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubProfileRepo 内存版持久层，Save 会被后台协程调用，必须加锁
type stubProfileRepo struct {
	mu       sync.Mutex
	loaded   map[uint]*model.UserPerformanceProfile
	saved    map[uint]*model.UserPerformanceProfile
	loadErr  error
	saveErr  error
	saveHits int
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{
		loaded: make(map[uint]*model.UserPerformanceProfile),
		saved:  make(map[uint]*model.UserPerformanceProfile),
	}
}

func (r *stubProfileRepo) LoadAll() (map[uint]*model.UserPerformanceProfile, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	return r.loaded, nil
}

func (r *stubProfileRepo) Save(userID uint, profile *model.UserPerformanceProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved[userID] = profile
	r.saveHits++
	return nil
}

func (r *stubProfileRepo) savedProfile(userID uint) *model.UserPerformanceProfile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saved[userID]
}

func newTestStore(repo *stubProfileRepo) *PerformanceStore {
	return NewPerformanceStore(repo, NewRetentionPolicy(1000, 0.25))
}

func TestGetReturnsZeroProfileForNewLearner(t *testing.T) {
	store := newTestStore(newStubProfileRepo())
	defer store.Stop()

	p := store.Get(42)
	require.NotNil(t, p)
	assert.Equal(t, uint(0), p.TotalQuestions)
	assert.Empty(t, p.BySubject)
}

func TestUpdateMovesAllCountersTogether(t *testing.T) {
	store := newTestStore(newStubProfileRepo())
	defer store.Stop()

	qc := model.QuestionContext{SubjectID: 1, TopicID: 2, Difficulty: 3}
	store.Update(7, qc, true)
	store.Update(7, qc, false)

	p := store.Get(7)
	assert.Equal(t, uint(2), p.TotalQuestions)
	assert.Equal(t, uint(1), p.CorrectAnswers)
	assert.Equal(t, uint(2), p.BySubject[1].Total)
	assert.Equal(t, uint(1), p.BySubject[1].Correct)
	assert.Equal(t, uint(2), p.ByTopic[model.TopicKey{SubjectID: 1, TopicID: 2}].Total)
	assert.Equal(t, uint(2), p.ByDifficulty[3].Total)
	assert.NotNil(t, p.LastActivity)
}

func TestRecentOutcomesKeepsLastTen(t *testing.T) {
	store := newTestStore(newStubProfileRepo())
	defer store.Stop()

	qc := model.QuestionContext{SubjectID: 1, TopicID: 1, Difficulty: 2}
	// 前 5 次答错，后 10 次答对，窗口里应该只剩后 10 次
	for i := 0; i < 5; i++ {
		store.Update(1, qc, false)
	}
	for i := 0; i < 10; i++ {
		store.Update(1, qc, true)
	}

	p := store.Get(1)
	require.Len(t, p.RecentOutcomes, model.RecentOutcomeWindow)
	for _, outcome := range p.RecentOutcomes {
		assert.True(t, outcome)
	}
	assert.InDelta(t, 1.0, p.RecentAccuracy(0), 0.001)
}

func TestGetReturnsIsolatedSnapshot(t *testing.T) {
	store := newTestStore(newStubProfileRepo())
	defer store.Stop()

	qc := model.QuestionContext{SubjectID: 1, TopicID: 1, Difficulty: 1}
	store.Update(1, qc, true)

	snapshot := store.Get(1)
	snapshot.TotalQuestions = 999
	snapshot.BySubject[1].Correct = 999

	fresh := store.Get(1)
	assert.Equal(t, uint(1), fresh.TotalQuestions)
	assert.Equal(t, uint(1), fresh.BySubject[1].Correct)
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	repo := newStubProfileRepo()
	repo.loadErr = errors.New("table corrupted")
	store := newTestStore(repo)
	defer store.Stop()

	store.Load()

	p := store.Get(1)
	assert.Equal(t, uint(0), p.TotalQuestions)
}

func TestLoadRestoresProfiles(t *testing.T) {
	repo := newStubProfileRepo()
	restored := model.NewUserPerformanceProfile()
	restored.TotalQuestions = 50
	restored.CorrectAnswers = 30
	repo.loaded[9] = restored

	store := newTestStore(repo)
	defer store.Stop()
	store.Load()

	p := store.Get(9)
	assert.Equal(t, uint(50), p.TotalQuestions)
	assert.Equal(t, uint(30), p.CorrectAnswers)
}

func TestStopFlushesAllProfiles(t *testing.T) {
	repo := newStubProfileRepo()
	store := newTestStore(repo)

	qc := model.QuestionContext{SubjectID: 1, TopicID: 1, Difficulty: 1}
	store.Update(1, qc, true)
	store.Update(2, qc, false)

	store.Stop()

	saved1 := repo.savedProfile(1)
	require.NotNil(t, saved1)
	assert.Equal(t, uint(1), saved1.TotalQuestions)
	assert.Equal(t, uint(1), saved1.CorrectAnswers)

	saved2 := repo.savedProfile(2)
	require.NotNil(t, saved2)
	assert.Equal(t, uint(0), saved2.CorrectAnswers)
}

func TestCounterSumsMatchTotal(t *testing.T) {
	store := newTestStore(newStubProfileRepo())
	defer store.Stop()

	// 打散到多个科目/知识点/难度，各维度计数之和必须等于总数
	for i := 0; i < 60; i++ {
		qc := model.QuestionContext{
			SubjectID:  uint(i%3 + 1),
			TopicID:    uint(i%7 + 1),
			Difficulty: i%6 + 1,
		}
		store.Update(1, qc, i%2 == 0)
	}

	p := store.Get(1)
	require.Equal(t, uint(60), p.TotalQuestions)
	assert.LessOrEqual(t, p.CorrectAnswers, p.TotalQuestions)

	var subjectSum, topicSum, difficultySum uint
	for _, c := range p.BySubject {
		assert.LessOrEqual(t, c.Correct, c.Total)
		subjectSum += c.Total
	}
	for _, c := range p.ByTopic {
		topicSum += c.Total
	}
	for _, c := range p.ByDifficulty {
		difficultySum += c.Total
	}
	assert.Equal(t, p.TotalQuestions, subjectSum)
	assert.Equal(t, p.TotalQuestions, topicSum)
	assert.Equal(t, p.TotalQuestions, difficultySum)
}

func TestConcurrentUpdatesDoNotLoseCounts(t *testing.T) {
	store := newTestStore(newStubProfileRepo())
	defer store.Stop()

	qc := model.QuestionContext{SubjectID: 1, TopicID: 1, Difficulty: 3}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				store.Update(1, qc, true)
			}
		}()
	}
	wg.Wait()

	p := store.Get(1)
	assert.Equal(t, uint(400), p.TotalQuestions)
	assert.Equal(t, uint(400), p.CorrectAnswers)
}
