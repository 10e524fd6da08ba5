package service

import (
	"errors"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubQuestionSource struct {
	pool []model.Question
}

func (s *stubQuestionSource) ListBySubject(subjectID uint, tag string) ([]model.Question, error) {
	return s.pool, nil
}

func (s *stubQuestionSource) FindByID(id uint) (*model.Question, error) {
	for i := range s.pool {
		if s.pool[i].ID == id {
			return &s.pool[i], nil
		}
	}
	return nil, errQuestionMissing
}

var errQuestionMissing = errors.New("question not found")

type stubSubmissionStore struct {
	created  []*model.Submission
	answered map[uint]bool
	counts   map[uint]int64
}

func newStubSubmissionStore() *stubSubmissionStore {
	return &stubSubmissionStore{
		answered: make(map[uint]bool),
		counts:   make(map[uint]int64),
	}
}

func (s *stubSubmissionStore) Create(sub *model.Submission) error {
	s.created = append(s.created, sub)
	return nil
}

func (s *stubSubmissionStore) AnsweredQuestionIDs(userID uint) (map[uint]bool, error) {
	return s.answered, nil
}

func (s *stubSubmissionStore) CountBySubject(userID, subjectID uint) (int64, error) {
	return s.counts[subjectID], nil
}

func (s *stubSubmissionStore) ListBySession(sessionID string) ([]model.Submission, error) {
	var out []model.Submission
	for _, sub := range s.created {
		if sub.TestSessionID == sessionID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

type stubSessionStore struct {
	sessions map[string]*model.TestSession
	updates  int
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]*model.TestSession)}
}

func (s *stubSessionStore) Create(session *model.TestSession) error {
	if session.ID == "" {
		session.ID = "session-1"
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *stubSessionStore) FindByIDAndUser(id string, userID uint) (*model.TestSession, error) {
	session, ok := s.sessions[id]
	if !ok || session.UserID != userID {
		return nil, util.ErrTestSessionNotFound
	}
	return session, nil
}

func (s *stubSessionStore) Update(session *model.TestSession) error {
	s.updates++
	s.sessions[session.ID] = session
	return nil
}

func newTestPracticeService(pool []model.Question) (*PracticeService, *PerformanceStore, *stubSubmissionStore, *stubSessionStore) {
	store := NewPerformanceStore(newStubProfileRepo(), NewRetentionPolicy(1000, 0.25))
	subs := newStubSubmissionStore()
	sessions := newStubSessionStore()

	svc := NewPracticeService(
		store,
		BasicReadinessModel{},
		EnhancedReadinessModel{},
		NewEnsembleCombiner(),
		newBatchCuratorWithRand(EnhancedReadinessModel{}, 30, rand.New(rand.NewSource(1))),
		&stubQuestionSource{pool: pool},
		subs,
		sessions,
	)
	return svc, store, subs, sessions
}

func TestSubmitAnswerJudgedServerSide(t *testing.T) {
	pool := makePool(1, 1, "")
	pool[0].Answer = "B"
	svc, store, subs, _ := newTestPracticeService(pool)
	defer store.Stop()

	resp, err := svc.SubmitAnswer(1, &SubmitAnswerRequest{QuestionID: 1, Selected: " b "})
	require.NoError(t, err)

	// 大小写和首尾空白不影响判定
	assert.True(t, resp.IsCorrect)
	require.Len(t, subs.created, 1)
	assert.True(t, subs.created[0].IsCorrect)

	p := store.Get(1)
	assert.Equal(t, uint(1), p.TotalQuestions)
	assert.Equal(t, uint(1), p.CorrectAnswers)
}

func TestSubmitSkippedAnswerRecordedButNotProfiled(t *testing.T) {
	pool := makePool(1, 1, "")
	pool[0].Answer = "A"
	svc, store, subs, _ := newTestPracticeService(pool)
	defer store.Stop()

	resp, err := svc.SubmitAnswer(1, &SubmitAnswerRequest{QuestionID: 1, IsSkipped: true})
	require.NoError(t, err)

	assert.False(t, resp.IsCorrect)
	assert.True(t, resp.IsSkipped)

	// 提交记录要留，画像不能动
	require.Len(t, subs.created, 1)
	assert.True(t, subs.created[0].IsSkipped)
	assert.Equal(t, uint(0), store.Get(1).TotalQuestions)
}

func TestPredictReadinessColdStart(t *testing.T) {
	svc, store, _, _ := newTestPracticeService(nil)
	defer store.Stop()

	resp := svc.PredictReadiness(1, model.QuestionContext{SubjectID: 1, TopicID: 1, Difficulty: 3})

	// 基础模型冷启动 90，增强模型冷启动 50，新手权重 0.7/0.3 => 78
	assert.Equal(t, 78, resp.Percentage)
	assert.Equal(t, "medium", resp.Confidence)
	assert.Equal(t, "good", resp.Level)
	assert.NotEmpty(t, resp.Message)
}

func TestConfidenceBands(t *testing.T) {
	tests := []struct {
		percentage int
		want       string
	}{
		{95, "high"},
		{80, "high"},
		{20, "high"},
		{5, "high"},
		{79, "medium"},
		{65, "medium"},
		{35, "medium"},
		{21, "medium"},
		{64, "low"},
		{50, "low"},
		{36, "low"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, confidenceBand(tt.percentage), "percentage=%d", tt.percentage)
	}
}

func TestRequestBatchPropagatesInsufficientQuestions(t *testing.T) {
	svc, store, _, _ := newTestPracticeService(makePool(10, 1, ""))
	defer store.Stop()

	_, err := svc.RequestBatch(1, 1, "")
	require.Error(t, err)

	var insufficient *util.InsufficientQuestionsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 10, insufficient.Found)
}

func TestStartTestCreatesSessionWithBatch(t *testing.T) {
	svc, store, _, sessions := newTestPracticeService(makePool(60, 1, ""))
	defer store.Stop()

	resp, err := svc.StartTest(1, 1, "")
	require.NoError(t, err)

	assert.Len(t, resp.Questions, 30)
	require.NotEmpty(t, resp.TestSessionID)

	session := sessions.sessions[resp.TestSessionID]
	require.NotNil(t, session)
	assert.Equal(t, uint(1), session.UserID)
	assert.Equal(t, 30, session.TotalQuestions)
	assert.False(t, session.IsCompleted)
}

func TestEndTestTalliesSubmissions(t *testing.T) {
	pool := makePool(5, 1, "")
	for i := range pool {
		pool[i].Answer = "A"
	}
	svc, store, _, _ := newTestPracticeService(pool)
	defer store.Stop()

	session := &model.TestSession{UserID: 1, SubjectID: 1}
	session.ID = "s1"
	require.NoError(t, svc.sessions.Create(session))

	answers := []string{"A", "A", "A", "X", "X"}
	for i, a := range answers {
		_, err := svc.SubmitAnswer(1, &SubmitAnswerRequest{
			QuestionID:    uint(i + 1),
			TestSessionID: "s1",
			Selected:      a,
		})
		require.NoError(t, err)
	}

	resp, err := svc.EndTest(1, "s1")
	require.NoError(t, err)

	assert.True(t, resp.Session.IsCompleted)
	assert.NotNil(t, resp.Session.EndedAt)
	assert.Equal(t, 5, resp.Session.TotalQuestions)
	assert.Equal(t, 3, resp.Session.CorrectAnswers)
	assert.Equal(t, 2, resp.Session.IncorrectAnswers)
}

func TestEndTestIsIdempotent(t *testing.T) {
	svc, store, _, sessions := newTestPracticeService(nil)
	defer store.Stop()

	session := &model.TestSession{UserID: 1, IsCompleted: true, TotalQuestions: 30, CorrectAnswers: 20}
	session.ID = "done"
	require.NoError(t, sessions.Create(session))

	resp, err := svc.EndTest(1, "done")
	require.NoError(t, err)

	assert.Equal(t, 20, resp.Session.CorrectAnswers)
	assert.Zero(t, sessions.updates)
}

func TestEndTestUnknownSession(t *testing.T) {
	svc, store, _, _ := newTestPracticeService(nil)
	defer store.Stop()

	_, err := svc.EndTest(1, "missing")
	assert.ErrorIs(t, err, util.ErrTestSessionNotFound)
}
