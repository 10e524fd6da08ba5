package service

import (
	"exam_prep_backend/internal/model"
	"exam_prep_backend/pkg/logger"
	"exam_prep_backend/pkg/monitoring"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
)

// QuestionPoolSource 题库读取边界
type QuestionPoolSource interface {
	ListBySubject(subjectID uint, tag string) ([]model.Question, error)
	FindByID(id uint) (*model.Question, error)
}

// SubmissionRecorder 答题记录边界
type SubmissionRecorder interface {
	Create(s *model.Submission) error
	AnsweredQuestionIDs(userID uint) (map[uint]bool, error)
	CountBySubject(userID, subjectID uint) (int64, error)
	ListBySession(sessionID string) ([]model.Submission, error)
}

// TestSessionStore 测验会话边界
type TestSessionStore interface {
	Create(s *model.TestSession) error
	FindByIDAndUser(id string, userID uint) (*model.TestSession, error)
	Update(s *model.TestSession) error
}

// 置信度分档：预测值离 50% 越远，模型越有把握
const (
	confidenceHighBand   = 80
	confidenceMediumBand = 65
)

type SubmitAnswerRequest struct {
	QuestionID    uint   `json:"questionId" binding:"required"`
	TestSessionID string `json:"testSessionId"`
	Selected      string `json:"selected"`
	IsSkipped     bool   `json:"isSkipped"`
}

type SubmitAnswerResponse struct {
	IsCorrect   bool   `json:"isCorrect"`
	IsSkipped   bool   `json:"isSkipped"`
	Answer      string `json:"answer,omitempty"`
	Explanation string `json:"explanation,omitempty"`
}

type PredictionResponse struct {
	Percentage int    `json:"percentage"`
	Confidence string `json:"confidence"`
	Level      string `json:"level"`
	Message    string `json:"message"`
}

type BatchResponse struct {
	TestSessionID string           `json:"testSessionId,omitempty"`
	Questions     []model.Question `json:"questions"`
}

type TestSummaryResponse struct {
	Session *model.TestSession `json:"session"`
}

// PracticeService 练习主流程 提交答案、就绪度预测、批量出题、测验会话
type PracticeService struct {
	store     *PerformanceStore
	basic     ReadinessModel
	enhanced  ReadinessModel
	combiner  *EnsembleCombiner
	curator   *BatchCurator
	questions QuestionPoolSource
	subs      SubmissionRecorder
	sessions  TestSessionStore
}

func NewPracticeService(
	store *PerformanceStore,
	basic, enhanced ReadinessModel,
	combiner *EnsembleCombiner,
	curator *BatchCurator,
	questions QuestionPoolSource,
	subs SubmissionRecorder,
	sessions TestSessionStore,
) *PracticeService {
	return &PracticeService{
		store:     store,
		basic:     basic,
		enhanced:  enhanced,
		combiner:  combiner,
		curator:   curator,
		questions: questions,
		subs:      subs,
		sessions:  sessions,
	}
}

// SubmitAnswer 记录一次作答
// 跳过的题只落提交记录，不进画像；正确性由服务端判定，不信任前端。
func (s *PracticeService) SubmitAnswer(userID uint, req *SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	q, err := s.questions.FindByID(req.QuestionID)
	if err != nil {
		return nil, err
	}

	isCorrect := false
	if !req.IsSkipped {
		isCorrect = strings.EqualFold(strings.TrimSpace(req.Selected), strings.TrimSpace(q.Answer))
	}

	sub := &model.Submission{
		UserID:        userID,
		QuestionID:    q.ID,
		TestSessionID: req.TestSessionID,
		Selected:      req.Selected,
		IsCorrect:     isCorrect,
		IsSkipped:     req.IsSkipped,
		AnsweredAt:    time.Now(),
	}
	if err := s.subs.Create(sub); err != nil {
		return nil, err
	}

	if !req.IsSkipped {
		s.store.Update(userID, model.QuestionContext{
			LearnerID:  userID,
			SubjectID:  q.SubjectID,
			TopicID:    q.TopicID,
			SubTopicID: q.SubTopicID,
			Difficulty: q.Difficulty,
		}, isCorrect)
	}

	return &SubmitAnswerResponse{
		IsCorrect:   isCorrect,
		IsSkipped:   req.IsSkipped,
		Answer:      q.Answer,
		Explanation: q.Explanation,
	}, nil
}

// PredictReadiness 对单道题给出 0-100 的就绪度预测
// 单个模型失败降级为启发式兜底，整条链路永不对外报错。
func (s *PracticeService) PredictReadiness(userID uint, qc model.QuestionContext) *PredictionResponse {
	qc.LearnerID = userID
	snapshot := s.store.Get(userID)

	basicPct := s.predictPct(s.basic, snapshot, qc)
	enhancedPct := s.predictPct(s.enhanced, snapshot, qc)

	percentage := s.combiner.Combine(basicPct, enhancedPct, snapshot, qc)
	level, message := motivationalFeedback(percentage)

	return &PredictionResponse{
		Percentage: percentage,
		Confidence: confidenceBand(percentage),
		Level:      level,
		Message:    message,
	}
}

func (s *PracticeService) predictPct(m ReadinessModel, p *model.UserPerformanceProfile, qc model.QuestionContext) float64 {
	score, err := m.Predict(p, qc)
	if err != nil {
		logger.Log.Warn("Readiness model failed, using fallback heuristic",
			zap.String("model", m.Name()), zap.Error(err))
		monitoring.PredictionFallbackCounter.WithLabelValues(m.Name()).Inc()
		score = FallbackReadiness(p, qc)
	}
	return math.Round(score * 100)
}

// RequestBatch 出一批练习题 可用题不足时透传 InsufficientQuestionsError
func (s *PracticeService) RequestBatch(userID, subjectID uint, tag string) (*BatchResponse, error) {
	pool, err := s.questions.ListBySubject(subjectID, "")
	if err != nil {
		return nil, err
	}

	answered, err := s.subs.AnsweredQuestionIDs(userID)
	if err != nil {
		return nil, err
	}

	answeredInSubject, err := s.subs.CountBySubject(userID, subjectID)
	if err != nil {
		return nil, err
	}

	snapshot := s.store.Get(userID)
	selected, err := s.curator.Curate(snapshot, subjectID, tag, pool, answered, uint(answeredInSubject))
	if err != nil {
		return nil, err
	}

	return &BatchResponse{Questions: selected}, nil
}

// StartTest 开启一次测验 建会话并立即出一批题
func (s *PracticeService) StartTest(userID, subjectID uint, tag string) (*BatchResponse, error) {
	batch, err := s.RequestBatch(userID, subjectID, tag)
	if err != nil {
		return nil, err
	}

	session := &model.TestSession{
		UserID:         userID,
		SubjectID:      subjectID,
		Tag:            tag,
		StartedAt:      time.Now(),
		TotalQuestions: len(batch.Questions),
	}
	if err := s.sessions.Create(session); err != nil {
		return nil, err
	}

	batch.TestSessionID = session.ID
	return batch, nil
}

// EndTest 结束测验并按该会话的提交记录汇总成绩 幂等，重复结束返回已有结果
func (s *PracticeService) EndTest(userID uint, sessionID string) (*TestSummaryResponse, error) {
	session, err := s.sessions.FindByIDAndUser(sessionID, userID)
	if err != nil {
		return nil, err
	}

	if session.IsCompleted {
		return &TestSummaryResponse{Session: session}, nil
	}

	subs, err := s.subs.ListBySession(sessionID)
	if err != nil {
		return nil, err
	}

	correct := 0
	for _, sub := range subs {
		if sub.IsCorrect {
			correct++
		}
	}

	now := time.Now()
	session.EndedAt = &now
	session.IsCompleted = true
	session.TotalQuestions = len(subs)
	session.CorrectAnswers = correct
	session.IncorrectAnswers = len(subs) - correct

	if err := s.sessions.Update(session); err != nil {
		return nil, err
	}
	return &TestSummaryResponse{Session: session}, nil
}

// confidenceBand 预测值离 50 越远置信度越高
func confidenceBand(percentage int) string {
	switch {
	case percentage >= confidenceHighBand || percentage <= 100-confidenceHighBand:
		return "high"
	case percentage >= confidenceMediumBand || percentage <= 100-confidenceMediumBand:
		return "medium"
	default:
		return "low"
	}
}

// motivationalFeedback 按预测值给一句激励文案
func motivationalFeedback(percentage int) (string, string) {
	switch {
	case percentage >= 80:
		return "excellent", "掌握得很好，可以挑战更高难度了"
	case percentage >= 65:
		return "good", "状态不错，继续保持这个节奏"
	case percentage >= 45:
		return "steady", "稳步提升中，多练几道同类题会更扎实"
	default:
		return "encourage", "这个知识点还需要加强，建议回顾错题后再练"
	}
}
