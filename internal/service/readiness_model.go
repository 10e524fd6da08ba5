package service

import (
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"
	"exam_prep_backend/pkg/monitoring"
)

// 冷启动中性先验：没有任何历史时，各维度正确率一律按 0.5 算
const neutralAccuracy = 0.5

// ReadinessModel 就绪度模型 估计学习者答对某道题的概率
// Predict 对传入的画像快照是纯函数，不改任何状态。
type ReadinessModel interface {
	Name() string
	Predict(p *model.UserPerformanceProfile, qc model.QuestionContext) (float64, error)
}

// BasicReadinessModel 基础模型 以知识点正确率为主导，对单点历史反应最快
type BasicReadinessModel struct{}

func (BasicReadinessModel) Name() string { return "basic" }

func (BasicReadinessModel) Predict(p *model.UserPerformanceProfile, qc model.QuestionContext) (float64, error) {
	if p == nil {
		return 0, &util.PredictionError{Model: "basic", Reason: "nil profile"}
	}
	monitoring.PredictionCounter.WithLabelValues("basic").Inc()

	overall := p.OverallAccuracy(neutralAccuracy)
	subject := counterAccuracy(p.BySubject[qc.SubjectID])
	topic := counterAccuracy(p.ByTopic[model.TopicKey{SubjectID: qc.SubjectID, TopicID: qc.TopicID}])

	performance := overall*0.1 + subject*0.2 + topic*0.7

	base := difficultyBase(qc.Difficulty)
	score := 0.5 + base*0.2 + performance*0.6

	return clamp01(score), nil
}

// EnhancedReadinessModel 增强模型 四个维度均参与加权，叠加难度修正
type EnhancedReadinessModel struct{}

func (EnhancedReadinessModel) Name() string { return "enhanced" }

func (EnhancedReadinessModel) Predict(p *model.UserPerformanceProfile, qc model.QuestionContext) (float64, error) {
	if p == nil {
		return 0, &util.PredictionError{Model: "enhanced", Reason: "nil profile"}
	}
	monitoring.PredictionCounter.WithLabelValues("enhanced").Inc()

	// 纯冷启动：没有任何历史，直接返回中性值，不走加权
	if p.TotalQuestions == 0 {
		return neutralAccuracy, nil
	}

	overall := p.OverallAccuracy(neutralAccuracy)
	subject := counterAccuracy(p.BySubject[qc.SubjectID])
	topic := counterAccuracy(p.ByTopic[model.TopicKey{SubjectID: qc.SubjectID, TopicID: qc.TopicID}])
	difficulty := counterAccuracy(p.ByDifficulty[qc.Difficulty])

	performance := overall*0.2 + subject*0.3 + topic*0.4 + difficulty*0.1

	// 简单题加成，难题惩罚
	var adjustment float64
	switch {
	case qc.Difficulty <= model.DifficultyEasyMax:
		adjustment = 0.2
	case qc.Difficulty <= model.DifficultyMediumMax:
		adjustment = 0.0
	default:
		adjustment = -0.2
	}

	return clamp01(performance + adjustment), nil
}

// FallbackReadiness 模型故障时的兜底启发式 只看难度和总体正确率
// 弱学习者偏向给高就绪度（推简单题），强学习者反之。
func FallbackReadiness(p *model.UserPerformanceProfile, qc model.QuestionContext) float64 {
	base := difficultyBase(qc.Difficulty)

	overall := neutralAccuracy
	if p != nil {
		overall = p.OverallAccuracy(neutralAccuracy)
	}

	score := base
	if overall < 0.4 {
		score = base + 0.2
	} else if overall > 0.7 {
		score = base - 0.2
	}
	return clamp01(score)
}

func counterAccuracy(c *model.Counter) float64 {
	if c == nil {
		return neutralAccuracy
	}
	return c.Accuracy(neutralAccuracy)
}

func difficultyBase(difficulty int) float64 {
	switch {
	case difficulty <= model.DifficultyEasyMax:
		return 0.3
	case difficulty <= model.DifficultyMediumMax:
		return 0.5
	default:
		return 0.7
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
