package service

import (
	"exam_prep_backend/internal/model"
	"math"
)

// 经验分层边界：按学习者在该科目的累计答题数选权重
const (
	ensembleNoviceMax       = 10 // <10 基础模型主导
	ensembleIntermediateMax = 30 // <30 平分，>=30 增强模型主导
)

// 知识点修正：样本量达到门槛后，弱点小幅下调、强项小幅上调
const (
	topicCorrectionMinSamples = 6
	topicWeakThreshold        = 0.3
	topicStrongThreshold      = 0.7
)

// EnsembleCombiner 双模型融合 按经验与难度加权两路预测，输出 0-100 的整数百分比
type EnsembleCombiner struct{}

func NewEnsembleCombiner() *EnsembleCombiner {
	return &EnsembleCombiner{}
}

// Combine 融合基础/增强两路百分比预测
// 任何内部异常都降级为两路算术平均，绝不向调用方抛错。
func (e *EnsembleCombiner) Combine(basicPct, enhancedPct float64, p *model.UserPerformanceProfile, qc model.QuestionContext) int {
	combined, ok := e.combine(basicPct, enhancedPct, p, qc)
	if !ok {
		// 兜底：算术平均
		return int(math.Round((basicPct + enhancedPct) / 2))
	}
	return combined
}

func (e *EnsembleCombiner) combine(basicPct, enhancedPct float64, p *model.UserPerformanceProfile, qc model.QuestionContext) (int, bool) {
	if p == nil {
		return 0, false
	}

	var subjectTotal uint
	if c, ok := p.BySubject[qc.SubjectID]; ok {
		subjectTotal = c.Total
	}

	basicWeight, enhancedWeight := ensembleWeights(subjectTotal, qc.Difficulty)

	combined := basicPct*basicWeight + enhancedPct*enhancedWeight
	combined *= topicCorrectionFactor(p, qc)

	if combined < 0 {
		combined = 0
	}
	if combined > 100 {
		combined = 100
	}
	return int(math.Round(combined)), true
}

// ensembleWeights 经验分层基础权重 + 难度微调，返回归一化后的 (basic, enhanced)
func ensembleWeights(subjectTotal uint, difficulty int) (float64, float64) {
	var basic, enhanced float64
	switch {
	case subjectTotal < ensembleNoviceMax:
		// 历史太少，增强模型还不可信
		basic, enhanced = 0.7, 0.3
	case subjectTotal < ensembleIntermediateMax:
		basic, enhanced = 0.5, 0.5
	default:
		basic, enhanced = 0.3, 0.7
	}

	if difficulty <= model.DifficultyEasyMax {
		basic += 0.1
		enhanced -= 0.1
	} else if difficulty > model.DifficultyMediumMax {
		basic -= 0.1
		enhanced += 0.1
	}

	total := basic + enhanced
	return basic / total, enhanced / total
}

func topicCorrectionFactor(p *model.UserPerformanceProfile, qc model.QuestionContext) float64 {
	c, ok := p.ByTopic[model.TopicKey{SubjectID: qc.SubjectID, TopicID: qc.TopicID}]
	if !ok || c.Total < topicCorrectionMinSamples {
		return 1.0
	}

	accuracy := float64(c.Correct) / float64(c.Total)
	if accuracy < topicWeakThreshold {
		return 0.95
	}
	if accuracy > topicStrongThreshold {
		return 1.05
	}
	return 1.0
}
