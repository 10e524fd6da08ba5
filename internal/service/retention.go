package service

import (
	"exam_prep_backend/internal/model"
	"exam_prep_backend/pkg/monitoring"
	"math"
)

// RetentionPolicy 画像数据留存策略
// 学习者累计答题每到阈值的整数倍，按比例裁剪历史计数：体量缩小，正确率近似不变。
// 这是画像内存和快照体积在长期使用下有界的唯一机制。
type RetentionPolicy struct {
	Threshold uint    // 触发清理的答题数倍数
	Fraction  float64 // 每次移除的比例
}

func NewRetentionPolicy(threshold uint, fraction float64) *RetentionPolicy {
	return &RetentionPolicy{Threshold: threshold, Fraction: fraction}
}

// Apply 在每次 Update 之后调用，满足触发条件时裁剪画像，返回是否执行了裁剪
func (r *RetentionPolicy) Apply(p *model.UserPerformanceProfile) bool {
	if p.TotalQuestions == 0 || p.TotalQuestions%r.Threshold != 0 {
		return false
	}
	// 同一计数只清理一次
	if p.LastCleanupAt == p.TotalQuestions {
		return false
	}

	toRemove := uint(math.Floor(float64(p.TotalQuestions) * r.Fraction))
	if toRemove == 0 {
		return false
	}

	oldAccuracy := float64(p.CorrectAnswers) / float64(p.TotalQuestions)
	p.TotalQuestions -= toRemove
	// 用裁剪前的正确率反推新正确数，保持口径
	p.CorrectAnswers = uint(math.Floor(float64(p.TotalQuestions) * oldAccuracy))

	if len(p.BySubject) > 0 {
		perKey := toRemove / uint(len(p.BySubject))
		for _, c := range p.BySubject {
			shrinkCounter(c, perKey)
		}
	}
	if len(p.ByTopic) > 0 {
		perKey := toRemove / uint(len(p.ByTopic))
		for _, c := range p.ByTopic {
			shrinkCounter(c, perKey)
		}
	}
	if len(p.ByDifficulty) > 0 {
		perKey := toRemove / uint(len(p.ByDifficulty))
		for _, c := range p.ByDifficulty {
			shrinkCounter(c, perKey)
		}
	}

	if len(p.RecentOutcomes) > model.RecentOutcomeWindow {
		p.RecentOutcomes = append([]bool(nil),
			p.RecentOutcomes[len(p.RecentOutcomes)-model.RecentOutcomeWindow:]...)
	}

	p.LastCleanupAt = p.TotalQuestions
	monitoring.RetentionRunCounter.Inc()
	return true
}

// shrinkCounter 单个计数器的保率裁剪 移除量封顶在自身 Total，计数永不为负
func shrinkCounter(c *model.Counter, remove uint) {
	if c.Total == 0 {
		return
	}
	if remove > c.Total {
		remove = c.Total
	}
	accuracy := float64(c.Correct) / float64(c.Total)
	c.Total -= remove
	c.Correct = uint(math.Floor(float64(c.Total) * accuracy))
}
