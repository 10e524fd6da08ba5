package service

import (
	"exam_prep_backend/internal/model"
	"time"
)

// 科目答题数达到该值后，前端展示的 AI 预测入口才开放
const aiEnabledMinAnswered = 30

// 趋势判定：近期正确率偏离总体正确率超过该幅度才算有趋势
const trendDelta = 0.1

type EngineStatsResponse struct {
	TotalQuestions  uint       `json:"totalQuestions"`
	CorrectAnswers  uint       `json:"correctAnswers"`
	OverallAccuracy float64    `json:"overallAccuracy"`
	RecentAccuracy  float64    `json:"recentAccuracy"`
	LastActivity    *time.Time `json:"lastActivity,omitempty"`
	NextCleanupAt   uint       `json:"nextCleanupAt"`
}

type SubjectStats struct {
	SubjectID uint    `json:"subjectId"`
	Answered  uint    `json:"answered"`
	Correct   uint    `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
	AIEnabled bool    `json:"aiEnabled"`
}

type InsightsResponse struct {
	BestSubject  *SubjectStats `json:"bestSubject,omitempty"`
	WorstSubject *SubjectStats `json:"worstSubject,omitempty"`
	Trend        string        `json:"trend"`
}

// StatisticsService 学习统计 全部口径来自内存画像快照，不查库
type StatisticsService struct {
	store     *PerformanceStore
	retention *RetentionPolicy
}

func NewStatisticsService(store *PerformanceStore, retention *RetentionPolicy) *StatisticsService {
	return &StatisticsService{store: store, retention: retention}
}

// EngineStats 画像总览，附下一次数据清理的触发点
func (s *StatisticsService) EngineStats(userID uint) *EngineStatsResponse {
	p := s.store.Get(userID)

	return &EngineStatsResponse{
		TotalQuestions:  p.TotalQuestions,
		CorrectAnswers:  p.CorrectAnswers,
		OverallAccuracy: p.OverallAccuracy(0),
		RecentAccuracy:  p.RecentAccuracy(0),
		LastActivity:    p.LastActivity,
		NextCleanupAt:   s.nextCleanupAt(p),
	}
}

// SubjectBreakdown 分科目答题统计，answered >= 30 时开放 AI 预测
func (s *StatisticsService) SubjectBreakdown(userID uint) []SubjectStats {
	p := s.store.Get(userID)

	stats := make([]SubjectStats, 0, len(p.BySubject))
	for subjectID, c := range p.BySubject {
		stats = append(stats, SubjectStats{
			SubjectID: subjectID,
			Answered:  c.Total,
			Correct:   c.Correct,
			Accuracy:  c.Accuracy(0),
			AIEnabled: c.Total >= aiEnabledMinAnswered,
		})
	}
	return stats
}

// Insights 最强/最弱科目与近期趋势
func (s *StatisticsService) Insights(userID uint) *InsightsResponse {
	p := s.store.Get(userID)
	resp := &InsightsResponse{Trend: learningTrend(p)}

	var best, worst *SubjectStats
	for subjectID, c := range p.BySubject {
		if c.Total == 0 {
			continue
		}
		stat := SubjectStats{
			SubjectID: subjectID,
			Answered:  c.Total,
			Correct:   c.Correct,
			Accuracy:  c.Accuracy(0),
			AIEnabled: c.Total >= aiEnabledMinAnswered,
		}
		if best == nil || stat.Accuracy > best.Accuracy {
			b := stat
			best = &b
		}
		if worst == nil || stat.Accuracy < worst.Accuracy {
			w := stat
			worst = &w
		}
	}

	resp.BestSubject = best
	resp.WorstSubject = worst
	return resp
}

// nextCleanupAt 下一个会触发清理的答题计数
func (s *StatisticsService) nextCleanupAt(p *model.UserPerformanceProfile) uint {
	threshold := s.retention.Threshold
	if threshold == 0 {
		return 0
	}
	next := (p.TotalQuestions/threshold + 1) * threshold
	if p.TotalQuestions > 0 && p.TotalQuestions%threshold == 0 && p.LastCleanupAt != p.TotalQuestions {
		next = p.TotalQuestions
	}
	return next
}

func learningTrend(p *model.UserPerformanceProfile) string {
	if p.TotalQuestions == 0 || len(p.RecentOutcomes) == 0 {
		return "stable"
	}

	overall := p.OverallAccuracy(0)
	recent := p.RecentAccuracy(0)

	switch {
	case recent > overall+trendDelta:
		return "improving"
	case recent < overall-trendDelta:
		return "declining"
	default:
		return "stable"
	}
}
