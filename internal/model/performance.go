package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// RecentOutcomeWindow 短期趋势窗口大小
const RecentOutcomeWindow = 10

// Counter 单维度答题计数 不变式: Correct <= Total
type Counter struct {
	Total   uint `json:"total"`
	Correct uint `json:"correct"`
}

// Accuracy 正确率，Total 为 0 时返回 fallback（冷启动中性先验）
func (c Counter) Accuracy(fallback float64) float64 {
	if c.Total == 0 {
		return fallback
	}
	return float64(c.Correct) / float64(c.Total)
}

// TopicKey (科目, 知识点) 复合键
type TopicKey struct {
	SubjectID uint
	TopicID   uint
}

// JSON 的 map 键必须是字符串，序列化为 "subjectID:topicID"
func (k TopicKey) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%d:%d", k.SubjectID, k.TopicID)), nil
}

func (k *TopicKey) UnmarshalText(text []byte) error {
	_, err := fmt.Sscanf(string(text), "%d:%d", &k.SubjectID, &k.TopicID)
	return err
}

// UserPerformanceProfile 学习者滚动表现画像
// 只能通过 PerformanceStore.Update 修改；首次访问时懒创建，只裁剪不销毁。
type UserPerformanceProfile struct {
	TotalQuestions uint                  `json:"totalQuestions"`
	CorrectAnswers uint                  `json:"correctAnswers"`
	BySubject      map[uint]*Counter     `json:"bySubject"`
	ByTopic        map[TopicKey]*Counter `json:"byTopic"`
	ByDifficulty   map[int]*Counter      `json:"byDifficulty"`
	RecentOutcomes []bool                `json:"recentOutcomes"`
	LastActivity   *time.Time            `json:"lastActivity,omitempty"`
	// LastCleanupAt 上次数据清理时的 TotalQuestions，防止同一计数重复触发清理
	LastCleanupAt uint `json:"lastCleanupAt"`
}

func NewUserPerformanceProfile() *UserPerformanceProfile {
	return &UserPerformanceProfile{
		BySubject:    make(map[uint]*Counter),
		ByTopic:      make(map[TopicKey]*Counter),
		ByDifficulty: make(map[int]*Counter),
	}
}

// SubjectCounter 按需创建科目计数器
func (p *UserPerformanceProfile) SubjectCounter(subjectID uint) *Counter {
	c, ok := p.BySubject[subjectID]
	if !ok {
		c = &Counter{}
		p.BySubject[subjectID] = c
	}
	return c
}

func (p *UserPerformanceProfile) TopicCounter(subjectID, topicID uint) *Counter {
	key := TopicKey{SubjectID: subjectID, TopicID: topicID}
	c, ok := p.ByTopic[key]
	if !ok {
		c = &Counter{}
		p.ByTopic[key] = c
	}
	return c
}

func (p *UserPerformanceProfile) DifficultyCounter(difficulty int) *Counter {
	c, ok := p.ByDifficulty[difficulty]
	if !ok {
		c = &Counter{}
		p.ByDifficulty[difficulty] = c
	}
	return c
}

// OverallAccuracy 总体正确率，无历史时返回 fallback
func (p *UserPerformanceProfile) OverallAccuracy(fallback float64) float64 {
	if p.TotalQuestions == 0 {
		return fallback
	}
	return float64(p.CorrectAnswers) / float64(p.TotalQuestions)
}

// RecentAccuracy 最近窗口内正确率，窗口为空时返回 fallback
func (p *UserPerformanceProfile) RecentAccuracy(fallback float64) float64 {
	if len(p.RecentOutcomes) == 0 {
		return fallback
	}
	correct := 0
	for _, ok := range p.RecentOutcomes {
		if ok {
			correct++
		}
	}
	return float64(correct) / float64(len(p.RecentOutcomes))
}

// Clone 深拷贝，供预测侧做一致性快照读
func (p *UserPerformanceProfile) Clone() *UserPerformanceProfile {
	cp := &UserPerformanceProfile{
		TotalQuestions: p.TotalQuestions,
		CorrectAnswers: p.CorrectAnswers,
		BySubject:      make(map[uint]*Counter, len(p.BySubject)),
		ByTopic:        make(map[TopicKey]*Counter, len(p.ByTopic)),
		ByDifficulty:   make(map[int]*Counter, len(p.ByDifficulty)),
		LastCleanupAt:  p.LastCleanupAt,
	}
	for k, v := range p.BySubject {
		c := *v
		cp.BySubject[k] = &c
	}
	for k, v := range p.ByTopic {
		c := *v
		cp.ByTopic[k] = &c
	}
	for k, v := range p.ByDifficulty {
		c := *v
		cp.ByDifficulty[k] = &c
	}
	if len(p.RecentOutcomes) > 0 {
		cp.RecentOutcomes = append([]bool(nil), p.RecentOutcomes...)
	}
	if p.LastActivity != nil {
		t := *p.LastActivity
		cp.LastActivity = &t
	}
	return cp
}

// QuestionContext 单次预测的题目上下文，不落库
type QuestionContext struct {
	LearnerID  uint `json:"learnerId"`
	SubjectID  uint `json:"subjectId"`
	TopicID    uint `json:"topicId"`
	SubTopicID uint `json:"subTopicId"`
	Difficulty int  `json:"difficulty"`
}

// PerformanceSnapshot 画像持久化快照 每个学习者一行，Payload 为画像 JSON
type PerformanceSnapshot struct {
	BaseModel
	UserID  uint            `gorm:"uniqueIndex;not null" json:"userId"`
	Payload json.RawMessage `gorm:"type:json" json:"payload"`
}

func (PerformanceSnapshot) TableName() string {
	return "performance_snapshots"
}
