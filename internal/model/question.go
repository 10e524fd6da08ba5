package model

import "encoding/json"

// Question 练习题 题库按科目/知识点/难度(1-6)组织
// swagger:model Question
type Question struct {
	BaseModel
	SubjectID   uint            `gorm:"index;not null" json:"subjectId"`
	TopicID     uint            `gorm:"index;not null" json:"topicId"`
	SubTopicID  uint            `gorm:"index" json:"subTopicId"`
	Difficulty  int             `gorm:"not null;default:3" json:"difficulty"`
	Content     string          `gorm:"type:text;not null" json:"content"`
	Options     json.RawMessage `gorm:"type:json" json:"options"`
	Answer      string          `gorm:"size:255" json:"-"`
	Tag         string          `gorm:"size:255;index" json:"tag"`
	Explanation string          `gorm:"type:text" json:"explanation,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

// 难度分桶边界，选题分层和就绪度模型共用
const (
	DifficultyEasyMax   = 2 // <=2 简单
	DifficultyMediumMax = 4 // 3-4 中等，>=5 困难
)
