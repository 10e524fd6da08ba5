package model

import "time"

// Submission 学生答题记录 原始事件，统计口径以内存画像为准
// swagger:model Submission
type Submission struct {
	BaseModel
	UserID        uint      `gorm:"index;not null" json:"userId"`
	QuestionID    uint      `gorm:"index;not null" json:"questionId"`
	TestSessionID string    `gorm:"size:36;index" json:"testSessionId"`
	Selected      string    `gorm:"size:255" json:"selected"`
	IsCorrect     bool      `gorm:"default:false" json:"isCorrect"`
	IsSkipped     bool      `gorm:"default:false" json:"isSkipped"`
	AnsweredAt    time.Time `json:"answeredAt"`
}

func (Submission) TableName() string {
	return "submissions"
}
