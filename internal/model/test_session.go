package model

import "time"

// TestSession 一次练习测验 批量出题后由前端逐题提交，end-test 时汇总
// swagger:model TestSession
type TestSession struct {
	UUIDBase
	UserID           uint       `gorm:"index;not null" json:"userId"`
	SubjectID        uint       `gorm:"index;not null" json:"subjectId"`
	Tag              string     `gorm:"size:255" json:"tag"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          *time.Time `json:"endedAt,omitempty"`
	IsCompleted      bool       `gorm:"default:false" json:"isCompleted"`
	TotalQuestions   int        `gorm:"default:0" json:"totalQuestions"`
	CorrectAnswers   int        `gorm:"default:0" json:"correctAnswers"`
	IncorrectAnswers int        `gorm:"default:0" json:"incorrectAnswers"`
}

func (TestSession) TableName() string {
	return "test_sessions"
}
