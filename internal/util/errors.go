package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrEmailRegistered     = errors.New("该邮箱已被注册")
	ErrInvalidCredentials  = errors.New("邮箱或密码错误")
	ErrTestSessionNotFound = errors.New("test session not found")
	ErrPermissionDenied    = errors.New("permission denied")
)

// InsufficientQuestionsError 题库可用题目不足 30 道
// 携带过滤后实际找到的数量，直接透传给调用方。
type InsufficientQuestionsError struct {
	Found int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("insufficient questions in pool: found %d, need 30", e.Found)
}

// PredictionError 就绪度模型内部故障 调用侧用兜底启发式恢复，不向外抛
type PredictionError struct {
	Model  string
	Reason string
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("%s model prediction failed: %s", e.Model, e.Reason)
}
