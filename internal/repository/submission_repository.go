package repository

import (
	"exam_prep_backend/internal/model"

	"gorm.io/gorm"
)

type SubmissionRepository struct {
	DB *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: db}
}

func (r *SubmissionRepository) Create(s *model.Submission) error {
	return r.DB.Create(s).Error
}

// AnsweredQuestionIDs 学习者答过的题目集合，用于出题去重
func (r *SubmissionRepository) AnsweredQuestionIDs(userID uint) (map[uint]bool, error) {
	var ids []uint
	err := r.DB.Model(&model.Submission{}).
		Where("user_id = ?", userID).
		Distinct().
		Pluck("question_id", &ids).Error
	if err != nil {
		return nil, err
	}

	answered := make(map[uint]bool, len(ids))
	for _, id := range ids {
		answered[id] = true
	}
	return answered, nil
}

// CountBySubject 学习者在某科目下的提交数（含重复作答，口径与经验分层一致）
func (r *SubmissionRepository) CountBySubject(userID, subjectID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Submission{}).
		Joins("JOIN questions ON questions.id = submissions.question_id").
		Where("submissions.user_id = ? AND questions.subject_id = ?", userID, subjectID).
		Count(&count).Error
	return count, err
}

func (r *SubmissionRepository) ListBySession(sessionID string) ([]model.Submission, error) {
	var subs []model.Submission
	err := r.DB.Where("test_session_id = ?", sessionID).Find(&subs).Error
	return subs, err
}
