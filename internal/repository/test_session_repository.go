package repository

import (
	"errors"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/util"

	"gorm.io/gorm"
)

type TestSessionRepository struct {
	DB *gorm.DB
}

func NewTestSessionRepository(db *gorm.DB) *TestSessionRepository {
	return &TestSessionRepository{DB: db}
}

func (r *TestSessionRepository) Create(s *model.TestSession) error {
	return r.DB.Create(s).Error
}

func (r *TestSessionRepository) FindByIDAndUser(id string, userID uint) (*model.TestSession, error) {
	var s model.TestSession
	err := r.DB.Where("id = ? AND user_id = ?", id, userID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrTestSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *TestSessionRepository) Update(s *model.TestSession) error {
	return r.DB.Save(s).Error
}
