package repository

import (
	"encoding/json"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository 学习者画像快照持久化 一人一行，整包 JSON
type ProfileRepository struct {
	DB *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{DB: db}
}

// LoadAll 启动时整表加载 单行损坏跳过并告警，不让个别坏数据拖垮整个引擎
func (r *ProfileRepository) LoadAll() (map[uint]*model.UserPerformanceProfile, error) {
	var rows []model.PerformanceSnapshot
	if err := r.DB.Find(&rows).Error; err != nil {
		return nil, err
	}

	profiles := make(map[uint]*model.UserPerformanceProfile, len(rows))
	for _, row := range rows {
		profile := model.NewUserPerformanceProfile()
		if err := json.Unmarshal(row.Payload, profile); err != nil {
			logger.Log.Warn("Corrupt performance snapshot skipped",
				zap.Uint("userId", row.UserID), zap.Error(err))
			continue
		}
		// JSON 中的 null 会把 map 置空，补回空 map 保证懒创建语义
		if profile.BySubject == nil {
			profile.BySubject = make(map[uint]*model.Counter)
		}
		if profile.ByTopic == nil {
			profile.ByTopic = make(map[model.TopicKey]*model.Counter)
		}
		if profile.ByDifficulty == nil {
			profile.ByDifficulty = make(map[int]*model.Counter)
		}
		profiles[row.UserID] = profile
	}
	return profiles, nil
}

// Save 覆盖写入单个学习者的快照
func (r *ProfileRepository) Save(userID uint, profile *model.UserPerformanceProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	snapshot := model.PerformanceSnapshot{
		UserID:  userID,
		Payload: payload,
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
	}).Create(&snapshot).Error
}
