package repository

import (
	"context"
	"encoding/json"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/pkg/logger"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const poolCacheKeyPrefix = "question_pool:"

// QuestionRepository 题库访问 按科目整包读取，Redis 缓存一层（出题会全量打分，单题查询无意义）
type QuestionRepository struct {
	DB       *gorm.DB
	Redis    *redis.Client
	CacheTTL time.Duration
}

func NewQuestionRepository(db *gorm.DB, rdb *redis.Client, cacheTTL time.Duration) *QuestionRepository {
	return &QuestionRepository{DB: db, Redis: rdb, CacheTTL: cacheTTL}
}

func (r *QuestionRepository) Create(q *model.Question) error {
	return r.DB.Create(q).Error
}

func (r *QuestionRepository) FindByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.First(&q, id).Error
	return &q, err
}

// ListBySubject 返回科目下全部题目，tag 非空时做大小写不敏感的子串过滤
func (r *QuestionRepository) ListBySubject(subjectID uint, tag string) ([]model.Question, error) {
	questions, err := r.loadPool(subjectID)
	if err != nil {
		return nil, err
	}

	if tag == "" {
		return questions, nil
	}

	needle := strings.ToLower(tag)
	filtered := make([]model.Question, 0, len(questions))
	for _, q := range questions {
		if strings.Contains(strings.ToLower(q.Tag), needle) {
			filtered = append(filtered, q)
		}
	}
	return filtered, nil
}

// loadPool 缓存按科目整包，tag 过滤在内存做，避免缓存键爆炸
func (r *QuestionRepository) loadPool(subjectID uint) ([]model.Question, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("%s%d", poolCacheKeyPrefix, subjectID)

	if r.Redis != nil {
		val, err := r.Redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached []model.Question
			if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
				return cached, nil
			}
			// 缓存损坏直接删掉走库
			r.Redis.Del(ctx, cacheKey)
		}
	}

	var questions []model.Question
	if err := r.DB.Where("subject_id = ?", subjectID).Find(&questions).Error; err != nil {
		return nil, err
	}

	if r.Redis != nil && len(questions) > 0 {
		payload, err := json.Marshal(questions)
		if err == nil {
			if err := r.Redis.Set(ctx, cacheKey, payload, r.CacheTTL).Err(); err != nil {
				logger.Log.Warn("Failed to cache question pool", zap.Uint("subjectId", subjectID), zap.Error(err))
			}
		}
	}

	return questions, nil
}

// InvalidatePool 题目增删后失效对应科目的缓存
func (r *QuestionRepository) InvalidatePool(subjectID uint) {
	if r.Redis == nil {
		return
	}
	cacheKey := fmt.Sprintf("%s%d", poolCacheKeyPrefix, subjectID)
	r.Redis.Del(context.Background(), cacheKey)
}
