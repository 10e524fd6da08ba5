package controller

import (
	"encoding/json"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/repository"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// QuestionController 题库管理 仅管理员可用
type QuestionController struct {
	QuestionRepo *repository.QuestionRepository
}

func NewQuestionController(questionRepo *repository.QuestionRepository) *QuestionController {
	return &QuestionController{QuestionRepo: questionRepo}
}

// CreateQuestionRequest 新建题目入参
type CreateQuestionRequest struct {
	SubjectID   uint            `json:"subjectId" binding:"required"`
	TopicID     uint            `json:"topicId" binding:"required"`
	SubTopicID  uint            `json:"subTopicId"`
	Difficulty  int             `json:"difficulty" binding:"required,min=1,max=6"`
	Content     string          `json:"content" binding:"required"`
	Options     json.RawMessage `json:"options" binding:"required"`
	Answer      string          `json:"answer" binding:"required"`
	Tag         string          `json:"tag"`
	Explanation string          `json:"explanation"`
}

// CreateQuestion godoc
// @Summary 新建题目
// @Description 向题库添加题目并失效对应科目的缓存
// @Tags 题库
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body CreateQuestionRequest true "题目内容"
// @Success 201 {object} util.Response{data=model.Question} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 403 {object} util.Response "无权限"
// @Router /api/admin/questions [post]
func (c *QuestionController) CreateQuestion(ctx *gin.Context) {
	var req CreateQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	q := &model.Question{
		SubjectID:   req.SubjectID,
		TopicID:     req.TopicID,
		SubTopicID:  req.SubTopicID,
		Difficulty:  req.Difficulty,
		Content:     req.Content,
		Options:     req.Options,
		Answer:      req.Answer,
		Tag:         req.Tag,
		Explanation: req.Explanation,
	}

	if err := c.QuestionRepo.Create(q); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	// 题库变了，整包缓存直接作废
	c.QuestionRepo.InvalidatePool(q.SubjectID)

	util.Created(ctx, q)
}
