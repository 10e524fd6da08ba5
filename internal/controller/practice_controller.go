package controller

import (
	"errors"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type PracticeController struct {
	PracticeService *service.PracticeService
}

func NewPracticeController(practiceService *service.PracticeService) *PracticeController {
	return &PracticeController{PracticeService: practiceService}
}

// SubmitAnswer godoc
// @Summary 提交答案
// @Description 提交一道题的作答结果，跳过的题不计入表现画像
// @Tags 练习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body service.SubmitAnswerRequest true "作答内容"
// @Success 200 {object} util.Response{data=service.SubmitAnswerResponse} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/practice/answers [post]
func (c *PracticeController) SubmitAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.PracticeService.SubmitAnswer(claims.UserID, &req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}

// PredictRequest 就绪度预测入参
type PredictRequest struct {
	SubjectID  uint `json:"subjectId" binding:"required"`
	TopicID    uint `json:"topicId" binding:"required"`
	SubTopicID uint `json:"subTopicId"`
	Difficulty int  `json:"difficulty" binding:"required,min=1,max=6"`
}

// PredictReadiness godoc
// @Summary 就绪度预测
// @Description 预测学习者答对指定知识点/难度题目的概率
// @Tags 练习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body PredictRequest true "题目上下文"
// @Success 200 {object} util.Response{data=service.PredictionResponse} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/practice/predict [post]
func (c *PracticeController) PredictReadiness(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req PredictRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp := c.PracticeService.PredictReadiness(claims.UserID, model.QuestionContext{
		SubjectID:  req.SubjectID,
		TopicID:    req.TopicID,
		SubTopicID: req.SubTopicID,
		Difficulty: req.Difficulty,
	})

	util.Success(ctx, resp)
}

// GetBatch godoc
// @Summary 获取一批练习题
// @Description 按学习者表现画像出 30 道题，支持 tag 过滤
// @Tags 练习
// @Produce  json
// @Security ApiKeyAuth
// @Param   subjectId query int true "科目ID"
// @Param   tag query string false "标签过滤，大小写不敏感子串匹配"
// @Success 200 {object} util.Response{data=service.BatchResponse} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 422 {object} util.Response "题库可用题目不足"
// @Router /api/practice/batch [get]
func (c *PracticeController) GetBatch(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	subjectID, err := strconv.ParseUint(ctx.Query("subjectId"), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "subjectId 必须为正整数")
		return
	}

	resp, err := c.PracticeService.RequestBatch(claims.UserID, uint(subjectID), ctx.Query("tag"))
	if err != nil {
		c.handleBatchError(ctx, err)
		return
	}

	util.Success(ctx, resp)
}

// StartTestRequest 开始测验入参
type StartTestRequest struct {
	SubjectID uint   `json:"subjectId" binding:"required"`
	Tag       string `json:"tag"`
}

// StartTest godoc
// @Summary 开始测验
// @Description 创建测验会话并返回一批题目
// @Tags 练习
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body StartTestRequest true "测验配置"
// @Success 201 {object} util.Response{data=service.BatchResponse} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 422 {object} util.Response "题库可用题目不足"
// @Router /api/practice/tests [post]
func (c *PracticeController) StartTest(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req StartTestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.PracticeService.StartTest(claims.UserID, req.SubjectID, req.Tag)
	if err != nil {
		c.handleBatchError(ctx, err)
		return
	}

	util.Created(ctx, resp)
}

// EndTest godoc
// @Summary 结束测验
// @Description 结束测验会话并汇总成绩，重复调用返回已有结果
// @Tags 练习
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "测验会话ID"
// @Success 200 {object} util.Response{data=service.TestSummaryResponse} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Failure 404 {object} util.Response "会话不存在"
// @Router /api/practice/tests/{id}/end [post]
func (c *PracticeController) EndTest(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	resp, err := c.PracticeService.EndTest(claims.UserID, ctx.Param("id"))
	if err != nil {
		if errors.Is(err, util.ErrTestSessionNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, resp)
}

// handleBatchError 出题失败分流：题不够给 422 并带上实际数量，其余按 500 处理
func (c *PracticeController) handleBatchError(ctx *gin.Context, err error) {
	var insufficient *util.InsufficientQuestionsError
	if errors.As(err, &insufficient) {
		ctx.JSON(http.StatusUnprocessableEntity, util.Response{
			Code:    http.StatusUnprocessableEntity,
			Message: "题库可用题目不足",
			Data:    gin.H{"found": insufficient.Found},
		})
		return
	}
	util.LogInternalError(ctx, err)
}
