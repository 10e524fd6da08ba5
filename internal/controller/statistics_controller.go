package controller

import (
	"exam_prep_backend/internal/service"
	"exam_prep_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type StatisticsController struct {
	StatisticsService *service.StatisticsService
}

func NewStatisticsController(statisticsService *service.StatisticsService) *StatisticsController {
	return &StatisticsController{StatisticsService: statisticsService}
}

// GetEngineStats godoc
// @Summary 学习画像总览
// @Description 答题总量、正确率、近期正确率与下一次数据清理触发点
// @Tags 统计
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.EngineStatsResponse} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/stats [get]
func (c *StatisticsController) GetEngineStats(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, c.StatisticsService.EngineStats(claims.UserID))
}

// GetSubjectBreakdown godoc
// @Summary 分科目统计
// @Description 各科目答题数与正确率，答满 30 题的科目开放 AI 预测
// @Tags 统计
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.SubjectStats} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/stats/subjects [get]
func (c *StatisticsController) GetSubjectBreakdown(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, c.StatisticsService.SubjectBreakdown(claims.UserID))
}

// GetInsights godoc
// @Summary 学习洞察
// @Description 最强/最弱科目与近期学习趋势
// @Tags 统计
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.InsightsResponse} "成功"
// @Failure 401 {object} util.Response "未授权"
// @Router /api/stats/insights [get]
func (c *StatisticsController) GetInsights(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, c.StatisticsService.Insights(claims.UserID))
}
