package app

import (
	"exam_prep_backend/internal/config"
	"exam_prep_backend/internal/middleware"
	"exam_prep_backend/internal/model"
	"exam_prep_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		practice := authGroup.Group("/practice")
		{
			practice.POST("/answers", c.practice.SubmitAnswer)
			practice.POST("/predict", c.practice.PredictReadiness)
			practice.GET("/batch", c.practice.GetBatch)
			practice.POST("/tests", c.practice.StartTest)
			practice.POST("/tests/:id/end", c.practice.EndTest)
		}

		stats := authGroup.Group("/stats")
		{
			stats.GET("", c.statistics.GetEngineStats)
			stats.GET("/subjects", c.statistics.GetSubjectBreakdown)
			stats.GET("/insights", c.statistics.GetInsights)
		}
	}

	// 3. 管理员接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/questions", c.question.CreateQuestion)
	}
}
