package router

import (
	"context"

	"job-board-go/internal/api/handler"
	"job-board-go/internal/config"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// RegisterRoutes 注册API路由
// 上传预检、简历上传和岗位查询无需鉴权；申请提交、简历回源下载和
// 运维开关挂载Bearer令牌鉴权，鉴权通过后中间件将申请人ID写入请求上下文。
func RegisterRoutes(h *server.Hertz, appHandler *handler.ApplicationHandler, authCfg *config.AuthConfig) {
	api := h.Group("/api")

	api.GET("/health", appHandler.HandleHealth)

	jobs := api.Group("/jobs")
	{
		jobs.GET("", appHandler.HandleListJobs)
		jobs.GET("/:job_id", appHandler.HandleGetJob)
	}

	applications := api.Group("/applications")
	{
		applications.GET("/upload-status", appHandler.HandleUploadStatus)
		applications.POST("/upload-resume", appHandler.HandleUploadResume)

		authed := applications.Group("", bearerAuth(authCfg))
		authed.POST("/submit", appHandler.HandleSubmit)
		authed.GET("/resumes/:resume_uuid", appHandler.HandleDownloadResume)
	}

	// 运维开关同样走令牌鉴权
	ops := api.Group("/ops", bearerAuth(authCfg))
	{
		ops.POST("/upload-gate/disable", appHandler.HandleDisableUploadGate)
		ops.POST("/upload-gate/enable", appHandler.HandleEnableUploadGate)
	}
}

// bearerAuth 构造Bearer令牌鉴权中间件
// 令牌到申请人ID的映射来自配置，校验通过后将ID写入上下文
func bearerAuth(authCfg *config.AuthConfig) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(c context.Context, ctx *app.RequestContext, token string) (bool, error) {
			applicantID, ok := authCfg.APIKeys[token]
			if !ok || applicantID == "" {
				return false, nil
			}
			ctx.Set(handler.ApplicantIDContextKey, applicantID)
			return true, nil
		}),
		keyauth.WithErrorHandler(func(c context.Context, ctx *app.RequestContext, err error) {
			ctx.JSON(consts.StatusUnauthorized, utils.H{"error": "请先登录后再提交申请"})
			ctx.Abort()
		}),
	)
}
