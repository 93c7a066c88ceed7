package router

import (
	"context"
	"errors"

	"github.com/ankurtiwari12/rjd-parser/internal/api/handler"
	"github.com/ankurtiwari12/rjd-parser/internal/config"
	"github.com/ankurtiwari12/rjd-parser/internal/parser"
	"github.com/ankurtiwari12/rjd-parser/internal/storage/models"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// NewAPIKeyMiddleware 创建基于Authorization头的API Key鉴权中间件。
// 配置中API Key为空时返回nil，表示不启用鉴权。
func NewAPIKeyMiddleware(cfg *config.ServerConfig) app.HandlerFunc {
	if cfg.APIKey == "" {
		return nil
	}
	return keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			return key == cfg.APIKey, nil
		}),
	)
}

// RegisterRoutes 注册 API 路由
func RegisterRoutes(h *server.Hertz, cfg *config.Config,
	documentHandler *handler.DocumentHandler, analysisHandler *handler.AnalysisHandler) {

	// 健康检查不鉴权
	h.GET("/api/v1/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})

	api := h.Group("/api/v1")
	if auth := NewAPIKeyMiddleware(&cfg.Server); auth != nil {
		api.Use(auth)
	}

	api.POST("/resume/upload", uploadRoute(cfg, documentHandler, models.DocTypeResume))
	api.POST("/jd/upload", uploadRoute(cfg, documentHandler, models.DocTypeJobDescription))

	// JD也支持纯文本提交
	api.POST("/jd/parse", func(c context.Context, ctx *app.RequestContext) {
		var req struct {
			Text string `json:"text"`
		}
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}

		resp, err := documentHandler.HandleTextSubmission(c, req.Text, models.DocTypeJobDescription)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	// 技能抽取同时接受表单字段text和JSON请求体
	api.POST("/skills/extract", func(c context.Context, ctx *app.RequestContext) {
		text := ctx.PostForm("text")
		if text == "" {
			var req struct {
				Text string `json:"text"`
			}
			if err := ctx.BindJSON(&req); err != nil {
				ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
				return
			}
			text = req.Text
		}

		resp, err := analysisHandler.HandleSkillExtract(c, text)
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/analyze/match", func(c context.Context, ctx *app.RequestContext) {
		var req handler.MatchRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}

		resp, err := analysisHandler.HandleMatch(c, &req)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.POST("/reports/generate", func(c context.Context, ctx *app.RequestContext) {
		var req handler.ReportRequest
		if err := ctx.BindJSON(&req); err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "请求体格式错误"})
			return
		}

		resp, err := analysisHandler.HandleReportGenerate(c, &req)
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, resp)
	})

	api.GET("/reports/:report_id/download", func(c context.Context, ctx *app.RequestContext) {
		reportID := ctx.Param("report_id")
		pdfURL, err := analysisHandler.HandleReportDownload(c, reportID)
		if err != nil {
			ctx.JSON(consts.StatusNotFound, utils.H{"error": err.Error()})
			return
		}
		ctx.JSON(consts.StatusOK, utils.H{"report_id": reportID, "pdf_url": pdfURL})
	})
}

// uploadRoute 构建文档上传路由处理函数
func uploadRoute(cfg *config.Config, documentHandler *handler.DocumentHandler, docType string) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		fileHeader, err := ctx.FormFile("file")
		if err != nil {
			ctx.JSON(consts.StatusBadRequest, utils.H{"error": "文件未找到"})
			return
		}

		maxSize := int64(cfg.Server.MaxUploadSizeMB) * 1024 * 1024
		if maxSize > 0 && fileHeader.Size > maxSize {
			ctx.JSON(consts.StatusRequestEntityTooLarge, utils.H{
				"error": "文件超出大小限制",
			})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			ctx.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
			return
		}
		defer file.Close()

		resp, err := documentHandler.HandleDocumentUpload(
			c,
			file,
			fileHeader.Size,
			fileHeader.Filename,
			docType,
		)
		if err != nil {
			ctx.JSON(statusForUploadError(err), utils.H{"error": err.Error()})
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	}
}

// statusForUploadError 将文档处理错误映射为HTTP状态码。
// 文件格式、空文档和无法解析的内容都是调用方错误。
func statusForUploadError(err error) int {
	switch {
	case errors.Is(err, parser.ErrUnsupportedFormat),
		errors.Is(err, parser.ErrEmptyDocument),
		errors.Is(err, parser.ErrExtractionFailed):
		return consts.StatusBadRequest
	default:
		return consts.StatusInternalServerError
	}
}
