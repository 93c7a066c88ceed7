package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ankurtiwari12/rjd-parser/internal/config"
	"github.com/ankurtiwari12/rjd-parser/internal/logger"
	"github.com/ankurtiwari12/rjd-parser/internal/parser"
	"github.com/ankurtiwari12/rjd-parser/internal/storage"
	"github.com/ankurtiwari12/rjd-parser/internal/storage/models"

	"github.com/gofrs/uuid/v5"
	"gorm.io/gorm"
)

// DocumentHandler 文档处理器，负责上传、去重和文本提取的协调
type DocumentHandler struct {
	cfg       *config.Config
	storage   *storage.Storage
	extractor *parser.TextExtractor
}

// NewDocumentHandler 创建文档处理器
func NewDocumentHandler(cfg *config.Config, storage *storage.Storage, extractor *parser.TextExtractor) *DocumentHandler {
	return &DocumentHandler{
		cfg:       cfg,
		storage:   storage,
		extractor: extractor,
	}
}

// DocumentUploadResponse 文档上传响应
type DocumentUploadResponse struct {
	SubmissionUUID string `json:"submission_uuid"`
	DocType        string `json:"doc_type"`
	Filename       string `json:"filename,omitempty"`
	Status         string `json:"status"`
	Text           string `json:"text,omitempty"`
	TextChars      int    `json:"text_chars"`
	Duplicate      bool   `json:"duplicate,omitempty"`
}

// HandleDocumentUpload 处理文档上传请求。
// 流程: 上传原始文件到MinIO(同时计算MD5) -> Redis去重 -> 文本提取 -> 落库。
func (h *DocumentHandler) HandleDocumentUpload(ctx context.Context, reader io.Reader, fileSize int64,
	filename string, docType string) (*DocumentUploadResponse, error) {

	if docType != models.DocTypeResume && docType != models.DocTypeJobDescription {
		return nil, fmt.Errorf("不支持的文档类型: %s", docType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !h.isSupportedExtension(ext) {
		return nil, parser.NewUnsupportedFormatError(filename, ext)
	}

	// 读取文件内容，后续文本提取需要完整字节
	fileBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("读取上传文件内容失败: %w", err)
	}

	// 生成UUIDv7作为提交标识
	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	submissionUUID := uuidV7.String()

	// 上传原始文件到MinIO，流式计算MD5
	objectKey, fileMD5, err := h.storage.MinIO.UploadOriginalStreaming(
		ctx, submissionUUID, ext, bytes.NewReader(fileBytes), int64(len(fileBytes)))
	if err != nil {
		return nil, fmt.Errorf("上传文件到MinIO失败: %w", err)
	}

	// Redis去重检查，重复文件直接返回已有的提交记录
	if h.storage.Redis != nil {
		exists, existingUUID, err := h.storage.Redis.CheckAndSetFileMD5(ctx, fileMD5, submissionUUID)
		if err != nil {
			// 去重检查失败不阻断上传流程
			logger.Warn().Err(err).Str("md5", fileMD5).Msg("文件MD5去重检查失败，继续处理")
		} else if exists {
			logger.Info().
				Str("md5", fileMD5).
				Str("filename", filename).
				Str("existing_uuid", existingUUID).
				Msg("检测到重复的文件MD5，复用已有提交")

			// 刚上传的副本不再需要
			if err := h.storage.MinIO.DeleteOriginal(ctx, objectKey); err != nil {
				logger.Warn().Err(err).Str("object_key", objectKey).Msg("删除重复上传的对象失败")
			}

			return h.duplicateResponse(ctx, existingUUID, docType)
		}
	}

	submission := &models.Submission{
		SubmissionUUID:      submissionUUID,
		DocType:             docType,
		OriginalFilename:    filename,
		OriginalFilePathOSS: objectKey,
		FileMD5:             fileMD5,
		Status:              models.SubmissionStatusUploaded,
	}
	if err := h.storage.MySQL.CreateSubmission(ctx, submission); err != nil {
		return nil, fmt.Errorf("保存提交记录失败: %w", err)
	}

	// 提取文本
	text, err := h.extractor.ExtractText(ctx, fileBytes, filename)
	if err != nil {
		if errDb := h.storage.MySQL.UpdateSubmissionStatus(ctx, submissionUUID, models.SubmissionStatusFailed); errDb != nil {
			logger.Error().Err(errDb).Str("submission_uuid", submissionUUID).Msg("更新提交状态为EXTRACTION_FAILED失败")
		}
		// 去重记录回滚，允许重新上传同一文件
		if h.storage.Redis != nil {
			if errRedis := h.storage.Redis.RemoveFileMD5(ctx, fileMD5); errRedis != nil {
				logger.Warn().Err(errRedis).Str("md5", fileMD5).Msg("回滚文件MD5去重记录失败")
			}
		}
		return nil, fmt.Errorf("提取文档文本失败: %w", err)
	}

	if err := h.storage.MySQL.UpdateSubmissionText(ctx, submissionUUID, text); err != nil {
		return nil, fmt.Errorf("保存提取文本失败: %w", err)
	}

	logger.Info().
		Str("submission_uuid", submissionUUID).
		Str("doc_type", docType).
		Str("filename", filename).
		Int("text_chars", len([]rune(text))).
		Msg("文档上传处理完成")

	return &DocumentUploadResponse{
		SubmissionUUID: submissionUUID,
		DocType:        docType,
		Filename:       filename,
		Status:         models.SubmissionStatusExtracted,
		Text:           text,
		TextChars:      len([]rune(text)),
	}, nil
}

// HandleTextSubmission 处理纯文本提交（无需文件上传的JD或简历文本）
func (h *DocumentHandler) HandleTextSubmission(ctx context.Context, text string, docType string) (*DocumentUploadResponse, error) {
	if docType != models.DocTypeResume && docType != models.DocTypeJobDescription {
		return nil, fmt.Errorf("不支持的文档类型: %s", docType)
	}
	if strings.TrimSpace(text) == "" {
		return nil, parser.NewEmptyDocumentError("(inline text)")
	}

	uuidV7, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	submissionUUID := uuidV7.String()

	submission := &models.Submission{
		SubmissionUUID: submissionUUID,
		DocType:        docType,
		ExtractedText:  text,
		TextChars:      len([]rune(text)),
		Status:         models.SubmissionStatusExtracted,
	}
	if err := h.storage.MySQL.CreateSubmission(ctx, submission); err != nil {
		return nil, fmt.Errorf("保存提交记录失败: %w", err)
	}

	return &DocumentUploadResponse{
		SubmissionUUID: submissionUUID,
		DocType:        docType,
		Status:         models.SubmissionStatusExtracted,
		Text:           text,
		TextChars:      len([]rune(text)),
	}, nil
}

// GetSubmissionText 获取提交记录的提取文本
func (h *DocumentHandler) GetSubmissionText(ctx context.Context, submissionUUID string) (*models.Submission, error) {
	submission, err := h.storage.MySQL.GetSubmissionByUUID(ctx, submissionUUID)
	if err != nil {
		return nil, fmt.Errorf("查询提交记录失败: %w", err)
	}
	if submission.Status != models.SubmissionStatusExtracted {
		return nil, fmt.Errorf("提交 %s 的文本尚不可用，当前状态: %s", submissionUUID, submission.Status)
	}
	return submission, nil
}

// duplicateResponse 构建重复文件的响应
func (h *DocumentHandler) duplicateResponse(ctx context.Context, existingUUID string, docType string) (*DocumentUploadResponse, error) {
	resp := &DocumentUploadResponse{
		SubmissionUUID: existingUUID,
		DocType:        docType,
		Status:         "DUPLICATE_FILE",
		Duplicate:      true,
	}

	// 尽力补充已有提交的信息，查不到也不影响去重结果
	if existingUUID != "" {
		submission, err := h.storage.MySQL.GetSubmissionByUUID(ctx, existingUUID)
		if err == nil {
			resp.Status = submission.Status
			resp.TextChars = submission.TextChars
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn().Err(err).Str("submission_uuid", existingUUID).Msg("查询已有提交记录失败")
		}
	}
	return resp, nil
}

// isSupportedExtension 检查扩展名是否受支持
func (h *DocumentHandler) isSupportedExtension(ext string) bool {
	for _, supported := range parser.SupportedExtensions() {
		if ext == supported {
			return true
		}
	}
	return false
}
