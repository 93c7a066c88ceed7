package storage

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ankurtiwari12/rjd-parser/internal/config"
	"github.com/ankurtiwari12/rjd-parser/internal/logger"

	"github.com/ankurtiwari12/rjd-parser/internal/tracing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/lifecycle"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var minioTracer = otel.Tracer("rjd-parser/storage/minio")

// ObjectStorage 对象存储接口
type ObjectStorage interface {
	// UploadOriginalStreaming 流式上传原始上传文件并同时计算MD5
	UploadOriginalStreaming(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error)

	// GetOriginal 下载原始上传文件
	GetOriginal(ctx context.Context, objectKey string) ([]byte, error)

	// UploadReportPDF 上传报告PDF
	UploadReportPDF(ctx context.Context, reportID string, data []byte) (string, error)

	// GetReportPDF 下载报告PDF
	GetReportPDF(ctx context.Context, objectKey string) ([]byte, error)

	// GetReportPresignedURL 获取报告PDF的预签名下载URL
	GetReportPresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)

	// DeleteOriginal 删除原始上传文件
	DeleteOriginal(ctx context.Context, objectKey string) error
}

// 确保MinIO实现了ObjectStorage接口
var _ ObjectStorage = (*MinIO)(nil)

// MinIO 提供对象存储功能
type MinIO struct {
	client          *minio.Client
	cfg             *config.MinIOConfig
	originalsBucket string
	reportsBucket   string
	logger          zerolog.Logger
}

// NewMinIO 创建MinIO客户端
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}

	// 创建MinIO客户端
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	// 设置存储桶名称
	originalsBucket := cfg.OriginalsBucket
	if originalsBucket == "" {
		originalsBucket = "originals" // 默认值
	}
	reportsBucket := cfg.ReportsBucket
	if reportsBucket == "" {
		reportsBucket = "reports" // 默认值
	}

	m := &MinIO{
		client:          client,
		cfg:             cfg,
		originalsBucket: originalsBucket,
		reportsBucket:   reportsBucket,
		logger:          logger.Logger.With().Str("component", "MinIO").Logger(),
	}

	// 确保存储桶存在
	if err := m.ensureBucketExists(originalsBucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保原始文件存储桶 %s 存在失败: %w", originalsBucket, err)
	}
	if err := m.ensureBucketExists(reportsBucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("确保报告存储桶 %s 存在失败: %w", reportsBucket, err)
	}

	// 设置生命周期规则
	if cfg.OriginalFileExpireDays > 0 || cfg.ReportExpireDays > 0 {
		if err := m.setupLifecycleRules(context.Background()); err != nil {
			m.logger.Warn().Err(err).Msg("设置对象生命周期规则失败")
		}
	}

	m.logger.Info().Str("endpoint", cfg.Endpoint).
		Str("originals_bucket", originalsBucket).
		Str("reports_bucket", reportsBucket).
		Msg("MinIO客户端初始化成功")
	return m, nil
}

// ensureBucketExists 确保存储桶存在
func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", bucketName, err)
	}
	if !exists {
		err = m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location})
		if err != nil {
			return fmt.Errorf("创建存储桶 %s 失败: %w", bucketName, err)
		}
		m.logger.Info().Str("bucket", bucketName).Msg("存储桶已创建")
	}
	return nil
}

// setupLifecycleRules 设置对象生命周期规则
func (m *MinIO) setupLifecycleRules(ctx context.Context) error {
	if m.cfg.OriginalFileExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.originalsBucket, "expire-originals", m.cfg.OriginalFileExpireDays); err != nil {
			return fmt.Errorf("为原始文件存储桶 %s 设置生命周期失败: %w", m.originalsBucket, err)
		}
	}
	if m.cfg.ReportExpireDays > 0 {
		if err := m.setupBucketLifecycle(ctx, m.reportsBucket, "expire-reports", m.cfg.ReportExpireDays); err != nil {
			return fmt.Errorf("为报告存储桶 %s 设置生命周期失败: %w", m.reportsBucket, err)
		}
	}
	return nil
}

// setupBucketLifecycle 为指定存储桶设置生命周期规则
func (m *MinIO) setupBucketLifecycle(ctx context.Context, bucketName, ruleID string, expiryDays int) error {
	lcConfig := lifecycle.NewConfiguration()
	lcConfig.Rules = []lifecycle.Rule{
		{
			ID:     ruleID,
			Status: "Enabled",
			Expiration: lifecycle.Expiration{
				Days: lifecycle.ExpirationDays(expiryDays),
			},
		},
	}

	if err := m.client.SetBucketLifecycle(ctx, bucketName, lcConfig); err != nil {
		return err
	}
	m.logger.Debug().Str("bucket", bucketName).Int("expiry_days", expiryDays).Msg("生命周期规则已设置")
	return nil
}

// UploadOriginalStreaming 流式上传原始文件并同时计算MD5
// 返回: objectKey, md5Hex, error
func (m *MinIO) UploadOriginalStreaming(ctx context.Context, submissionUUID, fileExt string, reader io.Reader, fileSize int64) (string, string, error) {
	ctx, span := minioTracer.Start(ctx, "MinIO.UploadOriginalStreaming",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	objectName := fmt.Sprintf("submissions/%s/original%s", submissionUUID, fileExt)
	contentType := getContentType(fileExt)

	span.SetAttributes(
		attribute.String("object_storage.bucket", m.originalsBucket),
		attribute.String("object_storage.key", objectName),
		attribute.Int64("object_storage.size", fileSize),
	)

	// 使用TeeReader在上传的同时计算MD5
	md5Hash := md5.New()
	teeReader := io.TeeReader(reader, md5Hash)

	info, err := m.client.PutObject(ctx, m.originalsBucket, objectName, teeReader,
		fileSize, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return "", "", fmt.Errorf("流式上传文件到MinIO失败: %w", err)
	}

	md5Hex := hex.EncodeToString(md5Hash.Sum(nil))
	span.SetStatus(codes.Ok, "")

	if m.cfg.EnableTestLogging {
		m.logger.Debug().
			Str("object", objectName).
			Str("etag", info.ETag).
			Int64("size", info.Size).
			Str("md5", md5Hex).
			Msg("原始文件上传完成")
	}

	return objectName, md5Hex, nil
}

// GetOriginal 下载原始上传文件
func (m *MinIO) GetOriginal(ctx context.Context, objectKey string) ([]byte, error) {
	return m.downloadObject(ctx, m.originalsBucket, objectKey)
}

// UploadReportPDF 上传报告PDF，返回对象键
func (m *MinIO) UploadReportPDF(ctx context.Context, reportID string, data []byte) (string, error) {
	ctx, span := minioTracer.Start(ctx, "MinIO.UploadReportPDF",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	objectName := fmt.Sprintf("reports/%s/report.pdf", reportID)
	span.SetAttributes(
		attribute.String("object_storage.bucket", m.reportsBucket),
		attribute.String("object_storage.key", objectName),
	)

	_, err := m.client.PutObject(ctx, m.reportsBucket, objectName, bytes.NewReader(data),
		int64(len(data)), minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeStorage)
		return "", fmt.Errorf("上传报告PDF %s 到存储桶 %s 失败: %w", objectName, m.reportsBucket, err)
	}
	span.SetStatus(codes.Ok, "")

	m.logger.Debug().Str("object", objectName).Int("size", len(data)).Msg("报告PDF上传完成")
	return objectName, nil
}

// GetReportPDF 下载报告PDF
func (m *MinIO) GetReportPDF(ctx context.Context, objectKey string) ([]byte, error) {
	return m.downloadObject(ctx, m.reportsBucket, objectKey)
}

// GetReportPresignedURL 获取报告PDF的预签名下载URL
func (m *MinIO) GetReportPresignedURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	presignedURL, err := m.client.PresignedGetObject(ctx, m.reportsBucket, objectKey, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("生成MinIO预签名URL失败: %w", err)
	}
	return presignedURL.String(), nil
}

// DeleteOriginal 删除原始上传文件
func (m *MinIO) DeleteOriginal(ctx context.Context, objectKey string) error {
	err := m.client.RemoveObject(ctx, m.originalsBucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("删除对象 %s 失败: %w", objectKey, err)
	}
	return nil
}

// downloadObject 从指定存储桶下载对象
func (m *MinIO) downloadObject(ctx context.Context, bucketName, objectKey string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucketName, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", bucketName, objectKey, err)
	}
	defer obj.Close()

	// Stat确认对象存在且可访问
	stat, err := obj.Stat()
	if err != nil {
		return nil, fmt.Errorf("获取对象 %s/%s 状态失败: %w", bucketName, objectKey, err)
	}

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", bucketName, objectKey, err)
	}

	m.logger.Debug().
		Str("bucket", bucketName).
		Str("object", objectKey).
		Int64("size", stat.Size).
		Msg("对象下载完成")
	return data, nil
}

// 获取内容类型
func getContentType(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
