package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ankurtiwari12/rjd-parser/internal/api/handler"
	"github.com/ankurtiwari12/rjd-parser/internal/api/router"
	"github.com/ankurtiwari12/rjd-parser/internal/config"
	"github.com/ankurtiwari12/rjd-parser/internal/extractor"
	appCoreLogger "github.com/ankurtiwari12/rjd-parser/internal/logger"
	"github.com/ankurtiwari12/rjd-parser/internal/matcher"
	"github.com/ankurtiwari12/rjd-parser/internal/parser"
	"github.com/ankurtiwari12/rjd-parser/internal/report"
	"github.com/ankurtiwari12/rjd-parser/internal/storage"
	"github.com/ankurtiwari12/rjd-parser/internal/taxonomy"
	"github.com/ankurtiwari12/rjd-parser/internal/tracing"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	hertzadapter "github.com/hertz-contrib/logger/zerolog"
)

var (
	version     = "1.0.0"      //nolint:gochecknoglobals
	serviceName = "rjd-parser" //nolint:gochecknoglobals
)

// @title RJD Parser API
// @version 1.0
// @description Resume / Job Description matching and scoring service.
// @BasePath /api/v1
func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "internal/config/config.yaml", "Path to config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	initLogger(cfg.Logger)
	glog.Infof("配置加载成功, 服务: %s v%s", serviceName, version)

	if sum := cfg.Matcher.Weights.Sum(); sum < 0.99 || sum > 1.01 {
		glog.Warnf("打分权重之和为 %.3f, 期望1.0, 结果分数可能超出[0,100]", sum)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 链路追踪
	shutdownTracing, err := tracing.InitProvider(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		ServiceName:  cfg.Tracing.ServiceName,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := shutdownTracing(shutdownCtx); err != nil {
			glog.Warnf("关闭TracerProvider失败: %v", err)
		}
	}()

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()
	glog.Info("存储服务初始化成功")

	// Embedding客户端，语义相似度打分使用
	dashScopeEmbedder, err := parser.NewDashScopeEmbedder(cfg.Aliyun.APIKey, cfg.Aliyun.Embedding)
	if err != nil {
		glog.Fatalf("初始化DashScope Embedder失败: %v", err)
	}
	glog.Infof("DashScope Embedder初始化成功, 模型: %s", dashScopeEmbedder.ModelVersion())

	// Chat模型，报告生成使用。生成失败或超时的请求走确定性降级模板
	llmChatModel, err := parser.NewDashScopeChatModel(cfg.Aliyun.APIKey, cfg.Report.ModelName, cfg.Aliyun.APIURL)
	if err != nil {
		glog.Fatalf("初始化DashScope Chat模型失败: %v", err)
	}
	glog.Infof("DashScope Chat模型初始化成功, 模型: %s", cfg.Report.ModelName)

	textExtractor, err := parser.NewTextExtractor(ctx)
	if err != nil {
		glog.Fatalf("初始化文本提取器失败: %v", err)
	}
	glog.Info("文本提取器初始化成功")

	// NER客户端可选，未配置时只做词表模糊匹配
	var recognizer parser.EntityRecognizer
	if cfg.NER.ServerURL != "" {
		nerOptions := []parser.NEROption{}
		if cfg.NER.Timeout > 0 {
			nerOptions = append(nerOptions, parser.WithNERTimeout(time.Duration(cfg.NER.Timeout)*time.Second))
		}
		if cfg.NER.Model != "" {
			nerOptions = append(nerOptions, parser.WithNERModel(cfg.NER.Model))
		}
		recognizer = parser.NewNERClient(cfg.NER.ServerURL, nerOptions...)
		glog.Infof("NER客户端初始化成功: %s", cfg.NER.ServerURL)
	} else {
		glog.Warn("未配置NER服务, 技能抽取仅使用词表模糊匹配")
	}

	// 词表扩展只在启动阶段进行，开始服务后词表只读
	taxonomy.Extend(taxonomy.CategoryTechSkill, cfg.Extractor.ExtraTechSkills)
	taxonomy.Extend(taxonomy.CategorySoftSkill, cfg.Extractor.ExtraSoftSkills)
	taxonomy.Extend(taxonomy.CategoryCertification, cfg.Extractor.ExtraCertifications)
	taxonomy.ExtendDegreeKeywords(cfg.Matcher.DegreeKeywords)

	extractorOptions := []extractor.Option{extractor.WithFuzzyThreshold(cfg.Extractor.FuzzyThreshold)}
	if policy := extractor.PolicyFromConfig(cfg.Extractor.LabelPolicy); policy != nil {
		extractorOptions = append(extractorOptions, extractor.WithLabelPolicy(policy))
		glog.Infof("使用配置中的NER标签路由, 共%d个标签", len(policy))
	}
	skillExtractor := extractor.New(recognizer, extractorOptions...)
	glog.Info("技能抽取器初始化成功")

	matcherOptions := []matcher.Option{matcher.WithWeights(cfg.Matcher.Weights)}
	if storageManager.Redis != nil {
		matcherOptions = append(matcherOptions,
			matcher.WithJDVectorCache(storageManager.Redis, dashScopeEmbedder.ModelVersion()))
		glog.Info("JD向量缓存已启用")
	}
	skillMatcher := matcher.New(dashScopeEmbedder, matcherOptions...)
	glog.Info("匹配打分器初始化成功")

	reportGenerator := report.NewGenerator(llmChatModel,
		report.WithMaxTokens(cfg.Report.MaxTokens),
		report.WithTemperature(float32(cfg.Report.Temperature)),
		report.WithGenTimeout(config.GetDuration(cfg.Report.GenTimeout, 60*time.Second)),
	)
	glog.Info("报告生成器初始化成功")

	documentHandler := handler.NewDocumentHandler(cfg, storageManager, textExtractor)
	analysisHandler := handler.NewAnalysisHandler(cfg, storageManager, skillExtractor, skillMatcher, reportGenerator)

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.New(
		tracer,
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	h.Use(func(c context.Context, ctx *app.RequestContext) {
		glog.CtxInfof(c, "Request: %s %s", string(ctx.Method()), string(ctx.Path()))
		ctx.Next(c)
		glog.CtxInfof(c, "Response: status %d", ctx.Response.StatusCode())
	})

	router.RegisterRoutes(h, cfg, documentHandler, analysisHandler)
	glog.Info("HTTP路由注册成功")

	glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)

	go func() {
		if err := h.Run(); err != nil {
			glog.Fatalf("启动HTTP服务器失败: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Fatalf("服务器关闭失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger(logCfg config.LoggerConfig) {
	logFilePath := "logs/app.log"
	if err := os.MkdirAll("logs", 0755); err != nil {
		log.Fatalf("无法创建日志目录: %v", err)
	}
	fileWriter, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Fatalf("无法打开日志文件 %s: %v", logFilePath, err)
	}

	timeFormat := logCfg.TimeFormat
	if timeFormat == "" {
		timeFormat = "15:04:05"
	}
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: timeFormat,
	}

	multiWriter := zerolog.MultiLevelWriter(consoleWriter, fileWriter)

	level, err := zerolog.ParseLevel(logCfg.Level)
	if err != nil || logCfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = timeFormat

	logCtx := zerolog.New(multiWriter).With().Timestamp()
	if logCfg.ReportCaller {
		logCtx = logCtx.Caller()
	}
	logger := logCtx.Logger()

	// 全局zerolog实例与Hertz glog共用同一个输出
	appCoreLogger.Logger = logger
	zlog.Logger = logger

	glog.SetLogger(hertzadapter.From(appCoreLogger.Logger))
	glog.SetLevel(zerologToHertzLevel(level))
}

func zerologToHertzLevel(level zerolog.Level) glog.Level {
	switch level {
	case zerolog.TraceLevel:
		return glog.LevelTrace
	case zerolog.DebugLevel:
		return glog.LevelDebug
	case zerolog.WarnLevel:
		return glog.LevelWarn
	case zerolog.ErrorLevel:
		return glog.LevelError
	default:
		return glog.LevelInfo
	}
}
