package middleware

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// AccessLogStream 访问日志Redis流
const AccessLogStream = "access_logs"

// AccessLog 访问日志结构
type AccessLog struct {
	Time       time.Time `json:"time"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Query      string    `json:"query,omitempty"`
	IP         string    `json:"ip"`
	UserAgent  string    `json:"user_agent,omitempty"`
	StatusCode int       `json:"status_code"`
	Latency    int64     `json:"latency_ms"`
	UserID     string    `json:"user_id,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// InitLogger 初始化日志系统
// debug 模式使用控制台输出，其他模式使用JSON
func InitLogger(mode string) (*zap.Logger, error) {
	var zapConfig zap.Config

	if mode == gin.DebugMode || mode == "" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig = zap.NewProductionConfig()
	}
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	built, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	logger = built
	return built, nil
}

// Logger 当前全局日志实例，未初始化时为Nop
func Logger() *zap.Logger {
	return logger
}

// FlushLogger 刷新日志缓冲区
func FlushLogger() {
	_ = logger.Sync()
}

// AccessLogger 访问日志处理器
// 请求结束后入队，由worker写入zap并镜像到Redis流
type AccessLogger struct {
	logger *zap.Logger
	rdb    *redis.Client
	queue  chan *AccessLog
	wg     sync.WaitGroup
	once   sync.Once
}

// NewAccessLogger 创建访问日志处理器并启动worker池
func NewAccessLogger(l *zap.Logger, rdb *redis.Client, workers int) *AccessLogger {
	if l == nil {
		l = zap.NewNop()
	}
	if workers <= 0 {
		workers = 3
	}
	al := &AccessLogger{
		logger: l,
		rdb:    rdb,
		queue:  make(chan *AccessLog, 1000),
	}
	for i := 0; i < workers; i++ {
		al.wg.Add(1)
		go al.worker()
	}
	return al
}

func (al *AccessLogger) worker() {
	defer al.wg.Done()
	for entry := range al.queue {
		al.process(entry)
	}
}

// process 处理单条访问日志
func (al *AccessLogger) process(entry *AccessLog) {
	al.logger.Info("access_log",
		zap.String("method", entry.Method),
		zap.String("path", entry.Path),
		zap.String("query", entry.Query),
		zap.String("ip", entry.IP),
		zap.Int("status_code", entry.StatusCode),
		zap.Int64("latency_ms", entry.Latency),
		zap.String("user_id", entry.UserID),
		zap.String("request_id", entry.RequestID),
		zap.String("error", entry.Error),
	)

	if al.rdb == nil {
		return
	}

	data, _ := json.Marshal(entry)
	err := al.rdb.XAdd(context.Background(), &redis.XAddArgs{
		Stream: AccessLogStream,
		MaxLen: 100000,
		Approx: true,
		Values: map[string]interface{}{
			"timestamp":   entry.Time.Unix(),
			"method":      entry.Method,
			"path":        entry.Path,
			"status_code": entry.StatusCode,
			"latency_ms":  entry.Latency,
			"ip":          entry.IP,
			"user_id":     entry.UserID,
			"full_data":   string(data),
		},
	}).Err()
	if err != nil {
		al.logger.Debug("access log stream write failed", zap.Error(err))
	}
}

// Middleware 返回访问日志中间件
func (al *AccessLogger) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		entry := &AccessLog{
			Time:       start,
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			Query:      c.Request.URL.RawQuery,
			IP:         c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			StatusCode: c.Writer.Status(),
			Latency:    time.Since(start).Milliseconds(),
			UserID:     c.GetString(ContextUserID),
			RequestID:  requestID,
		}
		if len(c.Errors) > 0 {
			entry.Error = c.Errors.String()
		}

		// 队列满时丢弃，不阻塞请求
		select {
		case al.queue <- entry:
		default:
			al.logger.Warn("access log queue full, dropping entry",
				zap.String("method", entry.Method), zap.String("path", entry.Path))
		}
	}
}

// Close 停止接收并等待队列处理完
func (al *AccessLogger) Close() {
	al.once.Do(func() {
		close(al.queue)
		al.wg.Wait()
	})
}
