// Package logger 构建 zap 日志器，并在 context 中携带请求 id。
package logger

import (
	"context"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotate 文件写入 + 切割
type Rotate struct {
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type Options struct {
	Level string // debug / info / warn / error；无法解析时用 info
	JSON  bool
	App   string
	Env   string // local 使用开发模式：彩色控制台、不采样
	File  *Rotate
	Out   zapcore.WriteSyncer // 为空时写 stdout
}

// New 返回日志器与收尾函数（刷盘并关闭切割文件）
func New(o Options) (*zap.Logger, func()) {
	lvl, err := zapcore.ParseLevel(o.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	dev := o.Env == "local"
	enc := encoder(o.JSON)

	out := o.Out
	if out == nil {
		out = zapcore.Lock(os.Stdout)
	}
	cores := []zapcore.Core{zapcore.NewCore(enc, out, lvl)}

	var rot *lumberjack.Logger
	if o.File != nil && o.File.Filename != "" {
		rot = &lumberjack.Logger{
			Filename:   o.File.Filename,
			MaxSize:    max(1, o.File.MaxSizeMB),
			MaxBackups: max(0, o.File.MaxBackups),
			MaxAge:     max(0, o.File.MaxAgeDays),
			Compress:   o.File.Compress,
		}
		// 文件始终 JSON，便于采集
		cores = append(cores, zapcore.NewCore(encoder(true), zapcore.AddSync(rot), lvl))
	}

	core := zapcore.NewTee(cores...)
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if dev {
		opts = append(opts, zap.Development())
	} else {
		core = zapcore.NewSamplerWithOptions(core, time.Second, 100, 100)
	}
	l := zap.New(core, opts...)
	if o.App != "" {
		l = l.With(zap.String("app", o.App), zap.String("env", o.Env))
	}

	return l, func() {
		_ = l.Sync()
		if rot != nil {
			_ = rot.Close()
		}
	}
}

func encoder(json bool) zapcore.Encoder {
	if json {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.EncodeCaller = zapcore.ShortCallerEncoder
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeCaller = zapcore.ShortCallerEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

/* ================== 请求 id ================== */

type ridKey struct{}

// WithRequestID 把请求 id 放进 context
func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ridKey{}, rid)
}

// RequestID 取出请求 id；没有时为空串
func RequestID(ctx context.Context) string {
	rid, _ := ctx.Value(ridKey{}).(string)
	return rid
}

// For 带上请求 id 的子日志器
func For(ctx context.Context, l *zap.Logger) *zap.Logger {
	if rid := RequestID(ctx); rid != "" {
		return l.With(zap.String("rid", rid))
	}
	return l
}

/* ================== 标准库桥接 ================== */

type lineWriter struct {
	l     *zap.Logger
	level zapcore.Level
}

// Write 每次写入记一条日志；空行丢弃
func (w lineWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\r\n")
	if msg == "" {
		return len(p), nil
	}
	if ce := w.l.Check(w.level, msg); ce != nil {
		ce.Write()
	}
	return len(p), nil
}

// ToWriter gin.DefaultWriter 等 io.Writer 接到 zap
func ToWriter(l *zap.Logger, level zapcore.Level) io.Writer {
	return lineWriter{l: l.WithOptions(zap.WithCaller(false)), level: level}
}

// ToStdLogger 给 http.Server.ErrorLog 用
func ToStdLogger(l *zap.Logger, level zapcore.Level) (*log.Logger, error) {
	return zap.NewStdLogAt(l, level)
}

// RedirectStdLog 全局 log 包输出改写到 zap，返回恢复函数
func RedirectStdLog(l *zap.Logger, level zapcore.Level) func() {
	undo, err := zap.RedirectStdLogAt(l, level)
	if err != nil {
		return func() {}
	}
	return undo
}
