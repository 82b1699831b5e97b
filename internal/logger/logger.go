// Package logger 提供统一的日志工具
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"
)

// Level 日志级别
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel 解析日志级别字符串
func ParseLevel(s string) Level {
	switch s {
	case "DEBUG", "debug":
		return DEBUG
	case "INFO", "info":
		return INFO
	case "WARN", "warn", "WARNING", "warning":
		return WARN
	case "ERROR", "error":
		return ERROR
	default:
		return INFO
	}
}

// sink 多个 Logger 共享的输出目标
type sink struct {
	mu      sync.Mutex
	level   Level
	enabled bool
	console io.Writer
	fileOut *os.File
	logger  *log.Logger
}

// Logger 日志记录器
type Logger struct {
	name string
	out  *sink
}

// 全局默认 logger
var defaultLogger = New()

// New 创建新的 Logger 实例
func New() *Logger {
	return &Logger{
		out: &sink{
			level:   INFO,
			enabled: true,
			console: os.Stdout,
			logger:  log.New(os.Stdout, "", 0),
		},
	}
}

// Default 获取默认 logger
func Default() *Logger {
	return defaultLogger
}

// Named 返回带组件名的子 logger，与父 logger 共享级别和输出
func (l *Logger) Named(name string) *Logger {
	if l.name != "" {
		name = l.name + "." + name
	}
	return &Logger{name: name, out: l.out}
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.level = level
}

// SetEnabled 设置是否启用日志
func (l *Logger) SetEnabled(enabled bool) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.enabled = enabled
}

// SetConsole 设置是否输出到控制台
func (l *Logger) SetConsole(enabled bool) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	if enabled {
		l.out.console = os.Stdout
	} else {
		l.out.console = nil
	}
	l.out.updateOutput()
}

// SetOutput 替换控制台输出（测试中用于捕获日志）
func (l *Logger) SetOutput(w io.Writer) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()
	l.out.console = w
	l.out.updateOutput()
}

// SetFile 设置是否输出到文件
func (l *Logger) SetFile(enabled bool, path string) error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	// 关闭旧文件
	if l.out.fileOut != nil {
		l.out.fileOut.Close()
		l.out.fileOut = nil
	}

	if enabled && path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			l.out.updateOutput()
			return fmt.Errorf("无法打开日志文件: %w", err)
		}
		l.out.fileOut = f
	}

	l.out.updateOutput()
	return nil
}

func (s *sink) updateOutput() {
	var writers []io.Writer

	if s.console != nil {
		writers = append(writers, s.console)
	}
	if s.fileOut != nil {
		writers = append(writers, s.fileOut)
	}

	switch len(writers) {
	case 0:
		s.logger.SetOutput(io.Discard)
	case 1:
		s.logger.SetOutput(writers[0])
	default:
		s.logger.SetOutput(io.MultiWriter(writers...))
	}
}

// log 内部日志方法
func (l *Logger) log(level Level, format string, args ...interface{}) {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if !l.out.enabled || level < l.out.level {
		return
	}

	timestamp := time.Now().Format("15:04:05")
	msg := fmt.Sprintf(format, args...)
	if l.name != "" {
		l.out.logger.Printf("%s | %-5s | %s | %s", timestamp, level.String(), l.name, msg)
		return
	}
	l.out.logger.Printf("%s | %-5s | %s", timestamp, level.String(), msg)
}

// Debug 输出 DEBUG 级别日志
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(DEBUG, format, args...)
}

// Info 输出 INFO 级别日志
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(INFO, format, args...)
}

// Warn 输出 WARN 级别日志
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(WARN, format, args...)
}

// Error 输出 ERROR 级别日志
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(ERROR, format, args...)
}

// LogMatch 记录一次匹配（或一帧处理）的结果
// 成功记为 INFO，失败记为 WARN，失败的帧会被跳过而不是中止
func (l *Logger) LogMatch(category string, ok bool, elapsed time.Duration, detail string) {
	ms := float64(elapsed.Microseconds()) / 1000
	if ok {
		l.Info("%-6s | OK | %7.1fms | %s", category, ms, detail)
	} else {
		l.Warn("%-6s | NG | %7.1fms | %s", category, ms, detail)
	}
}

// Close 关闭 logger，释放资源
func (l *Logger) Close() error {
	l.out.mu.Lock()
	defer l.out.mu.Unlock()

	if l.out.fileOut != nil {
		err := l.out.fileOut.Close()
		l.out.fileOut = nil
		l.out.updateOutput()
		return err
	}
	return nil
}

// 包级别便捷函数
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
func LogMatch(category string, ok bool, elapsed time.Duration, detail string) {
	defaultLogger.LogMatch(category, ok, elapsed, detail)
}
