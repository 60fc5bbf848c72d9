package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger アプリケーション共通のロガー
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NopLogger 何も出力しないロガー（テスト用）
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

// ZerologLogger rs/zerolog による Logger の実装
type ZerologLogger struct {
	log zerolog.Logger
}

// New コンポーネント名付きのロガーを作成
// APP_ENV=dev の場合は人が読みやすいコンソール形式、それ以外はJSONで出力
func New(component, level string) Logger {
	var out io.Writer = os.Stdout
	if strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(out, component, level)
}

// NewWithWriter 出力先を指定してロガーを作成
func NewWithWriter(out io.Writer, component, level string) Logger {
	z := zerolog.New(out).
		Level(parseLevel(level)).
		With().Timestamp().Str("component", component).
		Logger()
	return &ZerologLogger{log: z}
}

// parseLevel LOG_LEVEL の値（DEBUG/INFO/WARN/ERROR）を zerolog のレベルに変換
func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *ZerologLogger) Debugf(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

func (l *ZerologLogger) Infof(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

func (l *ZerologLogger) Warnf(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

func (l *ZerologLogger) Errorf(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
